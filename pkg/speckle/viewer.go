package speckle

import "net/url"

const embedFragment = "#embed=%7B%22isEnabled%22%3Atrue%2C%7D"

// ViewerURL returns the embeddable viewer address of a model version.
func ViewerURL(host, projectID, modelID, versionID string) string {
	u := "https://" + host + "/projects/" + url.PathEscape(projectID) + "/models/" + url.PathEscape(modelID)
	if versionID != "" {
		u += "@" + url.PathEscape(versionID)
	}
	return u + embedFragment
}
