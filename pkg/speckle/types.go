package speckle

import "time"

// Project is a server project with its models.
type Project struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Models []Model `json:"models"`
}

// Model is one model (branch) of a project.
type Model struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Version is one commit of a model.
type Version struct {
	ID                string    `json:"id"`
	ReferencedObject  string    `json:"referencedObject"`
	Message           string    `json:"message"`
	SourceApplication string    `json:"sourceApplication"`
	CreatedAt         time.Time `json:"createdAt"`
	Author            *User     `json:"authorUser"`
}

// AuthorName returns the author's display name, or "" when unknown.
func (v Version) AuthorName() string {
	if v.Author == nil {
		return ""
	}
	return v.Author.Name
}

// User is a server account.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
