package speckle

import (
	"context"
	"fmt"
)

const projectQuery = `query Project($projectId: String!, $limit: Int!) {
  project(id: $projectId) {
    id
    name
    models(limit: $limit) {
      items { id name createdAt updatedAt }
    }
  }
}`

const versionsQuery = `query Versions($projectId: String!, $modelId: String!, $limit: Int!) {
  project(id: $projectId) {
    model(id: $modelId) {
      versions(limit: $limit) {
        items {
          id
          referencedObject
          message
          sourceApplication
          createdAt
          authorUser { id name }
        }
      }
    }
  }
}`

// Project returns a project and up to modelsLimit of its models.
func (c *Client) Project(ctx context.Context, projectID string, modelsLimit int) (*Project, error) {
	var data struct {
		Project *struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Models struct {
				Items []Model `json:"items"`
			} `json:"models"`
		} `json:"project"`
	}
	vars := map[string]any{"projectId": projectID, "limit": modelsLimit}
	if err := c.query(ctx, projectQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetching project %s: %w", projectID, err)
	}
	if data.Project == nil {
		return nil, fmt.Errorf("fetching project %s: not found", projectID)
	}
	return &Project{
		ID:     data.Project.ID,
		Name:   data.Project.Name,
		Models: data.Project.Models.Items,
	}, nil
}

// Versions returns up to limit versions of a model, newest first.
func (c *Client) Versions(ctx context.Context, projectID, modelID string, limit int) ([]Version, error) {
	var data struct {
		Project *struct {
			Model *struct {
				Versions struct {
					Items []Version `json:"items"`
				} `json:"versions"`
			} `json:"model"`
		} `json:"project"`
	}
	vars := map[string]any{"projectId": projectID, "modelId": modelID, "limit": limit}
	if err := c.query(ctx, versionsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetching versions of %s/%s: %w", projectID, modelID, err)
	}
	if data.Project == nil || data.Project.Model == nil {
		return nil, fmt.Errorf("fetching versions of %s/%s: model not found", projectID, modelID)
	}
	return data.Project.Model.Versions.Items, nil
}

// LatestVersion returns the newest version of a model, or ErrNoVersions.
func (c *Client) LatestVersion(ctx context.Context, projectID, modelID string) (Version, error) {
	versions, err := c.Versions(ctx, projectID, modelID, 1)
	if err != nil {
		return Version{}, err
	}
	if len(versions) == 0 {
		return Version{}, fmt.Errorf("%s/%s: %w", projectID, modelID, ErrNoVersions)
	}
	return versions[0], nil
}
