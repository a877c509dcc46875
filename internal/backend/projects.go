package backend

import "context"

func (c *Client) ListProjects(ctx context.Context, token string) ([]Project, error) {
	body, err := c.get(ctx, "/projects/", nil, token, "Failed to load projects")
	if err != nil {
		return nil, err
	}
	return decodeList[Project](body, "projects")
}

// CreateProject posts the project_name form field and returns the created
// project. Name falls back to the requested name when the response omits it.
func (c *Client) CreateProject(ctx context.Context, token, name string) (*Project, error) {
	body, err := c.postMultipart(ctx, "/projects/", token, []formField{{"project_name", name}}, nil, "Failed to create a project")
	if err != nil {
		return nil, err
	}
	p := &Project{}
	if !decodeOptional(body, p) || p.ID == 0 {
		return nil, ErrNoProjectID
	}
	if p.Name == "" {
		p.Name = name
	}
	return p, nil
}

func (c *Client) DeleteProject(ctx context.Context, token string, id int64) error {
	return c.delete(ctx, idPath("/projects/", id), token, "Failed to delete project")
}
