package backend

import "context"

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	body, err := c.get(ctx, "/users/", nil, token, "Error fetching users!")
	if err != nil {
		return nil, err
	}
	return decodeList[User](body, "users")
}

func (c *Client) CreateUser(ctx context.Context, token string, u NewUser) error {
	u.UserID = ""
	_, err := c.postJSON(ctx, "/users/", token, u, "Failed to create user")
	return err
}

func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.delete(ctx, idPath("/users/", id), token, "Failed to delete user")
}
