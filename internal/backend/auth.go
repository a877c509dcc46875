package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	Role        string `json:"role"`
	IsAdmin     *bool  `json:"is_admin"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a bearer token. The backend has answered
// with a raw token, a JSON string, and a JSON object over time; all three are
// accepted.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := c.postJSON(ctx, "/login/login", "", loginRequest{Username: username, Password: password}, "Invalid credentials!")
	if err != nil {
		return nil, err
	}
	res, err := parseLogin(body)
	if err != nil {
		return nil, err
	}
	if res.Username == "" {
		res.Username = username
	}
	return res, nil
}

func parseLogin(body []byte) (*LoginResult, error) {
	trimmed := bytes.TrimSpace(body)
	res := &LoginResult{}

	switch {
	case len(trimmed) == 0:
		return nil, ErrNoToken
	case trimmed[0] == '{':
		var lr loginResponse
		if err := json.Unmarshal(trimmed, &lr); err != nil {
			return nil, err
		}
		res.Token = firstNonEmpty(lr.AccessToken, lr.Token)
		res.Username = lr.Username
		res.Role = lr.Role
		if res.Role == "" && lr.IsAdmin != nil {
			res.Role = RoleUser
			if *lr.IsAdmin {
				res.Role = RoleAdmin
			}
		}
	case trimmed[0] == '"':
		if err := json.Unmarshal(trimmed, &res.Token); err != nil {
			return nil, err
		}
	default:
		res.Token = string(trimmed)
	}

	res.Token = strings.TrimPrefix(strings.TrimSpace(res.Token), "Bearer ")
	if res.Token == "" {
		return nil, ErrNoToken
	}
	return res, nil
}
