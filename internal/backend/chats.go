package backend

import (
	"context"
	"strconv"
)

func (c *Client) ListMessages(ctx context.Context, token string, projectID int64) ([]ChatMessage, error) {
	body, err := c.get(ctx, "/chats/get_messages", projectQuery(projectID), token, "Failed to fetch messages!")
	if err != nil {
		return nil, err
	}
	return decodeList[ChatMessage](body, "messages")
}

// SendMessage returns the stored message, or nil when the backend only
// acknowledged the send.
func (c *Client) SendMessage(ctx context.Context, token, message string, projectID int64, sender string) (*ChatMessage, error) {
	fields := []formField{
		{"message", message},
		{"project_id", strconv.FormatInt(projectID, 10)},
		{"sender_username", sender},
	}
	body, err := c.postMultipart(ctx, "/chats/send_message", token, fields, nil, "Failed to send message!")
	if err != nil {
		return nil, err
	}
	msg := &ChatMessage{}
	if !decodeOptional(body, msg) || msg.Message == "" {
		return nil, nil
	}
	return msg, nil
}
