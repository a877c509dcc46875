package backend

import (
	"context"
	"strconv"
)

type MediaUpload struct {
	File      FilePart
	FileName  string
	Uploader  string
	ProjectID int64
}

func (c *Client) ListMedia(ctx context.Context, token string, projectID int64) ([]MediaItem, error) {
	body, err := c.get(ctx, "/media/get_media", projectQuery(projectID), token, "Failed to fetch media!")
	if err != nil {
		return nil, err
	}
	return decodeList[MediaItem](body, "media")
}

// UploadMedia sends the uploader under the backend's uploader_email field.
func (c *Client) UploadMedia(ctx context.Context, token string, up MediaUpload) (*MediaItem, error) {
	fields := []formField{
		{"file_name", up.FileName},
		{"uploader_email", up.Uploader},
		{"project_id", strconv.FormatInt(up.ProjectID, 10)},
	}
	body, err := c.postMultipart(ctx, "/media/upload_media", token, fields, &up.File, "Failed to upload file!")
	if err != nil {
		return nil, err
	}
	item := &MediaItem{}
	if !decodeOptional(body, item) {
		return nil, nil
	}
	return item, nil
}
