package backend

import (
	"context"
	"strconv"
)

type DocumentUpload struct {
	File             FilePart
	FileName         string
	UploaderUsername string
	ProjectID        int64
}

func (c *Client) ListDocuments(ctx context.Context, token string, projectID int64) ([]Document, error) {
	body, err := c.get(ctx, "/documentation/get_documents", projectQuery(projectID), token, "Failed to fetch documents!")
	if err != nil {
		return nil, err
	}
	return decodeList[Document](body, "documents")
}

// UploadDocument returns the stored document; the result is nil when the
// backend acknowledges without describing it.
func (c *Client) UploadDocument(ctx context.Context, token string, up DocumentUpload) (*Document, error) {
	fields := []formField{
		{"file_name", up.FileName},
		{"uploader_username", up.UploaderUsername},
		{"project_id", strconv.FormatInt(up.ProjectID, 10)},
	}
	body, err := c.postMultipart(ctx, "/documentation/upload_doc", token, fields, &up.File, "Failed to upload file!")
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if !decodeOptional(body, doc) {
		return nil, nil
	}
	return doc, nil
}
