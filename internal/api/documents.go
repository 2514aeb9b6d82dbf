package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
)

// uploadRequest is the body of POST /upload
type uploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// UploadDocument stores a text document with the service for later indexing
func (c *Client) UploadDocument(ctx context.Context, filename string, content []byte) (*models.UploadResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apierrors.NewParseError("filename must not be empty", models.EndpointUpload)
	}
	if !utf8.Valid(content) {
		return nil, apierrors.NewParseError("document content must be UTF-8 text", models.EndpointUpload)
	}

	body, err := c.doJSON(ctx, "POST", models.EndpointUpload, uploadRequest{
		Filename: filename,
		Content:  string(content),
	})
	if err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apierrors.NewParseError("failed to decode upload response: "+err.Error(), models.EndpointUpload)
	}
	if result.DocID == "" {
		return nil, apierrors.NewParseError("upload response has no doc_id", models.EndpointUpload)
	}

	c.logger.Info("document uploaded",
		zap.String("filename", filename),
		zap.String("doc_id", result.DocID),
		zap.String("s3_key", result.S3Key))

	return &result, nil
}

// FetchStatus reads the stored response of a session. An empty sessionID
// asks the service for its default session.
func (c *Client) FetchStatus(ctx context.Context, sessionID string) (*models.FetchResult, error) {
	endpoint := models.EndpointFetch
	if id := strings.TrimSpace(sessionID); id != "" {
		endpoint += "/" + url.PathEscape(id)
	}

	body, err := c.doJSON(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result models.FetchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apierrors.NewParseError("failed to decode fetch response: "+err.Error(), endpoint)
	}
	return &result, nil
}
