package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const defaultDriveTimeout = 10 * time.Second

// DriveFile is the subset of Drive metadata the invoice workflow needs.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	ModifiedTime string `json:"modified_time,omitempty"`
}

// DriveClient lists files on behalf of a user holding a Drive access token.
type DriveClient struct {
	timeout time.Duration
	opts    []option.ClientOption
}

// queryEscaper quotes a value for a Drive query string literal.
var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// NewDriveClient bounds every listing call by timeout. Extra client options
// are used to point the client at a test server.
func NewDriveClient(timeout time.Duration, opts ...option.ClientOption) *DriveClient {
	if timeout <= 0 {
		timeout = defaultDriveTimeout
	}
	return &DriveClient{timeout: timeout, opts: opts}
}

// ListFolder returns up to limit non-trashed files directly inside folderID.
func (c *DriveClient) ListFolder(ctx context.Context, accessToken, folderID string, limit int64) ([]DriveFile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(src)}, c.opts...)

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}

	q := fmt.Sprintf("'%s' in parents and trashed = false", queryEscaper.Replace(folderID))
	resp, err := srv.Files.List().
		Q(q).
		PageSize(limit).
		Fields("files(id, name, mimeType, modifiedTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list Drive folder: %w", err)
	}

	files := make([]DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, DriveFile{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
		})
	}
	return files, nil
}
