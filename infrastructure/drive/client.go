package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"video-processing/domain/video"
)

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error)
	CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// UploadFile uploads a local file into folderID
func (s *GoogleDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: fileName, MimeType: mimeType}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	return s.service.Files.Create(meta).
		Media(f, googleapi.ContentType(mimeType)).
		Fields("id, name, mimeType, size, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// CreatePermission grants a permission on a file
func (s *GoogleDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	_, err := s.service.Permissions.Create(fileID, permission).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	return err
}

// Client publishes finished outputs to a Google Drive folder
type Client struct {
	driveService DriveService
	folderID     string
	shareLinks   bool
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// WithFolderID sets the folder uploads are placed in
func WithFolderID(folderID string) ClientOption {
	return func(c *Client) {
		c.folderID = folderID
	}
}

// WithShareLinks makes uploads readable by anyone with the link
func WithShareLinks(share bool) ClientOption {
	return func(c *Client) {
		c.shareLinks = share
	}
}

// NewClient creates a new Google Drive client
// If no drive service option is provided, it authenticates with a service
// account credentials file
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// Save implements video.Library. It returns the file's web view link.
func (c *Client) Save(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)
	file, err := c.driveService.UploadFile(ctx, name, "video/mp4", c.folderID, path)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	if c.shareLinks {
		perm := &drive.Permission{Type: "anyone", Role: "reader"}
		if err := c.driveService.CreatePermission(ctx, file.Id, perm); err != nil {
			return "", fmt.Errorf("failed to share %s: %w", name, err)
		}
	}

	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", file.Id), nil
}

// Ensure Client implements video.Library
var _ video.Library = (*Client)(nil)
