package drive

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"
)

// mockDriveService is a mock implementation for testing
type mockDriveService struct {
	uploadErr     error
	permissionErr error
	webViewLink   string
	uploads       []string
	folders       []string
	permissions   []*drive.Permission
}

func (m *mockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, localPath)
	m.folders = append(m.folders, folderID)
	return &drive.File{
		Id:          "uploaded-file-id",
		Name:        fileName,
		MimeType:    mimeType,
		WebViewLink: m.webViewLink,
	}, nil
}

func (m *mockDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	if m.permissionErr != nil {
		return m.permissionErr
	}
	m.permissions = append(m.permissions, permission)
	return nil
}

func newTestClient(t *testing.T, svc *mockDriveService, opts ...ClientOption) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), "unused.json", append([]ClientOption{WithDriveService(svc)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestClient_Save(t *testing.T) {
	svc := &mockDriveService{webViewLink: "https://drive.google.com/file/d/uploaded-file-id/view?usp=drivesdk"}
	c := newTestClient(t, svc, WithFolderID("folder-123"))

	path := filepath.Join("work", "trim-20240309-140506-abcd1234.mp4")
	location, err := c.Save(context.Background(), path)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if location != svc.webViewLink {
		t.Errorf("Save() = %q, want web view link", location)
	}
	if len(svc.uploads) != 1 || svc.uploads[0] != path {
		t.Errorf("uploads = %v, want [%s]", svc.uploads, path)
	}
	if svc.folders[0] != "folder-123" {
		t.Errorf("folder = %q, want folder-123", svc.folders[0])
	}
	if len(svc.permissions) != 0 {
		t.Error("shared a file without WithShareLinks")
	}
}

func TestClient_Save_ShareLinks(t *testing.T) {
	svc := &mockDriveService{}
	c := newTestClient(t, svc, WithShareLinks(true))

	location, err := c.Save(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.Contains(location, "uploaded-file-id") {
		t.Errorf("Save() = %q, want link built from the file id", location)
	}
	if len(svc.permissions) != 1 || svc.permissions[0].Type != "anyone" || svc.permissions[0].Role != "reader" {
		t.Errorf("permissions = %+v, want anyone/reader", svc.permissions)
	}
}

func TestClient_Save_Errors(t *testing.T) {
	tests := []struct {
		name        string
		svc         *mockDriveService
		share       bool
		errContains string
	}{
		{"upload fails", &mockDriveService{uploadErr: errors.New("quota exceeded")}, false, "failed to upload"},
		{"share fails", &mockDriveService{permissionErr: errors.New("forbidden")}, true, "failed to share"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.svc, WithShareLinks(tt.share))
			_, err := c.Save(context.Background(), "out.mp4")
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Save() = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "unable to read credentials file") {
		t.Errorf("NewClient() = %v, want credentials error", err)
	}
}
