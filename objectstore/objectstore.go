// Package objectstore pushes uploaded archives to a cloud folder.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("objectstore: no upload target configured")

// Uploader creates a file from name and body and returns its remote id.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Enabled() bool
}

type noopUploader struct{}

func NewNoopUploader() Uploader {
	return noopUploader{}
}

func (noopUploader) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

func (noopUploader) Enabled() bool { return false }

// DriveUploader stores files in one Google Drive folder.
type DriveUploader struct {
	folderId string
	service  *drive.Service
}

func NewDriveUploader(ctx context.Context, folderId, credentialsFile string) (*DriveUploader, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveUploader{folderId: folderId, service: service}, nil
}

func (u *DriveUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	file := &drive.File{Name: name}
	if u.folderId != "" {
		file.Parents = []string{u.folderId}
	}
	created, err := u.service.Files.Create(file).
		Media(body, googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload %s: %w", name, err)
	}
	log.Infof("Drive: uploaded %s as %s", name, created.Id)
	return created.Id, nil
}

func (u *DriveUploader) Enabled() bool { return true }
