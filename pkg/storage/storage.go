// Package storage keeps uploaded workbooks on the local filesystem, one
// directory per session.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Upload stores a file under the session and returns its metadata
	Upload(ctx context.Context, sessionID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, sessionID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, sessionID uuid.UUID, fileID uuid.UUID) error

	// DeleteAll removes every file a session has uploaded, used when the
	// session itself is swept
	DeleteAll(ctx context.Context, sessionID uuid.UUID) error

	// List returns all files for a session
	List(ctx context.Context, sessionID uuid.UUID) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, sessionID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)

	// GetReader returns a reader for a file (for streaming processing)
	GetReader(ctx context.Context, sessionID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error)
}
