// Package storage keeps the original files behind each import so an owner can
// download what was uploaded.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown file ids
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored upload
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Fingerprint string    `json:"fingerprint"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Upload describes a file handed to Save
type Upload struct {
	Name        string
	Kind        string
	Fingerprint string
	ContentType string
	Body        io.Reader
}

// Storage defines the interface for upload storage, scoped per owner
type Storage interface {
	// Save stores an upload and returns its metadata
	Save(ctx context.Context, ownerID uuid.UUID, upload Upload) (*FileInfo, error)

	// Open returns a reader for a stored file; the caller closes it
	Open(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns the owner's files, newest first
	List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error)

	// Delete removes a file
	Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error

	// DeleteAll removes every file of the owner
	DeleteAll(ctx context.Context, ownerID uuid.UUID) error
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"
	StorageTypeMemory StorageType = "memory"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeMemory:
		return NewMemoryStorage(), nil
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}
