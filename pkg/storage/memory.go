package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryFile struct {
	info FileInfo
	data []byte
}

// MemoryStorage implements Storage in process memory, for demo mode and tests
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[uuid.UUID]map[uuid.UUID]*memoryFile
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[uuid.UUID]map[uuid.UUID]*memoryFile)}
}

func (s *MemoryStorage) Save(ctx context.Context, ownerID uuid.UUID, upload Upload) (*FileInfo, error) {
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	f := &memoryFile{
		info: FileInfo{
			ID:          uuid.New(),
			Name:        upload.Name,
			Kind:        upload.Kind,
			Fingerprint: upload.Fingerprint,
			Size:        int64(len(data)),
			ContentType: upload.ContentType,
			CreatedAt:   time.Now().UTC(),
		},
		data: data,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owned, ok := s.files[ownerID]
	if !ok {
		owned = make(map[uuid.UUID]*memoryFile)
		s.files[ownerID] = owned
	}
	owned[f.info.ID] = f

	info := f.info
	return &info, nil
}

func (s *MemoryStorage) Open(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[ownerID][fileID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	info := f.info
	return io.NopCloser(bytes.NewReader(f.data)), &info, nil
}

func (s *MemoryStorage) List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*FileInfo, 0, len(s.files[ownerID]))
	for _, f := range s.files[ownerID] {
		info := f.info
		out = append(out, &info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[ownerID][fileID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	delete(s.files[ownerID], fileID)
	return nil
}

func (s *MemoryStorage) DeleteAll(ctx context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ownerID)
	return nil
}
