// Package storage keeps uploaded files for the lifetime of their session.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/activofijo/vales-resguardo/internal/models"
)

var (
	// ErrNotFound is returned for unknown file ids.
	ErrNotFound = errors.New("file not found")
	// ErrTooLarge is returned when an upload exceeds the store limit.
	ErrTooLarge = errors.New("upload exceeds the size limit")
)

// Store defines the interface for upload storage.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	Data(id string) ([]byte, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
}

type storedFile struct {
	info *models.FileInfo
	data []byte
}

// MemoryStore implements Store in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	files   map[string]*storedFile
	maxSize int64
}

// NewMemoryStore creates an empty store. maxSize <= 0 accepts any size.
func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		files:   make(map[string]*storedFile),
		maxSize: maxSize,
	}
}

// Save reads r fully and stores it under a new id.
func (s *MemoryStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	var buf bytes.Buffer
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	size, err := io.Copy(&buf, src)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrTooLarge, name, s.maxSize)
	}

	info := &models.FileInfo{
		ID:         uuid.New().String(),
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[info.ID] = &storedFile{info: info, data: buf.Bytes()}

	return info, nil
}

// Get retrieves file metadata by ID.
func (s *MemoryStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	info := *f.info
	return &info, nil
}

// Data returns the stored bytes of a file. Callers must not modify them.
func (s *MemoryStore) Data(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f.data, nil
}

// List returns the most recent files, newest first.
func (s *MemoryStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, f := range s.files {
		info := *f.info
		list = append(list, &info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.files, id)
	return nil
}
