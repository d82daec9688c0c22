package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFile is returned when no reader accepts a file name.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Reader turns one spreadsheet format into a Table.
type Reader interface {
	// Name returns the unique name of the reader.
	Name() string
	// CanRead reports whether this reader handles the given file name.
	CanRead(fileName string) bool
	// Read parses the first worksheet of the file.
	Read(r io.Reader) (*Table, error)
}

// Registry holds all available readers and picks one by file name.
type Registry struct {
	readers []Reader
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		readers: []Reader{
			NewXLSXReader(),
			NewXLSReader(),
			NewCSVReader(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new reader to the registry.
func (r *Registry) Register(rd Reader) {
	r.readers = append(r.readers, rd)
}

// FindReader detects the correct reader for a file.
func (r *Registry) FindReader(fileName string) (Reader, error) {
	for _, rd := range r.readers {
		if rd.CanRead(fileName) {
			return rd, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
}

// Read finds a reader for fileName and parses r with it.
func (r *Registry) Read(fileName string, src io.Reader) (*Table, error) {
	rd, err := r.FindReader(fileName)
	if err != nil {
		return nil, err
	}
	table, err := rd.Read(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rd.Name(), err)
	}
	return table, nil
}

func hasExt(fileName string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
