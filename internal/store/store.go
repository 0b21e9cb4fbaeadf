// Package store persists plan documents by ID.
//
// Backends: a directory of JSON files, an S3-compatible bucket (MinIO
// client) and an in-memory map. [Cached] puts a bounded LRU in front of any
// of them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/backmassage/beatcut/internal/plan"
)

var (
	// ErrNotFound is returned when no document exists for an ID.
	ErrNotFound = errors.New("plan not found")
	// ErrInvalidID is returned for empty IDs and IDs that could escape a
	// directory or bucket prefix.
	ErrInvalidID = errors.New("invalid plan id")
)

// Store saves and loads plan documents.
type Store interface {
	Put(ctx context.Context, d *plan.Document) error
	Get(ctx context.Context, id string) (*plan.Document, error)
	List(ctx context.Context) ([]string, error)
}

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendS3     = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Dir       string // file backend
	S3        S3Config
	CacheSize int // 0 disables the LRU
}

// Open builds the backend described by opts.
func Open(opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendS3:
		s, err = NewS3Store(opts.S3)
	default:
		return nil, fmt.Errorf("unknown store backend %q (use memory, file or s3)", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize > 0 {
		return NewCached(s, opts.CacheSize)
	}
	return s, nil
}

// checkID rejects IDs that could escape a directory or bucket prefix.
func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return id, nil
}
