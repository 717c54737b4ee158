// Package store defines the DataStore capability shared by every storage
// backend and ships the device-local and remote HTTP implementations.
// The PostgreSQL implementation lives in package database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tuanhandsomes/web-upload-image/models"
)

const (
	CollectionAccounts = "accounts"
	CollectionProjects = "projects"
	CollectionPhotos   = "photos"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrUnavailable is returned when the backend cannot be reached in time.
	ErrUnavailable = errors.New("data store unavailable")
)

// Filter selects records whose fields equal the given values.
// Keys are JSON field names, e.g. "projectId".
type Filter map[string]string

// Eq builds a single-field filter.
func Eq(field, value string) Filter {
	return Filter{field: value}
}

// Match reports whether r satisfies every condition of f.
func (f Filter) Match(r models.Record) bool {
	for field, want := range f {
		got, ok := r.FieldValue(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Collection is the CRUD surface of one entity type.
type Collection[T models.Record] interface {
	List(ctx context.Context, filter Filter) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, record T) (T, error)
	Replace(ctx context.Context, id string, record T) (T, error)
	Delete(ctx context.Context, id string) error
}

// BulkDeleter is implemented by collections that can remove many records in
// one round trip. It reports how many records were removed.
type BulkDeleter interface {
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// DataStore groups the three collections the application persists.
type DataStore interface {
	Accounts() Collection[models.Account]
	Projects() Collection[models.Project]
	Photos() Collection[models.Photo]
	Close() error
}

// ConflictError reports a uniqueness violation detected by the backend.
type ConflictError struct {
	Collection string
	Field      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: duplicate %s", e.Collection, e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// APIError is a non-2xx answer from the remote store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote store error %d: %s", e.Status, e.Message)
}
