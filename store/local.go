package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tuanhandsomes/web-upload-image/models"
)

// ErrQuotaExceeded is returned when a write would grow the local store past
// its configured quota.
var ErrQuotaExceeded = errors.New("local store quota exceeded")

// Local is a device-local key-value store. Records are kept JSON encoded in
// insertion order and, when a path is configured, snapshotted to disk after
// every mutation.
type Local struct {
	mu      sync.Mutex
	path    string
	quota   int
	buckets map[string]*bucket
}

type bucket struct {
	order []string
	items map[string]json.RawMessage
}

type LocalOption func(*Local)

// WithQuota caps the total encoded size of all records, in bytes.
func WithQuota(bytes int) LocalOption {
	return func(l *Local) { l.quota = bytes }
}

// NewLocal opens a local store. An empty path keeps everything in memory.
func NewLocal(path string, opts ...LocalOption) (*Local, error) {
	l := &Local{
		path:    path,
		buckets: map[string]*bucket{},
	}
	for _, name := range []string{CollectionAccounts, CollectionProjects, CollectionPhotos} {
		l.buckets[name] = &bucket{items: map[string]json.RawMessage{}}
	}
	for _, opt := range opts {
		opt(l)
	}

	if path != "" {
		if err := l.load(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Local) Accounts() Collection[models.Account] {
	return &localCollection[models.Account]{store: l, name: CollectionAccounts}
}

func (l *Local) Projects() Collection[models.Project] {
	return &localCollection[models.Project]{store: l, name: CollectionProjects}
}

func (l *Local) Photos() Collection[models.Photo] {
	return &localCollection[models.Photo]{store: l, name: CollectionPhotos}
}

func (l *Local) Close() error { return nil }

func (l *Local) load() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read local store: %w", err)
	}

	var snapshot map[string][]json.RawMessage
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to decode local store: %w", err)
	}

	for name, records := range snapshot {
		b, ok := l.buckets[name]
		if !ok {
			continue
		}
		for _, raw := range records {
			var key struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &key); err != nil || key.ID == "" {
				log.Printf("LocalStore: skipping malformed %s record", name)
				continue
			}
			if _, exists := b.items[key.ID]; !exists {
				b.order = append(b.order, key.ID)
			}
			b.items[key.ID] = raw
		}
	}
	return nil
}

// persist must be called with l.mu held. grew is the change in encoded bytes
// made by the pending write; writes that do not grow the store always pass the
// quota so an overfull store can still be trimmed.
func (l *Local) persist(grew int) error {
	if l.quota > 0 && grew > 0 && l.size() > l.quota {
		return ErrQuotaExceeded
	}
	if l.path == "" {
		return nil
	}

	snapshot := make(map[string][]json.RawMessage, len(l.buckets))
	for name, b := range l.buckets {
		records := make([]json.RawMessage, 0, len(b.order))
		for _, id := range b.order {
			records = append(records, b.items[id])
		}
		snapshot[name] = records
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local store: %w", err)
	}
	return nil
}

func (l *Local) size() int {
	total := 0
	for _, b := range l.buckets {
		for _, raw := range b.items {
			total += len(raw)
		}
	}
	return total
}

type localCollection[T models.Record] struct {
	store *Local
	name  string
}

func (c *localCollection[T]) bucket() *bucket {
	return c.store.buckets[c.name]
}

func (c *localCollection[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.bucket()
	records := []T{}
	for _, id := range b.order {
		var record T
		if err := json.Unmarshal(b.items[id], &record); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", c.name, id, err)
		}
		if filter.Match(record) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (c *localCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var record T
	if err := ctx.Err(); err != nil {
		return record, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	raw, ok := c.bucket().items[id]
	if !ok {
		return record, ErrNotFound
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("failed to decode %s/%s: %w", c.name, id, err)
	}
	return record, nil
}

func (c *localCollection[T]) Create(ctx context.Context, record T) (T, error) {
	if err := ctx.Err(); err != nil {
		return record, err
	}
	id := record.RecordID()
	if id == "" {
		return record, fmt.Errorf("%s: record id is required", c.name)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return record, fmt.Errorf("failed to encode %s record: %w", c.name, err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.bucket()
	if _, exists := b.items[id]; exists {
		return record, &ConflictError{Collection: c.name, Field: "id"}
	}

	b.items[id] = raw
	b.order = append(b.order, id)
	if err := c.store.persist(len(raw)); err != nil {
		delete(b.items, id)
		b.order = b.order[:len(b.order)-1]
		return record, err
	}
	return record, nil
}

func (c *localCollection[T]) Replace(ctx context.Context, id string, record T) (T, error) {
	if err := ctx.Err(); err != nil {
		return record, err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return record, fmt.Errorf("failed to encode %s record: %w", c.name, err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.bucket()
	previous, ok := b.items[id]
	if !ok {
		return record, ErrNotFound
	}

	b.items[id] = raw
	if err := c.store.persist(len(raw) - len(previous)); err != nil {
		b.items[id] = previous
		return record, err
	}
	return record, nil
}

func (c *localCollection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.bucket()
	previous, ok := b.items[id]
	if !ok {
		return ErrNotFound
	}

	index := -1
	for i, existing := range b.order {
		if existing == id {
			index = i
			break
		}
	}
	order := append([]string{}, b.order...)

	delete(b.items, id)
	if index >= 0 {
		b.order = append(b.order[:index:index], b.order[index+1:]...)
	}
	if err := c.store.persist(-len(previous)); err != nil {
		b.items[id] = previous
		b.order = order
		return err
	}
	return nil
}
