package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanhandsomes/web-upload-image/events"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testEnv struct {
	ds        *flakyStore
	accounts  *AccountService
	projects  *ProjectService
	photos    *PhotoService
	stats     *StatsService
	publisher *recordingPublisher
	clock     *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	local, err := store.NewLocal("")
	require.NoError(t, err)

	ds := &flakyStore{Local: local}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}

	env := &testEnv{
		ds:        ds,
		accounts:  NewAccountService(ds, NewPasswordHasher(bcrypt.MinCost)),
		projects:  NewProjectService(ds),
		stats:     NewStatsService(ds),
		publisher: pub,
		clock:     clock,
	}
	env.photos = NewPhotoService(ds, env.projects, pub)
	env.accounts.now = clock.Now
	env.projects.now = clock.Now
	env.photos.now = clock.Now
	return env
}

func (e *testEnv) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), models.CreateProjectRequest{Name: name}, "admin-1")
	require.NoError(t, err)
	return p
}

func (e *testEnv) photo(t *testing.T, projectID, userID, name string) *models.Photo {
	t.Helper()
	data := append(append([]byte{}, pngHeader...), []byte(name)...)
	p, err := e.photos.Create(context.Background(), models.PhotoInput{ProjectID: projectID},
		&models.BytesFile{FileName: name, Data: data}, userID)
	require.NoError(t, err)
	return p
}

// fakeClock advances one second per reading so records get distinct times.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errInjected = errors.New("injected failure")

// flakyStore wraps a Local store and can fail project writes or every call.
type flakyStore struct {
	*store.Local
	mu           sync.Mutex
	failProjects bool
	unavailable  bool
	projectGate  *gate
}

// gate holds one call until released.
type gate struct {
	entered  chan struct{}
	released chan struct{}
}

// gateNextProjectGet makes the next project Get block after it has read the
// record, until release is called.
func (f *flakyStore) gateNextProjectGet() (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}), released: make(chan struct{})}
	f.mu.Lock()
	f.projectGate = g
	f.mu.Unlock()
	return g.entered, func() { close(g.released) }
}

func (f *flakyStore) takeProjectGate() *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.projectGate
	f.projectGate = nil
	return g
}

func (f *flakyStore) setFailProjectWrites(v bool) {
	f.mu.Lock()
	f.failProjects = v
	f.mu.Unlock()
}

func (f *flakyStore) setUnavailable(v bool) {
	f.mu.Lock()
	f.unavailable = v
	f.mu.Unlock()
}

func (f *flakyStore) state() (failProjects, unavailable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failProjects, f.unavailable
}

func (f *flakyStore) Accounts() store.Collection[models.Account] {
	return &flakyCollection[models.Account]{inner: f.Local.Accounts(), owner: f}
}

func (f *flakyStore) Projects() store.Collection[models.Project] {
	return &flakyCollection[models.Project]{inner: f.Local.Projects(), owner: f, projects: true}
}

func (f *flakyStore) Photos() store.Collection[models.Photo] {
	return &flakyCollection[models.Photo]{inner: f.Local.Photos(), owner: f}
}

type flakyCollection[T models.Record] struct {
	inner    store.Collection[T]
	owner    *flakyStore
	projects bool
}

func (c *flakyCollection[T]) check(write bool) error {
	failProjects, unavailable := c.owner.state()
	if unavailable {
		return store.ErrUnavailable
	}
	if write && c.projects && failProjects {
		return errInjected
	}
	return nil
}

func (c *flakyCollection[T]) List(ctx context.Context, filter store.Filter) ([]T, error) {
	if err := c.check(false); err != nil {
		return nil, err
	}
	return c.inner.List(ctx, filter)
}

func (c *flakyCollection[T]) Get(ctx context.Context, id string) (T, error) {
	if err := c.check(false); err != nil {
		var zero T
		return zero, err
	}
	record, err := c.inner.Get(ctx, id)
	if c.projects {
		if g := c.owner.takeProjectGate(); g != nil {
			close(g.entered)
			<-g.released
		}
	}
	return record, err
}

func (c *flakyCollection[T]) Create(ctx context.Context, record T) (T, error) {
	if err := c.check(true); err != nil {
		var zero T
		return zero, err
	}
	return c.inner.Create(ctx, record)
}

func (c *flakyCollection[T]) Replace(ctx context.Context, id string, record T) (T, error) {
	if err := c.check(true); err != nil {
		var zero T
		return zero, err
	}
	return c.inner.Replace(ctx, id, record)
}

func (c *flakyCollection[T]) Delete(ctx context.Context, id string) error {
	if err := c.check(true); err != nil {
		return err
	}
	return c.inner.Delete(ctx, id)
}
