package upload

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tuanhandsomes/web-upload-image/models"
)

// Previews hands out local preview references for files that are not
// persisted yet. A reference stays valid until released.
type Previews struct {
	mu    sync.Mutex
	files map[string]models.File
}

func NewPreviews() *Previews {
	return &Previews{files: map[string]models.File{}}
}

// Create registers f and returns its preview URL.
func (p *Previews) Create(f models.File) string {
	url := "blob:" + uuid.New().String()
	p.mu.Lock()
	p.files[url] = f
	p.mu.Unlock()
	return url
}

// Resolve returns the file behind a preview URL.
func (p *Previews) Resolve(url string) (models.File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[url]
	return f, ok
}

// Release drops url. Releasing an unknown or empty URL is a no-op.
func (p *Previews) Release(url string) {
	if url == "" {
		return
	}
	p.mu.Lock()
	delete(p.files, url)
	p.mu.Unlock()
}

// Len reports how many previews are still held.
func (p *Previews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}
