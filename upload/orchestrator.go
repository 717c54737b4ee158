// Package upload holds the pending-file workflow that turns dropped files into
// persisted photos: intake, per-file metadata editing and a sequential batch
// upload with progress reporting.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/validation"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusUploading Status = "uploading"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Progress checkpoints of a single upload.
const (
	ProgressStarted  = 10
	ProgressPrepared = 40
	ProgressSending  = 75
	ProgressDone     = 100
)

var (
	ErrBatchInProgress = errors.New("an upload batch is already running")
	ErrUnknownFile     = errors.New("no pending file with that id")
	ErrUnknownField    = errors.New("field must be one of title, description, tags")
	ErrFileBusy        = errors.New("file is being uploaded")
)

// Record is one pending file as shown in the upload list.
type Record struct {
	ID           string            `json:"id"`
	File         models.File       `json:"-"`
	FileName     string            `json:"fileName"`
	FileSize     int64             `json:"fileSize"`
	PreviewURL   string            `json:"previewUrl,omitempty"`
	Status       Status            `json:"status"`
	Progress     int               `json:"progress"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Tags         string            `json:"tags"`
	Errors       validation.Errors `json:"errors,omitempty"`
	Photo        *models.Photo     `json:"photo,omitempty"`
}

// Uploader persists one photo. *services.PhotoService implements it.
type Uploader interface {
	Create(ctx context.Context, input models.PhotoInput, file models.File, userID string) (*models.Photo, error)
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing message raised by the orchestrator.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Option func(*Orchestrator)

// WithNotifier receives every notice raised by the orchestrator.
func WithNotifier(fn func(Notice)) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

// WithOnChange observes every record change, including progress updates.
func WithOnChange(fn func(Record)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

func WithPreviews(p *Previews) Option {
	return func(o *Orchestrator) { o.previews = p }
}

// IntakeResult reports what Intake did with each dropped file.
type IntakeResult struct {
	Accepted   []Record    `json:"accepted"`
	Rejected   []Rejection `json:"rejected"`
	Duplicates []string    `json:"duplicates"`
}

// BatchResult summarises one UploadAll run.
type BatchResult struct {
	Attempted int      `json:"attempted"`
	Failed    int      `json:"failed"`
	Records   []Record `json:"records"`
}

// Orchestrator manages the pending files of one project for one session.
// Uploads run one at a time.
type Orchestrator struct {
	uploader  Uploader
	projectID string
	session   services.Session
	previews  *Previews
	notify    func(Notice)
	onChange  func(Record)

	mu      sync.Mutex
	records []*Record
	busy    bool
}

func New(uploader Uploader, projectID string, session services.Session, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader:  uploader,
		projectID: projectID,
		session:   session,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.previews == nil {
		o.previews = NewPreviews()
	}
	return o
}

// Intake validates dropped files and adds the acceptable ones as waiting
// records. Files already held are reported as duplicates and left alone.
func (o *Orchestrator) Intake(files []models.File) IntakeResult {
	result := IntakeResult{
		Accepted:   []Record{},
		Rejected:   []Rejection{},
		Duplicates: []string{},
	}

	for _, f := range files {
		if rejections := classify(f); len(rejections) > 0 {
			result.Rejected = append(result.Rejected, rejections...)
			for _, r := range rejections {
				o.raise(LevelError, r.Message)
			}
			continue
		}

		id := RecordID(f)
		o.mu.Lock()
		if o.find(id) != nil {
			o.mu.Unlock()
			result.Duplicates = append(result.Duplicates, id)
			continue
		}
		rec := &Record{
			ID:         id,
			File:       f,
			FileName:   f.Name(),
			FileSize:   f.Size(),
			PreviewURL: o.previews.Create(f),
			Status:     StatusWaiting,
			Title:      DefaultTitle(f.Name()),
		}
		rec.Errors = validation.PhotoMetadata(rec.Title, rec.Description, rec.Tags)
		o.records = append(o.records, rec)
		snapshot := *rec
		o.mu.Unlock()

		result.Accepted = append(result.Accepted, snapshot)
		o.changed(snapshot)
	}

	log.Printf("Upload intake: project=%s accepted=%d rejected=%d duplicates=%d",
		o.projectID, len(result.Accepted), len(result.Rejected), len(result.Duplicates))
	return result
}

// UpdateMetadata replaces one editable field and revalidates the record.
func (o *Orchestrator) UpdateMetadata(id, field, value string) (Record, error) {
	o.mu.Lock()
	rec := o.find(id)
	if rec == nil {
		o.mu.Unlock()
		return Record{}, ErrUnknownFile
	}

	switch field {
	case "title":
		rec.Title = value
	case "description":
		rec.Description = value
	case "tags":
		rec.Tags = value
	default:
		o.mu.Unlock()
		return Record{}, ErrUnknownField
	}
	rec.Errors = validation.PhotoMetadata(rec.Title, rec.Description, rec.Tags)
	snapshot := *rec
	o.mu.Unlock()

	o.changed(snapshot)
	return snapshot, nil
}

// RemoveFile drops a pending record and releases its preview. A record that
// is currently uploading cannot be removed.
func (o *Orchestrator) RemoveFile(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, rec := range o.records {
		if rec.ID != id {
			continue
		}
		if rec.Status == StatusUploading {
			return ErrFileBusy
		}
		o.previews.Release(rec.PreviewURL)
		o.records = append(o.records[:i], o.records[i+1:]...)
		return nil
	}
	return ErrUnknownFile
}

// UploadAll uploads every waiting record in order. Failures are counted and
// left visible on their records; they never stop the batch.
func (o *Orchestrator) UploadAll(ctx context.Context) (BatchResult, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return BatchResult{}, ErrBatchInProgress
	}
	var ids []string
	for _, rec := range o.records {
		if rec.Status == StatusWaiting {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		o.mu.Unlock()
		o.raise(LevelInfo, "nothing to upload")
		return BatchResult{Records: o.Files()}, nil
	}
	o.busy = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	start := time.Now()
	result := BatchResult{}
	for _, id := range ids {
		attempted, err := o.uploadOne(ctx, id)
		if !attempted {
			continue
		}
		result.Attempted++
		if err != nil {
			result.Failed++
		}
	}
	result.Records = o.Files()

	log.Printf("Upload batch: project=%s attempted=%d failed=%d duration=%v",
		o.projectID, result.Attempted, result.Failed, time.Since(start))

	if result.Failed == 0 {
		o.raise(LevelSuccess, fmt.Sprintf("uploaded %d photo(s)", result.Attempted))
	} else {
		o.raise(LevelError, fmt.Sprintf("%d of %d upload(s) failed", result.Failed, result.Attempted))
	}
	return result, nil
}

// uploadOne drives one record through the upload state machine. It reports
// false when the record was removed or left waiting state before its turn.
func (o *Orchestrator) uploadOne(ctx context.Context, id string) (bool, error) {
	o.mu.Lock()
	rec := o.find(id)
	if rec == nil || rec.Status != StatusWaiting {
		o.mu.Unlock()
		return false, nil
	}
	rec.Status = StatusUploading
	rec.Progress = ProgressStarted
	snapshot := *rec
	o.mu.Unlock()
	o.changed(snapshot)

	var (
		input models.PhotoInput
		file  models.File
		errs  validation.Errors
	)
	o.update(id, func(r *Record) {
		errs = validation.PhotoMetadata(r.Title, r.Description, r.Tags)
		r.Errors = errs
		input = models.PhotoInput{
			ProjectID:   o.projectID,
			Title:       r.Title,
			Description: r.Description,
			Tags:        models.ParseTags(r.Tags),
		}
		file = r.File
		r.Progress = ProgressPrepared
	})
	if !errs.Valid() {
		err := errors.New("please fix the highlighted fields")
		o.fail(id, err)
		return true, err
	}

	o.update(id, func(r *Record) { r.Progress = ProgressSending })

	photo, err := o.uploader.Create(ctx, input, file, o.session.UserID)

	var stale *services.ReconcileError
	if err != nil && !(errors.As(err, &stale) && photo != nil) {
		o.fail(id, err)
		return true, err
	}
	if stale != nil {
		o.raise(LevelWarning, fmt.Sprintf("%s was saved but the project summary may be out of date", input.Title))
	}

	o.update(id, func(r *Record) {
		o.previews.Release(r.PreviewURL)
		r.PreviewURL = ""
		r.Status = StatusComplete
		r.Progress = ProgressDone
		r.Photo = photo
	})
	return true, nil
}

func (o *Orchestrator) fail(id string, err error) {
	msg := userMessage(err)
	o.update(id, func(r *Record) {
		r.Status = StatusError
		r.ErrorMessage = msg
	})
	log.Printf("Upload failed: project=%s file=%s: %v", o.projectID, id, err)
}

func userMessage(err error) string {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}

// Files returns a snapshot of the pending records in intake order.
func (o *Orchestrator) Files() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Record, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	return out
}

// Close releases every preview still held.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		o.previews.Release(rec.PreviewURL)
		rec.PreviewURL = ""
	}
	o.records = nil
}

// find must be called with o.mu held.
func (o *Orchestrator) find(id string) *Record {
	for _, rec := range o.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (o *Orchestrator) update(id string, fn func(*Record)) {
	o.mu.Lock()
	rec := o.find(id)
	if rec == nil {
		o.mu.Unlock()
		return
	}
	fn(rec)
	snapshot := *rec
	o.mu.Unlock()

	o.changed(snapshot)
}

func (o *Orchestrator) changed(r Record) {
	if o.onChange != nil {
		o.onChange(r)
	}
}

func (o *Orchestrator) raise(level Level, msg string) {
	if o.notify != nil {
		o.notify(Notice{Level: level, Message: msg})
	}
}
