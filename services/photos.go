package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tuanhandsomes/web-upload-image/events"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

// PhotoService stores photos and keeps the owning project's photoCount and
// coverPhotoUrl in line with the photos that actually exist.
type PhotoService struct {
	photos    store.Collection[models.Photo]
	projects  *ProjectService
	publisher events.Publisher

	// publishTimeout bounds each lifecycle event publish.
	publishTimeout time.Duration
	now            func() time.Time
}

func NewPhotoService(ds store.DataStore, projects *ProjectService, publisher events.Publisher) *PhotoService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PhotoService{
		photos:         ds.Photos(),
		projects:       projects,
		publisher:      publisher,
		publishTimeout: events.DefaultPublishTimeout,
		now:            time.Now,
	}
}

// Create encodes file into a data URL, stores the photo and reconciles the
// project. The two writes are not atomic: on reconciliation failure the stored
// photo is returned together with a *ReconcileError.
func (s *PhotoService) Create(ctx context.Context, input models.PhotoInput, file models.File, userID string) (*models.Photo, error) {
	start := time.Now()
	defer func() {
		log.Printf("CreatePhoto: duration=%v project=%s file=%q size=%d",
			time.Since(start), input.ProjectID, file.Name(), file.Size())
	}()

	if file.Size() > models.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	if _, err := s.projects.Get(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	fileURL, err := encodeDataURL(file)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = file.Name()
	}

	photo := models.Photo{
		ID:          uuid.New().String(),
		ProjectID:   input.ProjectID,
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Tags:        models.NormalizeTags(input.Tags),
		FileName:    file.Name(),
		FileSize:    file.Size(),
		FileURL:     fileURL,
		UploadedAt:  s.now().UTC(),
	}

	stored, err := s.photos.Create(ctx, photo)
	if err != nil {
		return nil, storeError(err, ErrPhotoNotFound)
	}

	_, reconcileErr := s.ReconcileProject(ctx, stored.ProjectID)

	s.emit(ctx, events.Event{
		Type:      events.PhotoCreated,
		PhotoID:   stored.ID,
		ProjectID: stored.ProjectID,
		UserID:    stored.UserID,
	})

	if reconcileErr != nil {
		log.Printf("CreatePhoto: photo %s stored but project %s is stale: %v", stored.ID, stored.ProjectID, reconcileErr)
		return &stored, &ReconcileError{ProjectID: stored.ProjectID, Err: reconcileErr}
	}
	return &stored, nil
}

// Delete removes a photo. Only admins and the uploader may delete it.
func (s *PhotoService) Delete(ctx context.Context, photoID string, session Session) error {
	photo, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return storeError(err, ErrPhotoNotFound)
	}

	if !session.IsAdmin() && photo.UserID != session.UserID {
		return ErrForbidden
	}

	if err := s.photos.Delete(ctx, photoID); err != nil {
		return storeError(err, ErrPhotoNotFound)
	}
	log.Printf("Deleted photo: %s (project %s, by %s)", photoID, photo.ProjectID, session.UserID)

	_, reconcileErr := s.ReconcileProject(ctx, photo.ProjectID)

	s.emit(ctx, events.Event{
		Type:      events.PhotoDeleted,
		PhotoID:   photo.ID,
		ProjectID: photo.ProjectID,
		UserID:    session.UserID,
	})

	if reconcileErr != nil {
		return &ReconcileError{ProjectID: photo.ProjectID, Err: reconcileErr}
	}
	return nil
}

// DeleteByProject removes every photo of a project that is about to be
// deleted. The project's own counters are left alone.
func (s *PhotoService) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	photos, err := s.photos.List(ctx, store.Eq("projectId", projectID))
	if err != nil {
		return 0, storeError(err, ErrPhotoNotFound)
	}

	deleted := 0
	if bulk, ok := s.photos.(store.BulkDeleter); ok {
		ids := make([]string, len(photos))
		for i, p := range photos {
			ids[i] = p.ID
		}
		deleted, err = bulk.DeleteMany(ctx, ids)
		if err != nil {
			return deleted, fmt.Errorf("failed to purge photos of project %s: %w", projectID, storeError(err, ErrPhotoNotFound))
		}
		photos = nil
	}
	for _, p := range photos {
		if err := s.photos.Delete(ctx, p.ID); err != nil {
			if KindOf(storeError(err, ErrPhotoNotFound)) == KindNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to purge photos of project %s: %w", projectID, storeError(err, ErrPhotoNotFound))
		}
		deleted++
	}

	log.Printf("Purged photos: project=%s count=%d", projectID, deleted)
	s.emit(ctx, events.Event{
		Type:      events.PhotosPurged,
		ProjectID: projectID,
		Count:     deleted,
	})
	return deleted, nil
}

// ReconcileProject recomputes photoCount from the stored photos and keeps the
// cover when it still belongs to one of them, otherwise picks the newest
// photo, or clears it. Running it again without photo changes is a no-op.
// The photo list is read under the project's merge lock, so concurrent
// reconciliations and edits of one project apply in order.
func (s *PhotoService) ReconcileProject(ctx context.Context, projectID string) (*models.Project, error) {
	return s.projects.merge(ctx, projectID, func(p *models.Project) error {
		photos, err := s.photos.List(ctx, store.Eq("projectId", projectID))
		if err != nil {
			return storeError(err, ErrPhotoNotFound)
		}
		p.PhotoCount = len(photos)
		p.CoverPhotoURL = pickCover(p.CoverPhotoURL, photos)
		return nil
	})
}

func (s *PhotoService) emit(ctx context.Context, e events.Event) {
	events.Emit(ctx, s.publisher, e, s.publishTimeout)
}

func pickCover(current *string, photos []models.Photo) *string {
	if current != nil {
		for _, p := range photos {
			if p.FileURL == *current {
				return current
			}
		}
	}

	var newest *models.Photo
	for i := range photos {
		if newest == nil || !photos[i].UploadedAt.Before(newest.UploadedAt) {
			newest = &photos[i]
		}
	}
	if newest == nil {
		return nil
	}
	cover := newest.FileURL
	return &cover
}

func (s *PhotoService) Get(ctx context.Context, id string) (*models.Photo, error) {
	photo, err := s.photos.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrPhotoNotFound)
	}
	return &photo, nil
}

// List returns photos matching q, newest first unless q.Sort is oldest.
func (s *PhotoService) List(ctx context.Context, q models.PhotoQuery) ([]models.Photo, error) {
	filter := store.Filter{}
	if q.ProjectID != "" {
		filter["projectId"] = q.ProjectID
	}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}

	all, err := s.photos.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, ErrPhotoNotFound)
	}

	var active map[string]bool
	if q.ActiveProjectsOnly {
		projects, err := s.projects.List(ctx, models.ProjectQuery{Status: models.ProjectActive})
		if err != nil {
			return nil, err
		}
		active = make(map[string]bool, len(projects))
		for _, p := range projects {
			active[p.ID] = true
		}
	}

	photos := []models.Photo{}
	for _, p := range all {
		if q.Tag != "" && !p.HasTag(q.Tag) {
			continue
		}
		if active != nil && !active[p.ProjectID] {
			continue
		}
		photos = append(photos, p)
	}

	oldestFirst := q.Sort == models.SortOldest
	sort.SliceStable(photos, func(i, j int) bool {
		if oldestFirst {
			return photos[i].UploadedAt.Before(photos[j].UploadedAt)
		}
		return photos[i].UploadedAt.After(photos[j].UploadedAt)
	})
	return photos, nil
}

// Tags lists the distinct tags of the photos matching q, sorted A-Z.
func (s *PhotoService) Tags(ctx context.Context, q models.PhotoQuery) ([]string, error) {
	q.Tag = ""
	photos, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, p := range photos {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// encodeDataURL reads file into a base64 data URL. The MIME type is sniffed
// from the content.
func encodeDataURL(file models.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", ErrEncodingFailed.wrap(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, models.MaxFileSize+1))
	if err != nil {
		return "", ErrEncodingFailed.wrap(err)
	}
	if len(data) > models.MaxFileSize {
		return "", ErrFileTooLarge
	}

	mediaType := strings.SplitN(mimetype.Detect(data).String(), ";", 2)[0]
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
