package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

// ProjectService manages projects. Photo counters are maintained by
// PhotoService through the same merge path as user edits, and merges of one
// project never overlap.
type ProjectService struct {
	projects store.Collection[models.Project]
	locks    *keyedMutex
	now      func() time.Time
}

func NewProjectService(ds store.DataStore) *ProjectService {
	return &ProjectService{
		projects: ds.Projects(),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

func (s *ProjectService) Create(ctx context.Context, req models.CreateProjectRequest, createdBy string) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)

	all, err := s.projects.List(ctx, nil)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}
	if nameTaken(all, "", name) {
		return nil, ErrDuplicateName
	}

	project := models.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		PhotoCount:  0,
		CreatedAt:   s.now().UTC(),
		CreatedBy:   createdBy,
	}
	if project.Status == "" {
		project.Status = models.ProjectActive
	}

	stored, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, projectConflict(storeError(err, ErrProjectNotFound))
	}

	log.Printf("Created project: %s (ID: %s)", stored.Name, stored.ID)
	return &stored, nil
}

// Update applies a field-level merge of the user-editable fields.
func (s *ProjectService) Update(ctx context.Context, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		all, err := s.projects.List(ctx, nil)
		if err != nil {
			return nil, storeError(err, ErrProjectNotFound)
		}
		if nameTaken(all, id, name) {
			if _, err := s.projects.Get(ctx, id); err != nil {
				return nil, storeError(err, ErrProjectNotFound)
			}
			return nil, ErrDuplicateName
		}
	}

	return s.merge(ctx, id, func(p *models.Project) error {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		return nil
	})
}

// merge reads the project, applies patch and writes it back while holding the
// project's lock. Fields patch does not touch keep their stored values. A
// patch error aborts the write.
func (s *ProjectService) merge(ctx context.Context, id string, patch func(*models.Project) error) (*models.Project, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}

	if err := patch(&current); err != nil {
		return nil, err
	}

	stored, err := s.projects.Replace(ctx, id, current)
	if err != nil {
		return nil, projectConflict(storeError(err, ErrProjectNotFound))
	}
	return &stored, nil
}

// Delete removes the project row only. Callers purge its photos first.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		return storeError(err, ErrProjectNotFound)
	}
	log.Printf("Deleted project: %s", id)
	return nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}
	return &project, nil
}

// List returns projects newest first.
func (s *ProjectService) List(ctx context.Context, q models.ProjectQuery) ([]models.Project, error) {
	filter := store.Filter{}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}

	all, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	projects := []models.Project{}
	for _, p := range all {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		projects = append(projects, p)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func nameTaken(all []models.Project, selfID, name string) bool {
	for _, p := range all {
		if p.ID != selfID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func projectConflict(err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) && conflict.Field == "name" {
		return ErrDuplicateName.wrap(err)
	}
	return err
}
