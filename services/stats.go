package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

// Summary backs the admin dashboard.
type Summary struct {
	TotalAccounts  int   `json:"totalAccounts"`
	ActiveAccounts int   `json:"activeAccounts"`
	TotalProjects  int   `json:"totalProjects"`
	ActiveProjects int   `json:"activeProjects"`
	TotalPhotos    int   `json:"totalPhotos"`
	StorageBytes   int64 `json:"storageBytes"`
}

type StatsService struct {
	ds store.DataStore
}

func NewStatsService(ds store.DataStore) *StatsService {
	return &StatsService{ds: ds}
}

// Summary loads the three collections concurrently and aggregates them.
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	var (
		accounts []models.Account
		projects []models.Project
		photos   []models.Photo
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.ds.Accounts().List(ctx, nil)
		return storeError(err, ErrAccountNotFound)
	})
	g.Go(func() error {
		var err error
		projects, err = s.ds.Projects().List(ctx, nil)
		return storeError(err, ErrProjectNotFound)
	})
	g.Go(func() error {
		var err error
		photos, err = s.ds.Photos().List(ctx, nil)
		return storeError(err, ErrPhotoNotFound)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{
		TotalAccounts: len(accounts),
		TotalProjects: len(projects),
		TotalPhotos:   len(photos),
	}
	for _, a := range accounts {
		if a.Status == models.AccountActive {
			sum.ActiveAccounts++
		}
	}
	for _, p := range projects {
		if p.Status == models.ProjectActive {
			sum.ActiveProjects++
		}
	}
	for _, p := range photos {
		sum.StorageBytes += p.FileSize
	}
	return sum, nil
}
