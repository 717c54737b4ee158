package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanhandsomes/web-upload-image/models"
)

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.projects.Create(ctx, models.CreateProjectRequest{Name: "  Wedding  ", Description: " big day "}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Wedding", p.Name)
	assert.Equal(t, "big day", p.Description)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, 0, p.PhotoCount)
	assert.Nil(t, p.CoverPhotoURL)
	assert.Equal(t, "admin-1", p.CreatedBy)

	_, err = env.projects.Create(ctx, models.CreateProjectRequest{Name: "wedding"}, "admin-1")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpdateProjectKeepsCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, "Birthday")
	photo := env.photo(t, p.ID, "user-1", "cake")
	env.project(t, "Graduation")

	desc := "party"
	updated, err := env.projects.Update(ctx, p.ID, models.UpdateProjectRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Birthday", updated.Name)
	assert.Equal(t, "party", updated.Description)
	assert.Equal(t, 1, updated.PhotoCount, "edits never touch photo counters")
	require.NotNil(t, updated.CoverPhotoURL)
	assert.Equal(t, photo.FileURL, *updated.CoverPhotoURL)

	rename := "Birthday 2"
	updated, err = env.projects.Update(ctx, p.ID, models.UpdateProjectRequest{Name: &rename})
	require.NoError(t, err)
	assert.Equal(t, "Birthday 2", updated.Name)
	assert.Equal(t, "party", updated.Description)

	self := "birthday 2"
	_, err = env.projects.Update(ctx, p.ID, models.UpdateProjectRequest{Name: &self})
	assert.NoError(t, err)

	taken := "GRADUATION"
	_, err = env.projects.Update(ctx, p.ID, models.UpdateProjectRequest{Name: &taken})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = env.projects.Update(ctx, "missing", models.UpdateProjectRequest{Name: &taken})
	assert.ErrorIs(t, err, ErrProjectNotFound, "missing project wins over a name clash")
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.project(t, "Alpha trip")
	beta := env.project(t, "Beta trip")
	env.project(t, "Gamma")
	inactive := models.ProjectInactive
	_, err := env.projects.Update(ctx, beta.ID, models.UpdateProjectRequest{Status: &inactive})
	require.NoError(t, err)

	all, err := env.projects.List(ctx, models.ProjectQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Gamma", all[0].Name)

	active, err := env.projects.List(ctx, models.ProjectQuery{Status: models.ProjectActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	trips, err := env.projects.List(ctx, models.ProjectQuery{Search: "TRIP"})
	require.NoError(t, err)
	assert.Len(t, trips, 2)
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, "Gone")

	require.NoError(t, env.projects.Delete(ctx, p.ID))
	assert.ErrorIs(t, env.projects.Delete(ctx, p.ID), ErrProjectNotFound)
	_, err := env.projects.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestStatsSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createAccount(t, env, "hank", models.RoleUser)
	createAccount(t, env, "ivy", models.RoleAdmin)
	p := env.project(t, "Stats")
	env.project(t, "Empty")
	a := env.photo(t, p.ID, "u", "a")
	b := env.photo(t, p.ID, "u", "bb")

	sum, err := env.stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalAccounts)
	assert.Equal(t, 2, sum.ActiveAccounts)
	assert.Equal(t, 2, sum.TotalProjects)
	assert.Equal(t, 2, sum.ActiveProjects)
	assert.Equal(t, 2, sum.TotalPhotos)
	assert.Equal(t, a.FileSize+b.FileSize, sum.StorageBytes)

	env.ds.setUnavailable(true)
	_, err = env.stats.Summary(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestErrorIsByCode(t *testing.T) {
	wrapped := ErrProjectNotFound.wrap(assert.AnError)
	assert.ErrorIs(t, wrapped, ErrProjectNotFound)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.NotErrorIs(t, wrapped, ErrPhotoNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, "not_found", KindNotFound.String())
}
