package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanhandsomes/web-upload-image/models"
)

// serveCollection exposes col the way a JSON REST backend does.
func serveCollection[T models.Record](r *gin.Engine, name string, col Collection[T]) {
	r.GET("/"+name, func(c *gin.Context) {
		filter := Filter{}
		for field, values := range c.Request.URL.Query() {
			filter[field] = values[0]
		}
		records, err := col.List(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
	})
	r.GET("/"+name+"/:id", func(c *gin.Context) {
		record, err := col.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		c.JSON(http.StatusOK, record)
	})
	r.POST("/"+name, func(c *gin.Context) {
		var record T
		if err := c.ShouldBindJSON(&record); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		stored, err := col.Create(c.Request.Context(), record)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"message": "duplicate id"})
			return
		}
		c.JSON(http.StatusCreated, stored)
	})
	r.PUT("/"+name+"/:id", func(c *gin.Context) {
		var record T
		if err := c.ShouldBindJSON(&record); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		stored, err := col.Replace(c.Request.Context(), c.Param("id"), record)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stored)
	})
	r.DELETE("/"+name+"/:id", func(c *gin.Context) {
		if err := col.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	})
}

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backing, err := NewLocal("")
	require.NoError(t, err)

	r := gin.New()
	serveCollection(r, CollectionAccounts, backing.Accounts())
	serveCollection(r, CollectionProjects, backing.Projects())
	serveCollection(r, CollectionPhotos, backing.Photos())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteCRUD(t *testing.T) {
	ctx := context.Background()
	srv := newFakeAPI(t)

	remote, err := NewRemote(srv.URL, time.Second)
	require.NoError(t, err)
	defer remote.Close()

	photos := remote.Photos()
	_, err = photos.Create(ctx, models.Photo{ID: "1", ProjectID: "p", Tags: []string{"x"}})
	require.NoError(t, err)
	_, err = photos.Create(ctx, models.Photo{ID: "2", ProjectID: "q"})
	require.NoError(t, err)

	inP, err := photos.List(ctx, Eq("projectId", "p"))
	require.NoError(t, err)
	require.Len(t, inP, 1)
	assert.Equal(t, []string{"x"}, inP[0].Tags)

	got, err := photos.Get(ctx, "2")
	require.NoError(t, err)
	got.Title = "renamed"
	_, err = photos.Replace(ctx, "2", got)
	require.NoError(t, err)

	got, err = photos.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	require.NoError(t, photos.Delete(ctx, "2"))
	_, err = photos.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, photos.Delete(ctx, "2"), ErrNotFound)
}

func TestRemoteErrorMessage(t *testing.T) {
	ctx := context.Background()
	srv := newFakeAPI(t)

	remote, err := NewRemote(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = remote.Accounts().Create(ctx, models.Account{ID: "a"})
	require.NoError(t, err)
	_, err = remote.Accounts().Create(ctx, models.Account{ID: "a"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "duplicate id", apiErr.Message)
}

func TestRemoteErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	remote, err := NewRemote(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = remote.Projects().List(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestRemoteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	remote, err := NewRemote(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = remote.Projects().List(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	remote, err := NewRemote(url, time.Second)
	require.NoError(t, err)

	_, err = remote.Accounts().Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewRemoteRejectsBadURL(t *testing.T) {
	_, err := NewRemote("not a url", 0)
	assert.Error(t, err)
}
