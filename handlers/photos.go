package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tuanhandsomes/web-upload-image/middleware"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/upload"
)

// formFile adapts a multipart part to models.File.
type formFile struct {
	header   *multipart.FileHeader
	modified time.Time
}

func (f formFile) Name() string                 { return f.header.Filename }
func (f formFile) Size() int64                  { return f.header.Size }
func (f formFile) LastModified() time.Time      { return f.modified }
func (f formFile) Open() (io.ReadCloser, error) { return f.header.Open() }

// UploadResponse is returned by the batch upload endpoint.
type UploadResponse struct {
	Records    []upload.Record    `json:"records"`
	Rejected   []upload.Rejection `json:"rejected"`
	Duplicates []string           `json:"duplicates"`
	Notices    []upload.Notice    `json:"notices"`
	Attempted  int                `json:"attempted"`
	Failed     int                `json:"failed"`
}

func formValue(values []string, i int) (string, bool) {
	if i < len(values) {
		return values[i], true
	}
	return "", false
}

// UploadPhotos accepts a multipart batch: "files" plus optional title,
// description, tags and lastModified (unix millis) values aligned by index.
// Every file goes through intake and the sequential upload batch.
func UploadPhotos(projects *services.ProjectService, photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := visibleProject(c, projects, c.Param("id"))
		if err != nil {
			renderError(c, "UploadPhotos", err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			renderBadRequest(c, "expected a multipart form")
			return
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			renderBadRequest(c, "no files provided")
			return
		}

		var (
			mu      sync.Mutex
			notices = []upload.Notice{}
		)
		orch := upload.New(photos, project.ID, middleware.SessionFrom(c),
			upload.WithNotifier(func(n upload.Notice) {
				mu.Lock()
				notices = append(notices, n)
				mu.Unlock()
			}))
		defer orch.Close()

		resp := UploadResponse{
			Rejected:   []upload.Rejection{},
			Duplicates: []string{},
		}

		for i, h := range headers {
			modified := time.Now()
			if raw, ok := formValue(form.Value["lastModified"], i); ok {
				if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
					modified = time.UnixMilli(ms)
				}
			}

			res := orch.Intake([]models.File{formFile{header: h, modified: modified}})
			resp.Rejected = append(resp.Rejected, res.Rejected...)
			resp.Duplicates = append(resp.Duplicates, res.Duplicates...)

			for _, rec := range res.Accepted {
				for _, field := range []string{"title", "description", "tags"} {
					if v, ok := formValue(form.Value[field], i); ok {
						if _, err := orch.UpdateMetadata(rec.ID, field, v); err != nil {
							log.Printf("UploadPhotos: metadata error: %v", err)
						}
					}
				}
			}
		}

		batch, err := orch.UploadAll(c.Request.Context())
		if err != nil {
			if errors.Is(err, upload.ErrBatchInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			renderError(c, "UploadPhotos", err)
			return
		}

		resp.Records = batch.Records
		if resp.Records == nil {
			resp.Records = []upload.Record{}
		}
		resp.Attempted = batch.Attempted
		resp.Failed = batch.Failed
		mu.Lock()
		resp.Notices = notices
		mu.Unlock()

		status := http.StatusCreated
		if resp.Failed > 0 || resp.Attempted == 0 {
			status = http.StatusOK
		}
		c.JSON(status, resp)
	}
}

func ListProjectPhotos(projects *services.ProjectService, photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := visibleProject(c, projects, c.Param("id"))
		if err != nil {
			renderError(c, "ListProjectPhotos", err)
			return
		}

		var q models.PhotoQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			renderBadRequest(c, err.Error())
			return
		}
		q.ProjectID = project.ID

		listPhotos(c, photos, q)
	}
}

// Gallery lists photos across projects. Users never see photos of inactive
// projects.
func Gallery(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.PhotoQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			renderBadRequest(c, err.Error())
			return
		}
		q.ActiveProjectsOnly = !middleware.SessionFrom(c).IsAdmin()

		listPhotos(c, photos, q)
	}
}

func listPhotos(c *gin.Context, photos *services.PhotoService, q models.PhotoQuery) {
	list, err := photos.List(c.Request.Context(), q)
	if err != nil {
		renderError(c, "ListPhotos", err)
		return
	}
	c.JSON(http.StatusOK, models.PhotosResponse{
		Photos: list,
		Total:  len(list),
	})
}

func ListTags(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.PhotoQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			renderBadRequest(c, err.Error())
			return
		}
		q.ActiveProjectsOnly = !middleware.SessionFrom(c).IsAdmin()

		tags, err := photos.Tags(c.Request.Context(), q)
		if err != nil {
			renderError(c, "ListTags", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tags": tags})
	}
}

// GetPhoto hides photos of inactive projects from non-admin sessions, the same
// way the gallery does.
func GetPhoto(projects *services.ProjectService, photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		photo, err := photos.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, "GetPhoto", err)
			return
		}
		if !middleware.SessionFrom(c).IsAdmin() {
			if _, err := visibleProject(c, projects, photo.ProjectID); err != nil {
				if services.KindOf(err) == services.KindNotFound {
					err = services.ErrPhotoNotFound
				}
				renderError(c, "GetPhoto", err)
				return
			}
		}
		c.JSON(http.StatusOK, photo)
	}
}

// DeletePhoto succeeds once the photo is gone, even when the project counters
// could not be refreshed.
func DeletePhoto(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := photos.Delete(c.Request.Context(), c.Param("id"), middleware.SessionFrom(c))

		var reconcileErr *services.ReconcileError
		switch {
		case errors.As(err, &reconcileErr):
			log.Printf("DeletePhoto: %v", reconcileErr)
			c.JSON(http.StatusOK, gin.H{
				"message": "photo deleted",
				"warning": "project counters will be refreshed later",
			})
		case err != nil:
			renderError(c, "DeletePhoto", err)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "photo deleted"})
		}
	}
}

func Stats(stats *services.StatsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := stats.Summary(c.Request.Context())
		if err != nil {
			renderError(c, "Stats", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
