package models

import (
	"strings"
	"time"
)

// MaxFileSize is the largest photo accepted, in bytes.
const MaxFileSize = 5 * 1024 * 1024

// Photo is an uploaded image. FileURL embeds the image bytes as a base64
// data URL; there is no separate binary storage.
type Photo struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"projectId" db:"project_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Tags        []string  `json:"tags" db:"tags"`
	FileName    string    `json:"fileName" db:"file_name"`
	FileSize    int64     `json:"fileSize" db:"file_size"`
	FileURL     string    `json:"fileUrl" db:"file_url"`
	UploadedAt  time.Time `json:"uploadedAt" db:"uploaded_at"`
}

func (p Photo) RecordID() string { return p.ID }

func (p Photo) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "projectId":
		return p.ProjectID, true
	case "userId":
		return p.UserID, true
	case "fileName":
		return p.FileName, true
	}
	return "", false
}

// HasTag reports whether tag is one of the photo's tags.
func (p Photo) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PhotoInput is the metadata supplied alongside an uploaded file.
type PhotoInput struct {
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type PhotoSort string

const (
	SortNewest PhotoSort = "newest"
	SortOldest PhotoSort = "oldest"
)

type PhotoQuery struct {
	ProjectID string    `form:"project_id"`
	UserID    string    `form:"user_id"`
	Tag       string    `form:"tag"`
	Sort      PhotoSort `form:"sort"`

	// ActiveProjectsOnly hides photos of inactive projects (user gallery).
	ActiveProjectsOnly bool `form:"-"`
}

type PhotosResponse struct {
	Photos []Photo `json:"photos"`
	Total  int     `json:"total"`
}

// ParseTags splits comma-separated tag input, trimming each entry and
// dropping empty ones. Order is preserved.
func ParseTags(input string) []string {
	tags := []string{}
	for _, part := range strings.Split(input, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeTags applies the ParseTags rules to already split tags.
func NormalizeTags(in []string) []string {
	tags := []string{}
	for _, t := range in {
		if tag := strings.TrimSpace(t); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
