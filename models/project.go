package models

import (
	"strconv"
	"time"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectInactive ProjectStatus = "inactive"
)

// Project groups photos uploaded by users.
// PhotoCount and CoverPhotoURL are derived from the project's photos and are
// only written by photo reconciliation, never by a project form.
type Project struct {
	ID            string        `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Status        ProjectStatus `json:"status" db:"status"`
	PhotoCount    int           `json:"photoCount" db:"photo_count"`
	CoverPhotoURL *string       `json:"coverPhotoUrl" db:"cover_photo_url"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	CreatedBy     string        `json:"createdBy" db:"created_by"`
}

func (p Project) RecordID() string { return p.ID }

func (p Project) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "status":
		return string(p.Status), true
	case "createdBy":
		return p.CreatedBy, true
	case "photoCount":
		return strconv.Itoa(p.PhotoCount), true
	}
	return "", false
}

// CreateProjectRequest is the payload of the project form.
type CreateProjectRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
}

// UpdateProjectRequest carries only the fields being changed.
type UpdateProjectRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status"`
}

// ProjectQuery filters project listings.
type ProjectQuery struct {
	Status ProjectStatus `form:"status"`
	Search string        `form:"search"`
}

// ProjectsResponse is the standard response format for project listings.
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}
