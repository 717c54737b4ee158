package database

import (
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

var accountsTable = table[models.Account]{
	tableDef: &tableDef{
		name:    store.CollectionAccounts,
		columns: []string{"id", "username", "email", "password_hash", "role", "status", "created_at"},
		filters: map[string]string{
			"id":       "id",
			"username": "username",
			"email":    "email",
			"role":     "role",
			"status":   "status",
		},
		constraints: map[string]string{
			"accounts_pkey":         "id",
			"accounts_username_key": "username",
			"accounts_email_key":    "email",
		},
		orderBy: "created_at, id",
	},
	scan: scanAccount,
	values: func(a models.Account) []interface{} {
		return []interface{}{a.ID, a.Username, a.Email, a.PasswordHash, string(a.Role), string(a.Status), a.CreatedAt}
	},
}

var projectsTable = table[models.Project]{
	tableDef: &tableDef{
		name: store.CollectionProjects,
		columns: []string{
			"id", "name", "description", "status", "photo_count",
			"cover_photo_url", "created_at", "created_by",
		},
		filters: map[string]string{
			"id":        "id",
			"name":      "name",
			"status":    "status",
			"createdBy": "created_by",
		},
		constraints: map[string]string{
			"projects_pkey":     "id",
			"projects_name_key": "name",
		},
		orderBy: "created_at, id",
	},
	scan: scanProject,
	values: func(p models.Project) []interface{} {
		return []interface{}{
			p.ID, p.Name, p.Description, string(p.Status), p.PhotoCount,
			p.CoverPhotoURL, p.CreatedAt, p.CreatedBy,
		}
	},
}

var photosTable = table[models.Photo]{
	tableDef: &tableDef{
		name: store.CollectionPhotos,
		columns: []string{
			"id", "project_id", "user_id", "title", "description", "tags",
			"file_name", "file_size", "file_url", "uploaded_at",
		},
		filters: map[string]string{
			"id":        "id",
			"projectId": "project_id",
			"userId":    "user_id",
			"fileName":  "file_name",
		},
		constraints: map[string]string{
			"photos_pkey": "id",
		},
		orderBy: "uploaded_at, id",
	},
	scan: scanPhoto,
	values: func(p models.Photo) []interface{} {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		return []interface{}{
			p.ID, p.ProjectID, p.UserID, p.Title, p.Description, tags,
			p.FileName, p.FileSize, p.FileURL, p.UploadedAt,
		}
	},
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		a            models.Account
		role, status string
	)
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&role,
		&status,
		&a.CreatedAt,
	)
	if err != nil {
		return models.Account{}, err
	}
	a.Role = models.Role(role)
	a.Status = models.AccountStatus(status)
	return a, nil
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p      models.Project
		status string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&status,
		&p.PhotoCount,
		&p.CoverPhotoURL,
		&p.CreatedAt,
		&p.CreatedBy,
	)
	if err != nil {
		return models.Project{}, err
	}
	p.Status = models.ProjectStatus(status)
	return p, nil
}

func scanPhoto(row rowScanner) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.Tags,
		&p.FileName,
		&p.FileSize,
		&p.FileURL,
		&p.UploadedAt,
	)
	if err != nil {
		return models.Photo{}, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}
