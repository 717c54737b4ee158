package services

import "github.com/tuanhandsomes/web-upload-image/models"

// Session identifies the caller of a service operation.
type Session struct {
	UserID string
	Role   models.Role
}

func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }
