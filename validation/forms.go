package validation

import "strings"

type credentialsForm struct {
	Identifier string `json:"identifier" validate:"required,identifier"`
	Password   string `json:"password" validate:"required,min=6"`
}

var credentialsMessages = messages{
	"identifier.required":   "username or email is required",
	"identifier.identifier": "username or email is invalid",
	"password.required":     "password is required",
	"password.min":          "password must be at least 6 characters",
}

// Credentials checks a login form. The identifier may be a username or an
// email address.
func Credentials(identifier, password string) Errors {
	return run(credentialsForm{
		Identifier: strings.TrimSpace(identifier),
		Password:   password,
	}, credentialsMessages)
}

// AccountInput is the account form as submitted.
type AccountInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	Status          string
}

type newAccountForm struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=admin user"`
	Status          string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type editAccountForm struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=admin user"`
	Status          string `json:"status" validate:"omitempty,oneof=active inactive"`
}

var accountMessages = messages{
	"username.required":       "username is required",
	"username.username":       "username must be 3-20 characters of letters, digits, '.', '_' or '-'",
	"email.required":          "email is required",
	"email.email":             "email is invalid",
	"password.required":       "password is required",
	"password.min":            "password must be at least 6 characters",
	"confirmPassword.eqfield": "passwords do not match",
	"role.required":           "role is required",
	"role.oneof":              "role is invalid",
	"status.oneof":            "status is invalid",
}

// AccountForm checks the account form. When editing, an empty password
// means "keep the current one".
func AccountForm(in AccountInput, editing bool) Errors {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if editing {
		return run(editAccountForm(in), accountMessages)
	}
	return run(newAccountForm(in), accountMessages)
}

// ProjectInput is the project form as submitted.
type ProjectInput struct {
	Name        string
	Description string
	Status      string
}

type projectForm struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

var projectMessages = messages{
	"name.required":   "project name is required",
	"name.min":        "project name must be at least 3 characters",
	"name.max":        "project name must be at most 100 characters",
	"description.max": "description must be at most 500 characters",
	"status.oneof":    "status is invalid",
}

func ProjectForm(in ProjectInput) Errors {
	return run(projectForm{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
	}, projectMessages)
}

type photoMetadataForm struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Tags        string `json:"tags"`
}

var photoMessages = messages{
	"title.required":  "title is required",
	"title.max":       "title must be at most 255 characters",
	"description.max": "description must be at most 1000 characters",
}

// PhotoMetadata checks the per-file fields edited before upload.
// Tags are free text.
func PhotoMetadata(title, description, tags string) Errors {
	return run(photoMetadataForm{
		Title:       strings.TrimSpace(title),
		Description: description,
		Tags:        tags,
	}, photoMessages)
}
