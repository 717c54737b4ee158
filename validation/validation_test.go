package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		password   string
		fields     []string
	}{
		{name: "username ok", identifier: "john.doe", password: "secret1"},
		{name: "email ok", identifier: "john@example.com", password: "secret1"},
		{name: "missing identifier", identifier: "  ", password: "secret1", fields: []string{"identifier"}},
		{name: "bad identifier", identifier: "jo hn!", password: "secret1", fields: []string{"identifier"}},
		{name: "missing password", identifier: "john", password: "", fields: []string{"password"}},
		{name: "short password", identifier: "john", password: "12345", fields: []string{"password"}},
		{name: "both wrong", identifier: "", password: "", fields: []string{"identifier", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Credentials(tt.identifier, tt.password)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestAccountFormCreate(t *testing.T) {
	valid := AccountInput{
		Username:        "alice_01",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "user",
	}
	assert.True(t, AccountForm(valid, false).Valid())

	tests := []struct {
		name   string
		mutate func(*AccountInput)
		field  string
		msg    string
	}{
		{"empty username", func(in *AccountInput) { in.Username = "" }, "username", "username is required"},
		{"username too short", func(in *AccountInput) { in.Username = "ab" }, "username", ""},
		{"username with space", func(in *AccountInput) { in.Username = "al ice" }, "username", ""},
		{"bad email", func(in *AccountInput) { in.Email = "alice@" }, "email", "email is invalid"},
		{"missing password", func(in *AccountInput) { in.Password = ""; in.ConfirmPassword = "" }, "password", "password is required"},
		{"mismatch", func(in *AccountInput) { in.ConfirmPassword = "other11" }, "confirmPassword", "passwords do not match"},
		{"bad role", func(in *AccountInput) { in.Role = "root" }, "role", "role is invalid"},
		{"missing role", func(in *AccountInput) { in.Role = "" }, "role", "role is required"},
		{"bad status", func(in *AccountInput) { in.Status = "banned" }, "status", "status is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			errs := AccountForm(in, false)
			assert.Contains(t, errs, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errs[tt.field])
			}
		})
	}
}

func TestAccountFormEditAllowsEmptyPassword(t *testing.T) {
	in := AccountInput{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     "admin",
		Status:   "inactive",
	}
	assert.True(t, AccountForm(in, true).Valid())

	in.Password = "123"
	in.ConfirmPassword = "123"
	assert.Contains(t, AccountForm(in, true), "password")
}

func TestProjectForm(t *testing.T) {
	assert.True(t, ProjectForm(ProjectInput{Name: "Summer trip", Status: "active"}).Valid())

	errs := ProjectForm(ProjectInput{Name: "  ab  "})
	assert.Equal(t, "project name must be at least 3 characters", errs["name"])

	errs = ProjectForm(ProjectInput{Name: ""})
	assert.Equal(t, "project name is required", errs["name"])

	errs = ProjectForm(ProjectInput{Name: "ok name", Description: strings.Repeat("d", 501)})
	assert.Contains(t, errs, "description")

	errs = ProjectForm(ProjectInput{Name: "ok name", Status: "archived"})
	assert.Contains(t, errs, "status")
}

func TestPhotoMetadata(t *testing.T) {
	assert.True(t, PhotoMetadata("Beach", "", "").Valid())
	assert.True(t, PhotoMetadata("Beach", "", ",,, anything goes ,").Valid())

	errs := PhotoMetadata("   ", "desc", "a,b")
	assert.Equal(t, Errors{"title": "title is required"}, errs)

	errs = PhotoMetadata(strings.Repeat("t", 256), "", "")
	assert.Contains(t, errs, "title")
}
