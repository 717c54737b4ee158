package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuanhandsomes/web-upload-image/middleware"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/validation"
)

func CreateProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("Bind error: %v", err)
			renderBadRequest(c, err.Error())
			return
		}

		errs := validation.ProjectForm(validation.ProjectInput{
			Name:        req.Name,
			Description: req.Description,
			Status:      string(req.Status),
		})
		if !errs.Valid() {
			renderValidation(c, errs)
			return
		}

		log.Printf("Creating project: %s", req.Name)

		session := middleware.SessionFrom(c)
		project, err := projects.Create(c.Request.Context(), req, session.UserID)
		if err != nil {
			renderError(c, "CreateProject", err)
			return
		}

		c.JSON(http.StatusCreated, project)
	}
}

// ListProjects shows users only active projects. Admins may filter by status.
func ListProjects(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.ProjectQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			renderBadRequest(c, err.Error())
			return
		}
		if !middleware.SessionFrom(c).IsAdmin() {
			q.Status = models.ProjectActive
		}

		list, err := projects.List(c.Request.Context(), q)
		if err != nil {
			renderError(c, "ListProjects", err)
			return
		}

		c.JSON(http.StatusOK, models.ProjectsResponse{
			Projects: list,
			Total:    len(list),
		})
	}
}

func GetProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := visibleProject(c, projects, c.Param("id"))
		if err != nil {
			renderError(c, "GetProject", err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// visibleProject hides inactive projects from non-admin sessions.
func visibleProject(c *gin.Context, projects *services.ProjectService, id string) (*models.Project, error) {
	project, err := projects.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectActive && !middleware.SessionFrom(c).IsAdmin() {
		return nil, services.ErrProjectNotFound
	}
	return project, nil
}

// UpdateProject validates the merged project. Counters are never taken from
// the request.
func UpdateProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBadRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		id := c.Param("id")

		current, err := projects.Get(ctx, id)
		if err != nil {
			renderError(c, "UpdateProject", err)
			return
		}

		in := validation.ProjectInput{
			Name:        current.Name,
			Description: current.Description,
			Status:      string(current.Status),
		}
		if req.Name != nil {
			in.Name = *req.Name
		}
		if req.Description != nil {
			in.Description = *req.Description
		}
		if req.Status != nil {
			in.Status = string(*req.Status)
		}
		if errs := validation.ProjectForm(in); !errs.Valid() {
			renderValidation(c, errs)
			return
		}

		project, err := projects.Update(ctx, id, req)
		if err != nil {
			renderError(c, "UpdateProject", err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// DeleteProject purges the project's photos before removing the project so no
// photo outlives it.
func DeleteProject(projects *services.ProjectService, photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		if _, err := projects.Get(ctx, id); err != nil {
			renderError(c, "DeleteProject", err)
			return
		}

		purged, err := photos.DeleteByProject(ctx, id)
		if err != nil {
			renderError(c, "DeleteProject", err)
			return
		}

		if err := projects.Delete(ctx, id); err != nil {
			renderError(c, "DeleteProject", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "project deleted",
			"photosDeleted": purged,
		})
	}
}
