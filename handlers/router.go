package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tuanhandsomes/web-upload-image/middleware"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Accounts       *services.AccountService
	Projects       *services.ProjectService
	Photos         *services.PhotoService
	Stats          *services.StatsService
	Tokens         *middleware.Tokens
	AllowedOrigins []string

	// LoginRate caps login attempts per client IP per minute; 0 disables it.
	LoginRate int
}

// uploadMemory bounds how much of a multipart batch is held in memory before
// spilling to temp files.
const uploadMemory = 4 * models.MaxFileSize

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = uploadMemory

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	r.GET("/health", HealthCheck)

	auth := r.Group("/api/auth")
	auth.Use(middleware.RateLimit(d.LoginRate))
	{
		auth.POST("/login", Login(d.Accounts, d.Tokens, models.RoleUser))
		auth.POST("/admin/login", Login(d.Accounts, d.Tokens, models.RoleAdmin))
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(d.Tokens, d.Accounts))
	{
		api.GET("/me", Me(d.Accounts))

		api.GET("/projects", ListProjects(d.Projects))
		api.GET("/projects/:id", GetProject(d.Projects))
		api.GET("/projects/:id/photos", ListProjectPhotos(d.Projects, d.Photos))
		api.POST("/projects/:id/photos", UploadPhotos(d.Projects, d.Photos))

		api.GET("/gallery", Gallery(d.Photos))
		api.GET("/tags", ListTags(d.Photos))
		api.GET("/photos/:id", GetPhoto(d.Projects, d.Photos))
		api.DELETE("/photos/:id", DeletePhoto(d.Photos))
	}

	admin := api.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/projects", CreateProject(d.Projects))
		admin.PUT("/projects/:id", UpdateProject(d.Projects))
		admin.DELETE("/projects/:id", DeleteProject(d.Projects, d.Photos))

		admin.GET("/photos", Gallery(d.Photos))
		admin.GET("/stats", Stats(d.Stats))

		admin.GET("/accounts", ListAccounts(d.Accounts))
		admin.GET("/accounts/:id", GetAccount(d.Accounts))
		admin.POST("/accounts", CreateAccount(d.Accounts))
		admin.PUT("/accounts/:id", UpdateAccount(d.Accounts))
		admin.DELETE("/accounts/:id", DeleteAccount(d.Accounts))
	}

	return r
}
