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

// Login authenticates against accounts holding role. The user and admin
// portals use separate routes so an account can only sign in to its own.
func Login(accounts *services.AccountService, tokens *middleware.Tokens, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBadRequest(c, err.Error())
			return
		}

		if errs := validation.Credentials(req.Identifier, req.Password); !errs.Valid() {
			renderValidation(c, errs)
			return
		}

		account, err := accounts.Authenticate(c.Request.Context(), req.Identifier, req.Password, role)
		if err != nil {
			renderError(c, "Login", err)
			return
		}

		token, expires, err := tokens.Issue(*account)
		if err != nil {
			renderError(c, "Login", err)
			return
		}

		log.Printf("Login: account=%s role=%s", account.ID, role)
		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     token,
			ExpiresAt: expires,
			Account:   *account,
		})
	}
}

func Me(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.SessionFrom(c)
		account, err := accounts.Get(c.Request.Context(), session.UserID)
		if err != nil {
			renderError(c, "Me", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}
