package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuanhandsomes/web-upload-image/middleware"
	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/validation"
)

func ListAccounts(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.AccountQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			renderBadRequest(c, err.Error())
			return
		}

		page, err := accounts.List(c.Request.Context(), q)
		if err != nil {
			renderError(c, "ListAccounts", err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func GetAccount(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, "GetAccount", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func CreateAccount(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBadRequest(c, err.Error())
			return
		}

		errs := validation.AccountForm(validation.AccountInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			Role:            string(req.Role),
			Status:          string(req.Status),
		}, false)
		if !errs.Valid() {
			renderValidation(c, errs)
			return
		}

		account, err := accounts.Create(c.Request.Context(), req)
		if err != nil {
			renderError(c, "CreateAccount", err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

// UpdateAccount validates the merged account, so omitted fields keep their
// current values.
func UpdateAccount(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBadRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		id := c.Param("id")

		current, err := accounts.Get(ctx, id)
		if err != nil {
			renderError(c, "UpdateAccount", err)
			return
		}

		in := validation.AccountInput{
			Username: current.Username,
			Email:    current.Email,
			Role:     string(current.Role),
			Status:   string(current.Status),
		}
		if req.Username != nil {
			in.Username = *req.Username
		}
		if req.Email != nil {
			in.Email = *req.Email
		}
		if req.Password != nil {
			in.Password = *req.Password
		}
		if req.ConfirmPassword != nil {
			in.ConfirmPassword = *req.ConfirmPassword
		} else {
			in.ConfirmPassword = in.Password
		}
		if req.Role != nil {
			in.Role = string(*req.Role)
		}
		if req.Status != nil {
			in.Status = string(*req.Status)
		}
		if errs := validation.AccountForm(in, true); !errs.Valid() {
			renderValidation(c, errs)
			return
		}

		account, err := accounts.Update(ctx, id, req)
		if err != nil {
			renderError(c, "UpdateAccount", err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func DeleteAccount(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := accounts.Delete(c.Request.Context(), c.Param("id"), middleware.SessionFrom(c))
		if err != nil {
			renderError(c, "DeleteAccount", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
	}
}
