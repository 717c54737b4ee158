package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/validation"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:      http.StatusBadRequest,
	services.KindConflict:        http.StatusConflict,
	services.KindNotFound:        http.StatusNotFound,
	services.KindForbidden:       http.StatusForbidden,
	services.KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	services.KindConnectivity:    http.StatusServiceUnavailable,
	services.KindUnauthorized:    http.StatusUnauthorized,
}

// renderError writes err as {"error", "code"} with a status picked by kind.
// Unclassified errors are logged and hidden behind a generic message.
func renderError(c *gin.Context, op string, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Printf("%s error: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
		return
	}

	status, ok := statusByKind[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
		log.Printf("%s error: %v", op, err)
	}
	c.JSON(status, gin.H{"error": svcErr.Message, "code": svcErr.Code})
}

func renderValidation(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": errs})
}

func renderBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
