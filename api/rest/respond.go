package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/apperr"
)

// httpStatus maps domain error codes onto HTTP statuses in one place,
// so handlers surface services' errors without re-classifying them.
func httpStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict, apperr.CodeSlotsExhausted:
		return http.StatusConflict
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeUnimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := httpStatus(code)
	body := gin.H{"error": err.Error()}
	if code != apperr.CodeUnknown {
		body["code"] = code
	}
	if status == http.StatusInternalServerError {
		// Do not leak storage internals to clients.
		body = gin.H{"error": "internal error"}
	}
	c.AbortWithStatusJSON(status, body)
}
