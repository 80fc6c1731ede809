package response

import (
	"net/http"

	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success writes the standard success envelope.
func Success(c *gin.Context, status int, data any, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	code := apperror.MapErrorToStatus(appErr)

	body := errorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}

	if code == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("internal error")

		body = errorBody{Code: apperror.CodeInternal, Message: "internal server error"}
		if gin.IsDebugging() && err != nil {
			body.Details = map[string]any{"cause": err.Error()}
		}
	}

	c.JSON(code, gin.H{"success": false, "error": body})
}

// AbortWithError writes the error and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	ResponseError(c, err)
	c.Abort()
}
