package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusNotFound:
		return "not found"
	case http.StatusNotAcceptable:
		return "not acceptable"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}

// Errors отдает клиенту ошибки, накопленные в c.Errors, в виде {"error": "..."}.
// Текст берется из последней публичной ошибки, приватные ошибки клиенту не показываются.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		msg := statusErrorText(c.Writer.Status())
		if public := c.Errors.ByType(gin.ErrorTypePublic).Last(); public != nil {
			msg = public.Error()
		}

		c.JSON(c.Writer.Status(), gin.H{"error": msg})
		c.Abort()
	}
}
