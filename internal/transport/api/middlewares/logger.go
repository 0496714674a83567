package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger пишет в лог каждый запрос. Уровень зависит от статуса ответа, приватные ошибки
// из c.Errors попадают в поле errors.
func Logger(l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithField("component", "http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"status":   status,
			"latency":  time.Since(start).String(),
			"clientIP": c.ClientIP(),
			"method":   c.Request.Method,
			"path":     path,
		}
		if privateErrs := c.Errors.ByType(gin.ErrorTypePrivate); len(privateErrs) > 0 {
			fields["errors"] = privateErrs.String()
		}

		reqLog := entry.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("request")
		case status >= http.StatusBadRequest:
			reqLog.Warn("request")
		default:
			reqLog.Info("request")
		}
	}
}
