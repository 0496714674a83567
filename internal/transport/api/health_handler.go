package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Show GET HealthRoute.
func (h *HealthHandler) Show(c *gin.Context) {
	if h.checker != nil {
		reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
		defer cancel()

		if err := h.checker.Ping(reqCtx); err != nil {
			abortWithError(c, http.StatusServiceUnavailable, err, nil)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
