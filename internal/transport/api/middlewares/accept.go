package middlewares

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var errNotAcceptable = errors.New("Accept header must allow application/json") //nolint:stylecheck

// AcceptJSON пропускает запрос, если заголовок Accept отсутствует либо разрешает */*, application/*
// или application/json с ненулевым q.
// Иначе запрос завершается статусом 406 до вызова обработчика.
func AcceptJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if acceptsJSON(c.GetHeader("Accept")) {
			c.Next()
			return
		}
		c.Status(http.StatusNotAcceptable)
		_ = c.Error(errNotAcceptable).SetType(gin.ErrorTypePublic)
		c.Abort()
	}
}

func acceptsJSON(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}
	for _, mediaRange := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(mediaRange))
		if err != nil {
			continue
		}
		switch mediaType {
		case "*/*", "application/*", binding.MIMEJSON:
		default:
			continue
		}
		if q, ok := params["q"]; ok {
			// q=0 означает "не принимается".
			if weight, parseErr := strconv.ParseFloat(q, 64); parseErr != nil || weight <= 0 {
				continue
			}
		}
		return true
	}
	return false
}
