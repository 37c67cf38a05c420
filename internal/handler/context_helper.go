package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/middleware"
	"github.com/citasalud/citasalud-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback))); err == nil {
		return v
	}
	return fallback
}

// queryDate parses an optional YYYY-MM-DD query parameter. A missing or
// malformed value yields nil.
func queryDate(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// queryDateEnd parses an inclusive closing-day parameter: the returned
// instant is the start of the following day, so a window query with
// start_time < end keeps every slot on the named day.
func queryDateEnd(c *gin.Context, key string) *time.Time {
	t := queryDate(c, key)
	if t == nil {
		return nil
	}
	end := t.AddDate(0, 0, 1)
	return &end
}
