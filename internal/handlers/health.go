package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/scheduler"
)

type ConnectionCounter interface {
	Len() int
}

type DependencyStatus interface {
	Status() (map[string]scheduler.Result, bool)
}

// HealthCheck reports liveness, the number of open sockets and the latest
// dependency checks. It answers 503 while a dependency is failing.
func HealthCheck(connections ConnectionCounter, deps DependencyStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := deps.Status()

		status, code := "ok", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":      status,
			"message":     "Sphere is running",
			"connections": connections.Len(),
			"checks":      checks,
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	}
}
