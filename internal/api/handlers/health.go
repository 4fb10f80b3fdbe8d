package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytgrab/ytgrab/internal/database"
	"github.com/ytgrab/ytgrab/internal/utils"
)

type HealthHandler struct {
	apiKeyConfigured bool
	db               *database.PostgresDB
}

type HealthResponse struct {
	Status           string                   `json:"status"`
	Timestamp        string                   `json:"timestamp"`
	Version          string                   `json:"version"`
	APIKeyConfigured bool                     `json:"apiKeyConfigured"`
	Services         map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewHealthHandler builds the health endpoint. db is nil when the history
// store runs in memory.
func NewHealthHandler(apiKeyConfigured bool, db *database.PostgresDB) *HealthHandler {
	return &HealthHandler{
		apiKeyConfigured: apiKeyConfigured,
		db:               db,
	}
}

// Health godoc
// @Summary Health check endpoint
// @Description Report service health and whether the metadata API key is configured
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:           "OK",
		Timestamp:        time.Now().Format(time.RFC3339),
		Version:          "1.0.0",
		APIKeyConfigured: h.apiKeyConfigured,
	}

	// A missing API key degrades the metadata path but the service itself
	// is still healthy; only a broken history store flips the status.
	if h.db != nil {
		response.Services = map[string]ServiceHealth{
			"history": h.checkDatabase(ctx),
		}
		if response.Services["history"].Status != "healthy" {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	ready := true
	checks := make(map[string]interface{})

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			ready = false
			checks["history"] = map[string]interface{}{
				"ready": false,
				"error": err.Error(),
			}
		} else {
			checks["history"] = map[string]interface{}{
				"ready": true,
			}
		}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.db.Ping(checkCtx)
	responseTime := time.Since(start).String()

	if err != nil {
		utils.LogError(ctx, "History database health check failed", err)
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
