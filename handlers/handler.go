// Package handlers exposes the tracker over a JSON REST API.
package handlers

import (
	"context"
	"strconv"

	"a11y_tracker/logger"
	"a11y_tracker/storage"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports which store is serving requests and whether the
// database answers.
type HealthChecker interface {
	Mode() string
	PingPrimary(ctx context.Context) error
}

type Handler struct {
	store  storage.Store
	health HealthChecker
	log    *logger.Logger
}

func New(store storage.Store, health HealthChecker, log *logger.Logger) *Handler {
	return &Handler{store: store, health: health, log: log.WithComponent("api")}
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam(name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, invalidParam(name)
	}
	return v, nil
}

func queryFileID(c *gin.Context) (*int64, error) {
	raw := c.Query("file_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalidParam("file_id")
	}
	return &id, nil
}
