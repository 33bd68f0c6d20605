package services

import (
	"context"
	"log"

	"menumakers/internal/store"
)

// HealthResult is the health check payload
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	store   store.Store
	service string
}

// NewHealthService creates a new health service
func NewHealthService(st store.Store, service string) *HealthService {
	return &HealthService{store: st, service: service}
}

// Check reports whether the service and its database are usable.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.service,
		Database: "connected",
	}
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("[HEALTH] Database ping failed: %v", err)
		result.Status = "degraded"
		result.Database = "unavailable"
	}
	return result
}

// Healthy reports whether the last check found every dependency up.
func (r *HealthResult) Healthy() bool {
	return r.Status == "healthy"
}
