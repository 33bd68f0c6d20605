package api

import "net/http"

type healthResponse struct {
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.health.Check(r.Context())
	status := http.StatusOK
	if !res.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(r.Context(), w, status, healthResponse{
		Success:  res.Healthy(),
		Status:   res.Status,
		Service:  res.Service,
		Database: res.Database,
	})
}
