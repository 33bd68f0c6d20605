package api

import "net/http"

type seedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IDs     []uint `json:"ids"`
}

type cleanResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (s *Server) handleSeedSamples(w http.ResponseWriter, r *http.Request) {
	ids, err := s.inquiries.SeedSamples(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, seedResponse{
		Success: true,
		Message: "Sample inquiries created",
		IDs:     ids,
	})
}

func (s *Server) handleCleanDatabase(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.inquiries.Clear(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, cleanResponse{
		Success: true,
		Message: "Database cleaned",
		Deleted: deleted,
	})
}
