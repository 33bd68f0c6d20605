package api

import (
	"net/http"

	"menumakers/internal/ratelimit"
	"menumakers/internal/services"
	apperrors "menumakers/pkg/errors"
)

type contactRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	TeamMember string `json:"teamMember"`
}

type contactResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ReferenceID uint   `json:"referenceId"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var body contactRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	res, err := s.contact.Submit(r.Context(), services.ContactSubmission{
		Name:       body.Name,
		Email:      body.Email,
		Phone:      body.Phone,
		Subject:    body.Subject,
		Message:    body.Message,
		TeamMember: body.TeamMember,
		IPAddress:  ratelimit.KeyFromRequest(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, contactResponse{
		Success:     true,
		Message:     res.Message,
		ReferenceID: res.ReferenceID,
	})
}

func (s *Server) rejectContact(w http.ResponseWriter, r *http.Request, _ ratelimit.Result) {
	writeError(r.Context(), w, apperrors.New(apperrors.ErrCodeRateLimited,
		"Too many contact requests from this address. Please try again later."))
}
