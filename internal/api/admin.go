package api

import (
	"net/http"
	"strconv"
	"time"

	"menumakers/internal/domain"
	"menumakers/internal/services"
	"menumakers/internal/store"
	apperrors "menumakers/pkg/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authStatusResponse struct {
	Success       bool   `json:"success"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type inquiriesResponse struct {
	Success   bool                    `json:"success"`
	Inquiries []domain.ContactInquiry `json:"inquiries"`
}

type inquiryResponse struct {
	Success bool                   `json:"success"`
	Inquiry *domain.ContactInquiry `json:"inquiry"`
}

type statsResponse struct {
	Success bool                `json:"success"`
	Stats   *store.InquiryStats `json:"stats"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type sendEmailRequest struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	InquiryID *uint  `json:"inquiryId"`
	ReplyTo   string `json:"replyTo"`
}

type sendEmailResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	res, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Success:  true,
		Message:  "Login successful",
		Username: res.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), s.tokenFromRequest(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(r.Context(), w, http.StatusOK, messageResponse{Success: true, Message: "Logged out successfully"})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	res := authStatusResponse{Success: true}
	if sess, err := s.auth.Check(r.Context(), s.tokenFromRequest(r)); err == nil {
		res.Authenticated = true
		res.Username = sess.Username
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = services.MaxListLimit
	}

	inquiries, err := s.inquiries.List(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if inquiries == nil {
		inquiries = []domain.ContactInquiry{}
	}
	writeJSON(r.Context(), w, http.StatusOK, inquiriesResponse{Success: true, Inquiries: inquiries})
}

func (s *Server) handleGetInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := s.inquiryID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	inquiry, err := s.inquiries.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, inquiryResponse{Success: true, Inquiry: inquiry})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.inquiries.Stats(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := s.inquiryID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var body statusRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	sess, _ := sessionFromContext(r.Context())
	if err := s.inquiries.SetStatus(r.Context(), id, body.Status, sess.Username); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, messageResponse{Success: true, Message: "Status updated successfully"})
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var body sendEmailRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	res, err := s.inquiries.Reply(r.Context(), services.ReplyRequest{
		To:        body.To,
		Subject:   body.Subject,
		Message:   body.Message,
		InquiryID: body.InquiryID,
		ReplyTo:   body.ReplyTo,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, sendEmailResponse{
		Success:   true,
		Message:   "Email sent successfully",
		Timestamp: res.SentAt,
	})
}

func (s *Server) inquiryID(r *http.Request) (uint, error) {
	raw := s.mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("Invalid inquiry id: %q", raw)
	}
	return uint(id), nil
}
