package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "menumakers/pkg/errors"

	goahttp "goa.design/goa/v3/http"
)

const maxBodyBytes = 64 << 10

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeJSON encodes v with the negotiated encoder. The encoder sets
// Content-Type, so it is created before the status is written.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		log.Printf("[ERROR] %s failed to encode response: %v", requestID(ctx), err)
	}
}

// writeError maps err to a status code. Server faults are logged with their
// cause; the caller only sees the AppError message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.ErrCodeInternalError, "Internal server error", err)
	}
	if !appErr.IsClientError() {
		log.Printf("[ERROR] %s %v", requestID(ctx), appErr)
	}
	writeJSON(ctx, w, appErr.HTTPStatus(), errorResponse{
		Success: false,
		Message: appErr.Message,
		Code:    string(appErr.Code),
	})
}

// decodeBody reads a JSON body of at most maxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.New(apperrors.ErrCodeBadRequest, "Request body is required.")
		case errors.As(err, &tooLarge):
			return apperrors.New(apperrors.ErrCodeBadRequest, "Request body is too large.")
		default:
			return apperrors.Wrap(apperrors.ErrCodeBadRequest, "Request body is not valid JSON.", err)
		}
	}
	return nil
}
