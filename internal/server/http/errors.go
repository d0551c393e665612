package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// errorResponse translates err to a status code and a client-facing message.
// Unknown errors become 500 and are logged; their text is never exposed.
func (s *Server) errorResponse(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusBadRequest, "Email already exists"
	case errors.Is(err, common.ErrMobileTaken):
		return http.StatusBadRequest, "Mobile number already exists"
	case errors.Is(err, common.ErrDuplicateIdentity):
		return http.StatusBadRequest, "Account already exists"
	case errors.Is(err, common.ErrWeakPassword), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest, "Invalid or expired verification code"
	case errors.Is(err, common.ErrAccountNotFound):
		return http.StatusBadRequest, "User not found"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, common.ErrRoleMismatch):
		return http.StatusForbidden, "Account is not allowed to login here"
	case errors.Is(err, common.ErrExternalTokenInvalid):
		return http.StatusUnauthorized, "Invalid Google token"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrTransport):
		return http.StatusBadGateway, "Could not send verification email"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
