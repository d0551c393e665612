package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
)

const maxBodyBytes = 1 << 16

type emailRequest struct {
	Email string `json:"email"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
	Code     string `json:"code"`
}

type resetRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type userResponse struct {
	User models.AccountView `json:"user"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) signupSendCode(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decode(w, r, &in); err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	if err := s.credentials.RequestSignupCode(r.Context(), in.Email); err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Verification code sent to email.")
}

func (s *Server) signupVerify(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decode(w, r, &in); err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	account, err := s.credentials.CompleteSignup(r.Context(), services.SignupRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Mobile:   in.Mobile,
		Code:     in.Code,
	})
	if err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: account.View()})
}

// resetSendCode answers identically whether or not the email is registered.
func (s *Server) resetSendCode(scope services.ResetScope) http.HandlerFunc {
	msg := "If the email is registered, a verification code has been sent."
	if scope == services.ScopeAdmin {
		msg = "If the email is registered as admin, a verification code has been sent."
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if err := decode(w, r, &in); err != nil {
			s.errorResponse(r.Context(), w, err)
			return
		}

		if err := s.credentials.RequestResetCode(r.Context(), scope, in.Email); err != nil {
			s.errorResponse(r.Context(), w, err)
			return
		}

		writeMessage(w, http.StatusOK, msg)
	}
}

// resetVerify only checks the code when no password is given, otherwise it
// completes the reset.
func (s *Server) resetVerify(scope services.ResetScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in resetRequest
		if err := decode(w, r, &in); err != nil {
			s.errorResponse(r.Context(), w, err)
			return
		}

		if in.Password == "" {
			if err := s.credentials.VerifyResetCode(r.Context(), scope, in.Email, in.Code); err != nil {
				s.errorResponse(r.Context(), w, err)
				return
			}
			writeMessage(w, http.StatusOK, "Verification code verified.")
			return
		}

		if err := s.credentials.CompleteReset(r.Context(), scope, in.Email, in.Code, in.Password); err != nil {
			s.errorResponse(r.Context(), w, err)
			return
		}
		writeMessage(w, http.StatusOK, "Password reset successful.")
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(w, r, &in); err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	session, err := s.credentials.Login(r.Context(), in.Email, in.Password, in.Role)
	if err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	s.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, userResponse{User: session.Account.View()})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "Logged out")
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	var in googleLoginRequest
	if err := decode(w, r, &in); err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}
	if in.Token == "" {
		s.errorResponse(r.Context(), w, fmt.Errorf("missing token: %w", common.ErrExternalTokenInvalid))
		return
	}

	session, err := s.credentials.GoogleLogin(r.Context(), in.Token)
	if err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	s.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, userResponse{User: session.Account.View()})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		s.errorResponse(r.Context(), w, common.ErrInvalidToken)
		return
	}

	account, err := s.credentials.Authenticate(r.Context(), token)
	if err != nil {
		s.errorResponse(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: account.View()})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken reads the session cookie, falling back to a bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", common.ErrValidation)
	}
	return nil
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
