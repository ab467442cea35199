package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/rate"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/MrEthical07/goAdmin/router"
	"github.com/MrEthical07/goAdmin/session"
	"go.uber.org/zap"
)

type sessionResponse struct {
	Token    string          `json:"token"`
	UserInfo session.Profile `json:"userInfo"`
	Redirect string          `json:"redirect,omitempty"`
}

type pageResponse struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form goAdmin.LoginForm
	if !s.decode(w, r, &form) {
		return
	}

	ip := goAdmin.ClientIPFromContext(r.Context())
	if s.limiter != nil {
		if err := s.limiter.Allow(r.Context(), form.Username, ip); err != nil {
			s.writeThrottle(w, r, err)
			return
		}
	}

	sess, err := s.engine.Login(r.Context(), form)
	if err != nil {
		if s.limiter != nil && errors.Is(err, goAdmin.ErrInvalidCredentials) {
			if ferr := s.limiter.Fail(r.Context(), form.Username, ip); ferr != nil && !errors.Is(ferr, rate.ErrRateLimited) {
				s.logger.Warn("login throttle record failed", zap.Error(ferr))
			}
		}
		s.writeError(w, r, err)
		return
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(r.Context(), form.Username); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}
	s.writeSession(w, r, sess)
}

func (s *Server) writeThrottle(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, rate.ErrRateLimited) {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Throttle.Window.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited"})
		return
	}
	s.logger.Error("login throttle unavailable", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "backend_unavailable"})
}

func (s *Server) handleAutoLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.AutoLogin(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, r, sess)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form goAdmin.RegisterForm
	if !s.decode(w, r, &form) {
		return
	}

	if err := s.engine.Register(r.Context(), form); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": form.Username})
}

// handleLogout ends the session only for the caller holding its token.
// Anyone else just loses their cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w, r)
	if token, ok := middleware.RequestToken(r); ok {
		if _, ok := s.engine.CheckToken(r.Context(), token); ok {
			if err := s.engine.Logout(r.Context()); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	var form goAdmin.PasswordForm
	if !s.decode(w, r, &form) {
		return
	}

	if err := s.engine.UpdatePassword(r.Context(), form); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession echoes the session for the caller that presented its token.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		s.writeError(w, r, goAdmin.ErrMissingCredential)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, UserInfo: sess.UserInfo})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var profile session.Profile
	if !s.decode(w, r, &profile) {
		return
	}

	if err := s.engine.SetUserInfo(r.Context(), profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Session().UserInfo)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.Users(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []session.UserRecord{}
	}
	writeJSON(w, http.StatusOK, users)
}

// handleRemembered reports the remembered username. The stored password is
// never sent back.
func (s *Server) handleRemembered(w http.ResponseWriter, r *http.Request) {
	cred, err := s.engine.RememberedUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": cred.Username})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	d, ok := middleware.DecisionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}

	status := http.StatusOK
	if d.Route.NotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, pageResponse{Name: d.Route.Name, Path: d.Route.FullPath, Title: d.Title})
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, sess session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:    sess.Token,
		UserInfo: sess.UserInfo,
		Redirect: router.SafeRedirect(r.URL.Query().Get("redirect"), router.LandingPath),
	})
}

func clearTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_form"})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: goAdmin.ErrorCode(err)})
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goAdmin.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, goAdmin.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, goAdmin.ErrUserNotFound), errors.Is(err, goAdmin.ErrNoRememberedSession):
		return http.StatusNotFound
	case errors.Is(err, goAdmin.ErrInvalidForm),
		errors.Is(err, goAdmin.ErrPasswordPolicy),
		errors.Is(err, goAdmin.ErrWrongOldPassword):
		return http.StatusBadRequest
	case errors.Is(err, goAdmin.ErrInvalidCredentials),
		errors.Is(err, goAdmin.ErrAutoLoginFailed),
		errors.Is(err, goAdmin.ErrMissingCredential),
		errors.Is(err, goAdmin.ErrTokenInvalid):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
