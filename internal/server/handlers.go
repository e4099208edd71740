package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/jobplus/internal/app"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/server/middleware"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// withSession runs fn with exclusive access to the caller's session. A missing,
// forged or expired cookie starts a new session and sets a fresh cookie.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(u *uiSession) error) error {
	if id, err := middleware.GetSessionID(r); err == nil {
		err = s.store.With(id, fn)
		if !errors.Is(err, session.ErrNotFound) {
			return err
		}
	}

	id, err := s.store.Create()
	if err != nil {
		return err
	}
	if err := s.setSessionCookie(w, id); err != nil {
		s.store.Delete(id)
		return err
	}
	return s.store.With(id, fn)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) error {
	token, expiresAt, err := s.jwtService.GenerateToken(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// view applies action to the caller's session and renders the result: the main
// element's contents for htmx, else the whole page.
func (s *Server) view(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, u *uiSession)) {
	err := s.withSession(w, r, func(u *uiSession) error {
		action(r.Context(), u)
		if WantsPartial(r) {
			return s.renderer.RenderPartial(w, u.state)
		}
		return s.renderer.RenderFull(w, u.state)
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	log.Printf("[%s] %s failed: %v", r.Method, r.URL.Path, err)
	s.errorResponse(w, status, http.StatusText(status))
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, &ErrValidation{Field: "form", Message: err.Error()})
		return false
	}
	return true
}

// handleIndex serves the page and checks for an existing backend session, as a page load would.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ip := s.locationIP(r)
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.ValidateSession(ctx, u.state, ip)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	req := types.LoginRequest{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	ip := s.locationIP(r)
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.Login(ctx, u.state, req, ip)
	})
}

func (s *Server) handleShowLogin(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(_ context.Context, u *uiSession) {
		u.ctl.ShowLogin(u.state)
	})
}

func (s *Server) handleShowRegister(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(_ context.Context, u *uiSession) {
		u.ctl.ShowRegistration(u.state)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	req := types.RegisterRequest{
		Username:  strings.TrimSpace(r.PostForm.Get("username")),
		Password:  r.PostForm.Get("password"),
		FirstName: strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:  strings.TrimSpace(r.PostForm.Get("last_name")),
	}
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.Register(ctx, u.state, req)
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.Logout(ctx, u.state)
	})
}

// handlePosition takes the browser's position. Values that do not parse count
// as a failed attempt.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	ip := s.locationIP(r)

	lat, latErr := strconv.ParseFloat(r.PostForm.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.PostForm.Get("lon"), 64)
	if err := errors.Join(latErr, lonErr); err != nil {
		log.Printf("[geo] unusable position from browser: %v", err)
		s.view(w, r, func(ctx context.Context, u *uiSession) {
			u.ctl.PositionFailed(ctx, u.state, ip)
		})
		return
	}

	fix := geo.Fix{Coordinates: types.Coordinates{Latitude: lat, Longitude: lon}}
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.PositionUpdated(ctx, u.state, fix, ip)
	})
}

func (s *Server) handlePositionFailed(w http.ResponseWriter, r *http.Request) {
	ip := s.locationIP(r)
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.PositionFailed(ctx, u.state, ip)
	})
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.LoadNearby(ctx, u.state)
	})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.LoadFavorites(ctx, u.state)
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(ctx context.Context, u *uiSession) {
		u.ctl.LoadRecommended(ctx, u.state)
	})
}

// handleToggleFavorite flips one item and returns only that item's block. When
// the backend refuses, the unchanged block is returned.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		item      types.JobItem
		toggleErr error
	)
	err := s.withSession(w, r, func(u *uiSession) error {
		item, toggleErr = u.ctl.ToggleFavorite(r.Context(), u.state, id)
		return nil
	})
	if err == nil && errors.Is(toggleErr, app.ErrUnknownItem) {
		err = toggleErr
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.renderer.RenderItem(w, item); err != nil {
		s.fail(w, r, err)
	}
}
