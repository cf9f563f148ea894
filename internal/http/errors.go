package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inside-notes/internal/core"
	"inside-notes/internal/db"
	"inside-notes/internal/session"
	"inside-notes/pkg"
)

const msgInternal = "Internal server error"

// statusFor maps domain errors to a status code and the message shown to
// the operator.
func statusFor(err error) (int, string) {
	var (
		verr *core.ValidationError
		cerr *core.CapabilityError
		nerr *core.ConnectivityError
		ferr *core.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, core.ErrNoFragments),
		errors.Is(err, core.ErrFragmentIndex),
		errors.Is(err, core.ErrUnknownPrompt),
		errors.Is(err, core.ErrDeviceNotFound),
		errors.Is(err, core.ErrNoPrompt):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrPermissionDenied):
		return http.StatusForbidden, err.Error()
	case errors.As(err, &ferr):
		return http.StatusNotFound, ferr.Error()
	case errors.Is(err, pkg.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrInvalidState), errors.Is(err, db.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized, err.Error()
	case errors.As(err, &cerr):
		return http.StatusBadGateway, cerr.Message
	case errors.As(err, &nerr):
		return http.StatusServiceUnavailable, nerr.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	return c.JSON(code, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func intParam(c echo.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	return v, err == nil
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := s.Session.Current()
		if sess == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
		}
		c.Set("session", sess)
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return s.requireSession(func(c echo.Context) error {
		if !sessionFrom(c).User.IsAdmin() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin only"})
		}
		return next(c)
	})
}

func sessionFrom(c echo.Context) *pkg.Session {
	sess, _ := c.Get("session").(*pkg.Session)
	return sess
}
