package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"inside-notes/internal/core"
	"inside-notes/pkg"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	sess, err := s.Session.Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) currentSession(c echo.Context) error {
	sess := s.Session.Current()
	if sess == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) logout(c echo.Context) error {
	if err := s.Session.Logout(c.Request().Context()); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type userRequest struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Role       pkg.UserRole `json:"role"`
	Department *string      `json:"department"`
}

func (r userRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &core.ValidationError{Field: "name", Message: "name is required"}
	}
	if !strings.Contains(r.Email, "@") {
		return &core.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if r.Role != pkg.RoleAdmin && r.Role != pkg.RoleStandard {
		return &core.ValidationError{Field: "role", Message: "role must be admin or standard"}
	}
	return nil
}

func (s *Server) listUsers(c echo.Context) error {
	users, err := s.Users.List(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) createUser(c echo.Context) error {
	var in userRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	if in.Role == "" {
		in.Role = pkg.RoleStandard
	}
	if err := in.validate(); err != nil {
		return s.fail(c, err)
	}
	u := &pkg.User{Name: strings.TrimSpace(in.Name), Email: strings.TrimSpace(in.Email), Role: in.Role, Department: in.Department}
	if err := s.Users.Create(c.Request().Context(), u); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) updateUser(c echo.Context) error {
	id, ok := intParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var in userRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	if err := in.validate(); err != nil {
		return s.fail(c, err)
	}
	ctx := c.Request().Context()
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return s.fail(c, &core.NotFoundError{Resource: "user", ID: strconv.FormatInt(id, 10)})
	}
	if err != nil {
		return s.fail(c, err)
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Email = strings.TrimSpace(in.Email)
	u.Role = in.Role
	u.Department = in.Department
	if err := s.Users.Update(ctx, u); err != nil {
		return s.fail(c, err)
	}
	if err := s.Session.Refresh(ctx, *u); err != nil {
		return s.fail(c, &core.ConnectivityError{Op: "refresh session", Err: err})
	}
	return c.JSON(http.StatusOK, u)
}

type promptRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (s *Server) listPrompts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Prompts.List())
}

func (s *Server) createPrompt(c echo.Context) error {
	var in promptRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	if err := s.Prompts.Add(pkg.Prompt{Name: in.Name, Content: in.Content}); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, s.Prompts.List())
}

func (s *Server) updatePrompt(c echo.Context) error {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}
	var in promptRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	if err := s.Prompts.Update(i, pkg.Prompt{Name: in.Name, Content: in.Content}); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.Prompts.List())
}

func (s *Server) deletePrompt(c echo.Context) error {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}
	if err := s.Prompts.Delete(i); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
