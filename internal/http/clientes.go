package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"inside-notes/internal/core"
	"inside-notes/internal/db"
)

const msgClienteNotFound = "Cliente not found"

func (s *Server) listClientes(c echo.Context) error {
	clients, err := s.Clients.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, clients)
}

func (s *Server) getCliente(c echo.Context) error {
	id, ok := intParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	client, err := s.Clients.Get(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgClienteNotFound})
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

func bindClienteInput(c echo.Context) (db.ClientInput, error) {
	var in db.ClientInput
	if err := c.Bind(&in); err != nil {
		return in, &core.ValidationError{Message: "invalid json"}
	}
	if strings.TrimSpace(in.FantasyName) == "" {
		return in, &core.ValidationError{Field: "nome_fantasia", Message: core.MsgFantasyNameMissing}
	}
	return in, nil
}

func (s *Server) createCliente(c echo.Context) error {
	in, err := bindClienteInput(c)
	if err != nil {
		return s.fail(c, err)
	}
	client, err := s.Clients.Create(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, client)
}

func (s *Server) updateCliente(c echo.Context) error {
	id, ok := intParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	in, err := bindClienteInput(c)
	if err != nil {
		return s.fail(c, err)
	}
	client, err := s.Clients.Update(c.Request().Context(), id, in)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgClienteNotFound})
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

func (s *Server) deleteCliente(c echo.Context) error {
	id, ok := intParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	err := s.Clients.Delete(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgClienteNotFound})
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
