package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inside-notes/internal/core"
	"inside-notes/pkg"
)

func (s *Server) listVisits(c echo.Context) error {
	visits, err := s.Visits.List(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	if visits == nil {
		visits = []pkg.Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (s *Server) createVisit(c echo.Context) error {
	var in core.VisitInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	v, err := s.Visits.Create(c.Request().Context(), sessionFrom(c), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) getVisit(c echo.Context) error {
	v, anns, err := s.Visits.GetWithAnnotations(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visit": v, "annotations": anns})
}

func (s *Server) generateReport(c echo.Context) error {
	res, err := s.Reports.Generate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"visit":   res.Visit,
		"summary": res.Summary,
		"message": core.MsgReportGenerated,
	})
}
