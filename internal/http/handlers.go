package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"inside-notes/internal/core"
	"inside-notes/internal/db"
	"inside-notes/internal/llm"
	"inside-notes/internal/session"
	"inside-notes/pkg"
)

// ClientStore is the clientes CRUD backend.
type ClientStore interface {
	List(ctx context.Context, search string) ([]pkg.Client, error)
	Get(ctx context.Context, id int64) (*pkg.Client, error)
	Create(ctx context.Context, in db.ClientInput) (*pkg.Client, error)
	Update(ctx context.Context, id int64, in db.ClientInput) (*pkg.Client, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger checks database connectivity.  *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	DB          Pinger
	Clients     ClientStore
	Users       core.UserStore
	Visits      *core.VisitService
	Annotations *core.AnnotationService
	Reports     *core.ReportService
	Workflows   *core.Workflows
	Prompts     *core.PromptSet
	Session     *session.Manager
	LLM         llm.Client
	Logger      *zap.Logger
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Deps
	echo *echo.Echo
}

// NewServer constructs a Server and registers every route.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{Deps: deps, echo: e}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	authed, admin := s.requireSession, s.requireAdmin

	api.GET("/health", s.health)
	api.GET("/ai/health", s.aiHealth)

	api.GET("/clientes", s.listClientes)
	api.POST("/clientes", s.createCliente)
	api.GET("/clientes/:id", s.getCliente)
	api.PUT("/clientes/:id", s.updateCliente)
	api.DELETE("/clientes/:id", s.deleteCliente)

	api.POST("/session", s.login)
	api.GET("/session", s.currentSession)
	api.DELETE("/session", s.logout)

	api.GET("/users", s.listUsers, admin)
	api.POST("/users", s.createUser, admin)
	api.PUT("/users/:id", s.updateUser, admin)

	api.GET("/prompts", s.listPrompts)
	api.POST("/prompts", s.createPrompt, admin)
	api.PUT("/prompts/:index", s.updatePrompt, admin)
	api.DELETE("/prompts/:index", s.deletePrompt, admin)

	api.GET("/visits", s.listVisits, authed)
	api.POST("/visits", s.createVisit, authed)
	api.GET("/visits/:id", s.getVisit, authed)
	api.POST("/visits/:id/report", s.generateReport, authed)
	api.POST("/visits/:id/workflows", s.openWorkflow, authed)

	api.GET("/workflows/:id", s.getWorkflow, authed)
	api.DELETE("/workflows/:id", s.closeWorkflow, authed)
	api.POST("/workflows/:id/fragments", s.addFragment, authed)
	api.DELETE("/workflows/:id/fragments/:index", s.deleteFragment, authed)
	api.POST("/workflows/:id/audio", s.recordAudio, authed)
	api.POST("/workflows/:id/finalize", s.finalize, authed)
	api.POST("/workflows/:id/cancel-style", s.cancelStyle, authed)
	api.PUT("/workflows/:id/review", s.editReview, authed)
	api.POST("/workflows/:id/back", s.back, authed)
	api.POST("/workflows/:id/save", s.save, authed)
	api.POST("/workflows/:id/draft", s.saveDraft, authed)
}

// ServeHTTP dispatches to the echo router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

const (
	msgHealthOK   = "Backend is running and database connection is successful."
	msgHealthDown = "Backend is running, but database connection failed."
)

func (s *Server) health(c echo.Context) error {
	if s.DB == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "error", "message": msgHealthDown, "error": "database not configured",
		})
	}
	if err := s.DB.PingContext(c.Request().Context()); err != nil {
		s.Logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "error", "message": msgHealthDown, "error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": msgHealthOK})
}

func (s *Server) aiHealth(c echo.Context) error {
	if err := s.LLM.Ping(c.Request().Context()); err != nil {
		s.Logger.Warn("ai health check failed", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
