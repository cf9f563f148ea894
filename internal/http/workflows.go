package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inside-notes/internal/core"
	"inside-notes/pkg"
)

// maxAudioBytes caps an uploaded recording.
const maxAudioBytes = 25 << 20

type workflowView struct {
	core.Snapshot
	Notifications []core.Notification `json:"notifications"`
}

func viewOf(ow *core.OpenWorkflow) workflowView {
	return workflowView{Snapshot: ow.Snapshot(), Notifications: ow.Notifications.Active()}
}

type openWorkflowRequest struct {
	Kind         pkg.AnnotationKind `json:"kind"`
	AnnotationID string             `json:"annotation_id"`
}

func (s *Server) openWorkflow(c echo.Context) error {
	var in openWorkflowRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	ow, err := s.Workflows.Open(c.Request().Context(), c.Param("id"), in.Kind, in.AnnotationID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, viewOf(ow))
}

// onWorkflow runs fn against the workflow named in the path and answers with
// its state.  Failures carry the state too so the caller can show the
// notification that came with them.
func (s *Server) onWorkflow(c echo.Context, fn func(ctx context.Context, ow *core.OpenWorkflow) error) error {
	ow, err := s.Workflows.Get(c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if err := fn(c.Request().Context(), ow); err != nil {
		return s.failWorkflow(c, ow, err)
	}
	return c.JSON(http.StatusOK, viewOf(ow))
}

func (s *Server) failWorkflow(c echo.Context, ow *core.OpenWorkflow, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("workflow action failed",
			zap.String("workflow_id", ow.ID),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	return c.JSON(code, echo.Map{"error": msg, "workflow": viewOf(ow)})
}

func (s *Server) getWorkflow(c echo.Context) error {
	return s.onWorkflow(c, func(context.Context, *core.OpenWorkflow) error { return nil })
}

func (s *Server) closeWorkflow(c echo.Context) error {
	if err := s.Workflows.Close(c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) addFragment(c echo.Context) error {
	var in textRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.AddFragment(in.Text)
	})
}

func (s *Server) deleteFragment(c echo.Context) error {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.DeleteFragment(i)
	})
}

// recordAudio treats the uploaded blob as one full recording.  A request
// without the "audio" part behaves like a missing microphone.
func (s *Server) recordAudio(c echo.Context) error {
	var src core.BlobSource
	if fh, err := c.FormFile("audio"); err == nil {
		if fh.Size > maxAudioBytes {
			return badRequest(c, fmt.Sprintf("audio larger than %d bytes", maxAudioBytes))
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "unreadable audio upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return badRequest(c, "unreadable audio upload")
		}
		src.Audio = core.Audio{Data: data, MimeType: fh.Header.Get("Content-Type")}
	}
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.Record(ctx, src)
	})
}

type finalizeRequest struct {
	Prompt string `json:"prompt"`
}

// finalize consolidates and rewrites.  With several templates configured
// the named prompt is applied right away; without one the workflow waits in
// choosing_style for a second call.  A name that matches no template is
// rejected before anything runs.
func (s *Server) finalize(c echo.Context) error {
	var in finalizeRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		if in.Prompt != "" {
			if _, ok := s.Prompts.Get(in.Prompt); !ok {
				return fmt.Errorf("%w: %q", core.ErrUnknownPrompt, in.Prompt)
			}
		}
		if ow.Snapshot().State != core.StateChoosingStyle {
			if err := ow.Finalize(ctx); err != nil {
				return err
			}
		}
		if in.Prompt != "" && ow.Snapshot().State == core.StateChoosingStyle {
			return ow.ChooseStyle(ctx, in.Prompt)
		}
		return nil
	})
}

func (s *Server) cancelStyle(c echo.Context) error {
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.CancelStyle()
	})
}

func (s *Server) editReview(c echo.Context) error {
	var in textRequest
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.EditRewritten(in.Text)
	})
}

func (s *Server) back(c echo.Context) error {
	return s.onWorkflow(c, func(ctx context.Context, ow *core.OpenWorkflow) error {
		return ow.Back()
	})
}

func (s *Server) save(c echo.Context) error {
	return s.finish(c, (*core.Workflow).Save)
}

func (s *Server) saveDraft(c echo.Context) error {
	return s.finish(c, (*core.Workflow).SaveDraft)
}

// finish saves through fn and closes the workflow on success.
func (s *Server) finish(c echo.Context, fn func(*core.Workflow, context.Context) (*pkg.Annotation, error)) error {
	id := c.Param("id")
	ow, err := s.Workflows.Get(id)
	if err != nil {
		return s.fail(c, err)
	}
	ann, err := fn(ow.Workflow, c.Request().Context())
	if err != nil {
		return s.failWorkflow(c, ow, err)
	}
	notes := ow.Notifications.Active()
	if err := s.Workflows.Close(id); err != nil {
		s.Logger.Warn("close saved workflow", zap.String("workflow_id", id), zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"annotation": ann, "notifications": notes})
}
