package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"inside-notes/internal/llm"
	"inside-notes/pkg"
)

// ArtifactStore keeps the generated report text and returns a reference
// that can be used to retrieve it.
type ArtifactStore interface {
	Put(ctx context.Context, visitID, report string) (string, error)
}

// ReportEvent is handed to notifiers after a report was generated.
type ReportEvent struct {
	Visit       pkg.Visit        `json:"visit"`
	Annotations []pkg.Annotation `json:"annotations"`
	Summary     string           `json:"summary"`
	ReportURL   string           `json:"report_url"`
}

// ReportNotifier is an external integration triggered after a successful
// report.  Failures are logged, never propagated.
type ReportNotifier interface {
	ReportGenerated(ctx context.Context, ev ReportEvent) error
}

// ReportResult is the outcome of Generate.
type ReportResult struct {
	Visit   *pkg.Visit `json:"visit"`
	Summary string     `json:"summary"`
}

// ReportService generates the final report of a visit.
type ReportService struct {
	LLM         llm.Client
	Visits      *VisitService
	Annotations AnnotationStore
	Artifacts   ArtifactStore
	Notifiers   []ReportNotifier
	Location    *time.Location
	Logger      *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(client llm.Client, visits *VisitService, annotations AnnotationStore, artifacts ArtifactStore, logger *zap.Logger, notifiers ...ReportNotifier) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		LLM:         client,
		Visits:      visits,
		Annotations: annotations,
		Artifacts:   artifacts,
		Notifiers:   notifiers,
		Location:    time.UTC,
		Logger:      logger,
	}
}

// Generate summarises the visit and its annotations with a single call,
// stores the artifact and records the reference on the visit.  Notifiers run
// only once the reference is stored.  On failure the visit is left unchanged
// and nobody is notified.  Re-running overwrites the previous reference.
func (s *ReportService) Generate(ctx context.Context, visitID string) (*ReportResult, error) {
	visit, err := s.Visits.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	annotations, err := s.Annotations.ListByParent(ctx, visitID)
	if err != nil {
		return nil, &ConnectivityError{Op: "load annotations", Err: err}
	}

	prompt := BuildReportPrompt(visit, annotations, s.Location)
	summary, err := s.LLM.Summarize(ctx, prompt)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.Logger.Error("report summary failed", zap.String("visit_id", visitID), zap.Error(err))
		return nil, &CapabilityError{Op: "summarize", Message: MsgReportFailed, Err: err}
	}

	url, err := s.Artifacts.Put(ctx, visitID, summary)
	if err != nil {
		s.Logger.Error("store report artifact", zap.String("visit_id", visitID), zap.Error(err))
		return nil, &ConnectivityError{Op: "store report", Err: err}
	}

	updated := *visit
	updated.FinalReportRef = &url
	updated.Technician = nil
	if err := s.Visits.Visits.Update(ctx, &updated); err != nil {
		return nil, &ConnectivityError{Op: "update visit", Err: err}
	}
	updated.Technician = visit.Technician

	ev := ReportEvent{Visit: updated, Annotations: annotations, Summary: summary, ReportURL: url}
	for _, n := range s.Notifiers {
		if err := n.ReportGenerated(ctx, ev); err != nil {
			s.Logger.Warn("report notifier failed", zap.String("visit_id", visitID), zap.Error(err))
		}
	}
	s.Logger.Info("report generated", zap.String("visit_id", visitID), zap.String("report_url", url))
	return &ReportResult{Visit: &updated, Summary: summary}, nil
}

// BuildReportPrompt lays the visit out in sections followed by one line per
// annotation tagged with its kind.
func BuildReportPrompt(v *pkg.Visit, annotations []pkg.Annotation, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	technician := MsgTechnicianUnknown
	if v.Technician != nil && v.Technician.Name != "" {
		technician = v.Technician.Name
	}
	var b strings.Builder
	b.WriteString(ReportInstruction)
	b.WriteString("\n\n### Dados da Visita ###\n")
	fmt.Fprintf(&b, "Cliente: %s\n", v.ClientName)
	fmt.Fprintf(&b, "Local: %s\n", v.ExtraDescription)
	fmt.Fprintf(&b, "Data: %s\n", v.StartTime.In(loc).Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "Técnico Responsável: %s\n", technician)
	fmt.Fprintf(&b, "Status Atual: %s\n", v.Status)
	b.WriteString("\n### Anotações Detalhadas ###\n")
	for _, a := range annotations {
		fmt.Fprintf(&b, "- %s: %s\n", strings.ToUpper(string(a.Kind)), a.Body)
	}
	b.WriteString("\n")
	b.WriteString(ReportClosing)
	return b.String()
}
