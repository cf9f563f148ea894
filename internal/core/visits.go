package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"inside-notes/pkg"
)

// VisitInput carries the operator-supplied fields of a new visit.
type VisitInput struct {
	ClientID         int64           `json:"client_id"`
	ExtraDescription string          `json:"extra_description"`
	StartTime        time.Time       `json:"start_time"`
	Status           pkg.VisitStatus `json:"status"`
}

// VisitService creates and reads visits.
type VisitService struct {
	Visits      VisitStore
	Annotations AnnotationStore
	Clients     ClientReader
	Users       UserStore
	Now         func() time.Time
}

// NewVisitService constructs a VisitService.
func NewVisitService(visits VisitStore, annotations AnnotationStore, clients ClientReader, users UserStore) *VisitService {
	return &VisitService{Visits: visits, Annotations: annotations, Clients: clients, Users: users, Now: time.Now}
}

// Create validates the input, denormalises the client name and stores the
// visit for the session user.
func (s *VisitService) Create(ctx context.Context, sess *pkg.Session, in VisitInput) (*pkg.Visit, error) {
	if sess == nil {
		return nil, &ValidationError{Field: "session", Message: "login required"}
	}
	if in.ClientID == 0 {
		return nil, &ValidationError{Field: "client_id", Message: MsgClientRequired}
	}
	if in.Status == "" {
		in.Status = pkg.VisitOpen
	}
	if !in.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown status " + strconv.Quote(string(in.Status))}
	}
	client, err := s.Clients.Get(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, &ValidationError{Field: "client_id", Message: MsgClientRequired}
		}
		return nil, &ConnectivityError{Op: "load client", Err: err}
	}
	now := s.Now().UTC()
	start := in.StartTime
	if start.IsZero() {
		start = now
	}
	v := &pkg.Visit{
		ID:               uuid.NewString(),
		UserID:           sess.User.ID,
		ClientID:         client.ID,
		ClientName:       client.FantasyName,
		ExtraDescription: in.ExtraDescription,
		StartTime:        start.UTC(),
		CreatedAt:        now,
		Status:           in.Status,
	}
	if err := s.Visits.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	s.attachTechnician(ctx, v)
	return v, nil
}

// Get returns a visit with its technician resolved.
func (s *VisitService) Get(ctx context.Context, id string) (*pkg.Visit, error) {
	v, err := s.Visits.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "visit", id)
	}
	s.attachTechnician(ctx, v)
	return v, nil
}

// GetWithAnnotations returns a visit and its annotations.
func (s *VisitService) GetWithAnnotations(ctx context.Context, id string) (*pkg.Visit, []pkg.Annotation, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	anns, err := s.Annotations.ListByParent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return v, anns, nil
}

// List returns every visit, most recent first.
func (s *VisitService) List(ctx context.Context) ([]pkg.Visit, error) {
	visits, err := s.Visits.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range visits {
		s.attachTechnician(ctx, &visits[i])
	}
	return visits, nil
}

func (s *VisitService) attachTechnician(ctx context.Context, v *pkg.Visit) {
	if s.Users == nil || v.UserID == 0 {
		return
	}
	if u, err := s.Users.GetByID(ctx, v.UserID); err == nil {
		v.Technician = u
	}
}
