package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inside-notes/pkg"
)

// AnnotationService creates and updates annotations on behalf of finished
// workflows.
type AnnotationService struct {
	Visits      VisitStore
	Annotations AnnotationStore
	Now         func() time.Time
}

// NewAnnotationService constructs an AnnotationService.
func NewAnnotationService(visits VisitStore, annotations AnnotationStore) *AnnotationService {
	return &AnnotationService{Visits: visits, Annotations: annotations, Now: time.Now}
}

// SaveAnnotation creates a new annotation when annotationID is empty and
// updates it in place otherwise.  The timestamp is refreshed on every save
// and the store is written with a single call.
func (s *AnnotationService) SaveAnnotation(ctx context.Context, visitID, annotationID string, r Result) (*pkg.Annotation, error) {
	if !r.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "unknown annotation kind"}
	}
	if _, err := s.Visits.GetByID(ctx, visitID); err != nil {
		return nil, notFound(err, "visit", visitID)
	}
	now := s.Now().UTC()
	if annotationID == "" {
		a := &pkg.Annotation{
			ID:        uuid.NewString(),
			VisitID:   visitID,
			Kind:      r.Kind,
			Body:      r.Body,
			Timestamp: now,
			Fragments: append([]string{}, r.Fragments...),
			Draft:     r.Draft,
		}
		if err := s.Annotations.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("create annotation: %w", err)
		}
		return a, nil
	}

	existing, err := s.Annotations.GetByID(ctx, annotationID)
	if err != nil {
		return nil, notFound(err, "annotation", annotationID)
	}
	if existing.VisitID != visitID {
		return nil, &NotFoundError{Resource: "annotation", ID: annotationID}
	}
	updated := *existing
	updated.Kind = r.Kind
	updated.Body = r.Body
	updated.Fragments = append([]string{}, r.Fragments...)
	updated.Draft = r.Draft
	updated.Timestamp = now
	if err := s.Annotations.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}
	return &updated, nil
}

// Get returns one annotation.
func (s *AnnotationService) Get(ctx context.Context, id string) (*pkg.Annotation, error) {
	a, err := s.Annotations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "annotation", id)
	}
	return a, nil
}

// List returns the annotations of a visit.
func (s *AnnotationService) List(ctx context.Context, visitID string) ([]pkg.Annotation, error) {
	return s.Annotations.ListByParent(ctx, visitID)
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, pkg.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
