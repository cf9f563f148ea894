package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inside-notes/pkg"
)

// DefaultIdleTTL is how long an untouched workflow stays open.
const DefaultIdleTTL = 2 * time.Hour

// OpenWorkflow is a registered workflow and the notifications it emitted.
type OpenWorkflow struct {
	*Workflow
	Notifications *NotificationLog

	lastUsed time.Time // guarded by Workflows.mu
}

// Workflows keeps the open annotation workflows by id.  Workflows nobody
// touched for IdleTTL are closed by Sweep, which Open also runs.
type Workflows struct {
	IdleTTL time.Duration
	Now     func() time.Time

	deps        WorkflowDeps
	visits      VisitStore
	annotations AnnotationStore
	ttl         time.Duration

	mu    sync.Mutex
	items map[string]*OpenWorkflow
}

// NewWorkflows constructs a registry.  deps.Notifier is ignored; every
// workflow gets its own NotificationLog with the given ttl.
func NewWorkflows(deps WorkflowDeps, visits VisitStore, annotations AnnotationStore, ttl time.Duration) *Workflows {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Workflows{
		IdleTTL:     DefaultIdleTTL,
		Now:         time.Now,
		deps:        deps,
		visits:      visits,
		annotations: annotations,
		ttl:         ttl,
		items:       make(map[string]*OpenWorkflow),
	}
}

// Open starts a workflow for a new annotation of kind on the visit, or for
// editing annotationID when it is not empty.
func (r *Workflows) Open(ctx context.Context, visitID string, kind pkg.AnnotationKind, annotationID string) (*OpenWorkflow, error) {
	r.Sweep()
	if _, err := r.visits.GetByID(ctx, visitID); err != nil {
		return nil, notFound(err, "visit", visitID)
	}
	var existing *pkg.Annotation
	if annotationID != "" {
		a, err := r.annotations.GetByID(ctx, annotationID)
		if err != nil {
			return nil, notFound(err, "annotation", annotationID)
		}
		if a.VisitID != visitID {
			return nil, &NotFoundError{Resource: "annotation", ID: annotationID}
		}
		existing = a
	} else if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "unknown annotation kind"}
	}

	id := uuid.NewString()
	log := NewNotificationLog(r.ttl, r.deps.Logger.With(zap.String("workflow_id", id)))
	deps := r.deps
	deps.Notifier = log
	ow := &OpenWorkflow{Workflow: NewWorkflow(id, visitID, kind, existing, deps), Notifications: log}

	r.mu.Lock()
	ow.lastUsed = r.Now()
	r.items[id] = ow
	r.mu.Unlock()
	return ow, nil
}

// Get returns an open workflow.
func (r *Workflows) Get(id string) (*OpenWorkflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ow, ok := r.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: "workflow", ID: id}
	}
	ow.lastUsed = r.Now()
	return ow, nil
}

// Close resets and forgets a workflow.
func (r *Workflows) Close(id string) error {
	r.mu.Lock()
	ow, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if !ok {
		return &NotFoundError{Resource: "workflow", ID: id}
	}
	ow.Close()
	return nil
}

// Sweep closes and forgets the workflows idle for longer than IdleTTL and
// returns how many it dropped.  A non-positive IdleTTL disables it.
func (r *Workflows) Sweep() int {
	if r.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.Now().Add(-r.IdleTTL)
	var stale []*OpenWorkflow
	r.mu.Lock()
	for id, ow := range r.items {
		if ow.lastUsed.Before(cutoff) {
			stale = append(stale, ow)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, ow := range stale {
		ow.Close()
		r.deps.Logger.Info("idle workflow closed", zap.String("workflow_id", ow.ID), zap.String("visit_id", ow.VisitID))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Workflows) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of open workflows.
func (r *Workflows) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
