package core

import (
	"context"

	"inside-notes/pkg"
)

// VisitStore persists visits.  Missing rows yield pkg.ErrNotFound.
type VisitStore interface {
	Create(ctx context.Context, v *pkg.Visit) error
	Update(ctx context.Context, v *pkg.Visit) error
	GetByID(ctx context.Context, id string) (*pkg.Visit, error)
	List(ctx context.Context) ([]pkg.Visit, error)
}

// AnnotationStore persists annotations.  ListByParent returns the
// annotations of one visit in insertion order.
type AnnotationStore interface {
	Create(ctx context.Context, a *pkg.Annotation) error
	Update(ctx context.Context, a *pkg.Annotation) error
	GetByID(ctx context.Context, id string) (*pkg.Annotation, error)
	ListByParent(ctx context.Context, visitID string) ([]pkg.Annotation, error)
}

// UserStore persists technician accounts.
type UserStore interface {
	Create(ctx context.Context, u *pkg.User) error
	Update(ctx context.Context, u *pkg.User) error
	GetByID(ctx context.Context, id int64) (*pkg.User, error)
	GetByEmail(ctx context.Context, email string) (*pkg.User, error)
	List(ctx context.Context) ([]pkg.User, error)
}

// ClientReader reads the clientes table.
type ClientReader interface {
	Get(ctx context.Context, id int64) (*pkg.Client, error)
}
