package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"inside-notes/pkg"
)

// VisitRepository stores visits in Postgres.
type VisitRepository struct {
	DB *sql.DB
}

// NewVisitRepository constructs a VisitRepository.
func NewVisitRepository(db *sql.DB) *VisitRepository { return &VisitRepository{DB: db} }

const visitColumns = "id, usuario_id, cliente_id, cliente, descricao_extra, data_inicio, criado_em, status, laudo_final"

func (r *VisitRepository) Create(ctx context.Context, v *pkg.Visit) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO visitas (`+visitColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.UserID, v.ClientID, v.ClientName, v.ExtraDescription, v.StartTime, v.CreatedAt, string(v.Status), refValue(v.FinalReportRef),
	)
	if err != nil {
		return fmt.Errorf("insert visita: %w", err)
	}
	return nil
}

func (r *VisitRepository) Update(ctx context.Context, v *pkg.Visit) error {
	if !validID(v.ID) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE visitas
         SET descricao_extra = $1, data_inicio = $2, status = $3, laudo_final = $4
         WHERE id = $5`,
		v.ExtraDescription, v.StartTime, string(v.Status), refValue(v.FinalReportRef), v.ID,
	)
	if err != nil {
		return fmt.Errorf("update visita: %w", err)
	}
	return expectOne(res)
}

func (r *VisitRepository) GetByID(ctx context.Context, id string) (*pkg.Visit, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visitas WHERE id = $1`, id)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *VisitRepository) List(ctx context.Context) ([]pkg.Visit, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+visitColumns+` FROM visitas ORDER BY criado_em DESC`)
	if err != nil {
		return nil, fmt.Errorf("list visitas: %w", err)
	}
	defer rows.Close()
	var out []pkg.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanVisit(s scanner) (*pkg.Visit, error) {
	var (
		v      pkg.Visit
		status string
		report sql.NullString
	)
	if err := s.Scan(&v.ID, &v.UserID, &v.ClientID, &v.ClientName, &v.ExtraDescription,
		&v.StartTime, &v.CreatedAt, &status, &report); err != nil {
		return nil, err
	}
	v.Status = pkg.VisitStatus(status)
	v.FinalReportRef = stringPtr(report)
	return &v, nil
}

// AnnotationRepository stores annotations in Postgres.  Fragments are kept
// in a text[] column.
type AnnotationRepository struct {
	DB *sql.DB
}

// NewAnnotationRepository constructs an AnnotationRepository.
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{DB: db}
}

const annotationColumns = "id, visita_id, tipo, descricao, data_hora, fragments, rascunho"

func (r *AnnotationRepository) Create(ctx context.Context, a *pkg.Annotation) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO anotacoes (`+annotationColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.VisitID, string(a.Kind), a.Body, a.Timestamp, pq.Array(a.Fragments), a.Draft,
	)
	if err != nil {
		return fmt.Errorf("insert anotacao: %w", err)
	}
	return nil
}

func (r *AnnotationRepository) Update(ctx context.Context, a *pkg.Annotation) error {
	if !validID(a.ID) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE anotacoes
         SET tipo = $1, descricao = $2, data_hora = $3, fragments = $4, rascunho = $5
         WHERE id = $6`,
		string(a.Kind), a.Body, a.Timestamp, pq.Array(a.Fragments), a.Draft, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update anotacao: %w", err)
	}
	return expectOne(res)
}

func (r *AnnotationRepository) GetByID(ctx context.Context, id string) (*pkg.Annotation, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+annotationColumns+` FROM anotacoes WHERE id = $1`, id)
	a, err := scanAnnotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *AnnotationRepository) ListByParent(ctx context.Context, visitID string) ([]pkg.Annotation, error) {
	if !validID(visitID) {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+annotationColumns+` FROM anotacoes WHERE visita_id = $1 ORDER BY seq ASC`, visitID)
	if err != nil {
		return nil, fmt.Errorf("list anotacoes: %w", err)
	}
	defer rows.Close()
	var out []pkg.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAnnotation(s scanner) (*pkg.Annotation, error) {
	var (
		a    pkg.Annotation
		kind string
	)
	if err := s.Scan(&a.ID, &a.VisitID, &kind, &a.Body, &a.Timestamp, pq.Array(&a.Fragments), &a.Draft); err != nil {
		return nil, err
	}
	a.Kind = pkg.AnnotationKind(kind)
	if a.Fragments == nil {
		a.Fragments = []string{}
	}
	return &a, nil
}

// UserRepository stores technician accounts in Postgres.
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{DB: db} }

const userColumns = "id, nome, email, role, setor"

func (r *UserRepository) Create(ctx context.Context, u *pkg.User) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO usuarios (nome, email, role, setor) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Name, u.Email, string(u.Role), refValue(u.Department),
	).Scan(&u.ID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert usuario: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *pkg.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE usuarios SET nome = $1, email = $2, role = $3, setor = $4 WHERE id = $5`,
		u.Name, u.Email, string(u.Role), refValue(u.Department), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update usuario: %w", err)
	}
	return expectOne(res)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*pkg.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*pkg.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) List(ctx context.Context) ([]pkg.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list usuarios: %w", err)
	}
	defer rows.Close()
	var out []pkg.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*pkg.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(s scanner) (*pkg.User, error) {
	var (
		u    pkg.User
		role string
		dept sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &dept); err != nil {
		return nil, err
	}
	u.Role = pkg.UserRole(role)
	u.Department = stringPtr(dept)
	return &u, nil
}

func refValue(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// validID reports whether id can be compared against a UUID column.  Other
// strings would make Postgres fail with invalid_text_representation.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
