package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"inside-notes/pkg"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = pkg.ErrNotFound
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// ClientInput is the writable part of a client row.  Empty optional fields
// are stored as NULL.
type ClientInput struct {
	FantasyName string `json:"nome_fantasia"`
	LegalName   string `json:"razao_social"`
	TaxID       string `json:"cnpj"`
}

// ClientRepository wraps the parameterised CRUD statements of the clientes
// table.  The caller owns the DB connection lifecycle.
type ClientRepository struct {
	DB     *sql.DB
	logger *zap.Logger
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sql.DB, logger *zap.Logger) *ClientRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientRepository{DB: db, logger: logger}
}

const clientColumns = "id, nome_fantasia, razao_social, cnpj"

// List returns clients ordered by nome_fantasia, filtered by a
// case-insensitive substring when search is not empty.
func (r *ClientRepository) List(ctx context.Context, search string) ([]pkg.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clientes ORDER BY nome_fantasia ASC`
	var args []any
	if search != "" {
		query = `SELECT ` + clientColumns + ` FROM clientes WHERE nome_fantasia ILIKE $1 ORDER BY nome_fantasia ASC`
		args = append(args, "%"+search+"%")
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clientes: %w", err)
	}
	defer rows.Close()
	clients := []pkg.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// Get returns one client or ErrNotFound.
func (r *ClientRepository) Get(ctx context.Context, id int64) (*pkg.Client, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create inserts a client and returns the stored row.
func (r *ClientRepository) Create(ctx context.Context, in ClientInput) (*pkg.Client, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO clientes (nome_fantasia, razao_social, cnpj)
         VALUES ($1, $2, $3)
         RETURNING `+clientColumns,
		strings.TrimSpace(in.FantasyName), nullString(in.LegalName), nullString(in.TaxID),
	)
	c, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("create cliente: %w", err)
	}
	r.logger.Info("cliente created", zap.Int64("id", c.ID))
	return c, nil
}

// Update overwrites a client and returns the stored row, or ErrNotFound.
func (r *ClientRepository) Update(ctx context.Context, id int64, in ClientInput) (*pkg.Client, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE clientes SET nome_fantasia = $1, razao_social = $2, cnpj = $3
         WHERE id = $4
         RETURNING `+clientColumns,
		strings.TrimSpace(in.FantasyName), nullString(in.LegalName), nullString(in.TaxID), id,
	)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cliente %d: %w", id, err)
	}
	return c, nil
}

// Delete removes a client, or returns ErrNotFound.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cliente %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	r.logger.Info("cliente deleted", zap.Int64("id", id))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (*pkg.Client, error) {
	var (
		c     pkg.Client
		legal sql.NullString
		taxID sql.NullString
	)
	if err := s.Scan(&c.ID, &c.FantasyName, &legal, &taxID); err != nil {
		return nil, err
	}
	c.LegalName = stringPtr(legal)
	c.TaxID = stringPtr(taxID)
	return &c, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
