package db

import (
	"context"
	"database/sql"
	"fmt"

	"inside-notes/internal/core"
)

// Notifier publishes generated reports on a PostgreSQL NOTIFY channel so
// that other processes sharing the database can react to them.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

// Notify sends payload on the channel.  pg_notify is used because NOTIFY
// itself does not accept bind parameters.
func (n *Notifier) Notify(ctx context.Context, payload string) error {
	_, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, payload)
	if err != nil {
		return fmt.Errorf("notify %s: %w", n.Channel, err)
	}
	return nil
}

// ReportGenerated notifies the id of the visit whose report was generated.
func (n *Notifier) ReportGenerated(ctx context.Context, ev core.ReportEvent) error {
	return n.Notify(ctx, ev.Visit.ID)
}
