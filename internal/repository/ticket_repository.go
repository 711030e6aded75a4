package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides data access to the tickets table.  Status
// transitions use a compare-and-swap on the current status so two
// concurrent scans can never both treat the same ticket as ACTIVE.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// TicketRecord mirrors the schema of the tickets table.
type TicketRecord struct {
	ID            uint64
	ParticipantID uint64
	QRCode        string
	Status        string
	UsedAt        *time.Time
	CreatedAt     time.Time
}

// GetByCode resolves a scan code to its ticket and owning participant.
// The participant is loaded alongside because the scanner needs the event
// ID for cache invalidation and the participant ID for HMAC verification.
// It returns ErrTicketNotFound when no ticket carries the code.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*TicketRecord, *ParticipantRecord, error) {
	const q = `SELECT t.id, t.participant_id, t.qr_code, t.status, t.used_at, t.created_at,
	                  p.id, p.event_id, p.user_id, p.name, p.email, p.session_ids, p.status,
	                  p.checked_in_at, p.checked_out_at, p.created_at
	           FROM tickets t
	           JOIN participants p ON p.id = t.participant_id
	           WHERE t.qr_code = ?`
	row := r.db.QueryRowContext(ctx, q, code)
	return scanTicketWithParticipant(row)
}

// GetByID loads a ticket and its participant by ticket ID.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*TicketRecord, *ParticipantRecord, error) {
	const q = `SELECT t.id, t.participant_id, t.qr_code, t.status, t.used_at, t.created_at,
	                  p.id, p.event_id, p.user_id, p.name, p.email, p.session_ids, p.status,
	                  p.checked_in_at, p.checked_out_at, p.created_at
	           FROM tickets t
	           JOIN participants p ON p.id = t.participant_id
	           WHERE t.id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanTicketWithParticipant(row)
}

func scanTicketWithParticipant(row rowScanner) (*TicketRecord, *ParticipantRecord, error) {
	var t TicketRecord
	var p ParticipantRecord
	var usedAt, checkedIn, checkedOut sql.NullTime
	var sessions sql.NullString
	err := row.Scan(
		&t.ID, &t.ParticipantID, &t.QRCode, &t.Status, &usedAt, &t.CreatedAt,
		&p.ID, &p.EventID, &p.UserID, &p.Name, &p.Email, &sessions, &p.Status,
		&checkedIn, &checkedOut, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if usedAt.Valid {
		ts := usedAt.Time
		t.UsedAt = &ts
	}
	if checkedIn.Valid {
		ts := checkedIn.Time
		p.CheckedInAt = &ts
	}
	if checkedOut.Valid {
		ts := checkedOut.Time
		p.CheckedOutAt = &ts
	}
	if sessions.Valid && sessions.String != "" && sessions.String != "null" {
		// Session IDs were validated on insert; a decode failure here would
		// mean the column was corrupted outside the application.
		decodeSessions(sessions.String, &p.SessionIDs)
	}
	return &t, &p, nil
}

// Transition applies one forward step of the ticket state machine as an
// atomic compare-and-swap keyed on the current status.  When the swap
// succeeds it also stamps the matching participant timestamp (check-in or
// check-out) and, for CHECKED_OUT, the ticket's used_at, all in the same
// transaction.  It reports false when another scan already moved the
// ticket out of the expected state.
func (r *TicketRepo) Transition(ctx context.Context, ticketID, participantID uint64, from, to string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const cas = `UPDATE tickets SET status = ? WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, cas, to, ticketID, from)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	stamp := at.UTC().Format("2006-01-02 15:04:05")
	switch to {
	case model.TicketCheckedIn:
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET checked_in_at = ? WHERE id = ?`, stamp, participantID); err != nil {
			return false, err
		}
	case model.TicketCheckedOut:
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET checked_out_at = ? WHERE id = ?`, stamp, participantID); err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tickets SET used_at = ? WHERE id = ?`, stamp, ticketID); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// Cancel forces a ticket to CANCELED from any non-terminal state.  A
// ticket already in a terminal state is left untouched and reported as
// not transitioned, which keeps the cancellation cascade idempotent.  It
// returns ErrTicketNotFound when the ticket does not exist.
func (r *TicketRepo) Cancel(ctx context.Context, ticketID uint64) (bool, error) {
	const q = `UPDATE tickets SET status = 'CANCELED' WHERE id = ? AND status IN ('ACTIVE', 'CHECKED_IN')`
	result, err := r.db.ExecContext(ctx, q, ticketID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id = ?`, ticketID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, ErrTicketNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
