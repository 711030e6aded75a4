package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// mysqlDuplicateEntry is the server error number MySQL raises when an
// insert violates a unique index.
const mysqlDuplicateEntry = 1062

// ParticipantRepo provides data access to the participants table and the
// participant/ticket pair lifecycle.  The unique index on
// (event_id, user_id) is the single source of truth for duplicate
// registrations under concurrency; this repository translates that index
// violation into ErrAlreadyRegistered.  All timestamps are stored in UTC.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// ParticipantRecord mirrors the schema of the participants table.
type ParticipantRecord struct {
	ID           uint64
	EventID      uint64
	UserID       uint64
	Name         string
	Email        string
	SessionIDs   []uint64
	Status       string
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	CreatedAt    time.Time
}

// CountActive returns the number of non-canceled participants registered
// for an event.  The registrar uses it as a best-effort capacity check
// before inserting; the authoritative guards stay at the persistence
// layer.
func (r *ParticipantRepo) CountActive(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM participants WHERE event_id = ? AND status = 'ACTIVE'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateWithTicket inserts a participant and its 1:1 ticket in a single
// transaction, enforcing the capacity ceiling inside that transaction.
// The count is a locking read, so concurrent registrations for the same
// event serialize on the participants index range and cannot both observe
// a free slot; callers' pre-checks are a fast path only.  The scan code
// is minted through the mint callback once the generated ticket ID is
// known, so the signed code and the row it signs commit together.  A
// duplicate (event_id, user_id) insert surfaces as ErrAlreadyRegistered.
func (r *ParticipantRepo) CreateWithTicket(ctx context.Context, p *ParticipantRecord, maxParticipants uint32, mint func(ticketID, participantID uint64) (string, error)) (*TicketRecord, error) {
	sessions, err := json.Marshal(p.SessionIDs)
	if err != nil {
		return nil, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const lockCount = `SELECT COUNT(*) FROM participants WHERE event_id = ? AND status = 'ACTIVE' FOR UPDATE`
	var active uint32
	if err := tx.QueryRowContext(ctx, lockCount, p.EventID).Scan(&active); err != nil {
		return nil, err
	}
	if active >= maxParticipants {
		return nil, ErrCapacityExceeded
	}
	const insP = `INSERT INTO participants (event_id, user_id, name, email, session_ids, status)
	              VALUES (?, ?, ?, ?, ?, 'ACTIVE')`
	result, err := tx.ExecContext(ctx, insP, p.EventID, p.UserID, p.Name, p.Email, string(sessions))
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	pid, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = uint64(pid)
	p.Status = model.ParticipantActive

	const insT = `INSERT INTO tickets (participant_id, qr_code, status) VALUES (?, '', 'ACTIVE')`
	result, err = tx.ExecContext(ctx, insT, p.ID)
	if err != nil {
		return nil, err
	}
	tid, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	code, err := mint(uint64(tid), p.ID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET qr_code = ? WHERE id = ?`, code, uint64(tid)); err != nil {
		return nil, err
	}
	// Query back timestamps set by the database.
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM participants WHERE id = ?`, p.ID).Scan(&p.CreatedAt); err != nil {
		return nil, err
	}
	ticket := &TicketRecord{
		ID:            uint64(tid),
		ParticipantID: p.ID,
		QRCode:        code,
		Status:        model.TicketActive,
	}
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM tickets WHERE id = ?`, ticket.ID).Scan(&ticket.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ticket, nil
}

// GetByID loads a single participant.  It returns ErrParticipantNotFound
// when no row matches.
func (r *ParticipantRepo) GetByID(ctx context.Context, id uint64) (*ParticipantRecord, error) {
	const q = `SELECT id, event_id, user_id, name, email, session_ids, status, checked_in_at, checked_out_at, created_at
	           FROM participants WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	return p, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// decodeSessions fills dst from a JSON array column, tolerating empty and
// NULL-ish payloads.
func decodeSessions(raw string, dst *[]uint64) {
	_ = json.Unmarshal([]byte(raw), dst)
}

func scanParticipant(row rowScanner) (*ParticipantRecord, error) {
	var p ParticipantRecord
	var sessions sql.NullString
	var checkedIn, checkedOut sql.NullTime
	err := row.Scan(&p.ID, &p.EventID, &p.UserID, &p.Name, &p.Email, &sessions,
		&p.Status, &checkedIn, &checkedOut, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sessions.Valid && strings.TrimSpace(sessions.String) != "" {
		if err := json.Unmarshal([]byte(sessions.String), &p.SessionIDs); err != nil {
			return nil, err
		}
	}
	if checkedIn.Valid {
		t := checkedIn.Time
		p.CheckedInAt = &t
	}
	if checkedOut.Valid {
		t := checkedOut.Time
		p.CheckedOutAt = &t
	}
	return &p, nil
}

// DeleteWithTicket removes a participant/ticket pair.  Unregistering is
// only valid while the ticket is still ACTIVE; once the holder has checked
// in, the pair is part of the event's attendance history and the delete
// fails with ErrStateConflict.  The status read locks the ticket row so a
// concurrent scan cannot slip between the check and the delete.
func (r *ParticipantRepo) DeleteWithTicket(ctx context.Context, participantID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tickets WHERE participant_id = ? FOR UPDATE`, participantID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrParticipantNotFound
	}
	if err != nil {
		return err
	}
	if status != model.TicketActive {
		return ErrStateConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE participant_id = ?`, participantID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, participantID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListRoster returns the check-in/out roster for an event, ordered by
// participant name for deterministic output.  Timestamps are rendered as
// RFC3339 in UTC.  This is the cache-miss path behind the participant
// cache.
func (r *ParticipantRepo) ListRoster(ctx context.Context, eventID uint64) ([]model.RosterEntry, error) {
	const q = `SELECT id, name, email, checked_in_at, checked_out_at
	           FROM participants
	           WHERE event_id = ? AND status = 'ACTIVE'
	           ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.RosterEntry, 0)
	for rows.Next() {
		var e model.RosterEntry
		var checkedIn, checkedOut sql.NullTime
		if err := rows.Scan(&e.ParticipantID, &e.Name, &e.Email, &checkedIn, &checkedOut); err != nil {
			return nil, err
		}
		if checkedIn.Valid {
			iso := checkedIn.Time.UTC().Format(time.RFC3339)
			e.CheckedInAt = &iso
		}
		if checkedOut.Valid {
			iso := checkedOut.Time.UTC().Format(time.RFC3339)
			e.CheckedOutAt = &iso
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CancelEventTickets bulk-cancels every non-terminal ticket for an event
// and marks the matching participants CANCELED.  Both statements are
// conditional on non-terminal states, so redelivering the same
// cancellation message finds nothing left to update and the whole call is
// a no-op.  It returns the number of tickets transitioned.
func (r *ParticipantRepo) CancelEventTickets(ctx context.Context, eventID uint64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const cancelTickets = `UPDATE tickets t
	                       JOIN participants p ON p.id = t.participant_id
	                       SET t.status = 'CANCELED'
	                       WHERE p.event_id = ? AND t.status IN ('ACTIVE', 'CHECKED_IN')`
	result, err := tx.ExecContext(ctx, cancelTickets, eventID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	const cancelParticipants = `UPDATE participants SET status = 'CANCELED' WHERE event_id = ? AND status = 'ACTIVE'`
	if _, err := tx.ExecContext(ctx, cancelParticipants, eventID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}
