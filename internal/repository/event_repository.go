package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// EventRepo provides data access to the events and event_invites tables.
// Events are owned and mutated only by the event service; the ticket
// service reads them through the HTTP summary endpoint, never through this
// repository.  All timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventRecord mirrors the schema of the events table.  It is used
// internally when constructing or scanning rows.  Business logic should
// use the model.Event type instead.
type EventRecord struct {
	ID              uint64
	OwnerID         uint64
	Title           string
	Status          string
	MaxParticipants uint32
	ImageURLs       []string
	VideoURL        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Create inserts a new event in SCHEDULED state and populates the
// generated ID and timestamps on the provided record.
func (r *EventRepo) Create(ctx context.Context, ev *EventRecord) error {
	images, err := json.Marshal(ev.ImageURLs)
	if err != nil {
		return err
	}
	const q = `INSERT INTO events (owner_id, title, status, max_participants, image_urls, video_url)
	           VALUES (?, ?, 'SCHEDULED', ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, ev.OwnerID, ev.Title, ev.MaxParticipants, string(images), ev.VideoURL)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	ev.Status = "SCHEDULED"
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT created_at, updated_at FROM events WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, ev.ID).Scan(&ev.CreatedAt, &ev.UpdatedAt)
}

// GetByID loads a single event.  It returns ErrEventNotFound when no row
// matches.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*EventRecord, error) {
	const q = `SELECT id, owner_id, title, status, max_participants, image_urls, video_url, created_at, updated_at
	           FROM events WHERE id = ?`
	var ev EventRecord
	var images sql.NullString
	var video sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.OwnerID, &ev.Title, &ev.Status, &ev.MaxParticipants,
		&images, &video, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if images.Valid && strings.TrimSpace(images.String) != "" {
		if err := json.Unmarshal([]byte(images.String), &ev.ImageURLs); err != nil {
			return nil, err
		}
	}
	if video.Valid {
		v := video.String
		ev.VideoURL = &v
	}
	return &ev, nil
}

// Cancel flips an event from SCHEDULED to CANCELED.  The conditional
// UPDATE makes the flip atomic under concurrent cancel requests: exactly
// one caller observes flipped=true.  Canceling an already canceled event
// reports flipped=false with no error so retries stay idempotent; a
// FINISHED event cannot be canceled.
func (r *EventRepo) Cancel(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE events SET status = 'CANCELED' WHERE id = ? AND status = 'SCHEDULED'`
	result, err := r.db.ExecContext(ctx, q, id)
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
	// Nothing flipped: distinguish missing, already canceled and finished.
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM events WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return false, ErrEventNotFound
	}
	if err != nil {
		return false, err
	}
	if status == "FINISHED" {
		return false, ErrStateConflict
	}
	return false, nil
}

// InviteRecipient is the issue-time input for one invitation list entry.
type InviteRecipient struct {
	Email  string
	UserID *uint64
}

// AddInvites appends recipients to an event's invitation list with status
// PENDING, skipping recipients whose email is already present.  INSERT
// IGNORE rides the unique (event_id, email) index so concurrent issuers
// cannot create duplicate entries.  The returned slice contains the stored
// row for every requested email, preexisting ones included, so the caller
// can mint a token per recipient.
func (r *EventRepo) AddInvites(ctx context.Context, eventID uint64, recipients []InviteRecipient) ([]InvitedUserRecord, error) {
	if len(recipients) == 0 {
		return []InvitedUserRecord{}, nil
	}
	query := `INSERT IGNORE INTO event_invites (event_id, email, user_id, status) VALUES `
	args := make([]interface{}, 0, len(recipients)*4)
	emails := make([]string, 0, len(recipients))
	for i, rec := range recipients {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 'PENDING')"
		args = append(args, eventID, rec.Email, rec.UserID)
		emails = append(emails, rec.Email)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	// Read back all rows for the requested emails.
	placeholders := make([]string, len(emails))
	selArgs := make([]interface{}, 0, len(emails)+1)
	selArgs = append(selArgs, eventID)
	for i, e := range emails {
		placeholders[i] = "?"
		selArgs = append(selArgs, e)
	}
	sel := `SELECT id, event_id, email, user_id, status, created_at
	        FROM event_invites
	        WHERE event_id = ? AND email IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, sel, selArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invites []InvitedUserRecord
	for rows.Next() {
		var inv InvitedUserRecord
		var userID sql.NullInt64
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.Email, &userID, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			inv.UserID = &uid
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

// InvitedUserRecord mirrors the event_invites table.
type InvitedUserRecord struct {
	ID        uint64
	EventID   uint64
	Email     string
	UserID    *uint64
	Status    string
	CreatedAt time.Time
}

// GetInvite loads the invitation list entry for an email on an event.  It
// returns ErrRecipientNotFound when the email was never invited.
func (r *EventRepo) GetInvite(ctx context.Context, eventID uint64, email string) (*InvitedUserRecord, error) {
	const q = `SELECT id, event_id, email, user_id, status, created_at
	           FROM event_invites WHERE event_id = ? AND email = ?`
	var inv InvitedUserRecord
	var userID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, eventID, email).Scan(
		&inv.ID, &inv.EventID, &inv.Email, &userID, &inv.Status, &inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		inv.UserID = &uid
	}
	return &inv, nil
}

// SetInviteDecision records an accept/decline decision.  The conditional
// UPDATE on status makes redemption atomic and idempotent: only a PENDING
// entry can move, so a replayed token mutates nothing the second time.
// It reports whether this call performed the transition.
func (r *EventRepo) SetInviteDecision(ctx context.Context, eventID uint64, email, status string) (bool, error) {
	const q = `UPDATE event_invites SET status = ? WHERE event_id = ? AND email = ? AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, q, status, eventID, email)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplaceAttachments swaps an event's attachment slots and returns the
// previous values so the caller can publish a cleanup message for the
// orphaned files.  The read and write happen in one transaction so two
// concurrent replacements cannot both claim the same old URLs.  A nil
// images slice or nil video pointer leaves that slot untouched.
func (r *EventRepo) ReplaceAttachments(ctx context.Context, eventID uint64, images []string, video *string) (oldImages []string, oldVideo *string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var curImages sql.NullString
	var curVideo sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT image_urls, video_url FROM events WHERE id = ? FOR UPDATE`, eventID).
		Scan(&curImages, &curVideo)
	if err == sql.ErrNoRows {
		return nil, nil, ErrEventNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if curImages.Valid && strings.TrimSpace(curImages.String) != "" {
		if err := json.Unmarshal([]byte(curImages.String), &oldImages); err != nil {
			return nil, nil, err
		}
	}
	if curVideo.Valid {
		v := curVideo.String
		oldVideo = &v
	}
	if images != nil {
		encoded, err := json.Marshal(images)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET image_urls = ? WHERE id = ?`, string(encoded), eventID); err != nil {
			return nil, nil, err
		}
	} else {
		oldImages = nil
	}
	if video != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE events SET video_url = ? WHERE id = ?`, *video, eventID); err != nil {
			return nil, nil, err
		}
	} else {
		oldVideo = nil
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return oldImages, oldVideo, nil
}
