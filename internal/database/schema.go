package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables each service owns if they do not exist.
// The unique index on participants (event_id, user_id) is load-bearing:
// it is the single source of truth for duplicate registrations under
// concurrent attempts, and the repositories translate its violation into
// a domain error.  The qr_code index is deliberately non-unique because
// tickets are inserted with an empty code and stamped inside the same
// transaction once their ID is known; codes are unique by construction
// (they embed the ticket ID).
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			owner_id BIGINT UNSIGNED NOT NULL,
			title VARCHAR(255) NOT NULL,
			status ENUM('SCHEDULED','CANCELED','FINISHED') NOT NULL DEFAULT 'SCHEDULED',
			max_participants INT UNSIGNED NOT NULL,
			image_urls JSON NULL,
			video_url VARCHAR(1024) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_events_owner (owner_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS event_invites (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			event_id BIGINT UNSIGNED NOT NULL,
			email VARCHAR(320) NOT NULL,
			user_id BIGINT UNSIGNED NULL,
			status ENUM('PENDING','ACCEPTED','DECLINED') NOT NULL DEFAULT 'PENDING',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_event_invites_event_email (event_id, email),
			CONSTRAINT fk_event_invites_event FOREIGN KEY (event_id) REFERENCES events(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS participants (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			event_id BIGINT UNSIGNED NOT NULL,
			user_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(320) NOT NULL DEFAULT '',
			session_ids JSON NULL,
			status ENUM('ACTIVE','CANCELED') NOT NULL DEFAULT 'ACTIVE',
			checked_in_at DATETIME NULL,
			checked_out_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_participants_event_user (event_id, user_id),
			KEY idx_participants_event (event_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			participant_id BIGINT UNSIGNED NOT NULL,
			qr_code VARCHAR(255) NOT NULL DEFAULT '',
			status ENUM('ACTIVE','CHECKED_IN','CHECKED_OUT','CANCELED') NOT NULL DEFAULT 'ACTIVE',
			used_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_tickets_participant (participant_id),
			KEY idx_tickets_qr_code (qr_code),
			CONSTRAINT fk_tickets_participant FOREIGN KEY (participant_id) REFERENCES participants(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS file_assets (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			url VARCHAR(512) NOT NULL,
			storage_key VARCHAR(512) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_file_assets_url (url)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
