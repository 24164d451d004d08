package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/wouldwatch/internal/auth"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// currentSessionID is the only row the auth_sessions table may hold.
const currentSessionID = 1

// SessionRepository persists the current [auth.Session].
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save replaces the stored session
func (r *SessionRepository) Save(session *auth.Session) error {
	if session == nil || session.AccessToken == "" {
		return fmt.Errorf("%w: session without access token", shared.ErrInvalidArgument)
	}

	var expiresAt sql.NullTime
	if !session.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: session.ExpiresAt.UTC(), Valid: true}
	}

	tokenType := session.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}

	query := `
		INSERT INTO auth_sessions (id, user_id, email, access_token, refresh_token, token_type, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := r.db.Exec(query,
		currentSessionID, session.User.ID, session.User.Email,
		session.AccessToken, session.RefreshToken, tokenType,
		expiresAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load retrieves the stored session, or [shared.ErrNoSession] when there is none
func (r *SessionRepository) Load() (*auth.Session, error) {
	query := `
		SELECT user_id, email, access_token, refresh_token, token_type, expires_at
		FROM auth_sessions
		WHERE id = ?
	`

	var (
		session   auth.Session
		expiresAt sql.NullTime
	)

	err := r.db.QueryRow(query, currentSessionID).Scan(
		&session.User.ID, &session.User.Email,
		&session.AccessToken, &session.RefreshToken, &session.TokenType,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}

	return &session, nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM auth_sessions WHERE id = ?", currentSessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UpdatedAt reports when the stored session was last written.
func (r *SessionRepository) UpdatedAt() (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow("SELECT updated_at FROM auth_sessions WHERE id = ?", currentSessionID).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, shared.ErrNoSession
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query session: %w", err)
	}
	return updatedAt, nil
}
