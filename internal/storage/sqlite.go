package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"tennis_bot/internal/model"
	"tennis_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureChat creates the chat preference row if it does not exist yet.
func (s *SQLite) EnsureChat(ctx context.Context, chatID int64, defaultTZ string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chats (chat_id, tz) VALUES (?, ?)`,
		chatID, defaultTZ,
	)
	if err != nil {
		return fmt.Errorf("ensure chat: %w", err)
	}
	return nil
}

// GetTimezone returns the chat's stored timezone, or defaultTZ when
// the chat is unknown.
func (s *SQLite) GetTimezone(ctx context.Context, chatID int64, defaultTZ string) (string, error) {
	var tz string
	err := s.db.QueryRowContext(ctx,
		`SELECT tz FROM chats WHERE chat_id = ?`, chatID,
	).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultTZ, nil
	}
	if err != nil {
		return "", fmt.Errorf("get timezone: %w", err)
	}
	return tz, nil
}

// SetTimezone stores the chat's timezone. The caller validates the
// zone name before calling.
func (s *SQLite) SetTimezone(ctx context.Context, chatID int64, tz string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (chat_id, tz) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET tz = excluded.tz`,
		chatID, tz,
	)
	if err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

// ListChatIDs returns the IDs of all chats that ever interacted with
// the bot. Used by the notification worker fan-out.
func (s *SQLite) ListChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddWatch inserts a watch entry. Re-adding the same label on the
// same day is a no-op, not an error.
func (s *SQLite) AddWatch(ctx context.Context, chatID int64, label, source, day string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist (chat_id, day, label, source) VALUES (?, ?, ?, ?)`,
		chatID, day, label, source,
	)
	if err != nil {
		return fmt.Errorf("add watch: %w", err)
	}
	return nil
}

// RemoveWatch deletes a single watch entry and reports whether a row
// was actually removed.
func (s *SQLite) RemoveWatch(ctx context.Context, chatID int64, label, day string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE chat_id = ? AND day = ? AND label = ?`,
		chatID, day, label,
	)
	if err != nil {
		return false, fmt.Errorf("remove watch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListWatches returns the chat's watch entries for a day, ordered by
// label for stable display.
func (s *SQLite) ListWatches(ctx context.Context, chatID int64, day string) ([]model.WatchEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, day, label, source, created_at
		 FROM watchlist WHERE chat_id = ? AND day = ? ORDER BY label`,
		chatID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.WatchEntry
	for rows.Next() {
		var e model.WatchEntry
		var created string
		if err := rows.Scan(&e.ChatID, &e.Day, &e.Label, &e.Source, &created); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearWatches deletes all of the chat's watch entries for a day and
// returns the number of removed rows.
func (s *SQLite) ClearWatches(ctx context.Context, chatID int64, day string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE chat_id = ? AND day = ?`,
		chatID, day,
	)
	if err != nil {
		return 0, fmt.Errorf("clear watches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// GetAlias looks up the localized name for a canonical English player
// name. known=false means "ask the user", not an error.
func (s *SQLite) GetAlias(ctx context.Context, nameEN string) (string, bool, error) {
	var localized sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT name_localized FROM aliases WHERE name_en = ?`, nameEN,
	).Scan(&localized)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get alias: %w", err)
	}
	if !localized.Valid || localized.String == "" {
		return "", false, nil
	}
	return localized.String, true, nil
}

// FindAliasEnglish is the reverse lookup: the canonical English name
// behind a localized label, so the worker can match localized watch
// labels against English participant names.
func (s *SQLite) FindAliasEnglish(ctx context.Context, localized string) (string, bool, error) {
	var nameEN string
	err := s.db.QueryRowContext(ctx,
		`SELECT name_en FROM aliases WHERE name_localized = ?`, localized,
	).Scan(&nameEN)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find alias english: %w", err)
	}
	return nameEN, true, nil
}

// SetAlias upserts the localized name for a canonical English name.
func (s *SQLite) SetAlias(ctx context.Context, nameEN, localized string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aliases (name_en, name_localized, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name_en) DO UPDATE SET name_localized = excluded.name_localized, updated_at = excluded.updated_at`,
		nameEN, localized, now,
	)
	if err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	return nil
}

// SetPendingAlias arms the awaiting-alias dialogue state for a chat.
// A second call replaces the previous pending name.
func (s *SQLite) SetPendingAlias(ctx context.Context, chatID int64, nameEN string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_aliases (chat_id, name_en) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET name_en = excluded.name_en`,
		chatID, nameEN,
	)
	if err != nil {
		return fmt.Errorf("set pending alias: %w", err)
	}
	return nil
}

// ConsumePendingAlias reads and deletes the chat's pending alias in
// one statement, so the dialogue advances exactly once even under
// duplicate webhook delivery.
func (s *SQLite) ConsumePendingAlias(ctx context.Context, chatID int64) (string, bool, error) {
	var nameEN string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM pending_aliases WHERE chat_id = ? RETURNING name_en`, chatID,
	).Scan(&nameEN)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume pending alias: %w", err)
	}
	return nameEN, true, nil
}

// GetEventsCache returns the cached schedule payload for a day.
func (s *SQLite) GetEventsCache(ctx context.Context, day string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM events_cache WHERE day = ?`, day,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get events cache: %w", err)
	}
	return payload, true, nil
}

// SetEventsCache overwrites the cached schedule payload for a day.
func (s *SQLite) SetEventsCache(ctx context.Context, day string, payload []byte) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events_cache (day, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (day) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		day, payload, now,
	)
	if err != nil {
		return fmt.Errorf("set events cache: %w", err)
	}
	return nil
}

// MarkNotified records a sent notification. Duplicate marks are
// no-ops.
func (s *SQLite) MarkNotified(ctx context.Context, chatID int64, provider, eventID, day string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notified (chat_id, provider, event_id, day) VALUES (?, ?, ?, ?)`,
		chatID, provider, eventID, day,
	)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

// WasNotified reports whether the chat was already notified about an
// event on a given day.
func (s *SQLite) WasNotified(ctx context.Context, chatID int64, provider, eventID, day string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notified WHERE chat_id = ? AND provider = ? AND event_id = ? AND day = ?`,
		chatID, provider, eventID, day,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notified: %w", err)
	}
	return count > 0, nil
}
