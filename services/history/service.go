// Package history records which episodes have already been grabbed so a
// repeated download pass does not fetch the same torrent twice.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	title      TEXT    NOT NULL,
	season     INTEGER NOT NULL,
	episode    INTEGER NOT NULL,
	grabbed_at TEXT    NOT NULL,
	PRIMARY KEY (title, season, episode)
);`

// Service is a small sqlite-backed store of grabbed episodes.
type Service struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Service, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Service{db: db}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// Seen reports whether this episode was grabbed before.
func (s *Service) Seen(ctx context.Context, title string, season, episode int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM downloads WHERE title = ? AND season = ? AND episode = ?`,
		title, season, episode).Scan(&one)
	switch err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, err
	}
}

// Record marks an episode as grabbed now. Re-recording an episode refreshes
// its timestamp.
func (s *Service) Record(ctx context.Context, title string, season, episode int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO downloads (title, season, episode, grabbed_at) VALUES (?, ?, ?, ?)`,
		title, season, episode, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Forget drops one episode's record, used by the redownload flag.
func (s *Service) Forget(ctx context.Context, title string, season, episode int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM downloads WHERE title = ? AND season = ? AND episode = ?`,
		title, season, episode)
	return err
}
