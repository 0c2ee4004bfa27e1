package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akozachenko/accesscheck/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessment_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		center_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'in_progress',
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS answers (
		session_id INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		value TEXT NOT NULL,
		answered_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, question_id),
		FOREIGN KEY (session_id) REFERENCES assessment_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS share_links (
		token TEXT PRIMARY KEY,
		session_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		content BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES assessment_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'operator',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateSession starts a new assessment session.
func (s *Store) CreateSession(centerName string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO assessment_sessions (center_name, status, started_at) VALUES (?, 'in_progress', ?)`,
		centerName, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSession returns a session by ID.
func (s *Store) GetSession(id int64) (model.AssessmentSession, error) {
	var sess model.AssessmentSession
	err := s.db.QueryRow(
		`SELECT id, center_name, status, started_at, completed_at FROM assessment_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.CenterName, &sess.Status, &sess.StartedAt, &sess.CompletedAt)
	return sess, err
}

// UpdateSessionStatus updates the session status and stamps completed_at
// when the session is completed.
func (s *Store) UpdateSessionStatus(id int64, status model.SessionStatus) error {
	query := `UPDATE assessment_sessions SET status = ? WHERE id = ?`
	args := []any{status, id}
	if status == model.StatusCompleted {
		query = `UPDATE assessment_sessions SET status = ?, completed_at = ? WHERE id = ?`
		args = []any{status, time.Now(), id}
	}
	_, err := s.db.Exec(query, args...)
	return err
}

// SetCenterName updates the center name on a session.
func (s *Store) SetCenterName(id int64, name string) error {
	_, err := s.db.Exec(`UPDATE assessment_sessions SET center_name = ? WHERE id = ?`, name, id)
	return err
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() ([]model.AssessmentSession, error) {
	rows, err := s.db.Query(
		`SELECT id, center_name, status, started_at, completed_at FROM assessment_sessions ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.AssessmentSession
	for rows.Next() {
		var sess model.AssessmentSession
		if err := rows.Scan(&sess.ID, &sess.CenterName, &sess.Status, &sess.StartedAt, &sess.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SaveAnswer upserts the raw answer value for a question. The value is stored
// as the UI produced it; decoding into the typed variant happens at read time.
func (s *Store) SaveAnswer(sessionID int64, questionID string, value json.RawMessage) error {
	_, err := s.db.Exec(
		`INSERT INTO answers (session_id, question_id, value, answered_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, question_id) DO UPDATE SET value = ?, answered_at = ?`,
		sessionID, questionID, string(value), time.Now(), string(value), time.Now(),
	)
	return err
}

// DeleteAnswer removes a stored answer, returning the question to the
// unanswered state (it then drops out of every score denominator).
func (s *Store) DeleteAnswer(sessionID int64, questionID string) error {
	_, err := s.db.Exec(`DELETE FROM answers WHERE session_id = ? AND question_id = ?`, sessionID, questionID)
	return err
}

// RawAnswers returns the stored answer snapshot for a session.
func (s *Store) RawAnswers(sessionID int64) (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT question_id, value FROM answers WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	answers := make(map[string]json.RawMessage)
	for rows.Next() {
		var questionID, value string
		if err := rows.Scan(&questionID, &value); err != nil {
			return nil, err
		}
		answers[questionID] = json.RawMessage(value)
	}
	return answers, rows.Err()
}

// AnswerCount returns the number of stored answers for a session.
func (s *Store) AnswerCount(sessionID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM answers WHERE session_id = ?`, sessionID).Scan(&count)
	return count, err
}
