package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/akozachenko/accesscheck/internal/model"
)

// CreateShareLink stores a rendered report document under a fresh random
// token and returns the token.
func (s *Store) CreateShareLink(sessionID int64, filename, contentType string, content []byte) (string, error) {
	token := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO share_links (token, session_id, filename, content_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		token, sessionID, filename, contentType, content, time.Now(),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetShareLink returns the stored document for a token, or nil if unknown.
func (s *Store) GetShareLink(token string) (*model.ShareLink, error) {
	var link model.ShareLink
	err := s.db.QueryRow(
		`SELECT token, session_id, filename, content_type, content, created_at FROM share_links WHERE token = ?`, token,
	).Scan(&link.Token, &link.SessionID, &link.Filename, &link.ContentType, &link.Content, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListShareLinks returns the share links for a session, newest first,
// without the document bodies.
func (s *Store) ListShareLinks(sessionID int64) ([]model.ShareLink, error) {
	rows, err := s.db.Query(
		`SELECT token, session_id, filename, content_type, created_at FROM share_links
		 WHERE session_id = ? ORDER BY created_at DESC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []model.ShareLink
	for rows.Next() {
		var link model.ShareLink
		if err := rows.Scan(&link.Token, &link.SessionID, &link.Filename, &link.ContentType, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
