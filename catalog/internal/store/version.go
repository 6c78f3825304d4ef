package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddVersion appends a version history entry for a script. The parent
// script's own version field is not touched. Returns nil if the script
// does not exist.
func (s *Store) AddVersion(ctx context.Context, scriptID int64, version, changes string) (*ScriptVersion, error) {
	var title string
	err := s.DB.QueryRowContext(ctx, `SELECT title FROM scripts WHERE id = ?`, scriptID).Scan(&title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup script: %w", err)
	}

	now := time.Now().UnixMilli()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO script_versions (script_id, version, changes, created_at) VALUES (?, ?, ?, ?)`,
		scriptID, version, changes, now)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "Added version", fmt.Sprintf("%s %s", title, version))
	return &ScriptVersion{ID: id, ScriptID: scriptID, Version: version, Changes: changes, CreatedAt: now}, nil
}
