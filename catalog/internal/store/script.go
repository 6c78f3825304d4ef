package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const scriptColumns = `id, key, language, title, summary, code, readme, author, version,
	compatible_os, required_modules, dependencies, license, created_at, updated_at`

func scanScript(row interface{ Scan(...any) error }) (*Script, error) {
	var sc Script
	err := row.Scan(&sc.ID, &sc.Key, &sc.Language, &sc.Title, &sc.Summary, &sc.Code,
		&sc.Readme, &sc.Author, &sc.Version, &sc.CompatibleOS,
		&sc.RequiredModules, &sc.Dependencies, &sc.License,
		&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListScripts returns all scripts, newest first, each with tags, highlights
// and version history attached. A non-empty language narrows the result;
// an unknown language simply matches nothing.
func (s *Store) ListScripts(ctx context.Context, language string) ([]*ScriptWithDetails, error) {
	q := `SELECT ` + scriptColumns + ` FROM scripts`
	var args []any
	if language != "" {
		q += ` WHERE language = ?`
		args = append(args, language)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer rows.Close()

	var scripts []*Script
	for rows.Next() {
		sc, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		scripts = append(scripts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachDetails(ctx, scripts)
}

// GetScriptByKey returns one script by its stable catalog key, or nil if no
// such script exists.
func (s *Store) GetScriptByKey(ctx context.Context, key string) (*ScriptWithDetails, error) {
	return s.getScript(ctx, `key = ?`, key)
}

// GetScriptByID returns one script by numeric id, or nil if no such script
// exists.
func (s *Store) GetScriptByID(ctx context.Context, id int64) (*ScriptWithDetails, error) {
	return s.getScript(ctx, `id = ?`, id)
}

func (s *Store) getScript(ctx context.Context, where string, arg any) (*ScriptWithDetails, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+scriptColumns+` FROM scripts WHERE `+where, arg)
	sc, err := scanScript(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	detailed, err := s.attachDetails(ctx, []*Script{sc})
	if err != nil {
		return nil, err
	}
	return detailed[0], nil
}

// CreateScript inserts a script, its tags and highlights, and the initial
// version history entry in a single transaction. Duplicate tags and
// highlights in the input collapse silently. Returns the fully assembled
// script.
func (s *Store) CreateScript(ctx context.Context, sc *Script, tags, highlights []string, version, changes string) (*ScriptWithDetails, error) {
	now := time.Now().UnixMilli()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scripts (key, language, title, summary, code, readme, author, version,
			compatible_os, required_modules, dependencies, license, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.Key, sc.Language, sc.Title, sc.Summary, sc.Code, sc.Readme, sc.Author, sc.Version,
		sc.CompatibleOS, sc.RequiredModules, sc.Dependencies, sc.License, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert script: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := insertLabels(ctx, tx, `script_tags`, `tag`, id, tags); err != nil {
		return nil, err
	}
	if err := insertLabels(ctx, tx, `script_highlights`, `highlight`, id, highlights); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO script_versions (script_id, version, changes, created_at) VALUES (?, ?, ?, ?)`,
		id, version, changes, now)
	if err != nil {
		return nil, fmt.Errorf("insert initial version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.audit(ctx, "Created script", fmt.Sprintf("%s (%s)", sc.Title, sc.Key))
	return s.GetScriptByID(ctx, id)
}

// insertLabels inserts the values of a script's label table (tags or
// highlights). The composite primary key absorbs duplicates.
func insertLabels(ctx context.Context, tx *sql.Tx, table, column string, scriptID int64, values []string) error {
	if len(values) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO `+table+` (script_id, `+column+`) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, scriptID, v); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// UpdateScript applies a partial field update to a script. A non-nil tags
// or highlights pointer replaces that collection wholesale; nil leaves it
// untouched. updated_at is stamped on every call. Returns nil if the script
// does not exist.
func (s *Store) UpdateScript(ctx context.Context, id int64, patch *ScriptPatch, tags, highlights *[]string) (*ScriptWithDetails, error) {
	now := time.Now().UnixMilli()

	sets := []string{`updated_at = ?`}
	args := []any{now}
	appendSet := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+` = ?`)
			args = append(args, *v)
		}
	}
	if patch != nil {
		appendSet(`language`, patch.Language)
		appendSet(`title`, patch.Title)
		appendSet(`summary`, patch.Summary)
		appendSet(`code`, patch.Code)
		appendSet(`readme`, patch.Readme)
		appendSet(`author`, patch.Author)
		appendSet(`version`, patch.Version)
		appendSet(`compatible_os`, patch.CompatibleOS)
		appendSet(`required_modules`, patch.RequiredModules)
		appendSet(`dependencies`, patch.Dependencies)
		appendSet(`license`, patch.License)
	}
	args = append(args, id)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE scripts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update script: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	if tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM script_tags WHERE script_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear tags: %w", err)
		}
		if err := insertLabels(ctx, tx, `script_tags`, `tag`, id, *tags); err != nil {
			return nil, err
		}
	}
	if highlights != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM script_highlights WHERE script_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear highlights: %w", err)
		}
		if err := insertLabels(ctx, tx, `script_highlights`, `highlight`, id, *highlights); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	updated, err := s.GetScriptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.audit(ctx, "Updated script", fmt.Sprintf("%s (%s)", updated.Title, updated.Key))
	}
	return updated, nil
}

// DeleteScript removes a script; tags, highlights and versions cascade.
// Returns false with a nil error when no such script exists.
func (s *Store) DeleteScript(ctx context.Context, id int64) (bool, error) {
	var title, key string
	err := s.DB.QueryRowContext(ctx, `SELECT title, key FROM scripts WHERE id = ?`, id).Scan(&title, &key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup script: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete script: %w", err)
	}

	s.audit(ctx, "Deleted script", fmt.Sprintf("%s (%s)", title, key))
	return true, nil
}

// attachDetails loads tags, highlights and version history for a batch of
// scripts with one bulk query per detail table.
func (s *Store) attachDetails(ctx context.Context, scripts []*Script) ([]*ScriptWithDetails, error) {
	out := make([]*ScriptWithDetails, 0, len(scripts))
	if len(scripts) == 0 {
		return out, nil
	}

	ids := make([]any, len(scripts))
	for i, sc := range scripts {
		ids[i] = sc.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	tags, err := s.labelsByScript(ctx, `script_tags`, `tag`, placeholders, ids)
	if err != nil {
		return nil, err
	}
	highlights, err := s.labelsByScript(ctx, `script_highlights`, `highlight`, placeholders, ids)
	if err != nil {
		return nil, err
	}

	versions := make(map[int64][]*ScriptVersion)
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, script_id, version, changes, created_at FROM script_versions
		WHERE script_id IN (`+placeholders+`) ORDER BY created_at DESC, id DESC`, ids...)
	if err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v ScriptVersion
		if err := rows.Scan(&v.ID, &v.ScriptID, &v.Version, &v.Changes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions[v.ScriptID] = append(versions[v.ScriptID], &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sc := range scripts {
		d := &ScriptWithDetails{
			Script:     *sc,
			Tags:       tags[sc.ID],
			Highlights: highlights[sc.ID],
			Versions:   versions[sc.ID],
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		if d.Highlights == nil {
			d.Highlights = []string{}
		}
		if d.Versions == nil {
			d.Versions = []*ScriptVersion{}
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) labelsByScript(ctx context.Context, table, column, placeholders string, ids []any) (map[int64][]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT script_id, `+column+` FROM `+table+` WHERE script_id IN (`+placeholders+`)`, ids...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[id] = append(out[id], value)
	}
	return out, rows.Err()
}
