package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// CommitRepository implements models.Repository[*models.Commit] for the commit journal.
//
// Commits are append-only in practice; Update only touches the message.
type CommitRepository struct {
	db *sql.DB
}

// NewCommitRepository creates a new CommitRepository with the given database connection
func NewCommitRepository(db *sql.DB) *CommitRepository {
	return &CommitRepository{db: db}
}

// Create inserts a new [models.Commit] with generated ID and sequence
func (r *CommitRepository) Create(c *models.Commit) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "commits")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	added, err := json.Marshal(c.Added())
	if err != nil {
		return fmt.Errorf("failed to encode additions: %w", err)
	}
	removed, err := json.Marshal(c.Removed())
	if err != nil {
		return fmt.Errorf("failed to encode removals: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO commits (id, sequence, base_url, added, removed, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, c.BaseURL(), string(added), string(removed), c.Message(), c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert commit: %w", err)
	}

	c.SetID(id)
	c.SetSequence(sequence)
	return nil
}

const commitColumns = `id, sequence, base_url, added, removed, message, created_at, updated_at, deleted_at`

// Get retrieves a commit by ID, excluding soft-deleted commits
func (r *CommitRepository) Get(id string) (*models.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE id = ? AND deleted_at IS NULL`
	return scanCommit(r.db.QueryRow(query, id))
}

// Update changes a commit's message
func (r *CommitRepository) Update(c *models.Commit) error {
	now := time.Now()
	c.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE commits SET message = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, c.Message(), now, c.ID())
	if err != nil {
		return fmt.Errorf("failed to update commit: %w", err)
	}
	return requireRow(result, "commit", c.ID())
}

// Delete soft-deletes a commit by ID
func (r *CommitRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE commits SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete commit: %w", err)
	}
	return requireRow(result, "commit", id)
}

// List retrieves commits newest first.
//
// Criteria: "base_url" (string) filters by backend, "limit" (int) caps the result.
func (r *CommitRepository) List(criteria map[string]any) ([]*models.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE deleted_at IS NULL`
	args := []any{}

	if baseURL, ok := criteria["base_url"].(string); ok && baseURL != "" {
		query += " AND base_url = ?"
		args = append(args, baseURL)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()

	commits := []*models.Commit{}
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return commits, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanCommit(row scanner) (*models.Commit, error) {
	var (
		id        string
		sequence  int
		baseURL   string
		added     string
		removed   string
		message   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &baseURL, &added, &removed, &message, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("commit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan commit: %w", err)
	}

	var delta models.ChannelDelta
	if err := json.Unmarshal([]byte(added), &delta.Add); err != nil {
		return nil, fmt.Errorf("failed to decode additions: %w", err)
	}
	if err := json.Unmarshal([]byte(removed), &delta.Remove); err != nil {
		return nil, fmt.Errorf("failed to decode removals: %w", err)
	}

	c := models.NewCommit(sequence, baseURL, delta, message)
	c.SetID(id)
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		c.SetDeletedAt(&deletedAt.Time)
	}
	return c, nil
}

func requireRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", kind, id)
	}
	return nil
}

// CommitLog implements tasks.CommitRecorder using CommitRepository.
type CommitLog struct {
	repo *CommitRepository
}

// NewCommitLog creates a new CommitLog with the given repository
func NewCommitLog(repo *CommitRepository) *CommitLog {
	return &CommitLog{repo: repo}
}

// RecordCommit journals one accepted batched write.
func (l *CommitLog) RecordCommit(baseURL string, delta models.ChannelDelta, message string) error {
	if err := l.repo.Create(models.NewCommit(0, baseURL, delta, message)); err != nil {
		return fmt.Errorf("failed to record commit: %w", err)
	}
	return nil
}

// Recent returns up to limit commits, newest first.
func (l *CommitLog) Recent(limit int) ([]*models.Commit, error) {
	return l.repo.List(map[string]any{"limit": limit})
}
