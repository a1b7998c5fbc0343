package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// ChannelCacheRepository implements models.Repository[*models.CachedChannel].
//
// One row per canonical URL; the full channel is kept as a JSON payload so optional settings survive as absent.
type ChannelCacheRepository struct {
	db *sql.DB
}

// NewChannelCacheRepository creates a new ChannelCacheRepository with the given database connection
func NewChannelCacheRepository(db *sql.DB) *ChannelCacheRepository {
	return &ChannelCacheRepository{db: db}
}

// Create inserts a new [models.CachedChannel] with generated ID and sequence
func (r *ChannelCacheRepository) Create(c *models.CachedChannel) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "channel_cache")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	ch := c.Channel()
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to encode channel: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO channel_cache (id, sequence, url, channel_id, uploader, sub_folder, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, ch.URL, ch.ChannelID, ch.Uploader, ch.SubFolder, string(payload), c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert cached channel: %w", err)
	}

	c.SetID(id)
	c.SetSequence(sequence)
	return nil
}

// Upsert stores c, replacing any row with the same URL, including a soft-deleted one.
// c takes the ID and sequence of the stored row.
func (r *ChannelCacheRepository) Upsert(c *models.CachedChannel) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "channel_cache")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	ch := c.Channel()
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to encode channel: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO channel_cache (id, sequence, url, channel_id, uploader, sub_folder, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			channel_id = excluded.channel_id,
			uploader = excluded.uploader,
			sub_folder = excluded.sub_folder,
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			deleted_at = NULL
		RETURNING id, sequence
	`

	var id string
	row := r.db.QueryRow(query, shared.GenerateID(), sequence, ch.URL, ch.ChannelID, ch.Uploader, ch.SubFolder, string(payload), now, now)
	if err := row.Scan(&id, &sequence); err != nil {
		return fmt.Errorf("failed to upsert cached channel: %w", err)
	}

	c.SetID(id)
	c.SetSequence(sequence)
	c.SetUpdatedAt(now)
	c.SetDeletedAt(nil)
	return nil
}

const channelCacheColumns = `id, sequence, payload, created_at, updated_at, deleted_at`

// Get retrieves a cached channel by ID, excluding soft-deleted rows
func (r *ChannelCacheRepository) Get(id string) (*models.CachedChannel, error) {
	query := `SELECT ` + channelCacheColumns + ` FROM channel_cache WHERE id = ? AND deleted_at IS NULL`
	return scanCachedChannel(r.db.QueryRow(query, id))
}

// GetByURL retrieves a cached channel by canonical URL
func (r *ChannelCacheRepository) GetByURL(url string) (*models.CachedChannel, error) {
	query := `SELECT ` + channelCacheColumns + ` FROM channel_cache WHERE url = ? AND deleted_at IS NULL`
	return scanCachedChannel(r.db.QueryRow(query, url))
}

// Update replaces the cached copy of a channel
func (r *ChannelCacheRepository) Update(c *models.CachedChannel) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	ch := c.Channel()
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to encode channel: %w", err)
	}

	now := time.Now()
	c.SetUpdatedAt(now)

	query := `
		UPDATE channel_cache
		SET channel_id = ?, uploader = ?, sub_folder = ?, payload = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, ch.ChannelID, ch.Uploader, ch.SubFolder, string(payload), now, c.ID())
	if err != nil {
		return fmt.Errorf("failed to update cached channel: %w", err)
	}
	return requireRow(result, "cached channel", c.ID())
}

// Delete soft-deletes a cached channel by ID
func (r *ChannelCacheRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE channel_cache SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete cached channel: %w", err)
	}
	return requireRow(result, "cached channel", id)
}

// DeleteByURL soft-deletes the cached copy of url. A URL that is not cached is not an error.
func (r *ChannelCacheRepository) DeleteByURL(url string) error {
	if _, err := r.db.Exec(`UPDATE channel_cache SET deleted_at = ? WHERE url = ? AND deleted_at IS NULL`, time.Now(), url); err != nil {
		return fmt.Errorf("failed to delete cached channel: %w", err)
	}
	return nil
}

// List retrieves cached channels ordered by uploader.
//
// Criteria: "search" (string) matches uploader or URL case-insensitively, "sub_folder" (string) filters exactly.
func (r *ChannelCacheRepository) List(criteria map[string]any) ([]*models.CachedChannel, error) {
	query := `SELECT ` + channelCacheColumns + ` FROM channel_cache WHERE deleted_at IS NULL`
	args := []any{}

	if search, ok := criteria["search"].(string); ok && strings.TrimSpace(search) != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
		query += " AND (LOWER(uploader) LIKE ? OR LOWER(url) LIKE ?)"
		args = append(args, pattern, pattern)
	}

	if subFolder, ok := criteria["sub_folder"].(string); ok && subFolder != "" {
		query += " AND sub_folder = ?"
		args = append(args, subFolder)
	}

	query += " ORDER BY LOWER(uploader) ASC, sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached channels: %w", err)
	}
	defer rows.Close()

	cached := []*models.CachedChannel{}
	for rows.Next() {
		c, err := scanCachedChannel(rows)
		if err != nil {
			return nil, err
		}
		cached = append(cached, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cached, nil
}

func scanCachedChannel(row scanner) (*models.CachedChannel, error) {
	var (
		id        string
		sequence  int
		payload   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &payload, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cached channel not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached channel: %w", err)
	}

	var ch models.Channel
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return nil, fmt.Errorf("failed to decode cached channel: %w", err)
	}

	c := models.NewCachedChannel(sequence, ch)
	c.SetID(id)
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		c.SetDeletedAt(&deletedAt.Time)
	}
	return c, nil
}

// ChannelCache implements tasks.ChannelCacher using ChannelCacheRepository.
//
// Channels are upserted by canonical URL; committed removals are evicted.
type ChannelCache struct {
	repo *ChannelCacheRepository
}

// NewChannelCache creates a new ChannelCache with the given repository
func NewChannelCache(repo *ChannelCacheRepository) *ChannelCache {
	return &ChannelCache{repo: repo}
}

// CacheChannels stores the latest copy of every channel, returning the first failure.
func (a *ChannelCache) CacheChannels(channels []models.Channel) error {
	var firstErr error
	for _, ch := range channels {
		if err := a.cacheOne(ch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *ChannelCache) cacheOne(ch models.Channel) error {
	if err := a.repo.Upsert(models.NewCachedChannel(0, ch)); err != nil {
		return fmt.Errorf("failed to cache channel: %w", err)
	}
	return nil
}

// EvictChannels drops the cached copies of urls, returning the first failure.
func (a *ChannelCache) EvictChannels(urls []string) error {
	var firstErr error
	for _, url := range urls {
		if err := a.repo.DeleteByURL(url); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Search returns cached entries whose uploader or URL contains term, ignoring case.
// An empty term returns everything.
func (a *ChannelCache) Search(term string) ([]*models.CachedChannel, error) {
	cached, err := a.repo.List(nil)
	if err != nil {
		return nil, err
	}
	found := make([]*models.CachedChannel, 0, len(cached))
	for _, c := range cached {
		ch := c.Channel()
		if channelurl.MatchesFilter(ch.Uploader, ch.URL, term) {
			found = append(found, c)
		}
	}
	return found, nil
}
