package market

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Repository provides CRUD operations for markets.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a market repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO markets
	(name, description, category, address, city, state, zip, lat, lng, schedule_json, status, tags_json, access_json, promoter_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, name, description, category, address, city, state, zip, lat, lng, schedule_json, status, tags_json, access_json, views, favorites, applications, comment_count, rating, promoter_id, created_at, updated_at`

// Insert adds a new market and returns it with its generated ID.
func (r *Repository) Insert(m *Market) (*Market, error) {
	if !m.Category.IsValid() {
		return nil, fmt.Errorf("invalid category: %q", m.Category)
	}
	status := m.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %q", status)
	}

	scheduleJSON, tagsJSON, accessJSON, err := encodeColumns(m)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(insertSQL,
		m.Name, m.Description, string(m.Category),
		m.Location.Address, m.Location.City, m.Location.State, m.Location.Zip,
		m.Location.Lat, m.Location.Lng,
		scheduleJSON, string(status), tagsJSON, accessJSON,
		m.PromoterID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting market: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a market by its ID.
func (r *Repository) GetByID(id int64) (*Market, error) {
	query := fmt.Sprintf("SELECT %s FROM markets WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	m, err := scanMarket(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying market %d: %w", id, err)
	}

	return m, nil
}

// ListOptions controls coarse narrowing for List. Fine-grained filtering
// (search, tags, accessibility) happens in the in-memory pipeline.
type ListOptions struct {
	Status     Status // empty = all
	Category   Category
	PromoterID int64 // 0 = all
}

// List returns markets, optionally narrowed, newest first.
func (r *Repository) List(opts ListOptions) ([]*Market, error) {
	query := fmt.Sprintf("SELECT %s FROM markets", selectColumns)
	var args []interface{}
	var conditions []string

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}

	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(opts.Category))
	}

	if opts.PromoterID != 0 {
		conditions = append(conditions, "promoter_id = ?")
		args = append(args, opts.PromoterID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing markets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var markets []*Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning market: %w", err)
		}
		markets = append(markets, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating markets: %w", err)
	}

	return markets, nil
}

// Update rewrites a market's editable fields.
func (r *Repository) Update(m *Market) (*Market, error) {
	if !m.Category.IsValid() {
		return nil, fmt.Errorf("invalid category: %q", m.Category)
	}

	scheduleJSON, tagsJSON, accessJSON, err := encodeColumns(m)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(
		`UPDATE markets SET name = ?, description = ?, category = ?,
			address = ?, city = ?, state = ?, zip = ?, lat = ?, lng = ?,
			schedule_json = ?, tags_json = ?, access_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		m.Name, m.Description, string(m.Category),
		m.Location.Address, m.Location.City, m.Location.State, m.Location.Zip,
		m.Location.Lat, m.Location.Lng,
		scheduleJSON, tagsJSON, accessJSON,
		m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating market: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("market %d not found", m.ID)
	}

	return r.GetByID(m.ID)
}

// UpdateStatus transitions a market to a new lifecycle status.
func (r *Repository) UpdateStatus(id int64, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %q", status)
	}

	result, err := r.db.Exec(
		"UPDATE markets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("market %d not found", id)
	}

	return nil
}

// IncrementViews bumps the view counter.
func (r *Repository) IncrementViews(id int64) error {
	return r.bump(id, "views", 1)
}

// AdjustFavorites changes the favorite counter by delta (+1 on track,
// -1 on untrack).
func (r *Repository) AdjustFavorites(id int64, delta int64) error {
	return r.bump(id, "favorites", delta)
}

// IncrementApplications bumps the application counter.
func (r *Repository) IncrementApplications(id int64) error {
	return r.bump(id, "applications", 1)
}

// IncrementComments bumps the comment counter.
func (r *Repository) IncrementComments(id int64) error {
	return r.bump(id, "comment_count", 1)
}

func (r *Repository) bump(id int64, column string, delta int64) error {
	result, err := r.db.Exec(
		fmt.Sprintf("UPDATE markets SET %s = MAX(0, %s + ?) WHERE id = ?", column, column),
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("market %d not found", id)
	}

	return nil
}

// encodeColumns marshals the JSON-backed columns.
func encodeColumns(m *Market) (schedule, tags, access string, err error) {
	scheduleData, err := json.Marshal(m.Schedule)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding schedule: %w", err)
	}

	tagList := m.Tags
	if tagList == nil {
		tagList = []string{}
	}
	tagsData, err := json.Marshal(tagList)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding tags: %w", err)
	}

	accessData, err := json.Marshal(m.Accessibility)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding accessibility: %w", err)
	}

	return string(scheduleData), string(tagsData), string(accessData), nil
}

// scanMarket scans a market from a database row.
func scanMarket(row interface{ Scan(...interface{}) error }) (*Market, error) {
	var m Market
	var category, status string
	var lat, lng sql.NullFloat64
	var scheduleJSON, tagsJSON, accessJSON string

	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &category,
		&m.Location.Address, &m.Location.City, &m.Location.State, &m.Location.Zip,
		&lat, &lng,
		&scheduleJSON, &status, &tagsJSON, &accessJSON,
		&m.Stats.Views, &m.Stats.Favorites, &m.Stats.Applications, &m.Stats.Comments,
		&m.Stats.Rating, &m.PromoterID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Category = Category(category)
	m.Status = Status(status)
	if lat.Valid {
		m.Location.Lat = &lat.Float64
	}
	if lng.Valid {
		m.Location.Lng = &lng.Float64
	}

	// Malformed stored JSON degrades to zero values, mirroring the
	// silent-fallback policy of schedule normalization.
	if err := json.Unmarshal([]byte(scheduleJSON), &m.Schedule); err != nil {
		m.Schedule = Schedule{}
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		m.Tags = nil
	}
	if err := json.Unmarshal([]byte(accessJSON), &m.Accessibility); err != nil {
		m.Accessibility = Accessibility{}
	}

	return &m, nil
}
