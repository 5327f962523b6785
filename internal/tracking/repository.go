package tracking

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Repository provides CRUD operations for tracking records and their
// todos and expenses.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a tracking repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// selectTracking pulls a tracking row with its derived aggregates.
const selectTracking = `SELECT t.id, t.user_id, t.market_id, t.status, t.notes,
	(SELECT COUNT(*) FROM todos WHERE tracking_id = t.id),
	(SELECT COUNT(*) FROM todos WHERE tracking_id = t.id AND done = 1),
	COALESCE((SELECT SUM(amount_cents) FROM expenses WHERE tracking_id = t.id), 0),
	t.created_at, t.updated_at
	FROM trackings t`

// Track creates a tracking record for (user, market). An empty status
// enters at interested.
func (r *Repository) Track(userID, marketID int64, status Status) (*Tracking, error) {
	if status == "" {
		status = StatusInterested
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid tracking status: %q", status)
	}

	if _, err := r.db.Exec(
		"INSERT INTO trackings (user_id, market_id, status) VALUES (?, ?, ?)",
		userID, marketID, string(status),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("market %d already tracked", marketID)
		}
		return nil, fmt.Errorf("inserting tracking: %w", err)
	}

	return r.Get(userID, marketID)
}

// Untrack removes the tracking record entirely. Todos and expenses go
// with it via cascade.
func (r *Repository) Untrack(userID, marketID int64) error {
	result, err := r.db.Exec(
		"DELETE FROM trackings WHERE user_id = ? AND market_id = ?",
		userID, marketID,
	)
	if err != nil {
		return fmt.Errorf("deleting tracking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("market %d not tracked", marketID)
	}

	return nil
}

// Get returns one tracking record with aggregates.
func (r *Repository) Get(userID, marketID int64) (*Tracking, error) {
	row := r.db.QueryRow(selectTracking+" WHERE t.user_id = ? AND t.market_id = ?", userID, marketID)

	tr, err := scanTracking(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market %d not tracked", marketID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying tracking: %w", err)
	}

	return tr, nil
}

// GetByID returns one tracking record by its own ID.
func (r *Repository) GetByID(id int64) (*Tracking, error) {
	row := r.db.QueryRow(selectTracking+" WHERE t.id = ?", id)

	tr, err := scanTracking(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tracking %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying tracking: %w", err)
	}

	return tr, nil
}

// IsTracked reports whether the user tracks the market.
func (r *Repository) IsTracked(userID, marketID int64) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM trackings WHERE user_id = ? AND market_id = ?",
		userID, marketID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking tracking: %w", err)
	}
	return count > 0, nil
}

// ListByUser returns all of a user's tracking records, newest first.
func (r *Repository) ListByUser(userID int64) ([]*Tracking, error) {
	rows, err := r.db.Query(selectTracking+" WHERE t.user_id = ? ORDER BY t.created_at DESC, t.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing trackings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var trackings []*Tracking
	for rows.Next() {
		tr, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracking: %w", err)
		}
		trackings = append(trackings, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trackings: %w", err)
	}

	return trackings, nil
}

// UpdateStatus sets a tracked market's status. Only explicit user
// action reaches here; any valid status may follow any other.
func (r *Repository) UpdateStatus(userID, marketID int64, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid tracking status: %q", status)
	}

	result, err := r.db.Exec(
		"UPDATE trackings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND market_id = ?",
		string(status), userID, marketID,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("market %d not tracked", marketID)
	}

	return nil
}

// UpdateNotes replaces the free-form notes on a tracking record.
func (r *Repository) UpdateNotes(id int64, notes string) error {
	result, err := r.db.Exec(
		"UPDATE trackings SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		notes, id,
	)
	if err != nil {
		return fmt.Errorf("updating notes: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tracking %d not found", id)
	}

	return nil
}

// AddTodo records a preparation task against a tracking record.
func (r *Repository) AddTodo(trackingID int64, title string) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("todo title is required")
	}

	result, err := r.db.Exec(
		"INSERT INTO todos (tracking_id, title) VALUES (?, ?)",
		trackingID, title,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var todo Todo
	var done int
	err = r.db.QueryRow(
		"SELECT id, tracking_id, title, done, created_at FROM todos WHERE id = ?", id,
	).Scan(&todo.ID, &todo.TrackingID, &todo.Title, &done, &todo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back todo: %w", err)
	}
	todo.Done = done != 0

	return &todo, nil
}

// SetTodoDone toggles a todo's completion flag.
func (r *Repository) SetTodoDone(todoID int64, done bool) error {
	val := 0
	if done {
		val = 1
	}

	result, err := r.db.Exec("UPDATE todos SET done = ? WHERE id = ?", val, todoID)
	if err != nil {
		return fmt.Errorf("updating todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("todo %d not found", todoID)
	}

	return nil
}

// ListTodos returns all todos for a tracking record, oldest first.
func (r *Repository) ListTodos(trackingID int64) ([]*Todo, error) {
	rows, err := r.db.Query(
		"SELECT id, tracking_id, title, done, created_at FROM todos WHERE tracking_id = ? ORDER BY id",
		trackingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var todos []*Todo
	for rows.Next() {
		var todo Todo
		var done int
		if err := rows.Scan(&todo.ID, &todo.TrackingID, &todo.Title, &done, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		todo.Done = done != 0
		todos = append(todos, &todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}

	return todos, nil
}

// AddExpense records a cost against a tracking record.
func (r *Repository) AddExpense(trackingID int64, description string, amountCents int64) (*Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("expense description is required")
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("expense amount cannot be negative")
	}

	result, err := r.db.Exec(
		"INSERT INTO expenses (tracking_id, description, amount_cents) VALUES (?, ?, ?)",
		trackingID, description, amountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var e Expense
	err = r.db.QueryRow(
		"SELECT id, tracking_id, description, amount_cents, created_at FROM expenses WHERE id = ?", id,
	).Scan(&e.ID, &e.TrackingID, &e.Description, &e.AmountCents, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back expense: %w", err)
	}

	return &e, nil
}

// ListExpenses returns all expenses for a tracking record, oldest first.
func (r *Repository) ListExpenses(trackingID int64) ([]*Expense, error) {
	rows, err := r.db.Query(
		"SELECT id, tracking_id, description, amount_cents, created_at FROM expenses WHERE tracking_id = ? ORDER BY id",
		trackingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var expenses []*Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.TrackingID, &e.Description, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return expenses, nil
}

// scanTracking scans a tracking row with aggregates and computes todo
// progress.
func scanTracking(row interface{ Scan(...interface{}) error }) (*Tracking, error) {
	var tr Tracking
	var status string

	err := row.Scan(
		&tr.ID, &tr.UserID, &tr.MarketID, &status, &tr.Notes,
		&tr.TodoCount, &tr.TodoDone, &tr.TotalExpenses,
		&tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tr.Status = Status(status)
	if tr.TodoCount > 0 {
		tr.Progress = float64(tr.TodoDone) / float64(tr.TodoCount)
	}

	return &tr, nil
}
