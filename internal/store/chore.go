package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

// dayLayout is the storage format for calendar-day columns (start_date,
// end_date, next_occurrence, exception dates).
const dayLayout = "2006-01-02"

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// --- column codecs ---

func encodeDays(days []int) string {
	if days == nil {
		days = []int{}
	}
	b, _ := json.Marshal(days)
	return string(b)
}

func decodeDays(raw string) ([]int, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var days []int
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return nil, fmt.Errorf("decode day list %q: %w", raw, err)
	}
	return days, nil
}

func encodeDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(dayLayout), Valid: true}
}

func decodeDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dayLayout, ns.String)
	if err != nil {
		return nil, fmt.Errorf("decode date %q: %w", ns.String, err)
	}
	return &t, nil
}

// --- Area methods ---

func scanArea(scanner interface{ Scan(...any) error }) (*model.ChoreArea, error) {
	var a model.ChoreArea
	err := scanner.Scan(&a.ID, &a.Name, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const areaCols = `id, name, sort_order, created_at, updated_at`

func (s *ChoreStore) ListAreas() ([]model.ChoreArea, error) {
	rows, err := s.db.Query(`SELECT ` + areaCols + ` FROM chore_areas ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var areas []model.ChoreArea
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		areas = append(areas, *a)
	}
	return areas, rows.Err()
}

func (s *ChoreStore) GetAreaByID(id int64) (*model.ChoreArea, error) {
	row := s.db.QueryRow(`SELECT `+areaCols+` FROM chore_areas WHERE id = ?`, id)
	a, err := scanArea(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get area: %w", err)
	}
	return a, nil
}

func (s *ChoreStore) CreateArea(name string, sortOrder int) (*model.ChoreArea, error) {
	result, err := s.db.Exec(
		`INSERT INTO chore_areas (name, sort_order) VALUES (?, ?)`,
		name, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert area: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAreaByID(id)
}

func (s *ChoreStore) UpdateArea(id int64, name string, sortOrder int) (*model.ChoreArea, error) {
	_, err := s.db.Exec(
		`UPDATE chore_areas SET name = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update area: %w", err)
	}
	return s.GetAreaByID(id)
}

func (s *ChoreStore) DeleteArea(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_areas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	return nil
}

func (s *ChoreStore) UpdateAreaSortOrder(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE chore_areas SET sort_order = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("update sort order: %w", err)
		}
	}
	return tx.Commit()
}

// --- Chore methods ---

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var areaID, assignedTo, timeOfDayID sql.NullInt64
	var weekdays, monthDays string
	var startDate, endDate, nextOccurrence sql.NullString

	err := scanner.Scan(
		&c.ID, &c.Title, &c.Description, &areaID, &c.Points, &assignedTo,
		&c.Status, &c.ScheduleType, &c.RecurrencePattern, &c.IntervalValue,
		&weekdays, &monthDays, &startDate, &endDate,
		&c.IsTimeSensitive, &timeOfDayID, &nextOccurrence,
		&c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if areaID.Valid {
		c.AreaID = &areaID.Int64
	}
	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	if timeOfDayID.Valid {
		c.TimeOfDayID = &timeOfDayID.Int64
	}
	if c.Weekdays, err = decodeDays(weekdays); err != nil {
		return nil, err
	}
	if c.MonthDays, err = decodeDays(monthDays); err != nil {
		return nil, err
	}
	if c.StartDate, err = decodeDate(startDate); err != nil {
		return nil, err
	}
	if c.EndDate, err = decodeDate(endDate); err != nil {
		return nil, err
	}
	if c.NextOccurrence, err = decodeDate(nextOccurrence); err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, title, description, area_id, points, assigned_to,
	status, schedule_type, recurrence_pattern, interval_value,
	weekdays, month_days, start_date, end_date,
	is_time_sensitive, time_of_day_id, next_occurrence,
	sort_order, created_at, updated_at`

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (s *ChoreStore) Create(c *model.Chore) (*model.Chore, error) {
	if c.Status == "" {
		c.Status = model.ChoreActive
	}
	if c.ScheduleType == "" {
		c.ScheduleType = model.ScheduleSimple
	}
	if c.IntervalValue < 1 {
		c.IntervalValue = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (title, description, area_id, points, assigned_to,
			status, schedule_type, recurrence_pattern, interval_value,
			weekdays, month_days, start_date, end_date,
			is_time_sensitive, time_of_day_id, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Description, nullID(c.AreaID), c.Points, nullID(c.AssignedTo),
		c.Status, c.ScheduleType, c.RecurrencePattern, c.IntervalValue,
		encodeDays(c.Weekdays), encodeDays(c.MonthDays),
		encodeDate(c.StartDate), encodeDate(c.EndDate),
		c.IsTimeSensitive, nullID(c.TimeOfDayID), c.SortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// List returns all non-deleted chores.
func (s *ChoreStore) List() ([]model.Chore, error) {
	return s.queryChores(
		`SELECT ` + choreCols + ` FROM chores WHERE status != 'DELETED' ORDER BY sort_order ASC, title ASC`,
	)
}

// ListActive returns chores eligible for scheduling.
func (s *ChoreStore) ListActive() ([]model.Chore, error) {
	return s.queryChores(
		`SELECT ` + choreCols + ` FROM chores WHERE status = 'ACTIVE' ORDER BY sort_order ASC, title ASC`,
	)
}

func (s *ChoreStore) ListByAssignee(memberID int64) ([]model.Chore, error) {
	return s.queryChores(
		`SELECT `+choreCols+` FROM chores WHERE assigned_to = ? AND status != 'DELETED' ORDER BY sort_order ASC, title ASC`,
		memberID,
	)
}

func (s *ChoreStore) ListByArea(areaID int64) ([]model.Chore, error) {
	return s.queryChores(
		`SELECT `+choreCols+` FROM chores WHERE area_id = ? AND status != 'DELETED' ORDER BY sort_order ASC, title ASC`,
		areaID,
	)
}

// ListDueOn returns active chores whose cached next occurrence falls on the
// given calendar day. The reminder scheduler polls this.
func (s *ChoreStore) ListDueOn(date time.Time) ([]model.Chore, error) {
	return s.queryChores(
		`SELECT `+choreCols+` FROM chores WHERE status = 'ACTIVE' AND next_occurrence = ? ORDER BY sort_order ASC, title ASC`,
		date.UTC().Format(dayLayout),
	)
}

func (s *ChoreStore) queryChores(query string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, c *model.Chore) (*model.Chore, error) {
	if c.IntervalValue < 1 {
		c.IntervalValue = 1
	}
	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, area_id = ?, points = ?, assigned_to = ?,
			schedule_type = ?, recurrence_pattern = ?, interval_value = ?,
			weekdays = ?, month_days = ?, start_date = ?, end_date = ?,
			is_time_sensitive = ?, time_of_day_id = ?, sort_order = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Title, c.Description, nullID(c.AreaID), c.Points, nullID(c.AssignedTo),
		c.ScheduleType, c.RecurrencePattern, c.IntervalValue,
		encodeDays(c.Weekdays), encodeDays(c.MonthDays),
		encodeDate(c.StartDate), encodeDate(c.EndDate),
		c.IsTimeSensitive, nullID(c.TimeOfDayID), c.SortOrder,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) SetStatus(id int64, status model.ChoreStatus) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set chore status: %w", err)
	}
	return s.GetByID(id)
}

// Delete soft-deletes a chore. The row and its completion history survive;
// listings and scheduling skip it.
func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(
		`UPDATE chores SET status = 'DELETED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// SetNextOccurrence rewrites the cached next occurrence date.
func (s *ChoreStore) SetNextOccurrence(id int64, next time.Time) error {
	_, err := s.db.Exec(
		`UPDATE chores SET next_occurrence = ? WHERE id = ?`,
		next.UTC().Format(dayLayout), id,
	)
	if err != nil {
		return fmt.Errorf("set next occurrence: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	var completedBy sql.NullInt64

	err := scanner.Scan(&c.ID, &c.ChoreID, &completedBy, &c.CompletedAt)
	if err != nil {
		return nil, err
	}

	if completedBy.Valid {
		c.CompletedBy = &completedBy.Int64
	}
	return &c, nil
}

const completionCols = `id, chore_id, completed_by, completed_at`

func (s *ChoreStore) CreateCompletion(choreID int64, completedBy *int64) (*model.ChoreCompletion, error) {
	result, err := s.db.Exec(
		`INSERT INTO chore_completions (chore_id, completed_by) VALUES (?, ?)`,
		choreID, nullID(completedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, id)
	return scanCompletion(row)
}

func (s *ChoreStore) DeleteCompletion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (s *ChoreStore) ListCompletionsByChore(choreID int64) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *ChoreStore) ListCompletionsByDateRange(start, end time.Time) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE completed_at >= ? AND completed_at < ? ORDER BY completed_at DESC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list completions by range: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *ChoreStore) LastCompletionForChore(choreID int64) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC LIMIT 1`,
		choreID,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return c, nil
}
