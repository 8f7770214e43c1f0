package store

import (
	"database/sql"
	"fmt"

	"github.com/chorenest/chorenest/internal/model"
)

// PeriodStore persists the household's time-of-day periods.
type PeriodStore struct {
	db *sql.DB
}

func NewPeriodStore(db *sql.DB) *PeriodStore {
	return &PeriodStore{db: db}
}

func scanPeriod(scanner interface{ Scan(...any) error }) (*model.TimeOfDayPeriod, error) {
	var p model.TimeOfDayPeriod
	err := scanner.Scan(&p.ID, &p.Name, &p.StartTime, &p.EndTime, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const periodCols = `id, name, start_time, end_time, sort_order, created_at, updated_at`

func (s *PeriodStore) List() ([]model.TimeOfDayPeriod, error) {
	rows, err := s.db.Query(`SELECT ` + periodCols + ` FROM time_of_day_periods ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []model.TimeOfDayPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func (s *PeriodStore) GetByID(id int64) (*model.TimeOfDayPeriod, error) {
	row := s.db.QueryRow(`SELECT `+periodCols+` FROM time_of_day_periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	return p, nil
}

func (s *PeriodStore) Create(name, startTime, endTime string, sortOrder int) (*model.TimeOfDayPeriod, error) {
	result, err := s.db.Exec(
		`INSERT INTO time_of_day_periods (name, start_time, end_time, sort_order) VALUES (?, ?, ?, ?)`,
		name, startTime, endTime, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert period: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PeriodStore) Update(id int64, name, startTime, endTime string, sortOrder int) (*model.TimeOfDayPeriod, error) {
	_, err := s.db.Exec(
		`UPDATE time_of_day_periods SET name = ?, start_time = ?, end_time = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, startTime, endTime, sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update period: %w", err)
	}
	return s.GetByID(id)
}

func (s *PeriodStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM time_of_day_periods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	return nil
}
