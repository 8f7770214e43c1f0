package store

import (
	"database/sql"
	"fmt"

	"github.com/chorenest/chorenest/internal/model"
)

// AvailabilityStore persists the weekday × period availability grid per
// family member. Absent cells read as available.
type AvailabilityStore struct {
	db *sql.DB
}

func NewAvailabilityStore(db *sql.DB) *AvailabilityStore {
	return &AvailabilityStore{db: db}
}

func scanSlot(scanner interface{ Scan(...any) error }) (*model.AvailabilitySlot, error) {
	var s model.AvailabilitySlot
	err := scanner.Scan(&s.ID, &s.MemberID, &s.Weekday, &s.PeriodID, &s.Available, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const slotCols = `id, member_id, weekday, period_id, available, updated_at`

func (s *AvailabilityStore) ListByMember(memberID int64) ([]model.AvailabilitySlot, error) {
	rows, err := s.db.Query(
		`SELECT `+slotCols+` FROM availability_slots WHERE member_id = ? ORDER BY weekday ASC, period_id ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	var slots []model.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// Set upserts one grid cell.
func (s *AvailabilityStore) Set(memberID int64, weekday int, periodID int64, available bool) (*model.AvailabilitySlot, error) {
	_, err := s.db.Exec(
		`INSERT INTO availability_slots (member_id, weekday, period_id, available)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (member_id, weekday, period_id)
		DO UPDATE SET available = excluded.available, updated_at = CURRENT_TIMESTAMP`,
		memberID, weekday, periodID, available,
	)
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+slotCols+` FROM availability_slots WHERE member_id = ? AND weekday = ? AND period_id = ?`,
		memberID, weekday, periodID,
	)
	slot, err := scanSlot(row)
	if err != nil {
		return nil, fmt.Errorf("get availability slot: %w", err)
	}
	return slot, nil
}

// IsAvailable reports whether a member is free for the given weekday and
// period. Members with no recorded cell are available.
func (s *AvailabilityStore) IsAvailable(memberID int64, weekday int, periodID int64) (bool, error) {
	var available bool
	err := s.db.QueryRow(
		`SELECT available FROM availability_slots WHERE member_id = ? AND weekday = ? AND period_id = ?`,
		memberID, weekday, periodID,
	).Scan(&available)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get availability: %w", err)
	}
	return available, nil
}

func (s *AvailabilityStore) ClearMember(memberID int64) error {
	_, err := s.db.Exec(`DELETE FROM availability_slots WHERE member_id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}
	return nil
}
