package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chorenest/chorenest/internal/model"
)

// ScheduleStore persists schedule rules and exceptions. Rules are always
// returned in ascending priority order, which is also their evaluation order.
type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// --- Rule methods ---

func encodeRuleValue(v model.RuleValue) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode rule value: %w", err)
	}
	return string(b), nil
}

func scanRule(scanner interface{ Scan(...any) error }) (*model.ScheduleRule, error) {
	var r model.ScheduleRule
	var rawValue string

	err := scanner.Scan(&r.ID, &r.ChoreID, &r.RuleType, &rawValue, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawValue), &r.RuleValue); err != nil {
		return nil, fmt.Errorf("decode rule value %q: %w", rawValue, err)
	}
	return &r, nil
}

const ruleCols = `id, chore_id, rule_type, rule_value, priority, created_at, updated_at`

func (s *ScheduleStore) CreateRule(choreID int64, ruleType model.RuleType, value model.RuleValue, priority int) (*model.ScheduleRule, error) {
	raw, err := encodeRuleValue(value)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO schedule_rules (chore_id, rule_type, rule_value, priority) VALUES (?, ?, ?, ?)`,
		choreID, ruleType, raw, priority,
	)
	if err != nil {
		return nil, fmt.Errorf("insert rule: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRuleByID(id)
}

func (s *ScheduleStore) GetRuleByID(id int64) (*model.ScheduleRule, error) {
	row := s.db.QueryRow(`SELECT `+ruleCols+` FROM schedule_rules WHERE id = ?`, id)
	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return r, nil
}

func (s *ScheduleStore) ListRules(choreID int64) ([]model.ScheduleRule, error) {
	rows, err := s.db.Query(
		`SELECT `+ruleCols+` FROM schedule_rules WHERE chore_id = ? ORDER BY priority ASC, id ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []model.ScheduleRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

func (s *ScheduleStore) UpdateRule(id int64, ruleType model.RuleType, value model.RuleValue, priority int) (*model.ScheduleRule, error) {
	raw, err := encodeRuleValue(value)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE schedule_rules SET rule_type = ?, rule_value = ?, priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ruleType, raw, priority, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return s.GetRuleByID(id)
}

func (s *ScheduleStore) DeleteRule(id int64) error {
	_, err := s.db.Exec(`DELETE FROM schedule_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// --- Exception methods ---

func scanException(scanner interface{ Scan(...any) error }) (*model.ScheduleException, error) {
	var e model.ScheduleException
	var excDate string
	var reDate sql.NullString

	err := scanner.Scan(&e.ID, &e.ChoreID, &excDate, &reDate, &e.Reason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.ExceptionDate, err = time.Parse(dayLayout, excDate)
	if err != nil {
		return nil, fmt.Errorf("decode exception date %q: %w", excDate, err)
	}
	if e.RescheduledDate, err = decodeDate(reDate); err != nil {
		return nil, err
	}
	return &e, nil
}

const exceptionCols = `id, chore_id, exception_date, rescheduled_date, reason, created_at, updated_at`

// CreateException records an override for one occurrence date. A nil
// rescheduledDate cancels it; a non-nil one moves it.
func (s *ScheduleStore) CreateException(choreID int64, exceptionDate time.Time, rescheduledDate *time.Time, reason string) (*model.ScheduleException, error) {
	result, err := s.db.Exec(
		`INSERT INTO schedule_exceptions (chore_id, exception_date, rescheduled_date, reason) VALUES (?, ?, ?, ?)`,
		choreID, exceptionDate.UTC().Format(dayLayout), encodeDate(rescheduledDate), reason,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exception: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetExceptionByID(id)
}

func (s *ScheduleStore) GetExceptionByID(id int64) (*model.ScheduleException, error) {
	row := s.db.QueryRow(`SELECT `+exceptionCols+` FROM schedule_exceptions WHERE id = ?`, id)
	e, err := scanException(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exception: %w", err)
	}
	return e, nil
}

func (s *ScheduleStore) ListExceptions(choreID int64) ([]model.ScheduleException, error) {
	rows, err := s.db.Query(
		`SELECT `+exceptionCols+` FROM schedule_exceptions WHERE chore_id = ? ORDER BY exception_date ASC, id ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	defer rows.Close()

	var excs []model.ScheduleException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		excs = append(excs, *e)
	}
	return excs, rows.Err()
}

func (s *ScheduleStore) UpdateException(id int64, exceptionDate time.Time, rescheduledDate *time.Time, reason string) (*model.ScheduleException, error) {
	_, err := s.db.Exec(
		`UPDATE schedule_exceptions SET exception_date = ?, rescheduled_date = ?, reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		exceptionDate.UTC().Format(dayLayout), encodeDate(rescheduledDate), reason, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update exception: %w", err)
	}
	return s.GetExceptionByID(id)
}

func (s *ScheduleStore) DeleteException(id int64) error {
	_, err := s.db.Exec(`DELETE FROM schedule_exceptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	return nil
}
