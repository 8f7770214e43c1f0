package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chorenest/chorenest/internal/model"
)

// TemplateStore persists reusable schedule templates and applies them to
// chores.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.ScheduleTemplate, error) {
	var t model.ScheduleTemplate
	var timeOfDayID sql.NullInt64
	var weekdays, monthDays string

	err := scanner.Scan(
		&t.ID, &t.Name, &t.ScheduleType, &t.RecurrencePattern, &t.IntervalValue,
		&weekdays, &monthDays, &t.IsTimeSensitive, &timeOfDayID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if timeOfDayID.Valid {
		t.TimeOfDayID = &timeOfDayID.Int64
	}
	if t.Weekdays, err = decodeDays(weekdays); err != nil {
		return nil, err
	}
	if t.MonthDays, err = decodeDays(monthDays); err != nil {
		return nil, err
	}
	return &t, nil
}

const templateCols = `id, name, schedule_type, recurrence_pattern, interval_value,
	weekdays, month_days, is_time_sensitive, time_of_day_id, created_at`

func (s *TemplateStore) Create(t *model.ScheduleTemplate) (*model.ScheduleTemplate, error) {
	if t.ScheduleType == "" {
		t.ScheduleType = model.ScheduleSimple
	}
	if t.IntervalValue < 1 {
		t.IntervalValue = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO schedule_templates (name, schedule_type, recurrence_pattern, interval_value,
			weekdays, month_days, is_time_sensitive, time_of_day_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.ScheduleType, t.RecurrencePattern, t.IntervalValue,
		encodeDays(t.Weekdays), encodeDays(t.MonthDays),
		t.IsTimeSensitive, nullID(t.TimeOfDayID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, r := range t.Rules {
		raw, err := encodeRuleValue(r.RuleValue)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(
			`INSERT INTO template_rules (template_id, rule_type, rule_value, priority) VALUES (?, ?, ?, ?)`,
			id, r.RuleType, raw, r.Priority,
		); err != nil {
			return nil, fmt.Errorf("insert template rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id int64) (*model.ScheduleTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM schedule_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	if t.Rules, err = s.listTemplateRules(id); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateStore) List() ([]model.ScheduleTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateCols + ` FROM schedule_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ScheduleTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		if templates[i].Rules, err = s.listTemplateRules(templates[i].ID); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (s *TemplateStore) listTemplateRules(templateID int64) ([]model.TemplateRule, error) {
	rows, err := s.db.Query(
		`SELECT rule_type, rule_value, priority FROM template_rules WHERE template_id = ? ORDER BY priority ASC, id ASC`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list template rules: %w", err)
	}
	defer rows.Close()

	var rules []model.TemplateRule
	for rows.Next() {
		var r model.TemplateRule
		var raw string
		if err := rows.Scan(&r.RuleType, &raw, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan template rule: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &r.RuleValue); err != nil {
			return nil, fmt.Errorf("decode template rule value %q: %w", raw, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *TemplateStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM schedule_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// ApplyToChore copies the template's schedule shape onto the chore and
// replaces its rule set with the template's, in one transaction.
func (s *TemplateStore) ApplyToChore(choreID int64, tpl *model.ScheduleTemplate) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE chores SET schedule_type = ?, recurrence_pattern = ?, interval_value = ?,
			weekdays = ?, month_days = ?, is_time_sensitive = ?, time_of_day_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		tpl.ScheduleType, tpl.RecurrencePattern, tpl.IntervalValue,
		encodeDays(tpl.Weekdays), encodeDays(tpl.MonthDays),
		tpl.IsTimeSensitive, nullID(tpl.TimeOfDayID),
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("apply template shape: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM schedule_rules WHERE chore_id = ?`, choreID); err != nil {
		return nil, fmt.Errorf("clear chore rules: %w", err)
	}

	for _, r := range tpl.Rules {
		raw, err := encodeRuleValue(r.RuleValue)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(
			`INSERT INTO schedule_rules (chore_id, rule_type, rule_value, priority) VALUES (?, ?, ?, ?)`,
			choreID, r.RuleType, raw, r.Priority,
		); err != nil {
			return nil, fmt.Errorf("insert rule from template: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	chores := &ChoreStore{db: s.db}
	return chores.GetByID(choreID)
}
