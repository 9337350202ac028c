// Package template turns raw preset definitions into the canonical level and
// task blueprint form the materialization engine consumes.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTemplate is wrapped by every normalization failure.
var ErrInvalidTemplate = errors.New("invalid template")

// Priority of a task blueprint.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Level is a canonical department level. LevelIndex equals the level's
// position in its template.
type Level struct {
	LevelIndex int    `json:"level_index"`
	Department string `json:"department"`
}

// TaskBlueprint is a task stub cloned into a concrete task on materialization.
type TaskBlueprint struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	LevelIndex  int        `json:"level_index"`
	Order       int        `json:"order"`
	Department  string     `json:"department,omitempty"`
	AssigneeID  *uint64    `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Amount      float64    `json:"amount,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// DepartmentRef accepts a department as a bare string, a numeric id, or an
// object carrying a name (or, failing that, a code or id).
type DepartmentRef struct {
	Name string
}

func (d *DepartmentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Name = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.Name = strings.TrimSpace(s)
		return nil
	case '{':
		var obj struct {
			Name string          `json:"name"`
			Code string          `json:"code"`
			ID   json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case strings.TrimSpace(obj.Name) != "":
			d.Name = strings.TrimSpace(obj.Name)
		case strings.TrimSpace(obj.Code) != "":
			d.Name = strings.TrimSpace(obj.Code)
		case len(obj.ID) > 0:
			var inner DepartmentRef
			if err := inner.UnmarshalJSON(obj.ID); err != nil {
				return err
			}
			d.Name = inner.Name
		}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("department reference must be a string, number or object: %w", err)
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			return fmt.Errorf("department id %s is not a positive integer", n)
		}
		d.Name = n.String()
		return nil
	}
}

// RawLevel is one entry of a preset's level list as submitted by a client:
// either a department reference on its own or an object with a
// "department" field.
type RawLevel struct {
	Department DepartmentRef
}

func (r *RawLevel) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		if dep, ok := fields["department"]; ok {
			return r.Department.UnmarshalJSON(dep)
		}
	}
	return r.Department.UnmarshalJSON(trimmed)
}

// LevelsFromNames builds raw levels from plain department names.
func LevelsFromNames(names ...string) []RawLevel {
	raw := make([]RawLevel, len(names))
	for i, n := range names {
		raw[i] = RawLevel{Department: DepartmentRef{Name: n}}
	}
	return raw
}

// Normalize assigns each level its 0-based position and resolves its
// department reference to a canonical name.
func Normalize(raw []RawLevel) ([]Level, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one level is required", ErrInvalidTemplate)
	}

	levels := make([]Level, len(raw))
	for i, r := range raw {
		name := strings.TrimSpace(r.Department.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: level %d has no department", ErrInvalidTemplate, i)
		}
		levels[i] = Level{LevelIndex: i, Department: name}
	}
	return levels, nil
}

// IsNormalized reports whether levels already carry positional indexes and
// resolved departments.
func IsNormalized(levels []Level) bool {
	if len(levels) == 0 {
		return false
	}
	for i, l := range levels {
		if l.LevelIndex != i || strings.TrimSpace(l.Department) == "" {
			return false
		}
	}
	return true
}

// Renormalize reindexes already structured levels, keeping their order.
func Renormalize(levels []Level) ([]Level, error) {
	if IsNormalized(levels) {
		return levels, nil
	}
	raw := make([]RawLevel, len(levels))
	for i, l := range levels {
		raw[i] = RawLevel{Department: DepartmentRef{Name: l.Department}}
	}
	return Normalize(raw)
}

// FindLevel returns the level with the given index.
func FindLevel(levels []Level, index int) (Level, bool) {
	if index < 0 || index >= len(levels) {
		return Level{}, false
	}
	return levels[index], true
}

// ValidateBlueprint checks a single blueprint against the template levels.
func ValidateBlueprint(levels []Level, i int, bp TaskBlueprint) error {
	if strings.TrimSpace(bp.Title) == "" {
		return fmt.Errorf("%w: task %d has no title", ErrInvalidTemplate, i)
	}
	if _, ok := FindLevel(levels, bp.LevelIndex); !ok {
		return fmt.Errorf("%w: task %d references unknown level %d", ErrInvalidTemplate, i, bp.LevelIndex)
	}
	switch bp.Priority {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("%w: task %d has unknown priority %q", ErrInvalidTemplate, i, bp.Priority)
	}
	return nil
}

// ValidateBlueprints checks every blueprint against the template levels.
func ValidateBlueprints(levels []Level, tasks []TaskBlueprint) error {
	for i, bp := range tasks {
		if err := ValidateBlueprint(levels, i, bp); err != nil {
			return err
		}
	}
	return nil
}
