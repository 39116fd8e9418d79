package domain

import "strings"

// FilterAll disables a filter dimension.
const FilterAll = "all"

const (
	DateToday = "today"
	DateWeek  = "week"
	DateMonth = "month"

	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	weekWindowDays  = 7
	monthWindowDays = 30
)

// FilterCriteria narrows the task list. Each field holds FilterAll or a
// specific value.
type FilterCriteria struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// DefaultFilters returns criteria that let every task through.
func DefaultFilters() FilterCriteria {
	return FilterCriteria{
		Category: FilterAll,
		Priority: FilterAll,
		Date:     FilterAll,
		Status:   FilterAll,
	}
}

// Merge overlays the non-empty fields of patch onto c.
func (c FilterCriteria) Merge(patch FilterCriteria) FilterCriteria {
	if patch.Category != "" {
		c.Category = patch.Category
	}
	if patch.Priority != "" {
		c.Priority = patch.Priority
	}
	if patch.Date != "" {
		c.Date = patch.Date
	}
	if patch.Status != "" {
		c.Status = patch.Status
	}
	return c
}

// Validate rejects values outside the known enumerations. Empty fields are
// accepted so partial criteria can be validated before merging.
func (c FilterCriteria) Validate() error {
	if c.Category != "" && c.Category != FilterAll && !Category(c.Category).Valid() {
		return WrapError(ErrCodeInvalid, "invalid category filter", ErrInvalidFilter)
	}
	if c.Priority != "" && c.Priority != FilterAll && !Priority(c.Priority).Valid() {
		return WrapError(ErrCodeInvalid, "invalid priority filter", ErrInvalidFilter)
	}
	switch c.Date {
	case "", FilterAll, DateToday, DateWeek, DateMonth:
	default:
		return WrapError(ErrCodeInvalid, "invalid date filter", ErrInvalidFilter)
	}
	switch c.Status {
	case "", FilterAll, StatusPending, StatusCompleted:
	default:
		return WrapError(ErrCodeInvalid, "invalid status filter", ErrInvalidFilter)
	}
	return nil
}

// IsAll reports whether no dimension is restricted.
func (c FilterCriteria) IsAll() bool {
	return isAll(c.Category) && isAll(c.Priority) && isAll(c.Date) && isAll(c.Status)
}

// FilterTasks derives the visible subset. Steps run in a fixed order
// (category, priority, date window, status, search) and each narrows the
// result of the previous one. Insertion order is preserved and the input
// slice is never modified.
func FilterTasks(tasks []Task, criteria FilterCriteria, search string, today Date) []Task {
	result := make([]Task, len(tasks))
	copy(result, tasks)

	if !isAll(criteria.Category) {
		result = keep(result, func(t Task) bool { return string(t.Category) == criteria.Category })
	}
	if !isAll(criteria.Priority) {
		result = keep(result, func(t Task) bool { return string(t.Priority) == criteria.Priority })
	}
	if !isAll(criteria.Date) {
		result = keep(result, dateWindow(criteria.Date, today))
	}
	if !isAll(criteria.Status) {
		result = keep(result, func(t Task) bool {
			switch criteria.Status {
			case StatusCompleted:
				return t.Completed
			case StatusPending:
				return !t.Completed
			}
			return true
		})
	}
	if search != "" {
		term := strings.ToLower(search)
		result = keep(result, func(t Task) bool {
			return strings.Contains(strings.ToLower(t.Title), term) ||
				strings.Contains(strings.ToLower(string(t.Category)), term)
		})
	}
	return result
}

func dateWindow(window string, today Date) func(Task) bool {
	switch window {
	case DateToday:
		return func(t Task) bool { return t.DueDate == today }
	case DateWeek:
		end := today.AddDays(weekWindowDays)
		return func(t Task) bool { return t.DueDate >= today && t.DueDate <= end }
	case DateMonth:
		end := today.AddDays(monthWindowDays)
		return func(t Task) bool { return t.DueDate >= today && t.DueDate <= end }
	}
	return func(Task) bool { return true }
}

func keep(tasks []Task, pred func(Task) bool) []Task {
	out := tasks[:0]
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func isAll(value string) bool {
	return value == "" || value == FilterAll
}
