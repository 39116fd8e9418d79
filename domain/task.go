package domain

// Category groups tasks by area of life.
type Category string

const (
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryHealth    Category = "health"
	CategoryStudy     Category = "study"
	CategoryShopping  Category = "shopping"
	CategoryEducation Category = "education"
	CategoryOther     Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryHealth,
	CategoryStudy,
	CategoryShopping,
	CategoryEducation,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents one user-tracked to-do item.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Category  Category `json:"category"`
	Priority  Priority `json:"priority"`
	DueDate   Date     `json:"dueDate"`
	Completed bool     `json:"completed"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// Draft carries user-editable task fields. On update, empty fields leave the
// stored value untouched.
type Draft struct {
	Title    string
	Category Category
	Priority Priority
	DueDate  Date
}

// Apply copies the non-empty draft fields onto t.
func (d Draft) Apply(t *Task) {
	if t == nil {
		return
	}
	if d.Title != "" {
		t.Title = d.Title
	}
	if d.Category != "" {
		t.Category = d.Category
	}
	if d.Priority != "" {
		t.Priority = d.Priority
	}
	if d.DueDate != "" {
		t.DueDate = d.DueDate
	}
}

// Counts summarises the full collection.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// CountTasks tallies completed and pending tasks.
func CountTasks(tasks []Task) Counts {
	counts := Counts{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			counts.Completed++
		}
	}
	counts.Pending = counts.Total - counts.Completed
	return counts
}
