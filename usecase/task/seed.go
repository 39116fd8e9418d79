package task

import "github.com/fastygo/taskboard/domain"

// seedTasks builds the demonstration board shown on first run.
func seedTasks(today domain.Date, newID func() string) []domain.Task {
	return []domain.Task{
		{
			ID:       newID(),
			Title:    "Finish project documentation",
			Category: domain.CategoryWork,
			Priority: domain.PriorityHigh,
			DueDate:  today,
		},
		{
			ID:       newID(),
			Title:    "Buy groceries",
			Category: domain.CategoryPersonal,
			Priority: domain.PriorityMedium,
			DueDate:  today.AddDays(1),
		},
		{
			ID:        newID(),
			Title:     "Schedule dentist appointment",
			Category:  domain.CategoryHealth,
			Priority:  domain.PriorityLow,
			DueDate:   today.AddDays(2),
			Completed: true,
		},
	}
}
