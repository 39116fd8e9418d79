package transport

import (
	"strings"
	"time"

	"github.com/fastygo/taskboard/domain"
)

// TaskFields are the optional task attributes shared by create and update.
type TaskFields struct {
	Category string `json:"category" schema:"category" validate:"omitempty,oneof=work personal health study shopping education other"`
	Priority string `json:"priority" schema:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate  string `json:"dueDate" schema:"dueDate" validate:"omitempty,max=40"`
}

type CreateTaskRequest struct {
	Title string `json:"title" schema:"title" validate:"required,max=200"`
	TaskFields
}

type UpdateTaskRequest struct {
	Title string `json:"title" schema:"title" validate:"omitempty,max=200"`
	TaskFields
}

// Draft converts the request into a domain draft, parsing the due date in loc.
func (r CreateTaskRequest) Draft(loc *time.Location) (domain.Draft, error) {
	if strings.TrimSpace(r.Title) == "" {
		return domain.Draft{}, domain.WrapError(domain.ErrCodeInvalid, "title: required", domain.ErrInvalidPayload)
	}
	return r.TaskFields.draft(r.Title, loc)
}

func (r UpdateTaskRequest) Draft(loc *time.Location) (domain.Draft, error) {
	return r.TaskFields.draft(r.Title, loc)
}

func (f TaskFields) draft(title string, loc *time.Location) (domain.Draft, error) {
	draft := domain.Draft{
		Title:    strings.TrimSpace(title),
		Category: domain.Category(f.Category),
		Priority: domain.Priority(f.Priority),
	}
	if strings.TrimSpace(f.DueDate) != "" {
		due, err := domain.ParseDate(f.DueDate, loc)
		if err != nil {
			return domain.Draft{}, err
		}
		draft.DueDate = due
	}
	return draft, nil
}

// EditorRequest opens the task dialog. An empty ID opens it in add mode.
type EditorRequest struct {
	ID string `json:"id" validate:"omitempty,max=64"`
}

type DeletionRequest struct {
	ID string `json:"id" validate:"required,max=64"`
}

// FilterRequest is a partial filter update; empty fields keep their value.
type FilterRequest struct {
	Category string `json:"category" schema:"category" validate:"omitempty,oneof=all work personal health study shopping education other"`
	Priority string `json:"priority" schema:"priority" validate:"omitempty,oneof=all low medium high"`
	Date     string `json:"date" schema:"date" validate:"omitempty,oneof=all today week month"`
	Status   string `json:"status" schema:"status" validate:"omitempty,oneof=all pending completed"`
}

func (r FilterRequest) Criteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		Category: r.Category,
		Priority: r.Priority,
		Date:     r.Date,
		Status:   r.Status,
	}
}

type SearchRequest struct {
	Term string `json:"term" schema:"term" validate:"max=200"`
}

type ThemeRequest struct {
	Theme string `json:"theme" schema:"theme" validate:"required,oneof=light dark"`
}

// ListQuery selects between the filtered subset and the full collection.
type ListQuery struct {
	Scope string `schema:"scope" validate:"omitempty,oneof=visible all"`
}

const (
	ScopeVisible = "visible"
	ScopeAll     = "all"
)
