package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
)

func TestValidate_CreateTaskRequest(t *testing.T) {
	ok := CreateTaskRequest{Title: "Write report", TaskFields: TaskFields{Category: "work", Priority: "high"}}
	assert.NoError(t, Validate(ok))

	err := Validate(CreateTaskRequest{TaskFields: TaskFields{Category: "hobby", Priority: "urgent"}})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Contains(t, err.Error(), "title: required")
	assert.Contains(t, err.Error(), "category: must be one of")
	assert.Contains(t, err.Error(), "priority: must be one of")
}

func TestValidate_UpdateAllowsPartial(t *testing.T) {
	assert.NoError(t, Validate(UpdateTaskRequest{TaskFields: TaskFields{Priority: "low"}}))
	assert.NoError(t, Validate(UpdateTaskRequest{}))
}

func TestCreateTaskRequest_Draft(t *testing.T) {
	req := CreateTaskRequest{
		Title:      "  Pay rent ",
		TaskFields: TaskFields{Category: "personal", DueDate: "2026-11-01"},
	}
	draft, err := req.Draft(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", draft.Title)
	assert.Equal(t, domain.CategoryPersonal, draft.Category)
	assert.Equal(t, domain.Priority(""), draft.Priority)
	assert.Equal(t, domain.Date("2026-11-01"), draft.DueDate)

	_, err = CreateTaskRequest{Title: "   "}.Draft(time.UTC)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = CreateTaskRequest{Title: "x", TaskFields: TaskFields{DueDate: "next friday"}}.Draft(time.UTC)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestDecodeValues_FilterRequest(t *testing.T) {
	var req FilterRequest
	err := DecodeValues(&req, map[string][]string{
		"category": {"work"},
		"status":   {"pending"},
		"unknown":  {"ignored"},
	})
	require.NoError(t, err)
	require.NoError(t, Validate(req))

	assert.Equal(t, domain.FilterCriteria{Category: "work", Status: "pending"}, req.Criteria())
}

func TestValidate_FilterAndTheme(t *testing.T) {
	assert.Error(t, Validate(FilterRequest{Date: "year"}))
	assert.NoError(t, Validate(FilterRequest{Date: "all"}))
	assert.Error(t, Validate(ThemeRequest{Theme: "sepia"}))
	assert.NoError(t, Validate(ThemeRequest{Theme: "dark"}))
	assert.Error(t, Validate(ListQuery{Scope: "some"}))
	assert.Error(t, Validate(DeletionRequest{}))
}
