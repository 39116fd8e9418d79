package task

import (
	"context"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

// UpdatePayload is the update-task intent payload.
type UpdatePayload struct {
	ID    string
	Draft domain.Draft
}

// RegisterIntents binds every presentation intent to s.
func RegisterIntents(d *usecase.Dispatcher, s *Store) {
	d.RegisterCommand(usecase.CmdAddTask, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.BeginAdd(), nil
	})
	d.RegisterCommand(usecase.CmdEditTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		id, err := asID(payload)
		if err != nil {
			return nil, err
		}
		return s.BeginEdit(id)
	})
	d.RegisterCommand(usecase.CmdCancelEdit, func(ctx context.Context, _ interface{}) (interface{}, error) {
		s.CancelEdit()
		return nil, nil
	})
	d.RegisterCommand(usecase.CmdSaveTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		draft, ok := payload.(domain.Draft)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return s.SaveTask(ctx, draft)
	})
	d.RegisterCommand(usecase.CmdCreateTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		draft, ok := payload.(domain.Draft)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return s.CreateTask(ctx, draft)
	})
	d.RegisterCommand(usecase.CmdUpdateTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		req, ok := payload.(UpdatePayload)
		if !ok || req.ID == "" {
			return nil, domain.ErrInvalidPayload
		}
		return s.UpdateTask(ctx, req.ID, req.Draft)
	})
	d.RegisterCommand(usecase.CmdToggleTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		id, err := asID(payload)
		if err != nil {
			return nil, err
		}
		return s.ToggleComplete(ctx, id)
	})
	d.RegisterCommand(usecase.CmdDeleteTask, func(ctx context.Context, payload interface{}) (interface{}, error) {
		id, err := asID(payload)
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteTask(ctx, id)
	})
	d.RegisterCommand(usecase.CmdRequestDelete, func(ctx context.Context, payload interface{}) (interface{}, error) {
		id, err := asID(payload)
		if err != nil {
			return nil, err
		}
		return s.RequestDelete(id)
	})
	d.RegisterCommand(usecase.CmdConfirmDelete, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.ConfirmDelete(ctx)
	})
	d.RegisterCommand(usecase.CmdCancelDelete, func(ctx context.Context, _ interface{}) (interface{}, error) {
		s.CancelDelete()
		return nil, nil
	})
	d.RegisterCommand(usecase.CmdChangeFilters, func(ctx context.Context, payload interface{}) (interface{}, error) {
		criteria, ok := payload.(domain.FilterCriteria)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return s.SetFilters(criteria)
	})
	d.RegisterCommand(usecase.CmdSearch, func(ctx context.Context, payload interface{}) (interface{}, error) {
		term, ok := payload.(string)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		s.SetSearchTerm(term)
		return term, nil
	})
	d.RegisterCommand(usecase.CmdChangeTheme, func(ctx context.Context, payload interface{}) (interface{}, error) {
		theme, ok := payload.(domain.Theme)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		if err := s.SetTheme(ctx, theme); err != nil {
			return nil, err
		}
		return theme, nil
	})

	d.RegisterQuery(usecase.QryState, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.Snapshot(), nil
	})
	d.RegisterQuery(usecase.QryTasks, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.Tasks(), nil
	})
	d.RegisterQuery(usecase.QryVisible, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.Visible(), nil
	})
	d.RegisterQuery(usecase.QryTask, func(ctx context.Context, params interface{}) (interface{}, error) {
		id, err := asID(params)
		if err != nil {
			return nil, err
		}
		return s.Get(id)
	})
}

func asID(payload interface{}) (string, error) {
	id, ok := payload.(string)
	if !ok || id == "" {
		return "", domain.ErrInvalidPayload
	}
	return id, nil
}
