package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/usecase"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

// BoardHandler serves the presentation state: the task dialog, delete
// confirmation, filters, search and theme.
type BoardHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
	location   *time.Location
}

func NewBoardHandler(dispatcher *usecase.Dispatcher, location *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *BoardHandler {
	if location == nil {
		location = time.UTC
	}
	return &BoardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
		location:    location,
	}
}

// @Summary Board state
// @Tags board
// @Router /api/v1/state [get]
func (h *BoardHandler) State(ctx *fasthttp.RequestCtx) {
	h.query(ctx, usecase.QryState)
}

// @Summary Open task dialog
// @Tags board
// @Router /api/v1/editor [post]
func (h *BoardHandler) OpenEditor(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.EditorRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	var (
		editor interface{}
		err    error
	)
	if req.ID == "" {
		editor, err = h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdAddTask, nil)
	} else {
		editor, err = h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdEditTask, req.ID)
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, editor)
}

// @Summary Save task dialog
// @Tags board
// @Router /api/v1/editor/save [post]
func (h *BoardHandler) SaveEditor(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	state, err := h.dispatcher.ExecuteQuery(stdCtx, usecase.QryState, nil)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	// Only an edit may leave the title out; anything else creates a task.
	var draft domain.Draft
	if snap, ok := state.(taskUC.Snapshot); ok && snap.Editor.Mode == taskUC.EditorEdit {
		var req transport.UpdateTaskRequest
		if err := h.decodeBody(ctx, &req); err != nil {
			h.respondError(stdCtx, ctx, err)
			return
		}
		draft, err = req.Draft(h.location)
	} else {
		var req transport.CreateTaskRequest
		if err := h.decodeBody(ctx, &req); err != nil {
			h.respondError(stdCtx, ctx, err)
			return
		}
		draft, err = req.Draft(h.location)
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	saved, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdSaveTask, draft)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, saved)
}

// @Summary Close task dialog
// @Tags board
// @Router /api/v1/editor [delete]
func (h *BoardHandler) CloseEditor(ctx *fasthttp.RequestCtx) {
	h.command(ctx, usecase.CmdCancelEdit, nil, http.StatusNoContent)
}

// @Summary Request task deletion
// @Tags board
// @Router /api/v1/deletion [post]
func (h *BoardHandler) RequestDeletion(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.DeletionRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	task, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdRequestDelete, req.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Confirm pending deletion
// @Tags board
// @Router /api/v1/deletion/confirm [post]
func (h *BoardHandler) ConfirmDeletion(ctx *fasthttp.RequestCtx) {
	h.command(ctx, usecase.CmdConfirmDelete, nil, http.StatusOK)
}

// @Summary Cancel pending deletion
// @Tags board
// @Router /api/v1/deletion [delete]
func (h *BoardHandler) CancelDeletion(ctx *fasthttp.RequestCtx) {
	h.command(ctx, usecase.CmdCancelDelete, nil, http.StatusNoContent)
}

// @Summary Change filters
// @Tags board
// @Router /api/v1/filters [put]
func (h *BoardHandler) SetFilters(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.FilterRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	filters, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdChangeFilters, req.Criteria())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, filters)
}

// @Summary Change search term
// @Tags board
// @Router /api/v1/search [put]
func (h *BoardHandler) SetSearch(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.SearchRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.commandWith(stdCtx, ctx, usecase.CmdSearch, req.Term, http.StatusOK)
}

// @Summary Change theme
// @Tags board
// @Router /api/v1/theme [put]
func (h *BoardHandler) SetTheme(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.ThemeRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.commandWith(stdCtx, ctx, usecase.CmdChangeTheme, domain.Theme(req.Theme), http.StatusOK)
}

func (h *BoardHandler) query(ctx *fasthttp.RequestCtx, name string) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.ExecuteQuery(stdCtx, name, nil)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

func (h *BoardHandler) command(ctx *fasthttp.RequestCtx, name string, payload interface{}, status int) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.commandWith(stdCtx, ctx, name, payload, status)
}

func (h *BoardHandler) commandWith(stdCtx context.Context, ctx *fasthttp.RequestCtx, name string, payload interface{}, status int) {
	result, err := h.dispatcher.ExecuteCommand(stdCtx, name, payload)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if status == http.StatusNoContent {
		h.respondNoContent(ctx)
		return
	}
	h.respondSuccess(ctx, status, result)
}
