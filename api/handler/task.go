package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/usecase"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

// TaskHandler exposes direct CRUD over the task collection.
type TaskHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
	location   *time.Location
}

func NewTaskHandler(dispatcher *usecase.Dispatcher, location *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if location == nil {
		location = time.UTC
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
		location:    location,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param scope query string false "visible (default) or all"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var query transport.ListQuery
	if err := h.decodeQuery(ctx, &query); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	name := usecase.QryVisible
	if query.Scope == transport.ScopeAll {
		name = usecase.QryTasks
	}
	tasks, err := h.dispatcher.ExecuteQuery(stdCtx, name, nil)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.dispatcher.ExecuteQuery(stdCtx, usecase.QryTask, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CreateTaskRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	draft, err := req.Draft(h.location)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdCreateTask, draft)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.UpdateTaskRequest
	if err := h.decodeBody(ctx, &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	draft, err := req.Draft(h.location)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	payload := taskUC.UpdatePayload{ID: pathID(ctx), Draft: draft}
	updated, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdUpdateTask, payload)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle task completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	toggled, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdToggleTask, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, toggled)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.dispatcher.ExecuteCommand(stdCtx, usecase.CmdDeleteTask, pathID(ctx)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
