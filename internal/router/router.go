package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskboard/api/handler"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Board  *apiHandler.BoardHandler
	Health *apiHandler.HealthHandler
}

// Middleware wraps a handler; a nil Middleware leaves routes unprotected.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	api.GET("/state", authMiddleware(handlers.Board.State))

	api.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	api.POST("/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))

	api.POST("/editor", authMiddleware(handlers.Board.OpenEditor))
	api.POST("/editor/save", authMiddleware(handlers.Board.SaveEditor))
	api.DELETE("/editor", authMiddleware(handlers.Board.CloseEditor))

	api.POST("/deletion", authMiddleware(handlers.Board.RequestDeletion))
	api.POST("/deletion/confirm", authMiddleware(handlers.Board.ConfirmDeletion))
	api.DELETE("/deletion", authMiddleware(handlers.Board.CancelDeletion))

	api.PUT("/filters", authMiddleware(handlers.Board.SetFilters))
	api.PUT("/search", authMiddleware(handlers.Board.SetSearch))
	api.PUT("/theme", authMiddleware(handlers.Board.SetTheme))

	return r
}
