package usecase

// Intent names accepted from the presentation layer.
const (
	CmdAddTask       = "add-task"
	CmdEditTask      = "edit-task"
	CmdCancelEdit    = "cancel-edit"
	CmdSaveTask      = "save-task"
	CmdCreateTask    = "create-task"
	CmdUpdateTask    = "update-task"
	CmdToggleTask    = "toggle-complete"
	CmdDeleteTask    = "delete-task"
	CmdRequestDelete = "request-delete"
	CmdConfirmDelete = "confirm-delete"
	CmdCancelDelete  = "cancel-delete"
	CmdChangeFilters = "change-filters"
	CmdSearch        = "search"
	CmdChangeTheme   = "change-theme"

	QryState   = "state"
	QryTasks   = "tasks"
	QryVisible = "visible-tasks"
	QryTask    = "task"
)
