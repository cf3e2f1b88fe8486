package constants

import "time"

const (
	// ContextKeyUsername is the key used for the authenticated username in
	// both the session and the gin context.
	ContextKeyUsername = "username"

	// ContextKeyTask holds the task loaded by RequireTaskAccess.
	ContextKeyTask = "task"

	SessionCookieName = "todo_session"

	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 3

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// FallbackDescription is stored when a task is created without a
	// description and no generated one is available.
	FallbackDescription = "No description provided."

	// DefaultReminderLeadTime is how long before the due time a reminder fires.
	DefaultReminderLeadTime = time.Hour

	DefaultDescriptionTimeout = 10 * time.Second
	DefaultNotifyTimeout      = 15 * time.Second
)
