package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ai-todo/internal/constants"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
)

// TaskFinder looks up a task owned by a user.
type TaskFinder interface {
	GetTask(id, owner string) (*models.Task, error)
}

// RequireTaskAccess loads the task named by the :id parameter and checks that
// the current user owns it. Tasks of other users are reported as not found.
func RequireTaskAccess(tasks TaskFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := GetUsername(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := tasks.GetTask(c.Param("id"), username)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	v, ok := c.Get(constants.ContextKeyTask)
	if !ok {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
