package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/ai-todo/internal/constants"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
)

type fakeTasks map[string]models.Task

func (f fakeTasks) GetTask(id, owner string) (*models.Task, error) {
	task, ok := f[id]
	if !ok || task.Owner != owner {
		return nil, apierrors.ErrNotFound
	}
	return &task, nil
}

func newRouter(tasks TaskFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/login/:name", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUsername, c.Param("name"))
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	r.GET("/tasks/:id", RequireAuth(), RequireTaskAccess(tasks), func(c *gin.Context) {
		task, ok := GetTask(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, task.Title)
	})
	return r
}

func get(r http.Handler, url string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAndTaskAccess(t *testing.T) {
	r := newRouter(fakeTasks{"t1": {ID: "t1", Owner: "alice", Title: "Buy milk"}})

	w := get(r, "/tasks/t1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login := get(r, "/login/alice", nil)
	require.Equal(t, http.StatusNoContent, login.Code)
	alice := login.Result().Cookies()

	w = get(r, "/tasks/t1", alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Buy milk", w.Body.String())

	w = get(r, "/tasks/missing", alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	bob := get(r, "/login/bob", nil).Result().Cookies()
	w = get(r, "/tasks/t1", bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
