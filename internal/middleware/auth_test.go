package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nurseprep_backend/internal/util"
	"nurseprep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingActivityRepo struct {
	ids chan uint
	err error
}

func (r *recordingActivityRepo) UpdateLastSeen(userID uint) error {
	r.ids <- userID
	return r.err
}

func activityRouter(repo UserActivityRepo, claims *util.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set("user", claims)
		}
		c.Next()
	})
	r.Use(ActivityMiddleware(repo))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestActivityMiddlewareRecordsLastSeen(t *testing.T) {
	logger.Log = zap.NewNop()

	repo := &recordingActivityRepo{ids: make(chan uint, 4)}
	router := activityRouter(repo, &util.Claims{UserID: 7})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case userID := <-repo.ids:
		assert.Equal(t, uint(7), userID)
	case <-time.After(time.Second):
		t.Fatal("活跃时间更新未执行")
	}
}

func TestActivityMiddlewareSkipsAnonymous(t *testing.T) {
	logger.Log = zap.NewNop()

	repo := &recordingActivityRepo{ids: make(chan uint, 4)}
	router := activityRouter(repo, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case userID := <-repo.ids:
		t.Fatalf("匿名请求不应更新活跃时间，收到 userID=%d", userID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestActivityMiddlewareSurvivesRepoError(t *testing.T) {
	logger.Log = zap.NewNop()

	repo := &recordingActivityRepo{ids: make(chan uint, 4), err: errors.New("db down")}
	router := activityRouter(repo, &util.Claims{UserID: 7})

	// 落库失败只记日志，请求与后续投递都不受影响
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	received := 0
	for received < 3 {
		select {
		case <-repo.ids:
			received++
		case <-time.After(time.Second):
			t.Fatalf("仅收到 %d 次更新", received)
		}
	}
}
