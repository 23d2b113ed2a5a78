package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketholds/pkg/logger"
)

// closeNotifyingRecorder satisfies http.CloseNotifier, which gin's Stream needs
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestController_StreamReleasesFiltersByEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(8, logger.Discard())
	controller := NewController(hub)

	engine := gin.New()
	engine.GET("/releases/stream", controller.StreamReleases)

	recorder := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	req := httptest.NewRequest(http.MethodGet, "/releases/stream?eventId=ev-1", nil).WithContext(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.ServeHTTP(recorder, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	other := releaseEvent("h-other")
	other.EventID = "ev-2"
	require.NoError(t, hub.Publish(context.Background(), other))
	require.NoError(t, hub.Publish(context.Background(), releaseEvent("h1")))
	require.NoError(t, hub.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish after hub closed")
	}

	body := recorder.Body.String()
	assert.Contains(t, body, "event:release")
	assert.Contains(t, body, `"holdId":"h1"`)
	assert.NotContains(t, body, "h-other")
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
}
