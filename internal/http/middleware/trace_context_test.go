package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/marketplace-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextPropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-1" || seen.TraceID == "" {
		t.Fatalf("trace data: %+v", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("echoed request id: got=%q", got)
	}
	if rec.Header().Get("X-Trace-Id") != seen.TraceID {
		t.Fatalf("trace header mismatch")
	}
}
