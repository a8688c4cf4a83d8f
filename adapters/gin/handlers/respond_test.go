package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/analytics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestPageRequest(t *testing.T) {
	c := testContext(t, "/sessions?page=3&per_page=50")
	if got := pageRequest(c); got != (analytics.PageRequest{Page: 3, PerPage: 50}) {
		t.Fatalf("got %+v", got)
	}

	c = testContext(t, "/sessions")
	if got := pageRequest(c); got != (analytics.PageRequest{Page: 1, PerPage: analytics.DefaultPerPage}) {
		t.Fatalf("defaults: got %+v", got)
	}

	c = testContext(t, "/sessions?page=-2&per_page=100000")
	got := pageRequest(c)
	if got.Page != 1 || got.PerPage != analytics.MaxPerPage {
		t.Fatalf("out-of-range values not clamped: %+v", got)
	}
}

func TestParseTimeParam(t *testing.T) {
	c := testContext(t, "/sessions?from=2026-08-01T00:00:00Z")
	got, ok := parseTimeParam(c, "from")
	if !ok || got == nil {
		t.Fatal("expected a parsed time")
	}
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	c = testContext(t, "/sessions")
	got, ok = parseTimeParam(c, "from")
	if !ok || got != nil {
		t.Fatalf("absent param: got %v ok=%v, want nil true", got, ok)
	}

	c = testContext(t, "/sessions?from=yesterday")
	if _, ok = parseTimeParam(c, "from"); ok {
		t.Fatal("malformed timestamp must be rejected")
	}
}
