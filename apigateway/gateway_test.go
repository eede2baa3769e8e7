package gateway

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	route := gin.New()
	route.Use(RequestID())
	route.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromCtx(c))
	})

	// generated when the caller sends none
	w := httptest.NewRecorder()
	route.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" {
		t.Fatal("no request id generated")
	}
	if w.Body.String() != generated {
		t.Errorf("ctx id %q != header id %q", w.Body.String(), generated)
	}

	// a caller-supplied id is kept
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id-1")
	route.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "caller-id-1" {
		t.Errorf("request id = %q, want caller-id-1", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(cfg AdminAuthConfig, setup func(*http.Request)) int {
		route := gin.New()
		route.POST("/run", RequireAdmin(cfg), okHandler)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/run", nil)
		if setup != nil {
			setup(req)
		}
		route.ServeHTTP(w, req)
		return w.Code
	}

	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	tests := []struct {
		name  string
		cfg   AdminAuthConfig
		setup func(*http.Request)
		want  int
	}{
		{"unconfigured", AdminAuthConfig{}, nil, http.StatusServiceUnavailable},
		{"debug bypass", AdminAuthConfig{Debug: true}, nil, http.StatusOK},
		{"key match", AdminAuthConfig{Key: "sekret"}, func(r *http.Request) {
			r.Header.Set("X-Admin-Key", "sekret")
		}, http.StatusOK},
		{"key mismatch", AdminAuthConfig{Key: "sekret"}, func(r *http.Request) {
			r.Header.Set("X-Admin-Key", "wrong")
		}, http.StatusUnauthorized},
		{"key missing", AdminAuthConfig{Key: "sekret"}, nil, http.StatusUnauthorized},
		{"basic auth ok", AdminAuthConfig{User: "admin", Password: "pass"}, func(r *http.Request) {
			r.Header.Set("Authorization", basic("admin", "pass"))
		}, http.StatusOK},
		{"basic auth bad password", AdminAuthConfig{User: "admin", Password: "pass"}, func(r *http.Request) {
			r.Header.Set("Authorization", basic("admin", "nope"))
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(tt.cfg, tt.setup); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLogSampler(t *testing.T) {
	s := newLogSampler(LogSamplingConfig{Tick: time.Hour, After: 100 * time.Millisecond})

	if !s.Allow(10 * time.Millisecond) {
		t.Error("first fast request should log")
	}
	if s.Allow(10 * time.Millisecond) {
		t.Error("second fast request inside the tick should be sampled out")
	}
	if !s.Allow(200 * time.Millisecond) {
		t.Error("slow requests always log")
	}

	// no tick means no sampling at all
	open := newLogSampler(LogSamplingConfig{})
	for i := 0; i < 3; i++ {
		if !open.Allow(time.Millisecond) {
			t.Fatal("unsampled logger dropped a request")
		}
	}
}
