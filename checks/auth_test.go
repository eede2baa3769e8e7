package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cataloro/probe/cataloro"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
)

var stubSecret = []byte("stub-secret")

// stubBackend serves just enough of the marketplace api for the auth
// check: a login endpoint that issues real tokens and a profile endpoint
// that verifies them.
func stubBackend(t *testing.T, admin cataloro.AuthUser, password string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req cataloro.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"detail": "bad body"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Email != admin.Email || req.Password != password {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "invalid credentials"}`))
			return
		}
		token, err := cataloro.SignToken(cataloro.TokenClaims{
			UserID: admin.ID,
			Role:   admin.Role,
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		}, stubSecret)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		json.NewEncoder(w).Encode(cataloro.LoginResponse{Token: token, User: admin})
	})
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, err := cataloro.VerifyToken(token, stubSecret); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "invalid token"}`))
			return
		}
		json.NewEncoder(w).Encode(admin)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func stubService(baseURL string) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return &Service{
		Config: cataloro.ProbeConfig{
			BaseURL:         baseURL + "/api/",
			AdminEmail:      "admin@cataloro.com",
			AdminPassword:   "admin123",
			TimeoutSeconds:  5,
			ConsistencyWait: 1,
			PollIntervalMs:  20,
		},
		Logger: logger,
	}
}

func TestAuthCheck(t *testing.T) {
	admin := cataloro.AuthUser{
		ID:       "3f1d9a22-49a7-4d87-9c09-0f6a2f1d9a22",
		Email:    "admin@cataloro.com",
		Username: "cataloro_admin",
		Role:     cataloro.RoleAdmin,
		IsActive: true,
	}
	server := stubBackend(t, admin, "admin123")
	s := stubService(server.URL)

	result := s.AuthCheck(context.Background())
	if !result.Passed {
		t.Fatalf("auth check failed: err=%v findings=%+v", result.Err, result.Findings)
	}
	for _, f := range result.Findings {
		if !f.OK {
			t.Errorf("finding %s: want %q got %q", f.Name, f.Want, f.Got)
		}
	}
}

func TestAuthCheckBadCredentials(t *testing.T) {
	admin := cataloro.AuthUser{
		ID:       "3f1d9a22-49a7-4d87-9c09-0f6a2f1d9a22",
		Email:    "admin@cataloro.com",
		Username: "cataloro_admin",
		Role:     cataloro.RoleAdmin,
		IsActive: true,
	}
	server := stubBackend(t, admin, "a-different-password")
	s := stubService(server.URL)

	result := s.AuthCheck(context.Background())
	if result.Passed {
		t.Fatal("auth check passed against wrong credentials")
	}
	if result.ErrorCode() != "auth_failed" {
		t.Errorf("error code = %q, want auth_failed", result.ErrorCode())
	}
}

func TestAuthCheckBackendDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := stubService(url)
	result := s.AuthCheck(context.Background())
	if result.Passed {
		t.Fatal("auth check passed against a dead backend")
	}
	if result.ErrorCode() != "backend_unreachable" {
		t.Errorf("error code = %q, want backend_unreachable", result.ErrorCode())
	}
}
