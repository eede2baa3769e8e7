package cataloro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testUserID = "3f1d9a22-49a7-4d87-9c09-0f6a2f1d9a22"

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/", 5*time.Second, nil), server
}

func TestLoginStoresToken(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "session-token", "user": {"id": "` + testUserID + `",
			"email": "admin@cataloro.com", "username": "cataloro_admin", "role": "admin", "is_active": true}}`))
	})

	res, err := client.Login(context.Background(), LoginRequest{Email: "admin@cataloro.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if client.Token != "session-token" {
		t.Errorf("token not stored on the client: %q", client.Token)
	}
	if res.User.Role != RoleAdmin {
		t.Errorf("user role = %q", res.User.Role)
	}
}

func TestBearerHeaderAndQuery(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization header = %q", got)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("page_size") != "5" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"listings": [], "total": 0, "page": 2, "page_size": 5}`))
	})
	client.Token = "session-token"

	page, err := client.Browse(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if page.Page != 2 {
		t.Errorf("page = %d", page.Page)
	}
}

func TestAPIErrorDetail(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "listing not found"}`))
	})

	_, err := client.GetListing(context.Background(), "68b0a1c2d3e4f5a6b7c8d9e0")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound = false for %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "listing not found" {
		t.Errorf("detail not captured: %v", err)
	}
}

func TestNonJSONResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>proxy error page</html>"))
	})

	_, err := client.Health(context.Background())
	if !errors.Is(err, ErrContentType) {
		t.Errorf("err = %v, want ErrContentType", err)
	}
}

func TestConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(server.URL+"/api/", time.Second, nil)
	server.Close()

	_, err := client.Health(context.Background())
	if !errors.Is(err, ErrConnectivity) {
		t.Errorf("err = %v, want ErrConnectivity", err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// role outside the known set, id not an id
		w.Write([]byte(`{"id": "42", "email": "x@y.com", "username": "x", "role": "superuser"}`))
	})
	client.Token = "session-token"

	_, err := client.Profile(context.Background())
	if !errors.Is(err, ErrSchema) {
		t.Errorf("err = %v, want ErrSchema", err)
	}
}

func TestDeleteListingNoBody(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "listing deleted"}`))
	})
	client.Token = "session-token"

	if err := client.DeleteListing(context.Background(), testUserID); err != nil {
		t.Errorf("DeleteListing: %v", err)
	}
}
