package dashboard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cataloro/probe/apperr"
	"github.com/cataloro/probe/cataloro"
	"github.com/cataloro/probe/checks"
	"github.com/cataloro/probe/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testService(t *testing.T) Service {
	t.Helper()
	db, err := utils.Database(filepath.Join(t.TempDir(), "probe-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Service{Db: db}
}

func sampleRun(passed bool) *checks.Run {
	now := time.Now().UTC()
	run := &checks.Run{
		ID:         uuid.NewString(),
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Passed:     passed,
		Results: []checks.Result{
			{
				Check:   checks.CheckAuth,
				Passed:  true,
				Latency: 120 * time.Millisecond,
				Findings: []checks.Finding{
					{Name: "login.role", Want: cataloro.RoleAdmin, Got: cataloro.RoleAdmin, OK: true},
				},
			},
		},
	}
	if !passed {
		run.Results = append(run.Results, checks.Result{
			Check:   checks.CheckBrowse,
			Passed:  false,
			Latency: 300 * time.Millisecond,
			Err:     apperr.Wrap(errors.New("total moved"), apperr.ErrExpectation, ""),
		})
	}
	return run
}

func TestSaveAndReadBack(t *testing.T) {
	s := testService(t)
	run := sampleRun(false)

	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	stored, records, err := s.RunByID(run.ID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if stored.Passed {
		t.Error("failed run stored as passed")
	}
	if stored.Total != 2 || stored.Failed != 1 {
		t.Errorf("totals = %d/%d, want 2/1", stored.Total, stored.Failed)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, record := range records {
		if record.Check == checks.CheckBrowse {
			if record.ErrorCode != "expectation_failed" {
				t.Errorf("browse record code = %q", record.ErrorCode)
			}
		}
		if record.Findings == "" {
			t.Errorf("record %s has no findings blob", record.Check)
		}
	}

	// duplicate run ids are rejected by the unique index
	if err := s.SaveRun(run); err == nil {
		t.Error("duplicate run id accepted")
	}
}

func TestRecentRunsOrderAndCount(t *testing.T) {
	s := testService(t)

	var latest string
	for i := 0; i < 3; i++ {
		run := sampleRun(true)
		run.StartedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		latest = run.ID
		if err := s.SaveRun(run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := s.RecentRuns(2, 0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != latest {
		t.Errorf("newest run first: got %s, want %s", runs[0].RunID, latest)
	}

	count, err := s.RunsCount()
	if err != nil || count != 3 {
		t.Errorf("RunsCount = %d, %v; want 3", count, err)
	}
}

func TestRunByIDMissing(t *testing.T) {
	s := testService(t)
	if _, _, err := s.RunByID("no-such-run"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want record not found", err)
	}
}

func TestFailuresByCheck(t *testing.T) {
	s := testService(t)
	for i := 0; i < 3; i++ {
		if err := s.SaveRun(sampleRun(false)); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	if err := s.SaveRun(sampleRun(true)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	counts, err := s.FailuresByCheck()
	if err != nil {
		t.Fatalf("FailuresByCheck: %v", err)
	}
	if len(counts) != 1 || counts[0].Check != checks.CheckBrowse || counts[0].Count != 3 {
		t.Errorf("counts = %+v, want browse_consistency x3", counts)
	}
}

func TestRunsEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testService(t)
	if err := s.SaveRun(sampleRun(true)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	route := gin.New()
	route.GET("/dashboard/runs", s.GetAll)
	route.GET("/dashboard/runs/:id", s.GetID)
	route.GET("/dashboard/count", s.RunsCountEndpoint)
	route.GET("/dashboard/failures", s.Failures)

	for _, path := range []string{"/dashboard/runs", "/dashboard/count", "/dashboard/failures"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		route.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/runs/no-such-run", nil)
	route.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run = %d, want 404", w.Code)
	}
}

func TestTimeFormatter(t *testing.T) {
	if got := TimeFormatter(time.Time{}); got != "-" {
		t.Errorf("zero time = %q, want -", got)
	}
	if got := TimeFormatter(time.Now()); got == "-" || got == "" {
		t.Error("real time rendered empty")
	}
}
