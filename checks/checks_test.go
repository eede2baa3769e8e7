package checks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cataloro/probe/apperr"
	"github.com/cataloro/probe/cataloro"
)

func TestPercentile(t *testing.T) {
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		q    float64
		want time.Duration
	}{
		{0.50, 50 * time.Millisecond},
		{0.95, 95 * time.Millisecond},
		{1.00, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(samples, tt.q); got != tt.want {
			t.Errorf("percentile(%.2f) = %v, want %v", tt.q, got, tt.want)
		}
	}

	if got := percentile(nil, 0.95); got != 0 {
		t.Errorf("percentile of no samples = %v, want 0", got)
	}
	if got := percentile([]time.Duration{7 * time.Millisecond}, 0.5); got != 7*time.Millisecond {
		t.Errorf("percentile of one sample = %v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"connectivity", fmt.Errorf("%w: dial refused", cataloro.ErrConnectivity), "backend_unreachable"},
		{"schema", fmt.Errorf("%w: missing field", cataloro.ErrSchema), "schema_mismatch"},
		{"content type", cataloro.ErrContentType, "schema_mismatch"},
		{"unauthorized status", &cataloro.APIError{Status: 401}, "auth_failed"},
		{"forbidden status", &cataloro.APIError{Status: 403}, "auth_failed"},
		{"server status", &cataloro.APIError{Status: 500}, "backend_bad_status"},
		{"unknown", errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.Code(classify(tt.err)); got != tt.code {
				t.Errorf("classify(%v) code = %q, want %q", tt.err, got, tt.code)
			}
		})
	}

	if classify(nil) != nil {
		t.Error("classify(nil) should stay nil")
	}

	// already classified errors pass through unchanged
	wrapped := apperr.Wrap(errors.New("late"), apperr.ErrConsistency, "")
	if got := classify(wrapped); got != wrapped {
		t.Errorf("classify rewrapped an already classified error: %v", got)
	}
}

func TestNamesAndSelect(t *testing.T) {
	names := Names()
	if len(names) != len(registry) {
		t.Fatalf("Names() returned %d entries, want %d", len(names), len(registry))
	}
	if names[0] != CheckAuth || names[len(names)-1] != CheckLatency {
		t.Errorf("unexpected run order: %v", names)
	}

	selected, err := selectChecks(nil)
	if err != nil || len(selected) != len(registry) {
		t.Errorf("empty selection should mean all checks: %v, %v", selected, err)
	}

	selected, err = selectChecks([]string{CheckBrowse, CheckAuth})
	if err != nil {
		t.Fatalf("selectChecks: %v", err)
	}
	// registry order wins over request order
	if len(selected) != 2 || selected[0].name != CheckAuth || selected[1].name != CheckBrowse {
		t.Errorf("selection = %v", selected)
	}

	if _, err := selectChecks([]string{"no_such_check"}); err == nil {
		t.Error("unknown check name accepted")
	}
}

func TestResultBuilder(t *testing.T) {
	r := newResult(CheckBrowse)
	r.expect("page", 1, 1)
	r.expectTrue("total_covers_page", true, 10)
	res := r.done()
	if !res.Passed || res.Err != nil {
		t.Errorf("all-ok result did not pass: %+v", res)
	}
	if len(res.Findings) != 2 {
		t.Errorf("findings = %d, want 2", len(res.Findings))
	}

	r = newResult(CheckBrowse)
	r.expect("page", 1, 2)
	res = r.done()
	if res.Passed {
		t.Error("failed finding still passed")
	}
	if res.ErrorCode() != "expectation_failed" {
		t.Errorf("error code = %q, want expectation_failed", res.ErrorCode())
	}

	r = newResult(CheckAuth)
	r.fail(fmt.Errorf("%w: down", cataloro.ErrConnectivity))
	r.fail(errors.New("second error must not win"))
	res = r.done()
	if res.ErrorCode() != "backend_unreachable" {
		t.Errorf("error code = %q, want backend_unreachable", res.ErrorCode())
	}
}

func TestRunFailedCount(t *testing.T) {
	run := Run{Results: []Result{
		{Check: CheckAuth, Passed: true},
		{Check: CheckBrowse, Passed: false},
		{Check: CheckLatency, Passed: false},
	}}
	if got := run.Failed(); got != 2 {
		t.Errorf("Failed() = %d, want 2", got)
	}
}

func TestWaitFor(t *testing.T) {
	s := &Service{Config: cataloro.ProbeConfig{ConsistencyWait: 1, PollIntervalMs: 20}}

	calls := 0
	err := s.waitFor(context.Background(), "test condition", func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Errorf("waitFor: %v", err)
	}
	if calls < 3 {
		t.Errorf("fn called %d times, want at least 3", calls)
	}

	err = s.waitFor(context.Background(), "never happens", func() (bool, error) {
		return false, nil
	})
	if apperr.Code(err) != "consistency_timeout" {
		t.Errorf("deadline error code = %q, want consistency_timeout", apperr.Code(err))
	}

	boom := errors.New("boom")
	err = s.waitFor(context.Background(), "errors out", func() (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("fn error not surfaced: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.waitFor(ctx, "cancelled", func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation not surfaced: %v", err)
	}
}
