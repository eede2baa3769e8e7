package checks

import (
	"fmt"
	"time"

	"github.com/cataloro/probe/apperr"
)

// Check names, stable across runs. The run history is keyed on these.
const (
	CheckAuth             = "auth_flow"
	CheckListingLifecycle = "listing_lifecycle"
	CheckBrowse           = "browse_consistency"
	CheckTenderWorkflow   = "tender_workflow"
	CheckMenuSettings     = "menu_settings"
	CheckCMSSettings      = "cms_settings"
	CheckMessages         = "messages"
	CheckLatency          = "latency"
)

// Finding is one assertion inside a check.
type Finding struct {
	Name string `json:"name"`
	Want string `json:"want"`
	Got  string `json:"got"`
	OK   bool   `json:"ok"`
}

// Result is the outcome of one check.
type Result struct {
	Check    string        `json:"check"`
	Passed   bool          `json:"passed"`
	Latency  time.Duration `json:"latency"`
	Findings []Finding     `json:"findings"`
	Err      error         `json:"-"`
}

// ErrorCode returns the stable failure class of a failed check.
func (r Result) ErrorCode() string {
	if r.Err == nil {
		return ""
	}
	return apperr.Code(r.Err)
}

// Run is one invocation of a set of checks.
type Run struct {
	ID         string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passed     bool      `json:"passed"`
	Results    []Result  `json:"results"`
}

// Failed counts the checks that did not pass.
func (r Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// result is the builder used inside checks.
type result struct {
	check    string
	started  time.Time
	findings []Finding
	err      error
}

func newResult(check string) *result {
	return &result{check: check, started: time.Now()}
}

// expect records an equality assertion.
func (r *result) expect(name string, want, got interface{}) bool {
	w, g := fmt.Sprint(want), fmt.Sprint(got)
	ok := w == g
	r.findings = append(r.findings, Finding{Name: name, Want: w, Got: g, OK: ok})
	return ok
}

// expectTrue records a boolean assertion with a descriptive got value.
func (r *result) expectTrue(name string, ok bool, got interface{}) bool {
	r.findings = append(r.findings, Finding{Name: name, Want: "true", Got: fmt.Sprint(got), OK: ok})
	return ok
}

// fail aborts the check with a classified error. Only the first error is
// kept.
func (r *result) fail(err error) {
	if r.err == nil {
		r.err = classify(err)
	}
}

func (r *result) done() Result {
	passed := r.err == nil
	for _, f := range r.findings {
		if !f.OK {
			passed = false
		}
	}
	if r.err == nil && !passed {
		r.err = apperr.WithFields(apperr.ErrExpectation, map[string]any{"check": r.check})
	}
	return Result{
		Check:    r.check,
		Passed:   passed,
		Latency:  time.Since(r.started),
		Findings: r.findings,
		Err:      r.err,
	}
}
