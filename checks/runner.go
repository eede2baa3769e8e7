package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const lastRunKey = "probe:last_run"

type namedCheck struct {
	name string
	fn   func(*Service, context.Context) Result
}

// registry fixes the execution order of a full run.
var registry = []namedCheck{
	{CheckAuth, (*Service).AuthCheck},
	{CheckListingLifecycle, (*Service).ListingLifecycleCheck},
	{CheckBrowse, (*Service).BrowseCheck},
	{CheckTenderWorkflow, (*Service).TenderWorkflowCheck},
	{CheckMenuSettings, (*Service).MenuSettingsCheck},
	{CheckCMSSettings, (*Service).CMSSettingsCheck},
	{CheckMessages, (*Service).MessagesCheck},
	{CheckLatency, (*Service).LatencyCheck},
}

// Names lists every known check in run order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.name)
	}
	return names
}

// Run executes the named checks (all of them when names is empty) under a
// single run id, persists the outcome and caches a summary in redis.
func (s *Service) Run(ctx context.Context, names ...string) (*Run, error) {
	selected, err := selectChecks(names)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	s.Logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"checks": len(selected),
		"target": s.Config.BaseURL,
	}).Info("probe run started")

	for _, c := range selected {
		result := c.fn(s, ctx)
		run.Results = append(run.Results, result)

		entry := s.Logger.WithFields(logrus.Fields{
			"run_id":     run.ID,
			"check":      result.Check,
			"passed":     result.Passed,
			"latency_ms": result.Latency.Milliseconds(),
		})
		if result.Passed {
			entry.Info("check passed")
		} else {
			entry.WithFields(logrus.Fields{
				"code":  result.ErrorCode(),
				"error": fmt.Sprint(result.Err),
			}).Error("check failed")
		}
	}

	run.FinishedAt = time.Now().UTC()
	run.Passed = run.Failed() == 0

	if s.Store != nil {
		if err := s.Store.SaveRun(run); err != nil {
			s.Logger.WithFields(logrus.Fields{"code": err.Error()}).Error("could not persist run")
		}
	}
	s.cacheSummary(run)

	s.Logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"passed": run.Passed,
		"failed": run.Failed(),
		"total":  len(run.Results),
	}).Info("probe run finished")
	return run, nil
}

func selectChecks(names []string) ([]namedCheck, error) {
	if len(names) == 0 {
		return registry, nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}
	var selected []namedCheck
	for _, c := range registry {
		if wanted[c.name] {
			selected = append(selected, c)
			delete(wanted, c.name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("unknown check: %s", name)
	}
	return selected, nil
}

// cacheSummary is best effort; a missing redis only costs the shortcut.
func (s *Service) cacheSummary(run *Run) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return
	}
	if err := s.Redis.Set(lastRunKey, payload, 24*time.Hour).Err(); err != nil {
		s.Logger.WithFields(logrus.Fields{"code": err.Error()}).Info("could not cache run summary")
	}
}

// LastRunSummary returns the cached summary of the most recent run.
func (s *Service) LastRunSummary() (*Run, error) {
	if s.Redis == nil {
		return nil, fmt.Errorf("redis not configured")
	}
	payload, err := s.Redis.Get(lastRunKey).Result()
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, err
	}
	return &run, nil
}
