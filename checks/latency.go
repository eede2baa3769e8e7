package checks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// LatencyCheck fires concurrent requests at the cheap public endpoints and
// holds the measured latencies against the configured budgets.
func (s *Service) LatencyCheck(ctx context.Context) Result {
	r := newResult(CheckLatency)

	workers := s.Config.LatencyWorkers
	perWorker := s.Config.LatencyRequests

	var mu sync.Mutex
	var latencies []time.Duration
	var failures int

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			client := s.newClient()
			for i := 0; i < perWorker; i++ {
				start := time.Now()
				var err error
				if i%2 == 0 {
					_, err = client.Health(ctx)
				} else {
					_, err = client.Browse(ctx, 1, 10)
				}
				elapsed := time.Since(start)

				mu.Lock()
				if err != nil {
					failures++
				} else {
					latencies = append(latencies, elapsed)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	total := workers * perWorker
	if total == 0 {
		r.expectTrue("config.requests_configured", false, total)
		return r.done()
	}

	errorRate := float64(failures) / float64(total)
	r.expectTrue(
		fmt.Sprintf("error_rate_within_%.2f", s.Config.LatencyErrorBudget),
		errorRate <= s.Config.LatencyErrorBudget,
		fmt.Sprintf("%.3f (%d/%d)", errorRate, failures, total),
	)

	if len(latencies) > 0 {
		p95 := percentile(latencies, 0.95)
		budget := time.Duration(s.Config.LatencyBudgetMs) * time.Millisecond
		r.expectTrue(
			fmt.Sprintf("p95_within_%s", budget),
			p95 <= budget,
			p95.Round(time.Millisecond),
		)
		s.Logger.Printf("latency: %d ok, %d failed, p50=%s p95=%s",
			len(latencies), failures,
			percentile(latencies, 0.50).Round(time.Millisecond),
			p95.Round(time.Millisecond))
	}

	return r.done()
}

// percentile returns the q-th percentile of the samples. q in (0, 1].
func percentile(samples []time.Duration, q float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted))*q) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
