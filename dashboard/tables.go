package dashboard

import (
	"time"

	"github.com/cataloro/probe/checks"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// ProbeRun is one persisted probe run.
type ProbeRun struct {
	gorm.Model
	RunID      string    `json:"run_id" gorm:"index:idx_run_id,unique"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passed     bool      `json:"passed"`
	Total      int       `json:"total"`
	Failed     int       `json:"failed"`
}

// CheckRecord is one check outcome inside a run. Findings are stored as a
// json blob; they are read back for display only.
type CheckRecord struct {
	gorm.Model
	RunID     string `json:"run_id" gorm:"index"`
	Check     string `json:"check" gorm:"index"`
	Passed    bool   `json:"passed"`
	LatencyMs int64  `json:"latency_ms"`
	Findings  string `json:"findings"`
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

// Migrate creates the run history tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProbeRun{}, &CheckRecord{})
}

func recordsFromRun(run *checks.Run) (ProbeRun, []CheckRecord) {
	probeRun := ProbeRun{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Passed:     run.Passed,
		Total:      len(run.Results),
		Failed:     run.Failed(),
	}
	var records []CheckRecord
	for _, result := range run.Results {
		findings, err := json.Marshal(result.Findings)
		if err != nil {
			findings = []byte("[]")
		}
		record := CheckRecord{
			RunID:     run.ID,
			Check:     result.Check,
			Passed:    result.Passed,
			LatencyMs: result.Latency.Milliseconds(),
			Findings:  string(findings),
		}
		if result.Err != nil {
			record.ErrorCode = result.ErrorCode()
			record.Error = result.Err.Error()
		}
		records = append(records, record)
	}
	return probeRun, records
}
