package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: reads work, schema writes may not.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const probeScript = "return {1}"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	scripts ScriptRunner
}

// New creates a Service. scripts can be nil.
func New(db DBPinger, scripts ScriptRunner) *Service {
	return &Service{db: db, scripts: scripts}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	status := Healthy
	if s.scripts != nil {
		if _, err := s.scripts.EvalInts(ctx, probeScript, nil, nil); err != nil {
			checks["scripting"] = CheckError
			status = Degraded
		} else {
			checks["scripting"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
