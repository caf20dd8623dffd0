package domain

// HealthStatus is the outcome of one doctor check.
type HealthStatus string

const (
	HealthOK   HealthStatus = "ok"
	HealthWarn HealthStatus = "warn"
	// HealthFail means corrections cannot work until the problem is fixed.
	HealthFail HealthStatus = "fail"
)

// HealthCheck is one line of the doctor report: the service, the model, the
// clipboard, the key table or a single hotkey binding.
type HealthCheck struct {
	Name    string
	Status  HealthStatus
	Details string
}

// HealthReport lists checks in the order they ran.
type HealthReport struct {
	Checks []HealthCheck
}

// Failed returns the checks that block corrections.
func (r HealthReport) Failed() []HealthCheck {
	var failed []HealthCheck
	for _, c := range r.Checks {
		if c.Status == HealthFail {
			failed = append(failed, c)
		}
	}
	return failed
}
