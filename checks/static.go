package checks

import (
	"context"

	"github.com/jonwraymond/healthrun/health"
)

// Static always reports the same status. It is useful as a smoke test and
// as a manual maintenance switch.
type Static struct {
	name   string
	status health.Status
	desc   string
}

// NewStatic creates a probe that reports status with description.
func NewStatic(name string, status health.Status, description string) *Static {
	return &Static{name: name, status: status, desc: description}
}

// Name returns the check name.
func (s *Static) Name() string { return s.name }

// Kind returns "static".
func (s *Static) Kind() string { return "static" }

// Check returns the fixed result.
func (s *Static) Check(ctx context.Context) (health.Result, error) {
	return health.Result{Status: s.status, Description: s.desc}, nil
}
