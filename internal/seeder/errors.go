package seeder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTenantFound is returned when no hospital row can scope the run.
var ErrNoTenantFound = errors.New("no hospital found")

// ConfigurationError reports a malformed entity graph or catalog. It is
// raised before any write.
type ConfigurationError struct {
	Reason string
	Cycle  []Entity
}

func (e *ConfigurationError) Error() string {
	if len(e.Cycle) > 0 {
		parts := make([]string, len(e.Cycle))
		for i, c := range e.Cycle {
			parts[i] = string(c)
		}
		return fmt.Sprintf("configuration error: %s (%s)", e.Reason, strings.Join(parts, " → "))
	}
	return "configuration error: " + e.Reason
}

// DependencyUnsatisfiedError reports a relation whose parent produced no
// identifiers in this run and whose policy forbids NULL.
type DependencyUnsatisfiedError struct {
	Entity Entity
	Parent Entity
	Column string
}

func (e *DependencyUnsatisfiedError) Error() string {
	return fmt.Sprintf("%s.%s requires %s rows seeded in this run, but none were", e.Entity, e.Column, e.Parent)
}

// BatchError carries the context of a failed entity batch.
type BatchError struct {
	Entity Entity
	Tenant int64
	Mode   Mode
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("seeding %s for hospital %d (%s mode) failed: %v", e.Entity, e.Tenant, e.Mode, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
