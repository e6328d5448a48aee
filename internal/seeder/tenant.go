package seeder

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/store"
)

// ResolveTenant picks the hospital a run is scoped to. An explicit id must
// exist; zero selects the lowest hospital id.
func ResolveTenant(ctx context.Context, st store.Store, requested int64) (int64, error) {
	if requested != 0 {
		ok, err := st.TenantExists(ctx, requested)
		if err != nil {
			return 0, fmt.Errorf("failed to look up hospital %d: %w", requested, err)
		}
		if !ok {
			return 0, fmt.Errorf("%w: no hospital with id %d", ErrNoTenantFound, requested)
		}
		return requested, nil
	}

	id, ok, err := st.FirstTenant(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to look up hospitals: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: create a hospital first", ErrNoTenantFound)
	}
	return id, nil
}
