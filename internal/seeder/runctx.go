package seeder

import (
	"slices"

	"github.com/Lumos-Labs-HQ/medseed/internal/store"
)

// RunContext carries what one run has inserted so far: for each entity the
// generated ids and the records behind them, in row order. Foreign keys
// are resolved from it and never from rows of earlier runs.
type RunContext struct {
	Tenant   int64
	ids      map[Entity][]int64
	records  map[Entity][]store.Record
	ordinals map[Entity][]int
}

func NewRunContext(tenant int64) *RunContext {
	return &RunContext{
		Tenant:   tenant,
		ids:      make(map[Entity][]int64),
		records:  make(map[Entity][]store.Record),
		ordinals: make(map[Entity][]int),
	}
}

func (rc *RunContext) IDs(e Entity) []int64 {
	return slices.Clone(rc.ids[e])
}

func (rc *RunContext) Records(e Entity) []store.Record {
	return slices.Clone(rc.records[e])
}

// Ordinals returns the 1-based position each record had in its batch.
// Rows that failed to insert leave gaps.
func (rc *RunContext) Ordinals(e Entity) []int {
	return slices.Clone(rc.ordinals[e])
}

// Ref resolves row i's reference along rel by positional modulo. It
// returns nil when the parent has no ids in this run.
func (rc *RunContext) Ref(rel Relation, i int) interface{} {
	ids := rc.ids[rel.Parent]
	if len(ids) == 0 {
		return nil
	}
	return ids[i%len(ids)]
}

// seeded reports whether every parent of rels has ids in this run.
func (rc *RunContext) seeded(rels []Relation) bool {
	for _, rel := range rels {
		if len(rc.ids[rel.Parent]) == 0 {
			return false
		}
	}
	return len(rels) > 0
}

// set records a batch where every produced row was inserted.
func (rc *RunContext) set(e Entity, ids []int64, records []store.Record) {
	ordinals := make([]int, len(ids))
	for i := range ordinals {
		ordinals[i] = i + 1
	}
	rc.setOrdinals(e, ids, records, ordinals)
}

func (rc *RunContext) setOrdinals(e Entity, ids []int64, records []store.Record, ordinals []int) {
	rc.ids[e] = ids
	rc.records[e] = records
	rc.ordinals[e] = ordinals
}
