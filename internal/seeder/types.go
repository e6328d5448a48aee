package seeder

// Entity names one seeded entity type.
type Entity string

const (
	Department    Entity = "department"
	Patient       Entity = "patient"
	Doctor        Entity = "doctor"
	Medicine      Entity = "medicine"
	LabTest       Entity = "lab_test"
	InventoryItem Entity = "inventory_item"
	Ward          Entity = "ward"
	Bed           Entity = "bed"
	Appointment   Entity = "appointment"
	LabBooking    Entity = "lab_booking"
	BillingRecord Entity = "billing_record"
	EmergencyCase Entity = "emergency_case"
)

type Mode string

const (
	// ModeTopUp inserts only when a tenant has fewer rows than the threshold.
	ModeTopUp Mode = "topup"
	// ModeReset clears the tenant's rows and reseeds them.
	ModeReset Mode = "reset"
)

// EmptyParentPolicy declares what a relation does when its parent produced
// no identifiers in the current run.
type EmptyParentPolicy int

const (
	// OnEmptyFail aborts the dependent batch with DependencyUnsatisfiedError.
	OnEmptyFail EmptyParentPolicy = iota
	// OnEmptyNull stores NULL in the foreign key column.
	OnEmptyNull
)

func (p EmptyParentPolicy) String() string {
	if p == OnEmptyNull {
		return "null"
	}
	return "fail"
}

// Relation is one foreign key from a dependent entity to its parent.
type Relation struct {
	Column  string
	Parent  Entity
	OnEmpty EmptyParentPolicy
}

type Options struct {
	Tenant    int64
	Mode      Mode
	Counts    map[Entity]int // Rows to generate per entity; missing entries use defaults
	Threshold int            // Top-up skips entities with at least this many rows
	Only      []Entity       // Restrict the run; closed over dependencies
	Workers   int            // Concurrent top-up inserts per entity
}
