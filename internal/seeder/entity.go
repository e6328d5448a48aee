package seeder

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
)

// EntitySpec describes how one entity is stored and produced.
type EntitySpec struct {
	Name      Entity
	Table     string
	Label     string
	Relations []Relation
	// Derived entities take their row count from parent rows; it cannot be
	// overridden.
	Derived bool

	// section names the catalog data the entity draws from and its size.
	section func(c *catalog.Catalog) (string, int)
	produce func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error)
}

func (s EntitySpec) Dependencies() []Entity {
	deps := make([]Entity, 0, len(s.Relations))
	for _, r := range s.Relations {
		deps = append(deps, r.Parent)
	}
	return deps
}

func required(column string, parent Entity) Relation {
	return Relation{Column: column, Parent: parent, OnEmpty: OnEmptyFail}
}

// Registry returns the hospital entities in registration order.
func Registry() []EntitySpec {
	return []EntitySpec{
		{
			Name: Department, Table: "departments", Label: "Departments",
			section: func(c *catalog.Catalog) (string, int) { return "departments", len(c.Departments) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.Departments(n), nil
			},
		},
		{
			Name: Patient, Table: "patients", Label: "Patients",
			section: func(c *catalog.Catalog) (string, int) { return "patients", len(c.Patients) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.Patients(n), nil
			},
		},
		{
			Name: Doctor, Table: "doctors", Label: "Doctors",
			Relations: []Relation{{Column: "department_id", Parent: Department, OnEmpty: OnEmptyNull}},
			section:   func(c *catalog.Catalog) (string, int) { return "doctors", len(c.Doctors) },
			produce: func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error) {
				return p.Doctors(rc, rels[0], n), nil
			},
		},
		{
			Name: Medicine, Table: "medicines", Label: "Medicines",
			section: func(c *catalog.Catalog) (string, int) { return "medicines", len(c.Medicines) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.Medicines(n), nil
			},
		},
		{
			Name: LabTest, Table: "lab_tests", Label: "Lab Tests",
			section: func(c *catalog.Catalog) (string, int) { return "lab_tests", len(c.LabTests) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.LabTests(n), nil
			},
		},
		{
			Name: InventoryItem, Table: "inventory", Label: "Inventory Items",
			section: func(c *catalog.Catalog) (string, int) { return "inventory", len(c.Inventory) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.Inventory(n), nil
			},
		},
		{
			Name: Ward, Table: "wards", Label: "Wards",
			section: func(c *catalog.Catalog) (string, int) { return "wards", len(c.Wards) },
			produce: func(p *Producer, _ *RunContext, _ []Relation, n int) ([]store.Record, error) {
				return p.Wards(n), nil
			},
		},
		{
			Name: Bed, Table: "beds", Label: "Beds", Derived: true,
			Relations: []Relation{required("ward_id", Ward)},
			produce: func(p *Producer, rc *RunContext, _ []Relation, _ int) ([]store.Record, error) {
				return p.Beds(rc)
			},
		},
		{
			Name: Appointment, Table: "appointments", Label: "Appointments",
			Relations: []Relation{required("patient_id", Patient), required("doctor_id", Doctor)},
			section:   func(c *catalog.Catalog) (string, int) { return "appointment_reasons", len(c.AppointmentReasons) },
			produce: func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error) {
				return p.Appointments(rc, rels[0], rels[1], n), nil
			},
		},
		{
			Name: LabBooking, Table: "lab_bookings", Label: "Lab Bookings",
			Relations: []Relation{required("patient_id", Patient), required("test_id", LabTest), required("doctor_id", Doctor)},
			produce: func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error) {
				return p.LabBookings(rc, rels[0], rels[1], rels[2], n), nil
			},
		},
		{
			Name: BillingRecord, Table: "billing", Label: "Billing Records",
			Relations: []Relation{required("patient_id", Patient)},
			section:   func(c *catalog.Catalog) (string, int) { return "billing_items", len(c.BillingItems) },
			produce: func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error) {
				return p.Billing(rc, rels[0], n)
			},
		},
		{
			Name: EmergencyCase, Table: "emergency_cases", Label: "Emergency Cases",
			Relations: []Relation{required("patient_id", Patient)},
			section:   func(c *catalog.Catalog) (string, int) { return "complaints", len(c.Complaints) },
			produce: func(p *Producer, rc *RunContext, rels []Relation, n int) ([]store.Record, error) {
				return p.EmergencyCases(rc, rels[0], n)
			},
		},
	}
}

// DefaultCounts sizes each entity the way a full reseed of cat does: one
// row per catalog entry, plus fixed volumes for generated activity.
func DefaultCounts(c *catalog.Catalog) map[Entity]int {
	return map[Entity]int{
		Department:    len(c.Departments),
		Patient:       len(c.Patients),
		Doctor:        len(c.Doctors),
		Medicine:      len(c.Medicines),
		LabTest:       len(c.LabTests),
		InventoryItem: len(c.Inventory),
		Ward:          len(c.Wards),
		Appointment:   20,
		LabBooking:    15,
		BillingRecord: 15,
		EmergencyCase: len(c.Complaints),
	}
}

// ParseEntity accepts an entity name or its table name.
func ParseEntity(name string) (Entity, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, spec := range Registry() {
		if string(spec.Name) == name || spec.Table == name {
			return spec.Name, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", name)
}
