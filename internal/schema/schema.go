// Package schema describes the hospital tables the seeder writes to and
// bundles their DDL for each supported provider.
package schema

// Table is the constraint view of one table: what must be unique per row
// and which columns reference which tables.
type Table struct {
	Name        string
	Unique      [][]string
	ForeignKeys map[string]string
	// Nullable lists foreign key columns that accept NULL.
	Nullable []string
}

const TenantTable = "hospitals"

// TenantColumn scopes every seeded row to one hospital.
const TenantColumn = "hospital_id"

var Tables = []Table{
	{Name: TenantTable},
	{Name: "departments", ForeignKeys: tenantFK()},
	{
		Name:        "patients",
		Unique:      [][]string{{TenantColumn, "patient_id"}},
		ForeignKeys: tenantFK(),
	},
	{
		Name:        "doctors",
		ForeignKeys: tenantFK("department_id", "departments"),
		Nullable:    []string{"department_id"},
	},
	{
		Name:        "medicines",
		Unique:      [][]string{{TenantColumn, "batch_no"}},
		ForeignKeys: tenantFK(),
	},
	{Name: "lab_tests", ForeignKeys: tenantFK()},
	{Name: "inventory", ForeignKeys: tenantFK()},
	{Name: "wards", ForeignKeys: tenantFK()},
	{Name: "beds", ForeignKeys: tenantFK("ward_id", "wards")},
	{Name: "appointments", ForeignKeys: tenantFK("patient_id", "patients", "doctor_id", "doctors")},
	{Name: "lab_bookings", ForeignKeys: tenantFK("patient_id", "patients", "test_id", "lab_tests", "doctor_id", "doctors")},
	{
		Name:        "billing",
		Unique:      [][]string{{TenantColumn, "bill_number"}},
		ForeignKeys: tenantFK("patient_id", "patients"),
	},
	{Name: "emergency_cases", ForeignKeys: tenantFK("patient_id", "patients")},
}

func tenantFK(pairs ...string) map[string]string {
	fks := map[string]string{TenantColumn: TenantTable}
	for i := 0; i+1 < len(pairs); i += 2 {
		fks[pairs[i]] = pairs[i+1]
	}
	return fks
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func (t Table) IsNullable(column string) bool {
	for _, c := range t.Nullable {
		if c == column {
			return true
		}
	}
	return false
}
