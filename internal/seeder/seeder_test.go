package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
)

// faultStore is an in-memory SQLite store whose inserts can be made to
// fail, inside transactions or not.
type faultStore struct {
	*store.SQLStore
	mu   sync.Mutex
	fail func(table string, rec store.Record) error
}

func newMemoryStore(t *testing.T) *faultStore {
	t.Helper()
	st, err := store.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &faultStore{SQLStore: st}
}

func (f *faultStore) failInserts(fn func(table string, rec store.Record) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *faultStore) check(table string, rec store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		return nil
	}
	return f.fail(table, rec)
}

func (f *faultStore) Insert(ctx context.Context, table string, rec store.Record) (int64, error) {
	if err := f.check(table, rec); err != nil {
		return 0, err
	}
	return f.SQLStore.Insert(ctx, table, rec)
}

func (f *faultStore) WithTx(ctx context.Context, fn func(store.Writer) error) error {
	return f.SQLStore.WithTx(ctx, func(w store.Writer) error {
		return fn(&faultWriter{Writer: w, f: f})
	})
}

func (f *faultStore) rows(t *testing.T, table string, tenant int64) []store.Record {
	t.Helper()
	rows, err := f.Rows(context.Background(), table, tenant)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", table, err)
	}
	return rows
}

type faultWriter struct {
	store.Writer
	f *faultStore
}

func (w *faultWriter) Insert(ctx context.Context, table string, rec store.Record) (int64, error) {
	if err := w.f.check(table, rec); err != nil {
		return 0, err
	}
	return w.Writer.Insert(ctx, table, rec)
}

func newTestSeeder(t *testing.T, seed int64, opts ...Option) (*Seeder, *faultStore, int64) {
	t.Helper()
	st := newMemoryStore(t)
	tenant, err := st.CreateTenant(context.Background(), "General Hospital")
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	opts = append([]Option{WithSource(rand.New(rand.NewSource(seed))), WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := New(st, catalog.Default(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, st, tenant
}

func column(rows []store.Record, col string) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r[col]
	}
	return out
}

func ids(rows []store.Record) map[int64]store.Record {
	out := make(map[int64]store.Record, len(rows))
	for _, r := range rows {
		out[r["id"].(int64)] = r
	}
	return out
}

func TestResetSeedsEveryEntity(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 1)

	summary, err := s.Seed(context.Background(), Options{Mode: ModeReset})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if summary.Tenant != tenant {
		t.Errorf("Expected tenant %d, got %d", tenant, summary.Tenant)
	}

	want := map[string]int{
		"departments": 15, "patients": 20, "doctors": 15, "medicines": 20,
		"lab_tests": 15, "inventory": 15, "wards": 10, "beds": 120,
		"appointments": 20, "lab_bookings": 15, "billing": 15, "emergency_cases": 10,
	}
	for table, n := range want {
		if got := len(st.rows(t, table, tenant)); got != n {
			t.Errorf("Expected %d %s rows, got %d", n, table, got)
		}
	}
	for _, b := range summary.Batches {
		if b.Status != BatchSeeded {
			t.Errorf("%s: expected seeded, got %s", b.Entity, b.Status)
		}
		if int64(want[b.Table]) != b.Total {
			t.Errorf("%s: expected total %d, got %d", b.Entity, want[b.Table], b.Total)
		}
	}
	if summary.RunID == "" {
		t.Error("Expected a run id")
	}
}

func TestDoctorsReferenceDepartmentsOfThisRun(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 2)
	if _, err := s.Seed(context.Background(), Options{Mode: ModeReset}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	depts := st.rows(t, "departments", tenant)
	doctors := st.rows(t, "doctors", tenant)
	if len(depts) != 15 || len(doctors) != 15 {
		t.Fatalf("Expected 15 departments and 15 doctors, got %d and %d", len(depts), len(doctors))
	}
	for i, d := range doctors {
		if d["department_id"] == nil {
			t.Fatalf("Doctor %d has no department", i)
		}
		if want := depts[i%len(depts)]["id"]; d["department_id"] != want {
			t.Errorf("Doctor %d: expected department %v, got %v", i, want, d["department_id"])
		}
	}
}

func TestBedsAndAppointmentsResolveWithinTenant(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 3)
	if _, err := s.Seed(context.Background(), Options{Mode: ModeReset}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	checkCapacity(t, st, tenant)

	patients := ids(st.rows(t, "patients", tenant))
	doctors := ids(st.rows(t, "doctors", tenant))
	for _, a := range st.rows(t, "appointments", tenant) {
		if _, ok := patients[a["patient_id"].(int64)]; !ok {
			t.Errorf("Appointment references unknown patient %v", a["patient_id"])
		}
		if _, ok := doctors[a["doctor_id"].(int64)]; !ok {
			t.Errorf("Appointment references unknown doctor %v", a["doctor_id"])
		}
	}
}

// checkCapacity asserts every ward of tenant has exactly total_beds beds
// of its own type.
func checkCapacity(t *testing.T, st *faultStore, tenant int64) {
	t.Helper()
	wards := ids(st.rows(t, "wards", tenant))
	perWard := make(map[int64]int64)
	for _, bed := range st.rows(t, "beds", tenant) {
		id := bed["ward_id"].(int64)
		ward, ok := wards[id]
		if !ok {
			t.Fatalf("Bed %v references ward %v outside this tenant", bed["bed_number"], id)
		}
		if bed["bed_type"] != ward["ward_type"] {
			t.Errorf("Bed %v type %v, ward type %v", bed["bed_number"], bed["bed_type"], ward["ward_type"])
		}
		perWard[id]++
	}
	for id, w := range wards {
		if perWard[id] != w["total_beds"].(int64) {
			t.Errorf("Ward %d (%v): expected %v beds, got %d", id, w["name"], w["total_beds"], perWard[id])
		}
	}
}

func TestTopUpGivesNewWardsTheirBeds(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 16)
	ctx := context.Background()

	if _, err := s.Seed(ctx, Options{Mode: ModeTopUp, Counts: map[Entity]int{Ward: 5}}); err != nil {
		t.Fatalf("first top-up failed: %v", err)
	}
	checkCapacity(t, st, tenant)

	// Five wards is under the threshold, sixty beds is not.
	summary, err := s.Seed(ctx, Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("second top-up failed: %v", err)
	}
	if w := summary.Batch(Ward); w.Inserted() != 10 {
		t.Fatalf("Expected 10 new wards, got %d", w.Inserted())
	}
	b := summary.Batch(Bed)
	if b.Status != BatchSeeded || b.Inserted() != 120 {
		t.Errorf("Expected 120 beds for the new wards, got %s with %d inserted", b.Status, b.Inserted())
	}
	if got := len(st.rows(t, "wards", tenant)); got != 15 {
		t.Errorf("Expected 15 wards, got %d", got)
	}
	checkCapacity(t, st, tenant)

	// No new wards, so beds stay put.
	summary, err = s.Seed(ctx, Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("third top-up failed: %v", err)
	}
	if b := summary.Batch(Bed); b.Status != BatchSkipped {
		t.Errorf("Expected beds to be skipped without new wards, got %s", b.Status)
	}
}

func TestTopUpFailedWardKeepsBedNumbers(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 17)
	cat := catalog.Default()
	st.failInserts(func(table string, rec store.Record) error {
		if table == "wards" && rec["name"] == cat.Wards[2].Name {
			return errors.New("lock wait timeout")
		}
		return nil
	})

	summary, err := s.Seed(context.Background(), Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if w := summary.Batch(Ward); w.Failed() != 1 || w.Inserted() != 9 {
		t.Fatalf("Expected 9 wards and 1 failure, got %d and %d", w.Inserted(), w.Failed())
	}
	checkCapacity(t, st, tenant)

	ordinal := make(map[string]int, len(cat.Wards))
	for i, w := range cat.Wards {
		ordinal[w.Name] = i + 1
	}
	wards := ids(st.rows(t, "wards", tenant))
	for _, bed := range st.rows(t, "beds", tenant) {
		number := bed["bed_number"].(string)
		name := wards[bed["ward_id"].(int64)]["name"].(string)
		if want := fmt.Sprintf("W%d-", ordinal[name]); !strings.HasPrefix(number, want) {
			t.Errorf("Bed %s in %s: expected prefix %s", number, name, want)
		}
	}
}

func TestResetTwiceIsIdempotent(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 4)
	ctx := context.Background()

	snapshot := func() map[string][]interface{} {
		return map[string][]interface{}{
			"beds":       column(st.rows(t, "beds", tenant), "bed_number"),
			"bills":      column(st.rows(t, "billing", tenant), "bill_number"),
			"complaints": column(st.rows(t, "emergency_cases", tenant), "complaint"),
			"patients":   column(st.rows(t, "patients", tenant), "patient_id"),
		}
	}

	first, err := s.Seed(ctx, Options{Mode: ModeReset})
	if err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	before := snapshot()

	second, err := s.Seed(ctx, Options{Mode: ModeReset})
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if after := snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("Expected deterministic fields to match across resets")
	}

	for _, b := range second.Batches {
		if prev := first.Batch(b.Entity); prev.Total != b.Total {
			t.Errorf("%s: %d rows after first reset, %d after second", b.Entity, prev.Total, b.Total)
		}
		if b.Deleted != b.Existing {
			t.Errorf("%s: expected all %d existing rows deleted, got %d", b.Entity, b.Existing, b.Deleted)
		}
	}
}

func TestResetLeavesOtherTenantsAlone(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 5)
	ctx := context.Background()
	other, _ := st.CreateTenant(ctx, "Other Hospital")

	if _, err := s.Seed(ctx, Options{Mode: ModeReset, Tenant: other}); err != nil {
		t.Fatalf("Seed for other tenant failed: %v", err)
	}
	if _, err := s.Seed(ctx, Options{Mode: ModeReset, Tenant: tenant}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if got := len(st.rows(t, "beds", other)); got != 120 {
		t.Errorf("Expected other tenant to keep 120 beds, got %d", got)
	}
}

func TestTopUpSkipsPopulatedEntities(t *testing.T) {
	s, _, _ := newTestSeeder(t, 6)
	ctx := context.Background()

	first, err := s.Seed(ctx, Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("first top-up failed: %v", err)
	}
	if first.Inserted() == 0 {
		t.Fatal("Expected the first top-up to insert rows")
	}

	second, err := s.Seed(ctx, Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("second top-up failed: %v", err)
	}
	if n := second.Inserted(); n != 0 {
		t.Errorf("Expected zero inserts, got %d", n)
	}
	for _, b := range second.Batches {
		if b.Status != BatchSkipped {
			t.Errorf("%s: expected skipped, got %s", b.Entity, b.Status)
		}
	}
}

func TestTopUpSkipsDuplicates(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 7)
	ctx := context.Background()
	opts := Options{Mode: ModeTopUp, Threshold: 1000}

	if _, err := s.Seed(ctx, opts); err != nil {
		t.Fatalf("first top-up failed: %v", err)
	}
	summary, err := s.Seed(ctx, opts)
	if err != nil {
		t.Fatalf("second top-up failed: %v", err)
	}

	patients := summary.Batch(Patient)
	if patients.Duplicates() != 20 || patients.Inserted() != 0 || patients.Failed() != 0 {
		t.Errorf("Expected 20 duplicate patients, got %d inserted %d dupes %d failed",
			patients.Inserted(), patients.Duplicates(), patients.Failed())
	}
	for _, r := range patients.Rows {
		if !errors.Is(r.Err, store.ErrUniqueViolation) {
			t.Errorf("Row %d: expected a unique violation, got %v", r.Index, r.Err)
		}
	}
	if got := len(st.rows(t, "patients", tenant)); got != 20 {
		t.Errorf("Expected 20 patients, got %d", got)
	}

	// Nothing new to reference, so patient dependents are left alone.
	for _, e := range []Entity{Appointment, LabBooking, BillingRecord, EmergencyCase} {
		b := summary.Batch(e)
		if b.Status != BatchUnsatisfied {
			t.Errorf("%s: expected unsatisfied, got %s", e, b.Status)
		}
		var depErr *DependencyUnsatisfiedError
		if !errors.As(b.Err, &depErr) || depErr.Parent != Patient {
			t.Errorf("%s: expected a patient dependency error, got %v", e, b.Err)
		}
	}
	if d := summary.Batch(Doctor); d.Inserted() != 15 {
		t.Errorf("Expected 15 new doctors, got %d", d.Inserted())
	}
}

func TestTopUpRowFailureDoesNotAbort(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 8)
	st.failInserts(func(table string, rec store.Record) error {
		if table == "patients" && rec["patient_id"] == "PAT003" {
			return fmt.Errorf("disk full")
		}
		return nil
	})

	summary, err := s.Seed(context.Background(), Options{Mode: ModeTopUp})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	b := summary.Batch(Patient)
	if b.Failed() != 1 || b.Inserted() != 19 {
		t.Errorf("Expected 19 inserted and 1 failed, got %d and %d", b.Inserted(), b.Failed())
	}
	if r := b.Rows[2]; r.Outcome != RowFailed || r.Err == nil {
		t.Errorf("Expected row 3 to fail, got %+v", r)
	}

	patients := st.rows(t, "patients", tenant)
	for i, a := range st.rows(t, "appointments", tenant) {
		if want := patients[i%len(patients)]["id"]; a["patient_id"] != want {
			t.Errorf("Appointment %d: expected patient %v, got %v", i, want, a["patient_id"])
		}
	}
}

func TestTopUpParallelKeepsRowOrder(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 9)
	if _, err := s.Seed(context.Background(), Options{Mode: ModeTopUp, Workers: 8}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	codeByID := make(map[interface{}]interface{})
	for _, p := range st.rows(t, "patients", tenant) {
		codeByID[p["id"]] = p["patient_id"]
	}
	appts := st.rows(t, "appointments", tenant)
	if len(appts) != 20 {
		t.Fatalf("Expected 20 appointments, got %d", len(appts))
	}
	for _, a := range appts {
		i := int(a["token_number"].(int64)) - 1
		if want := PatientCode(i % 20); codeByID[a["patient_id"]] != want {
			t.Errorf("Appointment %d: expected patient %s, got %v", i, want, codeByID[a["patient_id"]])
		}
	}
}

func TestResetWithoutPatientsIsUnsatisfied(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 10)

	summary, err := s.Seed(context.Background(), Options{
		Mode:   ModeReset,
		Counts: map[Entity]int{Patient: 0},
	})
	var depErr *DependencyUnsatisfiedError
	if !errors.As(err, &depErr) {
		t.Fatalf("Expected DependencyUnsatisfiedError, got %v", err)
	}
	if depErr.Entity != Appointment || depErr.Parent != Patient {
		t.Errorf("Expected appointment to miss patients, got %+v", depErr)
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) || batchErr.Mode != ModeReset || batchErr.Tenant != tenant {
		t.Errorf("Expected batch context in the error, got %v", err)
	}

	if summary == nil || summary.Batch(Bed) == nil || summary.Batch(Bed).Status != BatchSeeded {
		t.Fatal("Expected batches before the failure to be reported")
	}
	if got := len(st.rows(t, "beds", tenant)); got != 120 {
		t.Errorf("Expected completed batches to stay committed, got %d beds", got)
	}
	if got := len(st.rows(t, "appointments", tenant)); got != 0 {
		t.Errorf("Expected no appointments, got %d", got)
	}
}

func TestDoctorsWithoutDepartmentsGetNull(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 11)
	if _, err := s.Seed(context.Background(), Options{
		Mode:   ModeReset,
		Counts: map[Entity]int{Department: 0},
	}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	for _, d := range st.rows(t, "doctors", tenant) {
		if d["department_id"] != nil {
			t.Errorf("Expected no department, got %v", d["department_id"])
		}
	}
}

func TestStorageFailureRollsBackBatch(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 12)
	ctx := context.Background()
	if _, err := s.Seed(ctx, Options{Mode: ModeReset}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	boom := errors.New("connection reset")
	calls := 0
	st.failInserts(func(table string, _ store.Record) error {
		if table == "wards" {
			if calls++; calls == 4 {
				return boom
			}
		}
		return nil
	})

	summary, err := s.Seed(ctx, Options{Mode: ModeReset})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the storage error, got %v", err)
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) || batchErr.Entity != Ward {
		t.Fatalf("Expected a ward BatchError, got %v", err)
	}
	if b := summary.Batch(Ward); b == nil || b.Status != BatchFailed {
		t.Errorf("Expected ward batch to be reported as failed")
	}
	if summary.Batch(Bed) != nil {
		t.Error("Expected no batches after the failure")
	}
	if got := len(st.rows(t, "wards", tenant)); got != 0 {
		t.Errorf("Expected the ward batch to roll back, got %d wards", got)
	}
	if got := len(st.rows(t, "departments", tenant)); got != 15 {
		t.Errorf("Expected earlier batches to stay committed, got %d departments", got)
	}
}

func TestNoTenant(t *testing.T) {
	s, err := New(newMemoryStore(t), catalog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.Seed(context.Background(), Options{}); !errors.Is(err, ErrNoTenantFound) {
		t.Errorf("Expected ErrNoTenantFound, got %v", err)
	}

	s, _, tenant := newTestSeeder(t, 13)
	if _, err := s.Seed(context.Background(), Options{Tenant: tenant + 99}); !errors.Is(err, ErrNoTenantFound) {
		t.Errorf("Expected ErrNoTenantFound for a missing id, got %v", err)
	}
}

func TestConfigurationErrors(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 14)
	ctx := context.Background()

	cases := map[string]Options{
		"bed override":   {Counts: map[Entity]int{Bed: 5}},
		"negative count": {Counts: map[Entity]int{Patient: -1}},
		"unknown entity": {Counts: map[Entity]int{"x_ray": 3}},
		"unknown only":   {Only: []Entity{"x_ray"}},
		"unknown mode":   {Mode: "wipe"},
	}
	for name, opts := range cases {
		var cfgErr *ConfigurationError
		if _, err := s.Seed(ctx, opts); !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigurationError, got %v", name, err)
		}
	}

	cat := catalog.Default()
	cat.AppointmentReasons = nil
	s, err := New(st, cat)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var cfgErr *ConfigurationError
	if _, err := s.Seed(ctx, Options{Mode: ModeReset}); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for missing appointment reasons, got %v", err)
	}
	if got := len(st.rows(t, "departments", tenant)); got != 0 {
		t.Errorf("Expected no writes before a configuration error, got %d departments", got)
	}
}

func TestCyclicRegistryIsRejected(t *testing.T) {
	specs := []EntitySpec{
		{Name: "a", Table: "a", Relations: []Relation{required("b_id", "b")}},
		{Name: "b", Table: "b", Relations: []Relation{required("a_id", "a")}},
	}
	_, err := New(nil, catalog.Default(), WithRegistry(specs))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
}

func TestOnlyResetPullsInDependents(t *testing.T) {
	s, st, tenant := newTestSeeder(t, 15)
	ctx := context.Background()
	if _, err := s.Seed(ctx, Options{Mode: ModeReset}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	insert, _, err := s.Plan(ModeReset, []Entity{Ward})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if want := []Entity{Ward, Bed}; !reflect.DeepEqual(insert, want) {
		t.Errorf("Expected %v, got %v", want, insert)
	}

	insert, _, _ = s.Plan(ModeTopUp, []Entity{Bed})
	if want := []Entity{Ward, Bed}; !reflect.DeepEqual(insert, want) {
		t.Errorf("Expected top-up of beds to include wards, got %v", insert)
	}

	summary, err := s.Seed(ctx, Options{Mode: ModeReset, Only: []Entity{Ward}})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(summary.Batches) != 2 {
		t.Errorf("Expected 2 batches, got %d", len(summary.Batches))
	}
	if got := len(st.rows(t, "beds", tenant)); got != 120 {
		t.Errorf("Expected 120 beds, got %d", got)
	}
	if got := len(st.rows(t, "patients", tenant)); got != 20 {
		t.Errorf("Expected patients untouched, got %d", got)
	}
}
