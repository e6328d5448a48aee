package seeder

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/schema"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
	"github.com/brianvoe/gofakeit/v7"
)

const dateLayout = "2006-01-02"

var (
	appointmentPastStatuses = []string{"completed", "cancelled"}
	labStatuses             = []string{"pending", "sample_collected", "completed"}
	paymentMethods          = []string{"cash", "card", "upi", "insurance"}
	paymentStatuses         = []string{"paid", "pending", "partial"}
	severities              = []string{"low", "medium", "high", "critical"}
	emergencyStatuses       = []string{"active", "admitted", "discharged"}
)

// labResult is stored for completed lab bookings.
const labResult = "Normal"

// Vitals is the vital_signs bundle of an emergency case.
type Vitals struct {
	BP          string  `json:"bp"`
	Pulse       int     `json:"pulse"`
	Temperature float64 `json:"temperature"`
	Oxygen      int     `json:"oxygen"`
}

// Producer builds the rows of every entity for one tenant. Rows past the
// end of a catalog section reuse it cyclically with a numeric suffix;
// patients and doctors get fresh fake identities instead.
type Producer struct {
	cat    *catalog.Catalog
	params Params
	src    Source
	faker  *gofakeit.Faker
	now    time.Time
	tenant int64
}

func NewProducer(cat *catalog.Catalog, params Params, src Source, now time.Time, tenant int64) *Producer {
	return &Producer{
		cat:    cat,
		params: params,
		src:    src,
		faker:  gofakeit.New(uint64(src.Int63())),
		now:    now,
		tenant: tenant,
	}
}

func (p *Producer) row(values store.Record) store.Record {
	values[schema.TenantColumn] = p.tenant
	return values
}

// cycle returns the catalog position for row i and the suffix to append
// to names once the section has been used up.
func cycle(i, size int) (int, string) {
	if i < size {
		return i, ""
	}
	return i % size, fmt.Sprintf(" %d", i/size+1)
}

func (p *Producer) Departments(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		idx, suffix := cycle(i, len(p.cat.Departments))
		d := p.cat.Departments[idx]
		out = append(out, p.row(store.Record{
			"name":        d.Name + suffix,
			"description": d.Description,
		}))
	}
	return out
}

func PatientCode(i int) string {
	return fmt.Sprintf("PAT%03d", i+1)
}

func (p *Producer) Patients(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		var pt catalog.Patient
		if i < len(p.cat.Patients) {
			pt = p.cat.Patients[i]
		} else {
			pt = p.fakePatient(p.cat.Patients[i%len(p.cat.Patients)])
		}
		out = append(out, p.row(store.Record{
			"patient_id":             PatientCode(i),
			"name":                   pt.Name,
			"age":                    pt.Age,
			"gender":                 pt.Gender,
			"phone":                  pt.Phone,
			"email":                  pt.Email,
			"address":                pt.Address,
			"blood_group":            pt.BloodGroup,
			"emergency_contact":      pt.EmergencyContact,
			"emergency_contact_name": pt.EmergencyContactName,
			"medical_history":        pt.MedicalHistory,
		}))
	}
	return out
}

func (p *Producer) fakePatient(base catalog.Patient) catalog.Patient {
	pt := base
	pt.Name = p.faker.Name()
	pt.Age = p.faker.Number(1, 90)
	pt.Gender = p.faker.Gender()
	pt.Phone = p.faker.Phone()
	pt.Email = p.faker.Email()
	pt.Address = p.faker.Address().Address
	pt.EmergencyContact = p.faker.Phone()
	pt.EmergencyContactName = p.faker.Name()
	if len(p.cat.BloodGroups) > 0 {
		pt.BloodGroup = pick(p.src, p.cat.BloodGroups)
	}
	return pt
}

func (p *Producer) Doctors(rc *RunContext, dept Relation, n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		d := p.cat.Doctors[i%len(p.cat.Doctors)]
		if i >= len(p.cat.Doctors) {
			d.Name = "Dr. " + p.faker.Name()
			d.Phone = p.faker.Phone()
			d.Email = p.faker.Email()
		}
		out = append(out, p.row(store.Record{
			dept.Column:        rc.Ref(dept, i),
			"name":             d.Name,
			"specialization":   d.Specialization,
			"qualification":    d.Qualification,
			"phone":            d.Phone,
			"email":            d.Email,
			"experience":       d.ExperienceYears,
			"consultation_fee": d.Fee,
		}))
	}
	return out
}

func BatchNumber(i int) string {
	return fmt.Sprintf("BATCH%03d", i+1)
}

func (p *Producer) Medicines(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		idx, suffix := cycle(i, len(p.cat.Medicines))
		m := p.cat.Medicines[idx]
		out = append(out, p.row(store.Record{
			"name":          m.Name + suffix,
			"generic_name":  m.GenericName,
			"manufacturer":  m.Manufacturer,
			"batch_no":      BatchNumber(i),
			"expiry_date":   m.ExpiryDate,
			"quantity":      m.Quantity,
			"price":         m.UnitPrice,
			"reorder_level": m.ReorderLevel,
		}))
	}
	return out
}

func (p *Producer) LabTests(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		idx, suffix := cycle(i, len(p.cat.LabTests))
		t := p.cat.LabTests[idx]
		code := t.Code
		if suffix != "" {
			code = fmt.Sprintf("%s-%d", t.Code, i/len(p.cat.LabTests)+1)
		}
		out = append(out, p.row(store.Record{
			"test_name":    t.Name + suffix,
			"test_code":    code,
			"price":        t.Price,
			"normal_range": t.NormalRange,
		}))
	}
	return out
}

func (p *Producer) Inventory(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		idx, suffix := cycle(i, len(p.cat.Inventory))
		item := p.cat.Inventory[idx]
		out = append(out, p.row(store.Record{
			"item_name":     item.Name + suffix,
			"category":      item.Category,
			"quantity":      item.Quantity,
			"unit":          item.Unit,
			"purchase_date": item.AcquiredOn,
		}))
	}
	return out
}

func (p *Producer) Wards(n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		idx, suffix := cycle(i, len(p.cat.Wards))
		w := p.cat.Wards[idx]
		out = append(out, p.row(store.Record{
			"name":       w.Name + suffix,
			"ward_type":  w.Type,
			"total_beds": w.TotalBeds,
		}))
	}
	return out
}

func BedNumber(wardOrdinal, bed int) string {
	return fmt.Sprintf("W%d-B%d", wardOrdinal, bed)
}

// Beds yields total_beds rows for every ward seeded in this run. Bed type
// follows the ward type.
func (p *Producer) Beds(rc *RunContext) ([]store.Record, error) {
	wardIDs := rc.IDs(Ward)
	wards := rc.Records(Ward)
	ordinals := rc.Ordinals(Ward)
	if len(wardIDs) != len(wards) || len(ordinals) != len(wards) {
		return nil, fmt.Errorf("ward ids and records out of step (%d vs %d)", len(wardIDs), len(wards))
	}

	var out []store.Record
	for w, ward := range wards {
		capacity, ok := ward["total_beds"].(int)
		if !ok {
			return nil, fmt.Errorf("ward %d has no usable total_beds", w+1)
		}
		for j := 1; j <= capacity; j++ {
			status := "occupied"
			if p.src.Float64() < p.params.BedAvailability {
				status = "available"
			}
			out = append(out, p.row(store.Record{
				"ward_id":    wardIDs[w],
				"bed_number": BedNumber(ordinals[w], j),
				"bed_type":   ward["ward_type"],
				"status":     status,
			}))
		}
	}
	return out, nil
}

func (p *Producer) Appointments(rc *RunContext, patient, doctor Relation, n int) []store.Record {
	today := time.Date(p.now.Year(), p.now.Month(), p.now.Day(), 0, 0, 0, 0, p.now.Location())
	window := p.params.AppointmentWindowDays
	hours := p.params.LastHour - p.params.FirstHour + 1

	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		offset := p.src.Intn(2*window+1) - window
		hour := p.params.FirstHour + p.src.Intn(hours)
		status := "scheduled"
		if offset < 0 {
			status = pick(p.src, appointmentPastStatuses)
		}
		out = append(out, p.row(store.Record{
			patient.Column:     rc.Ref(patient, i),
			doctor.Column:      rc.Ref(doctor, i),
			"appointment_date": today.AddDate(0, 0, offset).Format(dateLayout),
			"appointment_time": fmt.Sprintf("%02d:00:00", hour),
			"token_number":     i + 1,
			"reason":           pick(p.src, p.cat.AppointmentReasons),
			"status":           status,
		}))
	}
	return out
}

func (p *Producer) LabBookings(rc *RunContext, patient, test, doctor Relation, n int) []store.Record {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		status := pick(p.src, labStatuses)
		var result interface{}
		if status == "completed" {
			result = labResult
		}
		out = append(out, p.row(store.Record{
			patient.Column: rc.Ref(patient, i),
			test.Column:    rc.Ref(test, i),
			doctor.Column:  rc.Ref(doctor, i),
			"status":       status,
			"result_value": result,
		}))
	}
	return out
}

// BillNumber is the prefix plus the running counter, zero-padded to four
// digits.
func (p *Producer) BillNumber(i int) string {
	return fmt.Sprintf("%s%04d", p.params.BillPrefix, p.params.BillBase+i)
}

// Tax is rate applied to (total - discount), rounded to cents.
func Tax(total, discount, rate float64) float64 {
	return math.Round((total-discount)*rate*100) / 100
}

func (p *Producer) Billing(rc *RunContext, patient Relation, n int) ([]store.Record, error) {
	items, err := json.Marshal(p.cat.BillingItems)
	if err != nil {
		return nil, fmt.Errorf("failed to encode billing items: %w", err)
	}
	total := p.cat.BillTotal()
	span := p.params.DiscountMax - p.params.DiscountMin

	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		discount := float64(p.params.DiscountMin + p.src.Intn(span))
		out = append(out, p.row(store.Record{
			patient.Column:   rc.Ref(patient, i),
			"bill_number":    p.BillNumber(i),
			"items":          string(items),
			"total_amount":   total,
			"discount":       discount,
			"tax":            Tax(total, discount, p.params.TaxRate),
			"payment_method": pick(p.src, paymentMethods),
			"payment_status": pick(p.src, paymentStatuses),
		}))
	}
	return out, nil
}

func (p *Producer) vitals() Vitals {
	return Vitals{
		BP:          "120/80",
		Pulse:       72 + p.src.Intn(20),
		Temperature: math.Round((98+p.src.Float64()*2)*10) / 10,
		Oxygen:      95 + p.src.Intn(5),
	}
}

// EmergencyCases assigns complaints by position so the first
// len(Complaints) cases are all distinct.
func (p *Producer) EmergencyCases(rc *RunContext, patient Relation, n int) ([]store.Record, error) {
	out := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		severity := pick(p.src, severities)
		status := pick(p.src, emergencyStatuses)
		vitals, err := json.Marshal(p.vitals())
		if err != nil {
			return nil, fmt.Errorf("failed to encode vital signs: %w", err)
		}
		out = append(out, p.row(store.Record{
			patient.Column: rc.Ref(patient, i),
			"complaint":    p.cat.Complaints[i%len(p.cat.Complaints)],
			"severity":     severity,
			"vital_signs":  string(vitals),
			"status":       status,
		}))
	}
	return out, nil
}
