// Package catalog holds the reference data the seeder draws rows from.
// The engine never hard-codes names or prices; it reads them from a
// Catalog, which defaults to the embedded default.yaml.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

const dateLayout = "2006-01-02"

// WardTypes are the ward categories beds inherit.
var WardTypes = []string{"general", "icu", "private", "semi-private"}

type Department struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Patient struct {
	Name                 string `yaml:"name"`
	Age                  int    `yaml:"age"`
	Gender               string `yaml:"gender"`
	Phone                string `yaml:"phone"`
	Email                string `yaml:"email"`
	Address              string `yaml:"address"`
	BloodGroup           string `yaml:"blood_group"`
	EmergencyContact     string `yaml:"emergency_contact"`
	EmergencyContactName string `yaml:"emergency_contact_name"`
	MedicalHistory       string `yaml:"medical_history"`
}

type Doctor struct {
	Name            string  `yaml:"name"`
	Specialization  string  `yaml:"specialization"`
	Qualification   string  `yaml:"qualification"`
	Phone           string  `yaml:"phone"`
	Email           string  `yaml:"email"`
	ExperienceYears int     `yaml:"experience_years"`
	Fee             float64 `yaml:"fee"`
}

type Medicine struct {
	Name         string  `yaml:"name"`
	GenericName  string  `yaml:"generic_name"`
	Manufacturer string  `yaml:"manufacturer"`
	ExpiryDate   string  `yaml:"expiry_date"`
	Quantity     int     `yaml:"quantity"`
	UnitPrice    float64 `yaml:"unit_price"`
	ReorderLevel int     `yaml:"reorder_level"`
}

// Expiry parses ExpiryDate.
func (m Medicine) Expiry() (time.Time, error) {
	return time.Parse(dateLayout, m.ExpiryDate)
}

type LabTest struct {
	Name        string  `yaml:"name"`
	Code        string  `yaml:"code"`
	Price       float64 `yaml:"price"`
	NormalRange string  `yaml:"normal_range"`
}

type InventoryItem struct {
	Name       string `yaml:"name"`
	Category   string `yaml:"category"`
	Quantity   int    `yaml:"quantity"`
	Unit       string `yaml:"unit"`
	AcquiredOn string `yaml:"acquired_on"`
}

func (i InventoryItem) Acquired() (time.Time, error) {
	return time.Parse(dateLayout, i.AcquiredOn)
}

type Ward struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	TotalBeds int    `yaml:"total_beds"`
}

// LineItem is one billed service. Quantity times Price is its subtotal.
type LineItem struct {
	Name     string  `yaml:"name" json:"name"`
	Quantity int     `yaml:"quantity" json:"quantity"`
	Price    float64 `yaml:"price" json:"price"`
}

func (l LineItem) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

type Catalog struct {
	Departments        []Department    `yaml:"departments"`
	Patients           []Patient       `yaml:"patients"`
	Doctors            []Doctor        `yaml:"doctors"`
	Medicines          []Medicine      `yaml:"medicines"`
	LabTests           []LabTest       `yaml:"lab_tests"`
	Inventory          []InventoryItem `yaml:"inventory"`
	Wards              []Ward          `yaml:"wards"`
	AppointmentReasons []string        `yaml:"appointment_reasons"`
	Complaints         []string        `yaml:"complaints"`
	BillingItems       []LineItem      `yaml:"billing_items"`
	BloodGroups        []string        `yaml:"blood_groups"`
}

// Default returns a fresh copy of the embedded catalog.
func Default() *Catalog {
	cat, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return cat
}

// Load reads a catalog file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks the fields generation depends on. Empty sections are
// allowed; the seeder reports them when a non-zero count needs them.
func (c *Catalog) Validate() error {
	for i, w := range c.Wards {
		if w.TotalBeds < 0 {
			return fmt.Errorf("ward %d (%s): total_beds cannot be negative", i+1, w.Name)
		}
		if !isWardType(w.Type) {
			return fmt.Errorf("ward %d (%s): unknown type %q, expected one of %v", i+1, w.Name, w.Type, WardTypes)
		}
	}
	for i, m := range c.Medicines {
		if _, err := m.Expiry(); err != nil {
			return fmt.Errorf("medicine %d (%s): invalid expiry_date %q", i+1, m.Name, m.ExpiryDate)
		}
	}
	for i, item := range c.Inventory {
		if _, err := item.Acquired(); err != nil {
			return fmt.Errorf("inventory item %d (%s): invalid acquired_on %q", i+1, item.Name, item.AcquiredOn)
		}
	}
	for i, l := range c.BillingItems {
		if l.Quantity <= 0 || l.Price < 0 {
			return fmt.Errorf("billing item %d (%s): quantity must be positive and price non-negative", i+1, l.Name)
		}
	}
	return nil
}

// BillTotal sums the billing line items.
func (c *Catalog) BillTotal() float64 {
	var total float64
	for _, l := range c.BillingItems {
		total += l.Subtotal()
	}
	return total
}

// TotalBeds sums ward capacities.
func (c *Catalog) TotalBeds() int {
	total := 0
	for _, w := range c.Wards {
		total += w.TotalBeds
	}
	return total
}

func isWardType(t string) bool {
	for _, wt := range WardTypes {
		if wt == t {
			return true
		}
	}
	return false
}
