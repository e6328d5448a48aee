package seeder

import (
	"errors"
	"fmt"
)

// Params tunes generated rows.
type Params struct {
	BedAvailability       float64 // Probability a bed is "available"
	AppointmentWindowDays int     // Appointment dates fall within ±window days
	FirstHour             int
	LastHour              int // Inclusive
	BillPrefix            string
	BillBase              int
	TaxRate               float64
	DiscountMin           int
	DiscountMax           int // Exclusive
}

func DefaultParams() Params {
	return Params{
		BedAvailability:       0.7,
		AppointmentWindowDays: 15,
		FirstHour:             9,
		LastHour:              17,
		BillPrefix:            "BILL",
		BillBase:              1001,
		TaxRate:               0.05,
		DiscountMin:           0,
		DiscountMax:           100,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.BedAvailability < 0 || p.BedAvailability > 1 {
		errs = append(errs, fmt.Errorf("bed availability %.2f must be within [0,1]", p.BedAvailability))
	}
	if p.AppointmentWindowDays < 0 {
		errs = append(errs, fmt.Errorf("appointment window %d cannot be negative", p.AppointmentWindowDays))
	}
	if p.FirstHour < 0 || p.LastHour > 23 || p.FirstHour > p.LastHour {
		errs = append(errs, fmt.Errorf("appointment hours %d..%d are not a valid range", p.FirstHour, p.LastHour))
	}
	if p.BillBase < 0 {
		errs = append(errs, fmt.Errorf("bill base %d cannot be negative", p.BillBase))
	}
	if p.TaxRate < 0 || p.TaxRate > 1 {
		errs = append(errs, fmt.Errorf("tax rate %.2f must be within [0,1]", p.TaxRate))
	}
	if p.DiscountMin < 0 || p.DiscountMax <= p.DiscountMin {
		errs = append(errs, fmt.Errorf("discount range [%d,%d) is empty", p.DiscountMin, p.DiscountMax))
	}
	return errors.Join(errs...)
}
