package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testUnits() (units, dozens, kg *entities.UoM) {
	units = &entities.UoM{ID: 1, Name: "Units", Category: "Unit", Ratio: dec("1"), Rounding: dec("0.01")}
	dozens = &entities.UoM{ID: 2, Name: "Dozens", Category: "Unit", Ratio: dec("12"), Rounding: dec("0.01")}
	kg = &entities.UoM{ID: 3, Name: "kg", Category: "Weight", Ratio: dec("1"), Rounding: dec("0.001")}
	return units, dozens, kg
}

func TestUoMService_ConvertQuantity(t *testing.T) {
	svc := NewUoMService()
	units, dozens, _ := testUnits()

	tests := []struct {
		name     string
		qty      string
		from     *entities.UoM
		to       *entities.UoM
		expected string
	}{
		{"same_unit", "7", units, units, "7"},
		{"dozens_to_units", "2", dozens, units, "24"},
		{"units_to_dozens", "24", units, dozens, "2"},
		{"rounds_up_to_target_precision", "5", units, dozens, "0.42"},
		{"negative_rounds_away_from_zero", "-5", units, dozens, "-0.42"},
		{"missing_source_unit", "3", nil, dozens, "3"},
		{"zero_quantity", "0", units, dozens, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ConvertQuantity(dec(tt.qty), tt.from, tt.to)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("ConvertQuantity(%s) = %s, want %s", tt.qty, got, tt.expected)
			}
		})
	}
}

func TestUoMService_ConvertQuantityErrors(t *testing.T) {
	svc := NewUoMService()
	units, _, kg := testUnits()

	_, err := svc.ConvertQuantity(dec("1"), units, kg)
	if !errors.Is(err, ErrIncompatibleUoM) {
		t.Errorf("Expected ErrIncompatibleUoM, got %v", err)
	}

	broken := &entities.UoM{ID: 9, Name: "Broken", Category: "Unit"}
	_, err = svc.ConvertQuantity(dec("1"), units, broken)
	if !errors.Is(err, entities.ErrInvalidUoM) {
		t.Errorf("Expected ErrInvalidUoM, got %v", err)
	}
}

func TestUoMService_ComputePackagingQty(t *testing.T) {
	svc := NewUoMService()
	units, dozens, _ := testUnits()
	product := &entities.Product{ID: 1, Name: "Bottle", UoM: units}
	box := &entities.Packaging{ID: 1, Name: "Box of 6", Product: product, Qty: dec("6")}

	tests := []struct {
		name      string
		qty       string
		uom       *entities.UoM
		packaging *entities.Packaging
		expected  string
	}{
		{"whole_boxes", "12", units, box, "2"},
		{"fractional_boxes", "10", units, box, "1.67"},
		{"converted_from_dozens", "1", dozens, box, "2"},
		{"no_packaging", "12", units, nil, "0"},
		{"empty_packaging", "12", units, &entities.Packaging{ID: 2, Product: product}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ComputePackagingQty(dec(tt.qty), tt.uom, tt.packaging)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("ComputePackagingQty(%s) = %s, want %s", tt.qty, got, tt.expected)
			}
		})
	}
}
