package http

import (
	"errors"
	"testing"
)

func TestRoleValidation(t *testing.T) {
	type P struct {
		Role string `validate:"role"`
	}
	cv := NewValidator()

	for _, s := range []string{"borrower", "lender"} {
		if err := cv.Validate(P{Role: s}); err != nil {
			t.Fatalf("expected role OK for %q, got %v", s, err)
		}
	}
	for _, s := range []string{"", "Lender", "investor"} {
		err := cv.Validate(P{Role: s})
		if err == nil {
			t.Fatalf("expected role error for %q", s)
		}
		if !containsFieldMsg(ToFieldErrors(err), "Role", "borrower or lender") {
			t.Fatalf("expected role message for %q, got %+v", s, ToFieldErrors(err))
		}
	}
}

func TestRateRangeValidation(t *testing.T) {
	type P struct {
		Range string `validate:"raterange"`
	}
	cv := NewValidator()

	for _, s := range []string{"12-15", "12.5", "12,5 - 15%", "0-0"} {
		if err := cv.Validate(P{Range: s}); err != nil {
			t.Fatalf("expected raterange OK for %q, got %v", s, err)
		}
	}
	for _, s := range []string{"", "abc", "15-12", "-3", "1-2-3"} {
		err := cv.Validate(P{Range: s})
		if err == nil {
			t.Fatalf("expected raterange error for %q", s)
		}
		if !containsFieldMsg(ToFieldErrors(err), "Range", "rate or range") {
			t.Fatalf("expected raterange message for %q, got %+v", s, ToFieldErrors(err))
		}
	}
}

func TestDec2Validation(t *testing.T) {
	type P struct {
		Amount *float64 `validate:"omitempty,dec2"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{}); err != nil {
		t.Fatalf("nil amount must be skipped, got %v", err)
	}
	for _, v := range []float64{1.29, 2.00, 0.9, 10000} {
		v := v
		if err := cv.Validate(P{Amount: &v}); err != nil {
			t.Fatalf("expected dec2 OK for %v, got %v", v, err)
		}
	}
	for _, v := range []float64{1.234, 2.9999} {
		v := v
		err := cv.Validate(P{Amount: &v})
		if err == nil {
			t.Fatalf("expected dec2 error for %v", v)
		}
		if !containsFieldMsg(ToFieldErrors(err), "Amount", "at most 2 decimal places") {
			t.Fatalf("expected 'at most 2 decimal places' for %v, got %+v", v, ToFieldErrors(err))
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name string `validate:"required"`
		Min  int    `validate:"gte=10"`
		Max  int    `validate:"lte=5"`
		ID   uint64 `validate:"gt=0"`
	}
	cv := NewValidator()

	err := cv.Validate(P{Name: "", Min: 9, Max: 6})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	if !containsFieldMsg(fe, "Min", "greater than or equal to 10") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	if !containsFieldMsg(fe, "ID", "greater than 0") {
		t.Fatalf("missing gt message for ID: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
