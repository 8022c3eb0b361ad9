package validator

import "testing"

type topupForm struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Method string `json:"method" validate:"required,topup_method"`
}

type verdictForm struct {
	Verdict string `json:"verdict" validate:"required,verdict"`
}

type roleForm struct {
	Role string `json:"role" validate:"required,role"`
}

func TestValidateTopUpMethod(t *testing.T) {
	if errs := Validate(topupForm{Amount: 100, Method: "gcash"}); errs != nil {
		t.Fatalf("expected valid form, got %v", errs)
	}

	errs := Validate(topupForm{Amount: 100, Method: "cash"})
	if errs == nil {
		t.Fatal("expected validation error for unknown method")
	}
	if _, ok := errs["method"]; !ok {
		t.Fatalf("expected error keyed by json tag, got %v", errs)
	}
}

func TestValidateAmountPositive(t *testing.T) {
	errs := Validate(topupForm{Amount: 0, Method: "bank"})
	if errs == nil {
		t.Fatal("expected validation error for zero amount")
	}
	if _, ok := errs["amount"]; !ok {
		t.Fatalf("expected amount error, got %v", errs)
	}

	if errs := Validate(topupForm{Amount: -5, Method: "bank"}); errs == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestValidateVerdict(t *testing.T) {
	for _, v := range []string{"approved", "rejected"} {
		if errs := Validate(verdictForm{Verdict: v}); errs != nil {
			t.Fatalf("expected %q to be valid, got %v", v, errs)
		}
	}

	if errs := Validate(verdictForm{Verdict: "pending"}); errs == nil {
		t.Fatal("expected validation error for pending verdict")
	}
}

func TestValidateRole(t *testing.T) {
	for _, r := range []string{"client", "staff", "admin"} {
		if errs := Validate(roleForm{Role: r}); errs != nil {
			t.Fatalf("expected %q to be valid, got %v", r, errs)
		}
	}

	if errs := Validate(roleForm{Role: "superuser"}); errs == nil {
		t.Fatal("expected validation error for unknown role")
	}
}
