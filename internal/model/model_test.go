package model

import "testing"

func TestCartTotal_FlooredAtZero(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{Product: Product{Price: 20000}, Quantity: 2},
			{Product: Product{Price: 5000}, Quantity: 1},
		},
	}
	if got := cart.Subtotal(); got != 45000 {
		t.Fatalf("subtotal = %v", got)
	}

	cart.DiscountAmount = 10000
	if got := cart.Total(); got != 35000 {
		t.Fatalf("total = %v", got)
	}

	cart.DiscountAmount = 100000
	if got := cart.Total(); got != 0 {
		t.Fatalf("total must not go negative, got %v", got)
	}
}

func TestOrderStatus_OnlyPendingCancellable(t *testing.T) {
	if !OrderPending.Cancellable() {
		t.Fatal("pending must be cancellable")
	}
	for _, s := range []OrderStatus{OrderProcessing, OrderCompleted, OrderCancelled} {
		if s.Cancellable() {
			t.Fatalf("%s must not be cancellable", s)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"customer":    RoleCustomer,
		"Distributor": RoleDistributor,
		"ADMIN":       RoleAdmin,
		"superuser":   RoleAnonymous,
		"":            RoleAnonymous,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPaymentOutcome_ZeroValueIsIndeterminate(t *testing.T) {
	var o PaymentOutcome
	if o != PaymentIndeterminate || o.String() != "indeterminate" {
		t.Fatalf("zero value = %s", o)
	}
	if PaymentSucceeded.String() != "succeeded" || PaymentCancelled.String() != "cancelled" {
		t.Fatal("outcome strings diverged")
	}
}
