package kasir

import (
	"context"
	"errors"
	"testing"
)

func TestCreditValidateWithoutAccount(t *testing.T) {
	v := &CreditValidator{}

	// Tanpa akun terdaftar tidak ada limit utk dipakai.
	err := v.Validate(context.Background(), nil, nil, 50000)
	var ce *CreditLimitExceededError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v", err)
	}
	if ce.Remaining != 0 {
		t.Fatalf("sisa limit = %d, want 0", ce.Remaining)
	}
}

func TestCreditValidateZeroLimit(t *testing.T) {
	v := &CreditValidator{}
	acct := &LoyaltyAccount{CustomerID: "c1", CreditLimit: 0}

	err := v.Validate(context.Background(), nil, acct, 1)
	var ce *CreditLimitExceededError
	if !errors.As(err, &ce) {
		t.Fatalf("limit 0 harus ditolak, got %v", err)
	}
}
