package subscription

import "testing"

func fp(b byte) Fingerprint {
	var f Fingerprint
	f[0] = b
	return f
}

func TestCreateValidatesConfirmations(t *testing.T) {
	var id, owner [32]byte
	if _, err := Create(id, owner, 1_000_000, 0, 10); err == nil {
		t.Fatal("expected error for confirmations=0")
	}
	if _, err := Create(id, owner, 1_000_000, 1, 10); err != nil {
		t.Fatalf("confirmations=1 should succeed: %v", err)
	}
	if _, err := Create(id, owner, 1_000_000, 255, 10); err != nil {
		t.Fatalf("confirmations=255 should succeed: %v", err)
	}
}

func TestCreateValidatesMaxRequests(t *testing.T) {
	var id, owner [32]byte
	if _, err := Create(id, owner, 1_000_000, 1, 0); err == nil {
		t.Fatal("expected error for max_requests=0")
	}
	if _, err := Create(id, owner, 1_000_000, 1, 101); err == nil {
		t.Fatal("expected error for max_requests=101")
	}
}

func TestFundAccumulatesAndRejectsZero(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 1_000_000, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fund(0); err == nil {
		t.Fatal("expected error funding zero")
	}
	if err := s.Fund(5_000_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if s.Balance != 5_000_000 {
		t.Fatalf("balance = %d, want 5_000_000", s.Balance)
	}
}

func TestReserveForRequestHappyPath(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 1_000_000, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fund(5_000_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if err := s.ReserveForRequest(fp(1)); err != nil {
		t.Fatalf("ReserveForRequest: %v", err)
	}
	if s.Balance != 4_000_000 {
		t.Fatalf("balance = %d, want 4_000_000", s.Balance)
	}
	if s.ActiveRequests != 1 {
		t.Fatalf("active_requests = %d, want 1", s.ActiveRequests)
	}
	if len(s.RequestKeys) != 1 {
		t.Fatalf("request_keys len = %d, want 1", len(s.RequestKeys))
	}
	if s.RequestCounter != 1 {
		t.Fatalf("request_counter = %d, want 1", s.RequestCounter)
	}
}

func TestReserveForRequestInsufficientFunds(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 1_000_000, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.ReserveForRequest(fp(1)); err == nil {
		t.Fatal("expected InsufficientFunds")
	}
}

func TestReserveForRequestTooManyRequests(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 0, 1, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.ReserveForRequest(fp(1)); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := s.ReserveForRequest(fp(2)); err == nil {
		t.Fatal("expected TooManyRequests on second reserve with max_requests=1")
	}
}

func TestReleaseOnFulfillmentMaintainsInvariant(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 1_000_000, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fund(5_000_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if err := s.ReserveForRequest(fp(1)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	s.ReleaseOnFulfillment(fp(1))
	if s.ActiveRequests != 0 {
		t.Fatalf("active_requests = %d, want 0", s.ActiveRequests)
	}
	if len(s.RequestKeys) != int(s.ActiveRequests) {
		t.Fatalf("invariant violated: active_requests=%d, len(request_keys)=%d", s.ActiveRequests, len(s.RequestKeys))
	}
}

func TestRefundOnCancelReturnsBalance(t *testing.T) {
	var id, owner [32]byte
	s, err := Create(id, owner, 1_000_000, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fund(5_000_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if err := s.ReserveForRequest(fp(1)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	s.RefundOnCancel(fp(1))
	if s.Balance != 5_000_000 {
		t.Fatalf("balance = %d, want 5_000_000", s.Balance)
	}
	if s.ActiveRequests != 0 {
		t.Fatalf("active_requests = %d, want 0", s.ActiveRequests)
	}
}
