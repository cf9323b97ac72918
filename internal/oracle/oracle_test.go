package oracle

import "testing"

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(e Event) { s.events = append(s.events, e) }

func (s *recordingSink) names() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name
	}
	return out
}

func TestRegisterRejectsInsufficientStake(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 999, 0); err == nil {
		t.Fatal("expected InsufficientStake")
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(authority, vrfKey, 1000, 0); err == nil {
		t.Fatal("expected OracleAlreadyRegistered")
	}
}

func TestDeactivateByAuthorityOrAdmin(t *testing.T) {
	var admin, authority, vrfKey, stranger [32]byte
	stranger[0] = 0xFF
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Deactivate(stranger, authority); err == nil {
		t.Fatal("expected Unauthorized for a non-owner, non-admin caller")
	}
	if err := r.Deactivate(authority, authority); err != nil {
		t.Fatalf("self-deactivate: %v", err)
	}
	o, ok := r.Get(authority)
	if !ok || o.IsActive {
		t.Fatal("expected oracle to be inactive")
	}
}

func TestRotateRespectsSchedule(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := r.Rotate(50); err == nil {
		t.Fatal("expected RotationNotDue")
	}
	active, err := r.Rotate(100)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if len(active) != 1 || active[0] != authority {
		t.Fatalf("active set = %v, want [%x]", active, authority)
	}
	if r.LastRotation != 100 {
		t.Fatalf("last_rotation = %d, want 100", r.LastRotation)
	}
}

// TestOracleReputationScenario registers an oracle and applies two
// reputation updates, checking the recomputed reputation after each.
func TestOracleReputationScenario(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1001, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.UpdateReputation(admin, authority, 9, 1, 0); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	o, _ := r.Get(authority)
	if o.Reputation != 90 {
		t.Fatalf("reputation = %d, want 90 (100*9/10)", o.Reputation)
	}

	if err := r.UpdateReputation(admin, authority, 0, 9, 0); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	o, _ = r.Get(authority)
	if o.Reputation != 47 {
		t.Fatalf("reputation = %d, want 47 (100*9/19)", o.Reputation)
	}
}

func TestUpdateReputationIsAdminOnly(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	authority[0] = 0x01
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.UpdateReputation(authority, authority, 1, 0, 0); err == nil {
		t.Fatal("expected InvalidAdmin for a non-admin caller")
	}
}

func TestReputationCountersMonotone(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, nil)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.UpdateReputation(admin, authority, 3, 2, 0); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	o1, _ := r.Get(authority)
	if err := r.UpdateReputation(admin, authority, 1, 1, 0); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	o2, _ := r.Get(authority)
	if o2.FulfillmentCount+o2.FailureCount < o1.FulfillmentCount+o1.FailureCount {
		t.Fatal("fulfillment+failure counters must be monotone non-decreasing")
	}
	if o2.Reputation > MaxReputation {
		t.Fatalf("reputation %d exceeds ceiling %d", o2.Reputation, MaxReputation)
	}
}

// TestRegistryEmitsLifecycleEvents exercises the full
// initialize/register/deactivate/rotate/update-reputation cycle and checks
// every required event fires exactly once in order.
func TestRegistryEmitsLifecycleEvents(t *testing.T) {
	sink := &recordingSink{}
	var admin, authority, vrfKey [32]byte
	r := Initialize(admin, 1000, 100, 0, sink)
	if err := r.Register(authority, vrfKey, 1000, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.UpdateReputation(admin, authority, 1, 0, 0); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	if _, err := r.Rotate(100); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := r.Deactivate(admin, authority); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	want := []string{
		"OracleRegistryInitialized",
		"OracleRegistered",
		"OracleReputationUpdated",
		"OraclesRotated",
		"OracleDeactivated",
	}
	got := sink.names()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("event[%d] = %q, want %q", i, got[i], name)
		}
	}
}
