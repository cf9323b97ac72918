package store

import (
	"bytes"
	"testing"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

func TestSubscriptionRecordRoundTrip(t *testing.T) {
	var id, owner [32]byte
	id[0] = 1
	owner[0] = 2
	sub, err := subscription.Create(id, owner, 1000, 3, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sub.AddPool(5); err != nil {
		t.Fatalf("AddPool: %v", err)
	}
	if err := sub.Fund(5000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	var fp subscription.Fingerprint
	fp[0] = 9
	if err := sub.ReserveForRequest(fp); err != nil {
		t.Fatalf("ReserveForRequest: %v", err)
	}

	data := EncodeSubscription(sub)
	var gotDiscriminator [8]byte
	copy(gotDiscriminator[:], data[:8])
	if gotDiscriminator != DiscriminatorSubscription {
		t.Fatalf("discriminator = %q, want %q", gotDiscriminator, DiscriminatorSubscription)
	}

	got, err := DecodeSubscription(data)
	if err != nil {
		t.Fatalf("DecodeSubscription: %v", err)
	}
	if got.ID != sub.ID || got.Owner != sub.Owner || got.Balance != sub.Balance {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, sub)
	}
	if len(got.RequestKeys) != 1 || got.RequestKeys[0] != fp {
		t.Fatalf("request keys did not round trip: %+v", got.RequestKeys)
	}
	if len(got.PoolIDs) != 1 || got.PoolIDs[0] != 5 {
		t.Fatalf("pool ids did not round trip: %+v", got.PoolIDs)
	}
}

func TestDecodeSubscriptionRejectsWrongDiscriminator(t *testing.T) {
	data := make([]byte, 64)
	copy(data, DiscriminatorPool[:])
	if _, err := DecodeSubscription(data); err == nil {
		t.Fatal("expected an error for mismatched discriminator")
	}
}

func TestPoolRecordRoundTrip(t *testing.T) {
	var subID [32]byte
	subID[0] = 7
	p, err := pool.New(subID, 3, 10)
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	idx := p.NextIndex()
	if err := p.Add(idx, pool.RequestSummary{
		RequestSlot:      100,
		CallbackGasLimit: 50_000,
		Status:           pool.Pending,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	p.CleanExpired(100+pool.DefaultExpirySlots+1, pool.DefaultExpirySlots)

	data := EncodePool(p)
	got, err := DecodePool(data)
	if err != nil {
		t.Fatalf("DecodePool: %v", err)
	}
	if got.SubscriptionID != p.SubscriptionID || got.PoolID != p.PoolID || got.MaxSize != p.MaxSize {
		t.Fatalf("pool header mismatch: got %+v", got)
	}
	if got.RequestCount() != p.RequestCount() {
		t.Fatalf("request count mismatch: got %d want %d", got.RequestCount(), p.RequestCount())
	}
	summary, err := got.Find(idx)
	if err != nil {
		t.Fatalf("Find after round trip: %v", err)
	}
	if summary.Status != pool.Expired {
		t.Fatalf("expected the summary to have been persisted as Expired, got %v", summary.Status)
	}
	if got.NextIndex() != p.NextIndex() {
		t.Fatalf("NextIndex mismatch after round trip: got %d want %d", got.NextIndex(), p.NextIndex())
	}
}

func TestOracleRegistryRecordRoundTrip(t *testing.T) {
	var admin, authority, vrfKey [32]byte
	admin[0] = 1
	authority[0] = 2
	vrfKey[0] = 3
	reg := oracle.Initialize(admin, 1000, 100, 0, nil)
	if err := reg.Register(authority, vrfKey, 2000, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.UpdateReputation(admin, authority, 9, 1, 1); err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}

	data := EncodeRegistry(reg)
	got, err := DecodeRegistry(data)
	if err != nil {
		t.Fatalf("DecodeRegistry: %v", err)
	}
	if got.Admin != reg.Admin || got.MinStake != reg.MinStake || got.OracleCount != reg.OracleCount {
		t.Fatalf("registry header mismatch: got %+v", got)
	}
	o, ok := got.Get(authority)
	if !ok {
		t.Fatal("expected the registered oracle to survive the round trip")
	}
	if o.Reputation != 90 {
		t.Fatalf("reputation = %d, want 90", o.Reputation)
	}
}

func TestRequestAndResultRecordRoundTrip(t *testing.T) {
	var subID, seed, requester, requestID [32]byte
	subID[0] = 1
	seed[0] = 2
	requester[0] = 3
	requestID[0] = 4

	req := &coordinator.RandomnessRequest{
		Subscription:     subID,
		Seed:             seed,
		Requester:        requester,
		CallbackData:     []byte("callback"),
		RequestSlot:      42,
		Status:           pool.Fulfilled,
		NumWords:         2,
		CallbackGasLimit: 50_000,
		PoolID:           1,
		RequestIndex:     0,
		RequestID:        requestID,
	}
	data := EncodeRequest(req)
	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if got.RequestID != req.RequestID || !bytes.Equal(got.CallbackData, req.CallbackData) || got.NumWords != req.NumWords {
		t.Fatalf("request round trip mismatch: got %+v", got)
	}

	res := &coordinator.VrfResult{
		Randomness: [][64]byte{{1, 2, 3}, {4, 5, 6}},
		ProofSlot:  42,
		RequestID:  requestID,
	}
	resData := EncodeResult(res)
	gotRes, err := DecodeResult(resData)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if gotRes.RequestID != res.RequestID || len(gotRes.Randomness) != 2 || gotRes.Randomness[0] != res.Randomness[0] {
		t.Fatalf("result round trip mismatch: got %+v", gotRes)
	}
}
