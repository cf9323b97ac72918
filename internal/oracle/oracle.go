// Package oracle implements the staked-oracle registry: registration, stake
// accounting, reputation, and rotation schedule.
package oracle

import (
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

// MaxReputation is the ceiling on Oracle.Reputation.
const MaxReputation = 10_000

// Event is a structured, self-describing record emitted for every registry
// state-change: OracleRegistryInitialized, OracleRegistered,
// OracleDeactivated, OraclesRotated, OracleReputationUpdated.
type Event struct {
	Name    string
	Payload interface{}
}

// EventSink receives emitted events. Implementations must not block.
type EventSink interface {
	Emit(Event)
}

// NullEventSink discards every event.
type NullEventSink struct{}

func (NullEventSink) Emit(Event) {}

// Oracle is a registered, staked VRF signer.
type Oracle struct {
	Authority        [32]byte
	VrfKey           [32]byte
	StakeAmount      uint64
	Reputation       uint32
	LastActive       int64
	IsActive         bool
	FulfillmentCount uint64
	FailureCount     uint64
}

// Registry tracks every registered oracle and the staking/rotation policy
// governing them.
type Registry struct {
	Admin             [32]byte
	OracleCount       uint32
	MinStake          uint64
	RotationFrequency uint64
	LastRotation      uint64

	oracles map[[32]byte]*Oracle
	sink    EventSink
}

// SetEventSink replaces the registry's event sink. Restore leaves a
// Registry on NullEventSink{} since reconstructing from persisted state is
// not itself a lifecycle event; callers that want live events after a
// restore call this before serving traffic.
func (r *Registry) SetEventSink(sink EventSink) {
	if sink == nil {
		sink = NullEventSink{}
	}
	r.sink = sink
}

func (r *Registry) emit(name string, payload interface{}) {
	if r.sink != nil {
		r.sink.Emit(Event{Name: name, Payload: payload})
	}
}

// Initialize stores the admin and staking/rotation policy and emits
// OracleRegistryInitialized on sink.
func Initialize(admin [32]byte, minStake, rotationFrequency uint64, currentSlot uint64, sink EventSink) *Registry {
	if sink == nil {
		sink = NullEventSink{}
	}
	r := &Registry{
		Admin:             admin,
		MinStake:          minStake,
		RotationFrequency: rotationFrequency,
		LastRotation:      currentSlot,
		oracles:           make(map[[32]byte]*Oracle),
		sink:              sink,
	}
	r.emit("OracleRegistryInitialized", struct {
		Admin             [32]byte
		MinStake          uint64
		RotationFrequency uint64
	}{admin, minStake, rotationFrequency})
	return r
}

// Register enrolls a new oracle under authority with the given vrf_key and stake.
func (r *Registry) Register(authority, vrfKey [32]byte, stakeAmount uint64, currentSlot int64) error {
	if stakeAmount < r.MinStake {
		return errs.E(errs.InsufficientStake, "oracle.Register", nil)
	}
	if _, exists := r.oracles[authority]; exists {
		return errs.E(errs.OracleAlreadyRegistered, "oracle.Register", nil)
	}
	r.oracles[authority] = &Oracle{
		Authority:   authority,
		VrfKey:      vrfKey,
		StakeAmount: stakeAmount,
		Reputation:  0,
		LastActive:  currentSlot,
		IsActive:    true,
	}
	r.OracleCount++
	r.emit("OracleRegistered", struct {
		Authority   [32]byte
		VrfKey      [32]byte
		StakeAmount uint64
	}{authority, vrfKey, stakeAmount})
	return nil
}

// Deactivate removes authority from the active set. Callable by the oracle
// itself or the admin.
func (r *Registry) Deactivate(caller, authority [32]byte) error {
	o, ok := r.oracles[authority]
	if !ok {
		return errs.E(errs.InvalidOracleAuthority, "oracle.Deactivate", nil)
	}
	if caller != authority && caller != r.Admin {
		return errs.E(errs.Unauthorized, "oracle.Deactivate", nil)
	}
	o.IsActive = false
	r.emit("OracleDeactivated", struct {
		Authority [32]byte
		Caller    [32]byte
	}{authority, caller})
	return nil
}

// Rotate updates last_rotation, preconditioned on the rotation interval
// having elapsed. The selection policy itself ("all active oracles") is
// out of the core's concern; Rotate returns the currently-active
// authorities as the selected subset.
func (r *Registry) Rotate(currentSlot uint64) ([][32]byte, error) {
	if currentSlot < r.LastRotation+r.RotationFrequency {
		return nil, errs.E(errs.RotationNotDue, "oracle.Rotate", nil)
	}
	r.LastRotation = currentSlot
	var active [][32]byte
	for _, o := range r.oracles {
		if o.IsActive {
			active = append(active, o.Authority)
		}
	}
	r.emit("OraclesRotated", struct {
		Selected     [][32]byte
		LastRotation uint64
	}{active, currentSlot})
	return active, nil
}

// UpdateReputation is admin-only; recomputes reputation from the running
// success/failure counters:
//
//	reputation = min(10_000, 100*fulfillments/(fulfillments+failures))
func (r *Registry) UpdateReputation(caller, authority [32]byte, successes, failures uint64, currentSlot int64) error {
	if caller != r.Admin {
		return errs.E(errs.InvalidAdmin, "oracle.UpdateReputation", nil)
	}
	o, ok := r.oracles[authority]
	if !ok {
		return errs.E(errs.InvalidOracleAuthority, "oracle.UpdateReputation", nil)
	}
	o.FulfillmentCount += successes
	o.FailureCount += failures
	total := o.FulfillmentCount + o.FailureCount
	if total > 0 {
		rep := 100 * o.FulfillmentCount / total
		if rep > MaxReputation {
			rep = MaxReputation
		}
		o.Reputation = uint32(rep)
	}
	o.LastActive = currentSlot
	r.emit("OracleReputationUpdated", struct {
		Authority        [32]byte
		Reputation       uint32
		FulfillmentCount uint64
		FailureCount     uint64
	}{authority, o.Reputation, o.FulfillmentCount, o.FailureCount})
	return nil
}

// Get returns a defensive copy of the oracle registered under authority, or
// false if none exists.
func (r *Registry) Get(authority [32]byte) (Oracle, bool) {
	o, ok := r.oracles[authority]
	if !ok {
		return Oracle{}, false
	}
	return *o, true
}

// IsActiveKey reports whether vrfKey belongs to a currently-active oracle,
// used to optionally enforce "public_key must match a registered
// active oracle's vrf_key" precondition.
func (r *Registry) IsActiveKey(vrfKey [32]byte) bool {
	for _, o := range r.oracles {
		if o.IsActive && o.VrfKey == vrfKey {
			return true
		}
	}
	return false
}

// All returns a defensive copy of every registered oracle, for persistence.
func (r *Registry) All() []Oracle {
	out := make([]Oracle, 0, len(r.oracles))
	for _, o := range r.oracles {
		out = append(out, *o)
	}
	return out
}

// Restore reconstructs a Registry from persisted oracle records. It starts
// on NullEventSink{}; call SetEventSink to wire one before serving traffic,
// since reconstruction is not itself a new OracleRegistryInitialized event.
func Restore(admin [32]byte, minStake, rotationFrequency, lastRotation uint64, oracles []Oracle) *Registry {
	r := &Registry{
		Admin:             admin,
		MinStake:          minStake,
		RotationFrequency: rotationFrequency,
		LastRotation:      lastRotation,
		oracles:           make(map[[32]byte]*Oracle, len(oracles)),
		sink:              NullEventSink{},
	}
	for i := range oracles {
		o := oracles[i]
		r.oracles[o.Authority] = &o
	}
	r.OracleCount = uint32(len(oracles))
	return r
}
