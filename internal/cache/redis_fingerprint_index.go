// Package cache implements an optional Redis-backed side index layered over
// the subscription ledger's best-effort request_keys cleanup: a
// fingerprint -> request_id mapping. Configuring it switches
// coordinator.CleanExpired to releasing each expired request individually
// instead of decrementing active_requests by a bare count; the coordinator
// itself only calls Put and Delete, and Resolve is for other readers.
package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
)

// RedisFingerprintIndex implements coordinator.FingerprintIndex over a Redis
// client, keyed per subscription so unrelated subscriptions never collide.
type RedisFingerprintIndex struct {
	client *redis.Client
	ttl    time.Duration
}

var _ coordinator.FingerprintIndex = (*RedisFingerprintIndex)(nil)

// NewRedisFingerprintIndex builds an index over an existing client. ttl
// bounds entry lifetime so an index entry orphaned by a crash before
// Delete is called doesn't live forever; it should comfortably exceed the
// pool's expiry window. ttl <= 0 means "no expiration".
func NewRedisFingerprintIndex(client *redis.Client, ttl time.Duration) *RedisFingerprintIndex {
	return &RedisFingerprintIndex{client: client, ttl: ttl}
}

func fingerprintKey(subscriptionID [32]byte, fp [16]byte) string {
	return fmt.Sprintf("kamui_vrf:fp:%s:%s", hex.EncodeToString(subscriptionID[:]), hex.EncodeToString(fp[:]))
}

// Put records fp -> requestID for subscriptionID.
func (i *RedisFingerprintIndex) Put(ctx context.Context, subscriptionID [32]byte, fp [16]byte, requestID [32]byte) error {
	return i.client.Set(ctx, fingerprintKey(subscriptionID, fp), hex.EncodeToString(requestID[:]), i.ttl).Err()
}

// Delete removes the fp -> requestID mapping for subscriptionID.
func (i *RedisFingerprintIndex) Delete(ctx context.Context, subscriptionID [32]byte, fp [16]byte) error {
	return i.client.Del(ctx, fingerprintKey(subscriptionID, fp)).Err()
}

// Resolve returns the request id fp was last mapped to, if still present.
func (i *RedisFingerprintIndex) Resolve(ctx context.Context, subscriptionID [32]byte, fp [16]byte) ([32]byte, bool, error) {
	var out [32]byte
	val, err := i.client.Get(ctx, fingerprintKey(subscriptionID, fp)).Result()
	if err == redis.Nil {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	raw, err := hex.DecodeString(val)
	if err != nil || len(raw) != 32 {
		return out, false, fmt.Errorf("cache: corrupt fingerprint entry for %x", fp)
	}
	copy(out[:], raw)
	return out, true, nil
}
