package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"
)

// Trip list pages are cached under a version number. Every trip write bumps
// the version, so stale pages are never read again and expire on their own.

func (v *ValkeyClient) tripsVersion(ctx context.Context) (int64, error) {
	n, err := v.client.Do(ctx, v.client.B().Get().Key(v.key("trips", "version")).Build()).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// GetTripsList returns the cached JSON page for the query key together with
// the version it was looked up under. The version is returned on a miss too
// so the caller can store the page it builds without racing an invalidation.
func (v *ValkeyClient) GetTripsList(ctx context.Context, query string) ([]byte, int64, error) {
	version, err := v.tripsVersion(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read trips version: %w", err)
	}

	data, err := v.client.Do(ctx, v.client.B().Get().Key(v.tripsPageKey(version, query)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, version, ErrCacheMiss
		}
		return nil, version, fmt.Errorf("failed to read trips page: %w", err)
	}
	return data, version, nil
}

// SetTripsList stores a page under the version GetTripsList reported. A page
// built while trips changed lands under the old version and is never read.
func (v *ValkeyClient) SetTripsList(ctx context.Context, query string, version int64, data []byte) error {
	cmd := v.client.B().Set().Key(v.tripsPageKey(version, query)).Value(rueidis.BinaryString(data)).ExSeconds(int64(v.tripsTTL.Seconds())).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to write trips page: %w", err)
	}
	return nil
}

func (v *ValkeyClient) tripsPageKey(version int64, query string) string {
	return v.key("trips", strconv.FormatInt(version, 10), query)
}

// InvalidateTrips makes every cached trip page unreachable
func (v *ValkeyClient) InvalidateTrips(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Incr().Key(v.key("trips", "version")).Build()).Error(); err != nil {
		return fmt.Errorf("failed to bump trips version: %w", err)
	}
	return nil
}
