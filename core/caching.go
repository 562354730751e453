package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 2

// cachedSnapshot returns the activity snapshot of owner/repo, reading and
// filling the snapshot cache when one is configured.
func (r *Rater) cachedSnapshot(ctx context.Context, owner, repo, headHash string) (*schema.Snapshot, error) {
	var store contract.CacheStore
	if r.mgr != nil {
		store = r.mgr.GetSnapshotStore()
	}
	if store == nil {
		// Fallback to direct fetch
		return r.source.FetchSnapshot(ctx, owner, repo)
	}

	key := snapshotCacheKey(owner, repo, r.cfg.MaxPages, headHash)

	// Check for cache hit
	if !shouldSkipSnapshotCache(ctx) {
		if snap := checkCacheHit(store, key, r.cfg.CacheTTL); snap != nil {
			r.logger.Debugw("snapshot cache hit", "run_id", runIDFromContext(ctx), "repo", owner+"/"+repo)
			return snap, nil
		}
	}

	// Cache miss: fetch and store
	return r.fetchAndStore(ctx, store, owner, repo, key)
}

// checkCacheHit attempts to retrieve and validate a cached snapshot
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration) *schema.Snapshot {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil
	}
	if ttl > 0 && time.Since(time.Unix(ts, 0)) > ttl {
		return nil
	}

	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return &snap // Cache hit
}

// fetchAndStore fetches the snapshot and stores it in cache
func (r *Rater) fetchAndStore(ctx context.Context, store contract.CacheStore, owner, repo, key string) (*schema.Snapshot, error) {
	snap, err := r.source.FetchSnapshot(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(snap)
	if err == nil {
		err = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
	if err != nil {
		r.logger.Warnw("failed to cache snapshot", "repo", owner+"/"+repo, "error", err)
	}
	return snap, nil
}

// snapshotCacheKey creates a unique key from the repository and fetch
// parameters. The HEAD hash invalidates the entry when the repository moves.
func snapshotCacheKey(owner, repo string, maxPages int, headHash string) string {
	key := fmt.Sprintf("%s/%s:%d:%s", owner, repo, maxPages, headHash)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
