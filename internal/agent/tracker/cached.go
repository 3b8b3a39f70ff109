package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	errx "github.com/inboxagent/server/internal/core/error"
	logx "github.com/inboxagent/server/pkg/logger"
)

// CachedClient decorates a Client with short-TTL read caching for the
// roster-style lookups (project users, sprints). Write operations pass
// through and invalidate every cached read key for the touched project.
// Cache failures never fail the underlying operation; collaborator errors
// cross this boundary wrapped as errx tracker errors.
type CachedClient struct {
	inner Client
	cache Cache
	ttl   time.Duration
}

func WithCache(inner Client, cache Cache, ttl time.Duration) *CachedClient {
	if cache == nil {
		cache = NoopCache{}
	}
	return &CachedClient{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedClient) SearchTickets(ctx context.Context, cfg Config, q SearchQuery) ([]Ticket, error) {
	tickets, err := c.inner.SearchTickets(ctx, cfg, q)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	return tickets, nil
}

func (c *CachedClient) CreateTicket(ctx context.Context, cfg Config, in CreateTicketInput) (*CreatedTicket, error) {
	created, err := c.inner.CreateTicket(ctx, cfg, in)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	c.invalidate(ctx, cfg)
	return created, nil
}

func (c *CachedClient) UpdateTicket(ctx context.Context, cfg Config, key string, in UpdateTicketInput) error {
	if err := c.inner.UpdateTicket(ctx, cfg, key, in); err != nil {
		return errx.WrapTracker(err)
	}
	c.invalidate(ctx, cfg)
	return nil
}

func (c *CachedClient) GetProjectUsers(ctx context.Context, cfg Config, role string, activeOnly bool) ([]User, error) {
	key := fmt.Sprintf("%susers:%s:%t", projectPrefix(cfg), role, activeOnly)

	var users []User
	if c.readCached(ctx, key, &users) {
		return users, nil
	}

	users, err := c.inner.GetProjectUsers(ctx, cfg, role, activeOnly)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	c.writeCached(ctx, key, users)
	return users, nil
}

func (c *CachedClient) GetUserWorkloads(ctx context.Context, cfg Config, accountIDs []string, includeInProgress bool) (map[string]Workload, error) {
	workloads, err := c.inner.GetUserWorkloads(ctx, cfg, accountIDs, includeInProgress)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	return workloads, nil
}

func (c *CachedClient) GetSprints(ctx context.Context, cfg Config, state string) ([]Sprint, error) {
	key := fmt.Sprintf("%ssprints:%s", projectPrefix(cfg), state)

	var sprints []Sprint
	if c.readCached(ctx, key, &sprints) {
		return sprints, nil
	}

	sprints, err := c.inner.GetSprints(ctx, cfg, state)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	c.writeCached(ctx, key, sprints)
	return sprints, nil
}

func (c *CachedClient) GetActiveSprint(ctx context.Context, cfg Config) (*Sprint, error) {
	key := projectPrefix(cfg) + "sprint:active"

	var sprint *Sprint
	if c.readCached(ctx, key, &sprint) {
		return sprint, nil
	}

	sprint, err := c.inner.GetActiveSprint(ctx, cfg)
	if err != nil {
		return nil, errx.WrapTracker(err)
	}
	c.writeCached(ctx, key, sprint)
	return sprint, nil
}

// DedupeKey consults the cache for a previously created ticket under the
// given fingerprint and returns its key when present.
func (c *CachedClient) DedupeKey(ctx context.Context, cfg Config, fingerprint string) (string, bool) {
	key := projectPrefix(cfg) + "dedupe:" + fingerprint
	v, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Dedupe lookup failed; proceeding without it")
		return "", false
	}
	return v, ok && v != ""
}

// RememberDedupe records a created ticket under its fingerprint so queue
// redelivery of the same email does not create it again. Kept alongside the
// read cache but with a longer TTL.
func (c *CachedClient) RememberDedupe(ctx context.Context, cfg Config, fingerprint, ticketKey string) {
	key := projectPrefix(cfg) + "dedupe:" + fingerprint
	if err := c.cache.Set(ctx, key, ticketKey, 24*time.Hour); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Failed to record dedupe key")
	}
}

func (c *CachedClient) readCached(ctx context.Context, key string, out any) bool {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Tracker cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Corrupt tracker cache entry; ignoring")
		return false
	}
	return true
}

func (c *CachedClient) writeCached(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Tracker cache write failed")
	}
}

// invalidate drops the dedupe keys last so a redelivered run can still find
// them; only roster-style read keys are cleared on writes.
func (c *CachedClient) invalidate(ctx context.Context, cfg Config) {
	prefix := projectPrefix(cfg)
	for _, sub := range []string{"users:", "sprints:", "sprint:"} {
		if err := c.cache.DeleteByPrefix(ctx, prefix+sub); err != nil {
			logx.Warn().Err(err).Str("prefix", prefix+sub).Msg("Tracker cache invalidation failed")
		}
	}
}

var _ Client = (*CachedClient)(nil)
