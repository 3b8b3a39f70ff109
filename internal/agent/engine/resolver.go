package engine

import (
	"context"
	"errors"

	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
)

// ErrNoIntegration signals that no tracker configuration exists for the
// tenant. The run continues with the tracker-less tool catalog.
var ErrNoIntegration = errors.New("no tracker integration for tenant")

// TrackerResolver turns the email's tenant identity into a tracker binding.
// Credential and project resolution happen upstream; the engine only
// consumes the result.
type TrackerResolver interface {
	Resolve(ctx context.Context, tenant *model.Tenant) (*tracker.CachedClient, tracker.Config, error)
}

// DemoResolver binds demo tenants to a fixed client, normally the in-memory
// tracker. Any other tenant resolves to no integration.
type DemoResolver struct {
	Client *tracker.CachedClient
	Config tracker.Config
}

func (r DemoResolver) Resolve(ctx context.Context, tenant *model.Tenant) (*tracker.CachedClient, tracker.Config, error) {
	if r.Client == nil || tenant == nil || !tenant.Demo {
		return nil, tracker.Config{}, ErrNoIntegration
	}
	return r.Client, r.Config, nil
}
