package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theo/glucolog/internal/config"
	"github.com/theo/glucolog/internal/netmon"
	"github.com/theo/glucolog/internal/remote"
	"github.com/theo/glucolog/internal/scope"
	"github.com/theo/glucolog/internal/store"
	"github.com/theo/glucolog/internal/syncer"
)

// appContext bundles the wired-up components a command needs.
type appContext struct {
	store   *store.Store
	engine  *syncer.Engine
	monitor *netmon.Monitor
	gate    *scope.Gate
	client  *remote.Client
}

// openApp opens the store and wires the engine for the logged-in user.
// The network monitor's initial probe runs here, so commands can rely on a
// resolved connectivity state.
func openApp(ctx context.Context) (*appContext, error) {
	st, err := store.Open(getDataDir())
	if err != nil {
		return nil, err
	}

	creds, err := config.LoadAuth()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load auth: %w", err)
	}

	gate := scope.NewGate()
	var apiKey, deviceID string
	if creds != nil {
		gate.Set(creds.UserID)
		apiKey = creds.APIKey
		deviceID = creds.DeviceID
	}

	client := remote.New(config.GetServerURL(), apiKey, deviceID)

	monitor := netmon.New(netmon.ProberFunc(func(ctx context.Context) (bool, error) {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.HealthCheck(probeCtx); err != nil {
			return false, nil // unreachable backend means offline, not error
		}
		return true, nil
	}))
	monitor.Start(ctx)

	engine := syncer.New(st, client, monitor, gate)

	return &appContext{
		store:   st,
		engine:  engine,
		monitor: monitor,
		gate:    gate,
		client:  client,
	}, nil
}

func (a *appContext) Close() {
	a.store.Close()
}
