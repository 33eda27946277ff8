// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/cyphal-bridge/lib/param"
	"github.com/bureau-foundation/cyphal-bridge/subscriber"
)

// reloadOnHangup installs a SIGHUP handler and, until ctx is done,
// re-reads the params section of the config file on each signal and
// re-subscribes units whose subject changed. Only params are reloaded;
// other sections need a restart. The handler is installed before
// reloadOnHangup returns, so a SIGHUP sent after startup never takes
// the default action of ending the process.
func reloadOnHangup(ctx context.Context, configPath string, params *param.Store, manager *subscriber.Manager, logger *slog.Logger) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hangup)
		watchReloads(ctx, hangup, configPath, params, manager, logger)
	}()
}

// watchReloads reloads params once per value received from hangup.
// An empty configPath reads the path from $CYPHAL_BRIDGE_CONFIG.
func watchReloads(ctx context.Context, hangup <-chan os.Signal, configPath string, params *param.Store, manager *subscriber.Manager, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			cfg, err := loadConfig(configPath)
			if err != nil {
				logger.Error("reload failed, keeping current params", "error", err)
				continue
			}
			changed := applyParams(params, cfg.Params)
			logger.Info("params reloaded", "changed", changed)
			if err := manager.UpdateParams(); err != nil {
				logger.Error("resubscribing after reload", "error", err)
			}
		}
	}
}

// applyParams makes store hold exactly values. Returns how many
// registers changed.
func applyParams(store *param.Store, values map[string]int64) int {
	changed := 0
	for _, name := range store.Names() {
		if _, keep := values[name]; !keep && store.Delete(name) {
			changed++
		}
	}
	for name, value := range values {
		if store.Set(name, value) {
			changed++
		}
	}
	return changed
}
