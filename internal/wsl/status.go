package wsl

import (
	"context"
	"fmt"
)

// Inspect reports whether WSL is installed and whether any instance is
// running. A failing `wsl --status` is reported as not installed rather
// than as an error.
func Inspect(ctx context.Context, q Querier, cache *Cache) (Status, error) {
	out, err := q.Status(ctx)
	if err != nil {
		return Status{}, nil
	}
	status := ParseStatus(out)

	instances, err := cache.Get(ctx)
	if err != nil {
		return status, fmt.Errorf("list instances: %w", err)
	}
	status.Running = AnyRunning(instances)
	return status, nil
}

// AnyRunning reports whether at least one instance is running.
func AnyRunning(instances []Instance) bool {
	for _, inst := range instances {
		if inst.State == StateRunning {
			return true
		}
	}
	return false
}

// Find returns the instance called name.
func Find(instances []Instance, name string) (Instance, bool) {
	for _, inst := range instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instance{}, false
}

// ListOnline returns the distributions available for installation.
func ListOnline(ctx context.Context, q Querier) ([]OnlineDistribution, error) {
	out, err := q.ListOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("list online distributions: %w", err)
	}
	return ParseOnline(out), nil
}
