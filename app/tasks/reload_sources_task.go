package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/source-comb/app/sources"
)

type ReloadSourcesTask struct {
	Task
	registry *sources.Registry
}

func NewReloadSourcesTask(registry *sources.Registry) *ReloadSourcesTask {
	return &ReloadSourcesTask{
		Task:     NewTask(TaskTypeReloadSources, registry.Dir()),
		registry: registry,
	}
}

func (t *ReloadSourcesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.registry.Reload(); err != nil {
		return fmt.Errorf("failed to reload source registry: %w", err)
	}

	slog.Info("Task completed",
		"type", "ReloadSources",
		"dir", t.GetSubject(),
		"duration", t.GetDuration(),
		"sources", t.registry.Count())

	return nil
}
