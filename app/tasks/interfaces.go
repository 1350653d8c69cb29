package tasks

import (
	"context"

	"github.com/lysyi3m/source-comb/app/platform"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API layer to manage background task
// processing.
// Example usage:
//
//	scheduler := NewScheduler(registry, scanRepo, poller, annotator, extractor, renderer, httpClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewReloadSourcesTask(registry))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Poller discovers new community submissions.
type Poller interface {
	Run(ctx context.Context, community string) ([]platform.Post, error)
}

// Annotator posts the reliability breakdown back to the platform.
type Annotator interface {
	PostComment(ctx context.Context, postID string, body string) (string, error)
	SetFlair(ctx context.Context, community string, postID string, text string) error
}

// ArticleExtractor recovers readable text from a fetched page for the
// deep-scan pass.
type ArticleExtractor interface {
	Run(data []byte) (string, error)
}
