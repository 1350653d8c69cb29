package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/cfg"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	registry    *sources.Registry
	scanRepo    database.ScanRepository
	poller      Poller
	annotator   Annotator
	extractor   ArticleExtractor
	renderer    *annotation.Renderer
	httpClient  *http.Client
	opts        ScanOptions
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(registry *sources.Registry, scanRepo database.ScanRepository,
	poller Poller, annotator Annotator, extractor ArticleExtractor,
	renderer *annotation.Renderer, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		registry:   registry,
		scanRepo:   scanRepo,
		poller:     poller,
		annotator:  annotator,
		extractor:  extractor,
		renderer:   renderer,
		httpClient: httpClient,
		opts: ScanOptions{
			Community:    cfg.Community,
			ScanBody:     cfg.ScanBody,
			DeepScan:     cfg.DeepScan,
			DryRun:       cfg.DryRun,
			SetFlair:     cfg.SetFlair,
			UserAgent:    cfg.UserAgent,
			FetchTimeout: cfg.FetchTimeout,
		},
		interval:    time.Duration(cfg.PollInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	pollCtx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	posts, err := s.poller.Run(pollCtx, s.opts.Community)
	if err != nil {
		slog.Warn("Failed to poll community feed", "community", s.opts.Community, "error", err)
		return
	}
	if len(posts) == 0 {
		slog.Debug("No posts found in community feed", "community", s.opts.Community)
		return
	}

	registry := s.registry.GetAll()
	if len(registry) == 0 {
		slog.Warn("Source registry is empty, skipping scan scheduling")
		return
	}

	slog.Debug("Processing community feed posts", "community", s.opts.Community, "count", len(posts))

	for _, post := range posts {
		scanned, err := s.scanRepo.HasScan(post.ID)
		if err != nil {
			slog.Warn("Failed to check scan history, skipping", "post", post.ID, "error", err)
			continue
		}
		if scanned {
			slog.Debug("Post already scanned, skipping", "post", post.ID)
			continue
		}

		scanTask := NewScanPostTask(post, registry, s.scanRepo, s.annotator, s.extractor, s.renderer, s.httpClient, s.opts)
		if err := s.EnqueueTask(scanTask); err != nil {
			slog.Warn("Failed to enqueue ScanPostTask", "post", post.ID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
