package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/matcher"
	"github.com/lysyi3m/source-comb/app/platform"
	"github.com/lysyi3m/source-comb/app/sources"
)

// ScanOptions carries the per-community scan behavior flags resolved from
// configuration at scheduler construction time.
type ScanOptions struct {
	Community    string
	ScanBody     bool
	DeepScan     bool
	DryRun       bool
	SetFlair     bool
	UserAgent    string
	FetchTimeout int
}

type ScanPostTask struct {
	Task
	Post       platform.Post
	Registry   []sources.Source
	scanRepo   database.ScanRepository
	annotator  Annotator
	extractor  ArticleExtractor
	renderer   *annotation.Renderer
	httpClient *http.Client
	opts       ScanOptions
}

func NewScanPostTask(post platform.Post, registry []sources.Source, scanRepo database.ScanRepository,
	annotator Annotator, extractor ArticleExtractor, renderer *annotation.Renderer,
	httpClient *http.Client, opts ScanOptions) *ScanPostTask {
	return &ScanPostTask{
		Task:       NewTask(TaskTypeScanPost, post.ID),
		Post:       post,
		Registry:   registry,
		scanRepo:   scanRepo,
		annotator:  annotator,
		extractor:  extractor,
		renderer:   renderer,
		httpClient: httpClient,
		opts:       opts,
	}
}

func (t *ScanPostTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content := matcher.BuildContent(matcher.ContentInput{
		Title:     t.Post.Title,
		Body:      t.Post.BodyText,
		URL:       t.Post.URL,
		Links:     t.Post.Links,
		SelfHosts: platform.SelfHosts(),
	})

	matched := matcher.FindSources(content, t.Registry, matcher.Options{ScanBody: t.opts.ScanBody})

	deepScanned := false
	if len(matched) == 0 && t.opts.DeepScan && t.Post.URL != "" && t.Post.BodyText == "" {
		deepMatched, err := t.deepScan(ctx)
		if err != nil {
			slog.Warn("Deep scan failed, keeping shallow result", "post", t.Post.ID, "url", t.Post.URL, "error", err)
		} else {
			matched = deepMatched
			deepScanned = true
		}
	}

	scan := database.Scan{
		PostID:           t.Post.ID,
		Title:            t.Post.Title,
		URL:              t.Post.URL,
		MatchedSourceIDs: sourceIDs(matched),
		MatchedCount:     len(matched),
	}

	if _, err := t.scanRepo.InsertScan(scan); err != nil {
		return fmt.Errorf("failed to store scan: %w", err)
	}

	annotated := false
	if len(matched) > 0 && !t.opts.DryRun {
		if err := t.annotate(ctx, matched); err != nil {
			return err
		}
		annotated = true
	}

	slog.Info("Task completed",
		"type", "ScanPost",
		"post", t.Post.ID,
		"duration", t.GetDuration(),
		"matched", len(matched),
		"deep_scanned", deepScanned,
		"annotated", annotated)

	return nil
}

// deepScan fetches the linked page, recovers its readable text and reruns
// the match with the body channel enabled. Only reached for link posts
// with no shallow match.
func (t *ScanPostTask) deepScan(ctx context.Context) ([]sources.Source, error) {
	data, err := t.fetchPage(ctx, t.Post.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linked page: %w", err)
	}

	text, err := t.extractor.Run(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article text: %w", err)
	}

	deepContent := matcher.BuildContent(matcher.ContentInput{
		Title:     t.Post.Title,
		Body:      text,
		URL:       t.Post.URL,
		Links:     t.Post.Links,
		SelfHosts: platform.SelfHosts(),
	})

	return matcher.FindSources(deepContent, t.Registry, matcher.Options{ScanBody: true}), nil
}

func (t *ScanPostTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.opts.FetchTimeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.opts.UserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (t *ScanPostTask) annotate(ctx context.Context, matched []sources.Source) error {
	body, err := t.renderer.Run(matched)
	if err != nil {
		return fmt.Errorf("failed to render annotation: %w", err)
	}

	commentID, err := t.annotator.PostComment(ctx, t.Post.ID, body)
	if err != nil {
		return fmt.Errorf("failed to post annotation comment: %w", err)
	}

	if err := t.scanRepo.SetCommentID(t.Post.ID, commentID); err != nil {
		return fmt.Errorf("failed to record comment ID: %w", err)
	}

	if t.opts.SetFlair {
		flairText := t.renderer.FlairText(matched)
		if err := t.annotator.SetFlair(ctx, t.opts.Community, t.Post.ID, flairText); err != nil {
			return fmt.Errorf("failed to set flair: %w", err)
		}
	}

	return nil
}

func sourceIDs(matched []sources.Source) []string {
	if len(matched) == 0 {
		return nil
	}

	ids := make([]string, 0, len(matched))
	for _, source := range matched {
		ids = append(ids, source.ID)
	}
	return ids
}
