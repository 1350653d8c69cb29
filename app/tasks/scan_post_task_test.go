package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/platform"
	"github.com/lysyi3m/source-comb/app/sources"
)

type fakeScanRepo struct {
	scans      map[string]database.Scan
	commentIDs map[string]string
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{
		scans:      make(map[string]database.Scan),
		commentIDs: make(map[string]string),
	}
}

func (r *fakeScanRepo) HasScan(postID string) (bool, error) {
	_, ok := r.scans[postID]
	return ok, nil
}

func (r *fakeScanRepo) InsertScan(scan database.Scan) (string, error) {
	r.scans[scan.PostID] = scan
	return "scan-" + scan.PostID, nil
}

func (r *fakeScanRepo) SetCommentID(postID string, commentID string) error {
	r.commentIDs[postID] = commentID
	return nil
}

func (r *fakeScanRepo) GetRecentScans(limit int) ([]database.Scan, error) {
	return nil, nil
}

func (r *fakeScanRepo) GetScanCount() (int, error) {
	return len(r.scans), nil
}

func (r *fakeScanRepo) GetScanStats() (int, int, int, error) {
	return len(r.scans), 0, 0, nil
}

type fakeAnnotator struct {
	comments map[string]string
	flairs   map[string]string
}

func newFakeAnnotator() *fakeAnnotator {
	return &fakeAnnotator{
		comments: make(map[string]string),
		flairs:   make(map[string]string),
	}
}

func (a *fakeAnnotator) PostComment(ctx context.Context, postID string, body string) (string, error) {
	a.comments[postID] = body
	return "t1_comment", nil
}

func (a *fakeAnnotator) SetFlair(ctx context.Context, community string, postID string, text string) error {
	a.flairs[postID] = text
	return nil
}

type fakeExtractor struct {
	text string
}

func (e *fakeExtractor) Run(data []byte) (string, error) {
	return e.text, nil
}

func tier(n int) *int {
	return &n
}

func testRegistry() []sources.Source {
	return []sources.Source{
		{
			ID:             "acme-dispatch",
			Name:           "Acme Dispatch",
			NameNormalized: "acme dispatch",
			Type:           sources.TypeMedia,
			Tier:           tier(1),
			Domains:        []string{"acme.example"},
		},
		{
			ID:                "jane-reporter",
			Name:              "Jane Reporter",
			NameNormalized:    "jane reporter",
			Type:              sources.TypeJournalist,
			Tier:              tier(2),
			Twitter:           "janereports",
			TwitterNormalized: "janereports",
		},
	}
}

func newTestTask(post platform.Post, repo *fakeScanRepo, annotator *fakeAnnotator,
	extractor ArticleExtractor, opts ScanOptions) *ScanPostTask {
	renderer := annotation.NewRenderer("testcommunity")
	return NewScanPostTask(post, testRegistry(), repo, annotator, extractor, renderer, http.DefaultClient, opts)
}

func TestScanPostTask_MatchAndAnnotate(t *testing.T) {
	repo := newFakeScanRepo()
	annotator := newFakeAnnotator()

	post := platform.Post{
		ID:    "t3_abc",
		Title: "Acme Dispatch: turbine recall widens",
		URL:   "https://acme.example/story",
	}

	task := newTestTask(post, repo, annotator, &fakeExtractor{}, ScanOptions{
		Community: "testcommunity",
		SetFlair:  true,
	})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scan, ok := repo.scans["t3_abc"]
	if !ok {
		t.Fatal("expected scan to be stored")
	}
	if !reflect.DeepEqual(scan.MatchedSourceIDs, []string{"acme-dispatch"}) {
		t.Errorf("expected matched source IDs [acme-dispatch], got %v", scan.MatchedSourceIDs)
	}
	if scan.MatchedCount != 1 {
		t.Errorf("expected matched count 1, got %d", scan.MatchedCount)
	}

	body, ok := annotator.comments["t3_abc"]
	if !ok {
		t.Fatal("expected annotation comment to be posted")
	}
	if !strings.Contains(body, "Acme Dispatch") || !strings.Contains(body, "Tier 1") {
		t.Errorf("unexpected comment body: %q", body)
	}

	if repo.commentIDs["t3_abc"] != "t1_comment" {
		t.Errorf("expected comment ID to be recorded, got %q", repo.commentIDs["t3_abc"])
	}

	if annotator.flairs["t3_abc"] != "Source: Tier 1" {
		t.Errorf("expected tier flair, got %q", annotator.flairs["t3_abc"])
	}
}

func TestScanPostTask_NoMatchStoresScan(t *testing.T) {
	repo := newFakeScanRepo()
	annotator := newFakeAnnotator()

	post := platform.Post{
		ID:    "t3_def",
		Title: "Completely unrelated discussion",
	}

	task := newTestTask(post, repo, annotator, &fakeExtractor{}, ScanOptions{Community: "testcommunity"})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scan, ok := repo.scans["t3_def"]
	if !ok {
		t.Fatal("expected scan to be stored even without matches")
	}
	if scan.MatchedCount != 0 || scan.MatchedSourceIDs != nil {
		t.Errorf("expected empty match result, got %v", scan.MatchedSourceIDs)
	}
	if len(annotator.comments) != 0 {
		t.Error("no comment should be posted when nothing matched")
	}
}

func TestScanPostTask_DryRunSkipsAnnotation(t *testing.T) {
	repo := newFakeScanRepo()
	annotator := newFakeAnnotator()

	post := platform.Post{
		ID:    "t3_ghi",
		Title: "Report by @janereports on the spill",
	}

	task := newTestTask(post, repo, annotator, &fakeExtractor{}, ScanOptions{
		Community: "testcommunity",
		DryRun:    true,
	})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scan := repo.scans["t3_ghi"]
	if scan.MatchedCount != 1 {
		t.Fatalf("expected one match, got %d", scan.MatchedCount)
	}
	if len(annotator.comments) != 0 || len(annotator.flairs) != 0 {
		t.Error("dry run must not post comments or flair")
	}
}

func TestScanPostTask_DeepScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>article html</p></body></html>"))
	}))
	defer server.Close()

	repo := newFakeScanRepo()
	annotator := newFakeAnnotator()
	extractor := &fakeExtractor{text: "As Jane Reporter wrote earlier this week, the recall is widening."}

	post := platform.Post{
		ID:    "t3_jkl",
		Title: "Interesting read on the recall",
		URL:   server.URL + "/story",
	}

	task := newTestTask(post, repo, annotator, extractor, ScanOptions{
		Community:    "testcommunity",
		DeepScan:     true,
		FetchTimeout: 5,
	})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scan := repo.scans["t3_jkl"]
	if !reflect.DeepEqual(scan.MatchedSourceIDs, []string{"jane-reporter"}) {
		t.Errorf("expected deep scan to match jane-reporter, got %v", scan.MatchedSourceIDs)
	}
	if _, ok := annotator.comments["t3_jkl"]; !ok {
		t.Error("expected annotation comment after deep scan match")
	}
}

func TestScanPostTask_DeepScanSkippedForTextPosts(t *testing.T) {
	repo := newFakeScanRepo()
	annotator := newFakeAnnotator()
	extractor := &fakeExtractor{text: "Jane Reporter appears here but must never be consulted."}

	post := platform.Post{
		ID:       "t3_mno",
		Title:    "A self post with its own body",
		BodyText: "Nothing notable in here.",
	}

	task := newTestTask(post, repo, annotator, extractor, ScanOptions{
		Community: "testcommunity",
		ScanBody:  true,
		DeepScan:  true,
	})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.scans["t3_mno"].MatchedCount != 0 {
		t.Error("deep scan must not run for posts that carry their own body")
	}
}
