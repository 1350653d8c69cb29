package database

import (
	"time"
)

// Scan records the outcome of matching one submission against the source
// registry. Matched source ids are stored in registry order after the
// tier sort, so the stats endpoint can replay what was annotated.
type Scan struct {
	ID               string // Database UUID
	PostID           string // Platform post fullname (e.g. t3_abc123)
	Title            string
	URL              string
	MatchedSourceIDs []string
	MatchedCount     int
	CommentID        string // Annotation comment fullname, empty until posted
	CreatedAt        time.Time
}

type ScanRepository interface {
	HasScan(postID string) (bool, error)
	InsertScan(scan Scan) (string, error)
	SetCommentID(postID string, commentID string) error

	GetRecentScans(limit int) ([]Scan, error)
	GetScanCount() (int, error)
	GetScanStats() (total int, matched int, annotated int, err error)
}
