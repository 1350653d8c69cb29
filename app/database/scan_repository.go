package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

var _ ScanRepository = (*ScanRepositoryImpl)(nil)

// ScanRepositoryImpl handles database operations for scan records
type ScanRepositoryImpl struct {
	db *DB
}

func NewScanRepository(db *DB) *ScanRepositoryImpl {
	return &ScanRepositoryImpl{db: db}
}

// HasScan reports whether a post has already been scanned, keeping the
// poller idempotent across restarts.
func (r *ScanRepositoryImpl) HasScan(postID string) (bool, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM scans WHERE post_id = $1 LIMIT 1`, postID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check scan existence: %w", err)
	}
	return true, nil
}

func (r *ScanRepositoryImpl) InsertScan(scan Scan) (string, error) {
	ids := scan.MatchedSourceIDs
	if ids == nil {
		ids = []string{}
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO scans (post_id, title, url, matched_source_ids, matched_count, comment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (post_id) DO UPDATE SET
			matched_source_ids = EXCLUDED.matched_source_ids,
			matched_count = EXCLUDED.matched_count
		RETURNING id
	`, scan.PostID, scan.Title, scan.URL, pq.Array(ids), scan.MatchedCount, scan.CommentID).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert scan: %w", err)
	}

	return id, nil
}

func (r *ScanRepositoryImpl) SetCommentID(postID string, commentID string) error {
	_, err := r.db.Exec(`
		UPDATE scans
		SET comment_id = $2
		WHERE post_id = $1
	`, postID, commentID)

	if err != nil {
		return fmt.Errorf("failed to set comment id: %w", err)
	}

	return nil
}

func (r *ScanRepositoryImpl) GetRecentScans(limit int) ([]Scan, error) {
	rows, err := r.db.Query(`
		SELECT id, post_id, title, url, matched_source_ids, matched_count, comment_id, created_at
		FROM scans
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var scan Scan
		err := rows.Scan(
			&scan.ID, &scan.PostID, &scan.Title, &scan.URL,
			pq.Array(&scan.MatchedSourceIDs), &scan.MatchedCount,
			&scan.CommentID, &scan.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}

	return scans, nil
}

func (r *ScanRepositoryImpl) GetScanCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get scan count: %w", err)
	}
	return count, nil
}

func (r *ScanRepositoryImpl) GetScanStats() (int, int, int, error) {
	var total, matched, annotated int
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE matched_count > 0),
		       COUNT(*) FILTER (WHERE comment_id <> '')
		FROM scans
	`).Scan(&total, &matched, &annotated)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get scan stats: %w", err)
	}

	return total, matched, annotated, nil
}
