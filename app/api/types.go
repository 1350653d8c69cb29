package api

import (
	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/sources"
	"github.com/lysyi3m/source-comb/app/tasks"
)

type Handler struct {
	registry  *sources.Registry
	scanRepo  database.ScanRepository
	renderer  *annotation.Renderer
	scheduler tasks.TaskSchedulerInterface
}

// ScanRequest is the ad-hoc scan payload: the same channels a polled post
// carries, supplied directly by the caller.
type ScanRequest struct {
	Title string   `json:"title" binding:"required"`
	Body  string   `json:"body"`
	URL   string   `json:"url"`
	Links []string `json:"links"`
}
