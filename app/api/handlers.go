package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/matcher"
	"github.com/lysyi3m/source-comb/app/platform"
	"github.com/lysyi3m/source-comb/app/sources"
	"github.com/lysyi3m/source-comb/app/tasks"
)

func NewHandler(registry *sources.Registry, scanRepo database.ScanRepository,
	renderer *annotation.Renderer, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		registry:  registry,
		scanRepo:  scanRepo,
		renderer:  renderer,
		scheduler: scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if scanCount, err := h.scanRepo.GetScanCount(); err == nil {
		health["scans"] = scanCount
	}

	health["loaded_sources"] = h.registry.Count()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	total, matched, annotated, err := h.scanRepo.GetScanStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_scan_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats := map[string]interface{}{
		"scans": map[string]interface{}{
			"total":     total,
			"matched":   matched,
			"annotated": annotated,
		},
		"sources": h.registry.Count(),
	}

	if recent, err := h.scanRepo.GetRecentScans(20); err == nil {
		scans := make([]map[string]interface{}, 0, len(recent))
		for _, scan := range recent {
			scans = append(scans, map[string]interface{}{
				"post_id":       scan.PostID,
				"title":         scan.Title,
				"matched_count": scan.MatchedCount,
				"annotated":     scan.CommentID != "",
				"created_at":    scan.CreatedAt,
			})
		}
		stats["recent"] = scans
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	list := h.registry.GetAll()

	entries := make([]map[string]interface{}, 0, len(list))
	for _, source := range list {
		entries = append(entries, sourceInfo(source))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": entries,
		"total":   len(entries),
	})
}

func (h *Handler) APIGetSource(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source id parameter"})
		return
	}

	source, ok := h.registry.GetByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, sourceInfo(source))
}

// APIScan runs the matcher against caller-supplied content without touching
// the platform or the scan history. Useful for registry dry runs.
func (h *Handler) APIScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan request", "details": err.Error()})
		return
	}

	content := matcher.BuildContent(matcher.ContentInput{
		Title:     req.Title,
		Body:      req.Body,
		URL:       req.URL,
		Links:     req.Links,
		SelfHosts: platform.SelfHosts(),
	})

	matched := matcher.FindSources(content, h.registry.GetAll(), matcher.Options{ScanBody: req.Body != ""})

	response := gin.H{
		"matched_count": len(matched),
		"sources":       make([]map[string]interface{}, 0, len(matched)),
	}

	if len(matched) > 0 {
		entries := make([]map[string]interface{}, 0, len(matched))
		for _, source := range matched {
			entries = append(entries, sourceInfo(source))
		}
		response["sources"] = entries
		response["flair"] = h.renderer.FlairText(matched)

		if body, err := h.renderer.Run(matched); err == nil {
			response["annotation"] = body
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIReloadSources(c *gin.Context) {
	reloadTask := tasks.NewReloadSourcesTask(h.registry)
	if err := h.scheduler.EnqueueTask(reloadTask); err != nil {
		slog.Error("Error enqueueing reload task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue reload task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Source registry reload enqueued",
		"task": gin.H{
			"id":   reloadTask.ID,
			"type": reloadTask.Type,
		},
	})
}

func sourceInfo(source sources.Source) map[string]interface{} {
	info := map[string]interface{}{
		"id":   source.ID,
		"name": source.Name,
		"type": string(source.Type),
		"tier": annotation.TierLabel(source.Tier),
	}

	if source.Organization != "" {
		info["organization"] = source.Organization
	}
	if source.Twitter != "" {
		info["twitter"] = source.Twitter
	}
	if len(source.Domains) > 0 {
		info["domains"] = source.Domains
	}

	return info
}
