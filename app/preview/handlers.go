package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-digest/app/dedupe"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/render"
	"github.com/lysyi3m/rss-digest/app/storage"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
	feedItemLimit   = 50
)

var postName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-[^/\\]+\.(md|html)$`)

// NewHandler serves posts from postsDir. runs may be nil when the dedupe
// backend keeps no run history.
func NewHandler(postsDir string, runs dedupe.RunRecorder, version string) *Handler {
	return &Handler{
		postsDir: postsDir,
		runs:     runs,
		version:  version,
		now:      time.Now,
	}
}

func (h *Handler) GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "rss-digest",
		"version":     h.version,
		"description": "Preview of summarized posts generated from RSS/Atom feeds",
		"endpoints": map[string]string{
			"health": "/health",
			"posts":  "/posts",
			"post":   "/posts/<name>",
			"feed":   "/feed.xml",
			"runs":   "/runs?limit=<n>",
		},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if posts, err := storage.List(h.postsDir); err == nil {
		health["posts"] = len(posts)
	} else {
		health["posts_error"] = err.Error()
	}
	health["run_history"] = h.runs != nil

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := storage.List(h.postsDir)
	if err != nil {
		slog.Error("Failed to list posts", "dir", h.postsDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	summaries := make([]postSummary, 0, len(posts))
	for _, post := range posts {
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		summaries = append(summaries, postSummary{
			Name:      post.Filename,
			Title:     post.Title,
			Date:      post.Date,
			Source:    post.Source,
			SourceURL: post.SourceURL,
			Tags:      tags,
			URL:       "/posts/" + post.Filename,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": summaries,
		"total": len(summaries),
	})
}

func (h *Handler) GetPost(c *gin.Context) {
	name := c.Param("name")
	if !postName.MatchString(name) || filepath.Base(name) != name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post name"})
		return
	}

	data, err := os.ReadFile(filepath.Join(h.postsDir, name))
	if os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		slog.Error("Failed to read post", "post", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read post"})
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if filepath.Ext(name) == ".html" {
		contentType = "text/html; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) GetFeed(c *gin.Context) {
	posts, err := storage.List(h.postsDir)
	if err != nil {
		slog.Error("Failed to list posts", "dir", h.postsDir, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(posts) > feedItemLimit {
		posts = posts[:feedItemLimit]
	}

	base := fmt.Sprintf("%s://%s", scheme(c), c.Request.Host)
	items := make([]render.FeedItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, render.FeedItem{
			Title:       post.Title,
			Link:        base + "/posts/" + post.Filename,
			Description: extract.Truncate(post.Body, 500),
			PublishedAt: post.Date,
			Categories:  post.Tags,
		})
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "application/xml; charset=utf-8",
		render.RSS("rss-digest", base+"/", base+"/feed.xml", h.version, items))
}

func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run history requires the sqlite dedupe backend"})
		return
	}

	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxRunLimit)
	}

	records, err := h.runs.RecentRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	runs := make([]runSummary, 0, len(records))
	for _, r := range records {
		runs = append(runs, runSummary(r))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
