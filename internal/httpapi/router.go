package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"translator-notes/internal/domain"
)

// Service is the application core as seen by the HTTP layer.
type Service interface {
	domain.NotesService
	IndexSize(ctx context.Context) (int, error)
}

// Options configures the router.
type Options struct {
	// StaticDir holds the built frontend; empty disables static serving.
	StaticDir   string
	CORSOrigins []string
	Logger      *slog.Logger
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the notes API and the frontend.
func NewRouter(svc Service, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}
	h.Register(&r.RouterGroup)
	r.NoRoute(h.static(opts.StaticDir))
	return r
}

// Register attaches the API routes to rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
	rg.POST("/embed_documents", h.embedDocuments)
	rg.POST("/clear_database", h.clearDatabase)
	rg.POST("/generate_response", h.generateResponse)
	rg.GET("/check_verse_string", h.checkVerse)
	rg.POST("/query_chroma", h.queryExamples)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-Request-Id")
	cfg.ExposeHeaders = []string{"X-Request-Id"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func (h *Handler) static(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(p, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"detail": "API route not found"})
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+p))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
