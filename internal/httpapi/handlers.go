package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"translator-notes/internal/domain"
	"translator-notes/internal/logging"
	"translator-notes/internal/service"
)

type embedReq struct {
	// FilePathsOrFolder is either a directory path or a list of .tsv files
	// and directories.
	FilePathsOrFolder json.RawMessage `json:"file_paths_or_folder"`
}

type queryReq struct {
	Query          string `json:"query" binding:"required"`
	VerseReference string `json:"verse_reference" binding:"required"`
}

type retrieveReq struct {
	Query string `json:"query" binding:"required"`
}

func (h *Handler) health(c *gin.Context) {
	n, err := h.svc.IndexSize(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": n})
}

func (h *Handler) embedDocuments(c *gin.Context) {
	var req embedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
		return
	}
	paths, err := embedPaths(req.FilePathsOrFolder)
	if err != nil {
		h.fail(c, err)
		return
	}
	files, added, err := h.svc.Ingest(c.Request.Context(), paths)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Documents embedded successfully",
		"files_processed": files,
		"documents_added": added,
	})
}

// embedPaths accepts a single directory or a list of paths.
func embedPaths(raw json.RawMessage) ([]string, error) {
	var dir string
	if err := json.Unmarshal(raw, &dir); err == nil {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: the path '%s' does not exist", domain.ErrValidation, dir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: '%s' is not a valid directory", domain.ErrValidation, dir)
		}
		return []string{dir}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: input must be a string (folder path) or a list of strings (file paths)", domain.ErrValidation)
	}
	return list, nil
}

func (h *Handler) clearDatabase(c *gin.Context) {
	if err := h.svc.ClearIndex(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database cleared successfully"})
}

func (h *Handler) generateResponse(c *gin.Context) {
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query and verse_reference are required"})
		return
	}
	out, err := h.svc.Draft(c.Request.Context(), req.Query, req.VerseReference)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": out, "verse": h.svc.ResolveVerse(req.VerseReference)})
}

func (h *Handler) checkVerse(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ResolveVerse(c.Query("query")))
}

func (h *Handler) queryExamples(c *gin.Context) {
	var req retrieveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query is required"})
		return
	}
	n := service.DefaultResults
	if s := c.Query("n_results"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "n_results must be an integer"})
			return
		}
		n = v
	}
	res, err := h.svc.Retrieve(c.Request.Context(), req.Query, n)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": res})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	logging.FromContext(c.Request.Context(), h.logger).Warn("request failed",
		"path", c.Request.URL.Path, "status", status, "error", err)
	c.JSON(status, gin.H{"detail": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
