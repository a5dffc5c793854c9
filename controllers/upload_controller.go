package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/noticeboard/config"
	"github.com/cppla/noticeboard/utils"
)

// allowedExtensions is the upload allow-list, checked case-insensitively
// against the original filename extension.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// AllowedExtension reports whether the filename carries an accepted image
// extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UploadController stores uploaded images into the content directory.
type UploadController struct {
	dir     string
	maxSize int64
	maxMB   int
}

// NewUploadController creates an upload controller from configuration.
func NewUploadController(cfg config.AppConfig) *UploadController {
	return &UploadController{
		dir:     cfg.UploadDir,
		maxSize: int64(cfg.UploadMaxSizeMB) << 20,
		maxMB:   cfg.UploadMaxSizeMB,
	}
}

// GeneratedFilename builds a collision-resistant name from a millisecond
// timestamp, a random hex token and the original extension. The original
// filename is never reused, which also closes the path-traversal hole.
func GeneratedFilename(original string) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), token, ext)
}

// Upload accepts exactly one image file under the field name "file",
// validates its extension before any write, stores it under a generated
// name, re-validates the written name and deletes the artifact if that
// second check fails.
func (u *UploadController) Upload(ctx *gin.Context) {
	// The transport-level cap rejects oversized bodies before the extension
	// filter ever runs. Small allowance on top of maxSize covers the
	// multipart framing.
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, u.maxSize+64<<10)
	if err := ctx.Request.ParseMultipartForm(u.maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.Error(ctx, http.StatusBadRequest, u.sizeMessage())
			return
		}
		utils.Error(ctx, http.StatusBadRequest, "invalid multipart request")
		return
	}

	form := ctx.Request.MultipartForm
	if form == nil {
		utils.Error(ctx, http.StatusBadRequest, "no file uploaded")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		for field := range form.File {
			utils.Error(ctx, http.StatusBadRequest, fmt.Sprintf("Unexpected field '%s'. Use 'file' as the upload field.", field))
			return
		}
		utils.Error(ctx, http.StatusBadRequest, "no file uploaded")
		return
	}
	if len(files) > 1 {
		utils.Error(ctx, http.StatusBadRequest, "Too many files. Only one file is allowed.")
		return
	}

	header := files[0]
	if header.Size > u.maxSize {
		utils.Error(ctx, http.StatusBadRequest, u.sizeMessage())
		return
	}

	// First check: reject before anything touches the content directory.
	if !AllowedExtension(header.Filename) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid file type. Only jpeg, jpg, png and gif are allowed.")
		return
	}

	// Concurrent first-run creation attempts are harmless; both see the
	// directory exist afterwards.
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		utils.Sugar.Errorf("create upload directory %s failed: %v", u.dir, err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}

	filename := GeneratedFilename(header.Filename)
	dstPath := filepath.Join(u.dir, filename)
	if err := ctx.SaveUploadedFile(header, dstPath); err != nil {
		utils.Sugar.Errorf("save uploaded file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}

	// Second check on the written name. Unreachable if the first check
	// held, but guards against a filter bypass; cleanup before reporting.
	if !AllowedExtension(filename) {
		_ = os.Remove(dstPath)
		utils.Sugar.Warnf("post-write extension check failed for %s, artifact removed", filename)
		utils.Error(ctx, http.StatusBadRequest, "invalid file")
		return
	}

	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	utils.Success(ctx, gin.H{
		"filename": filename,
		"url":      fmt.Sprintf("%s://%s/uploads/%s", scheme, ctx.Request.Host, filename),
	})
}

func (u *UploadController) sizeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", u.maxMB)
}
