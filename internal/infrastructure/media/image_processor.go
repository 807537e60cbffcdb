// Package media provides upload storage and image preview generation
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/security"
)

// ErrOutsideMedia is returned for paths escaping the media directory.
var ErrOutsideMedia = errors.New("path is outside the media directory")

// ThumbnailWidths are the preview widths generated on demand; requests are
// rounded up to the next one.
var ThumbnailWidths = []int{80, 160, 300, 600, 1200}

// ImageProcessor stores uploads and renders WebP thumbnails under basePath.
type ImageProcessor struct {
	basePath string
	mu       sync.Mutex
}

// NewImageProcessor creates a new ImageProcessor instance
func NewImageProcessor(basePath string) *ImageProcessor {
	return &ImageProcessor{basePath: basePath}
}

// BasePath is the media root on disk.
func (p *ImageProcessor) BasePath() string {
	return p.basePath
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "upload"
	}
	if len(name) > 80 {
		ext := filepath.Ext(name)
		name = name[:80-len(ext)] + ext
	}
	return name
}

// SaveUpload writes an uploaded file under uploads/ with a unique prefix and
// returns its media-relative path.
func (p *ImageProcessor) SaveUpload(field, filename string, r io.Reader) (content.StoredFile, error) {
	dir := filepath.Join(p.basePath, "uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return content.StoredFile{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := sanitizeFilename(filename)
	stored := strings.ToLower(security.GenerateULID()) + "-" + name
	fullPath := filepath.Join(dir, stored)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return content.StoredFile{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return content.StoredFile{}, fmt.Errorf("failed to write upload file: %w", err)
	}

	return content.StoredFile{
		Field: field,
		Name:  name,
		Path:  "uploads/" + stored,
		Size:  size,
	}, nil
}

// Locate maps a media-relative path onto the filesystem.
func (p *ImageProcessor) Locate(rel string) (string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrOutsideMedia
	}
	return filepath.Join(p.basePath, clean), nil
}

// ThumbnailWidth rounds a requested width up to a generated size.
func ThumbnailWidth(requested int) int {
	for _, w := range ThumbnailWidths {
		if requested <= w {
			return w
		}
	}
	return ThumbnailWidths[len(ThumbnailWidths)-1]
}

// Thumbnail returns the path of a WebP preview of the media-relative image
// src, generating it on first request.
func (p *ImageProcessor) Thumbnail(src string, width int) (string, error) {
	original, err := p.Locate(src)
	if err != nil {
		return "", err
	}
	width = ThumbnailWidth(width)

	sum := sha1.Sum([]byte(filepath.ToSlash(src)))
	thumbsDir := filepath.Join(p.basePath, "thumbs")
	thumbPath := filepath.Join(thumbsDir, fmt.Sprintf("%s_%dpx.webp", hex.EncodeToString(sum[:8]), width))

	p.mu.Lock()
	defer p.mu.Unlock()

	if origInfo, err := os.Stat(original); err != nil {
		return "", fmt.Errorf("failed to open original image: %w", err)
	} else if thumbInfo, err := os.Stat(thumbPath); err == nil && !thumbInfo.ModTime().Before(origInfo.ModTime()) {
		return thumbPath, nil
	}

	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbs directory: %w", err)
	}
	img, err := imaging.Open(original, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	tmp := thumbPath + ".tmp"
	if err := webp.Save(tmp, img, &webp.Options{Quality: 85}); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save WebP thumbnail: %w", err)
	}
	if err := os.Rename(tmp, thumbPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move WebP thumbnail: %w", err)
	}
	return thumbPath, nil
}
