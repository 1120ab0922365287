// Package media handles uploaded social-post images: type sniffing,
// webp normalization and thumbnail generation.
package media

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-cms/inkwell/pkg/utils"

	// Registers the webp decoder so imaging.Decode handles webp uploads.
	_ "golang.org/x/image/webp"
)

const thumbnailWidth = 320

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsSupportedImage sniffs the content type of the first bytes of an
// upload and reports whether it is an image we accept.
func IsSupportedImage(head []byte) (string, bool) {
	mimeType := http.DetectContentType(head)
	return mimeType, allowedImageTypes[mimeType]
}

// NormalizeWebP converts webp image data to PNG so downstream consumers
// never deal with webp. Non-webp data passes through unchanged.
func NormalizeWebP(data []byte) ([]byte, string, error) {
	mimeType := http.DetectContentType(data)
	if mimeType != "image/webp" {
		return data, mimeType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode WebP image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("failed to convert WebP to PNG: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

// GenerateThumbnail writes a width-constrained JPEG thumbnail next to
// the original. Returns the thumbnail path.
func GenerateThumbnail(sourcePath, thumbPath string) (string, error) {
	srcImage, err := imaging.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s for thumbnail generation: %w", sourcePath, err)
	}

	resized := imaging.Resize(srcImage, thumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(resized, thumbPath, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	logrus.Debugf("[MEDIA] Thumbnail written to %s", thumbPath)
	return thumbPath, nil
}

// SanitizeFilename strips path separators and oddities from an uploaded
// filename, keeping the extension.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || strings.Trim(b.String(), ".") == "" {
		return "upload"
	}
	return b.String()
}

// Remove deletes a stored file and its thumbnail if present. Missing
// files are not an error.
func Remove(path, thumbPath string) {
	if err := utils.RemoveFile(path, thumbPath); err != nil {
		logrus.WithError(err).Warn("[MEDIA] Failed to remove stored media")
	}
}
