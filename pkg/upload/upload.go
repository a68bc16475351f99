// Package upload validates post images before they are forwarded or stored.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

// allowedImageTypes are the image formats a post may carry.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// Extension returns the file extension for an allowed image type.
func Extension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[baseType(contentType)]
	return ext, ok
}

// CheckImage validates one upload and returns it ready to forward.
//
// The declared Content-Type is not trusted: the first bytes are sniffed and
// the sniffed type wins. The returned Body replays the sniffed bytes.
func CheckImage(img models.ImageUpload, maxSize int64) (models.ImageUpload, error) {
	if img.Size > maxSize {
		return img, fmt.Errorf("%w: %s is larger than %dMB", pkg.ErrTooLarge, img.Filename, maxSize/(1024*1024))
	}
	if img.Body == nil {
		return img, fmt.Errorf("%w: %s is empty", pkg.ErrBadRequest, img.Filename)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return img, fmt.Errorf("failed to read %s: %w", img.Filename, err)
	}
	if n == 0 {
		return img, fmt.Errorf("%w: %s is empty", pkg.ErrBadRequest, img.Filename)
	}
	head = head[:n]

	sniffed := baseType(http.DetectContentType(head))
	if _, ok := allowedImageTypes[sniffed]; !ok {
		return img, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, sniffed)
	}

	img.ContentType = sniffed
	img.Filename = SanitizeFilename(img.Filename)
	img.Body = io.MultiReader(bytes.NewReader(head), img.Body)
	return img, nil
}

// CheckImages runs CheckImage over a draft's uploads.
func CheckImages(imgs []models.ImageUpload, maxSize int64) ([]models.ImageUpload, error) {
	out := make([]models.ImageUpload, 0, len(imgs))
	for _, img := range imgs {
		checked, err := CheckImage(img, maxSize)
		if err != nil {
			return nil, err
		}
		out = append(out, checked)
	}
	return out, nil
}

// SanitizeFilename strips directories and path separators so a name like
// ../../etc/passwd cannot escape an upload directory.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}

func baseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(base))
}
