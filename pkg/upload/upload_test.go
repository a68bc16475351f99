package upload

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

// pngHeader is enough for http.DetectContentType to say image/png.
const pngHeader = "\x89PNG\r\n\x1a\n"

func TestCheckImageSniffs(t *testing.T) {
	body := pngHeader + "rest-of-file"
	img, err := CheckImage(models.ImageUpload{
		Filename:    "../../cover.png",
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}, 1<<20)
	if err != nil {
		t.Fatalf("CheckImage: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("content type = %q", img.ContentType)
	}
	if img.Filename != "cover.png" {
		t.Errorf("filename = %q", img.Filename)
	}

	got, _ := io.ReadAll(img.Body)
	if string(got) != body {
		t.Errorf("body not replayed: %q", got)
	}
}

func TestCheckImageRejects(t *testing.T) {
	_, err := CheckImage(models.ImageUpload{Filename: "x.png", Size: 10, Body: strings.NewReader("plain text")}, 1<<20)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("text accepted: %v", err)
	}

	_, err = CheckImage(models.ImageUpload{Filename: "big.png", Size: 2 << 20, Body: strings.NewReader(pngHeader)}, 1<<20)
	if !errors.Is(err, pkg.ErrTooLarge) {
		t.Errorf("oversize accepted: %v", err)
	}

	_, err = CheckImage(models.ImageUpload{Filename: "empty.png", Body: strings.NewReader("")}, 1<<20)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("empty accepted: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.png`: "pic.png",
		"..":                  "unnamed",
		"":                    "unnamed",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	if ext, ok := Extension("image/webp"); !ok || ext != ".webp" {
		t.Errorf("webp = %q, %v", ext, ok)
	}
	if _, ok := Extension("application/pdf"); ok {
		t.Error("pdf allowed")
	}
}
