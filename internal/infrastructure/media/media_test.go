package media

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func TestSaveUpload(t *testing.T) {
	p := NewImageProcessor(t.TempDir())
	stored, err := p.SaveUpload("avatar", "../../etc/My Photo!.png", strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if stored.Name != "My-Photo-.png" && stored.Name != "My-Photo.png" {
		t.Errorf("Name = %q", stored.Name)
	}
	if !strings.HasPrefix(stored.Path, "uploads/") || stored.Size != 3 || stored.Field != "avatar" {
		t.Errorf("stored = %+v", stored)
	}
	full, err := p.Locate(stored.Path)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	data, err := os.ReadFile(full)
	if err != nil || string(data) != "abc" {
		t.Errorf("file content = %q, %v", data, err)
	}
}

func TestLocateRejectsEscapes(t *testing.T) {
	p := NewImageProcessor(t.TempDir())
	for _, rel := range []string{"../secret", "", "a/../../b"} {
		if _, err := p.Locate(rel); err == nil {
			t.Errorf("Locate(%q) accepted", rel)
		}
	}
	if _, err := p.Locate("/uploads/a.png"); err != nil {
		t.Errorf("leading slash rejected: %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	base := t.TempDir()
	img := imaging.New(400, 200, color.NRGBA{R: 200, A: 255})
	if err := imaging.Save(img, filepath.Join(base, "pic.png")); err != nil {
		t.Fatal(err)
	}

	p := NewImageProcessor(base)
	path, err := p.Thumbnail("pic.png", 150)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if !strings.HasSuffix(path, "_160px.webp") {
		t.Errorf("path = %q, want rounded to 160px", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 160 || cfg.Height != 80 {
		t.Errorf("thumbnail is %dx%d, want 160x80", cfg.Width, cfg.Height)
	}

	again, err := p.Thumbnail("pic.png", 160)
	if err != nil || again != path {
		t.Errorf("second call = %q, %v", again, err)
	}
}

func TestThumbnailWidth(t *testing.T) {
	for in, want := range map[int]int{0: 80, 80: 80, 81: 160, 5000: 1200} {
		if got := ThumbnailWidth(in); got != want {
			t.Errorf("ThumbnailWidth(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestResolver(t *testing.T) {
	r := Resolver{BaseURL: "https://cdn.example.com/media/"}
	for in, want := range map[string]string{
		"":                      "",
		"uploads/a.png":         "https://cdn.example.com/media/uploads/a.png",
		"/static/b.png":         "/static/b.png",
		"https://x.test/c.png":  "https://x.test/c.png",
		"data:image/png;base64": "data:image/png;base64",
	} {
		if got := r.ResolveAssetURL(in); got != want {
			t.Errorf("ResolveAssetURL(%q) = %q, want %q", in, got, want)
		}
	}
}
