package service

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/storage"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newVerifyFixture(t *testing.T, products domain.Catalog, minBytes int) (*VerifyService, string) {
	t.Helper()
	store := newCatalogFixture(t, products)
	mediaRoot := filepath.Join(t.TempDir(), "media")
	local, err := storage.NewLocalStorage(&storage.LocalConfig{Root: mediaRoot})
	if err != nil {
		t.Fatalf("create local storage: %v", err)
	}
	return NewVerifyService(store, local, minBytes), mediaRoot
}

func seedMediaFile(t *testing.T, root, productID, name string, data []byte) {
	t.Helper()
	dir := filepath.Join(root, "products", productID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create media dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
}

func TestVerifyCleanTree(t *testing.T) {
	svc, root := newVerifyFixture(t, domain.Catalog{
		{ID: "p1", Title: "Dog Leash", WithLocalMedia: true},
		{ID: "remote-only", Title: "Cat Tree"},
	}, 1)
	seedMediaFile(t, root, "p1", "img_0.png", encodePNG(t))

	report, err := svc.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Clean() {
		t.Errorf("report = %+v, want clean", report)
	}
	if report.Products != 1 {
		t.Errorf("products = %d, only local-media products should be audited", report.Products)
	}
	if report.FilesChecked != 1 {
		t.Errorf("files checked = %d, want 1", report.FilesChecked)
	}
}

// TestVerifyCatchesUnflaggedDirs seeds directories for products the catalog
// never marked as mirrored. A download that died before the catalog save
// leaves exactly this shape behind, and the audit must still report it.
func TestVerifyCatchesUnflaggedDirs(t *testing.T) {
	svc, root := newVerifyFixture(t, domain.Catalog{
		{ID: "p1", Title: "Dog Leash"},
	}, 1)

	if err := os.MkdirAll(filepath.Join(root, "products", "p1"), 0755); err != nil {
		t.Fatalf("create empty dir: %v", err)
	}
	seedMediaFile(t, root, "gone", "img_0.png", encodePNG(t))

	report, err := svc.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Clean() {
		t.Fatal("report should not be clean")
	}
	if report.Products != 0 {
		t.Errorf("products = %d, nothing in the catalog claims local media", report.Products)
	}
	if len(report.EmptyDirs) != 1 || report.EmptyDirs[0] != "p1" {
		t.Errorf("empty = %v, want [p1]", report.EmptyDirs)
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != "gone" {
		t.Errorf("orphans = %v, want [gone]", report.Orphans)
	}
}

func TestVerifyFindsProblems(t *testing.T) {
	svc, root := newVerifyFixture(t, domain.Catalog{
		{ID: "missing", Title: "A", WithLocalMedia: true},
		{ID: "empty", Title: "B", WithLocalMedia: true},
		{ID: "corrupt", Title: "C", WithLocalMedia: true},
		{ID: "small", Title: "D", WithLocalMedia: true},
	}, 100)

	if err := os.MkdirAll(filepath.Join(root, "products", "empty"), 0755); err != nil {
		t.Fatalf("create empty dir: %v", err)
	}
	seedMediaFile(t, root, "corrupt", "img_0.jpg", bytes.Repeat([]byte("not an image "), 20))
	seedMediaFile(t, root, "small", "img_0.png", []byte("tiny"))

	report, err := svc.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Clean() {
		t.Fatal("report should not be clean")
	}
	if len(report.MissingMedia) != 1 || report.MissingMedia[0] != "missing" {
		t.Errorf("missing = %v, want [missing]", report.MissingMedia)
	}
	if len(report.EmptyDirs) != 1 || report.EmptyDirs[0] != "empty" {
		t.Errorf("empty = %v, want [empty]", report.EmptyDirs)
	}
	if len(report.Undecodable) != 1 || report.Undecodable[0] != "corrupt/img_0.jpg" {
		t.Errorf("undecodable = %v, want [corrupt/img_0.jpg]", report.Undecodable)
	}
	if len(report.TooSmall) != 1 || report.TooSmall[0] != "small/img_0.png" {
		t.Errorf("too small = %v, want [small/img_0.png]", report.TooSmall)
	}
}
