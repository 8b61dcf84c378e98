package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/getpawsy/curation/internal/catalog"
	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/storage"
)

// imageBody is a fake download body comfortably above the 500 byte minimum.
var imageBody = strings.Repeat("x", 2048)

func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, imageBody)
	})
	mux.HandleFunc("/tiny/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "x")
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	// Only the .jpg variant of this path exists; the bare URL 404s. This is
	// the shape of feed URLs the repair chain exists for.
	mux.HandleFunc("/repair/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".jpg") {
			fmt.Fprint(w, imageBody)
			return
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newMirrorFixture(t *testing.T, products domain.Catalog) (*MirrorService, *catalog.Store, string) {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.json")
	raw, err := json.Marshal(products)
	if err != nil {
		t.Fatalf("marshal fixture catalog: %v", err)
	}
	if err := os.WriteFile(catalogPath, raw, 0644); err != nil {
		t.Fatalf("seed fixture catalog: %v", err)
	}

	store := catalog.NewStore(catalog.Options{
		Path:      catalogPath,
		BackupDir: filepath.Join(dir, "backups"),
	})

	mediaRoot := filepath.Join(dir, "media")
	local, err := storage.NewLocalStorage(&storage.LocalConfig{
		Root:      mediaRoot,
		PublicURL: "/products",
	})
	if err != nil {
		t.Fatalf("create local storage: %v", err)
	}

	client := resty.New().SetTimeout(5 * time.Second)
	svc := NewMirrorService(store, local, client, MirrorConfig{MinBytes: 500, MaxImages: 5}, nil)
	return svc, store, mediaRoot
}

func TestMirrorDownloadsAndRewritesImages(t *testing.T) {
	srv := newMediaServer(t)

	svc, store, mediaRoot := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Title: "Dog Leash", Images: domain.FlexStrings{
			srv.URL + "/ok/a.png",
			srv.URL + "/ok/b.webp",
		}},
	})

	state, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Downloaded != 1 || state.Failed != 0 || state.Processed != 1 {
		t.Fatalf("state = %+v, want 1 downloaded", state)
	}

	for _, name := range []string{"img_0.png", "img_1.webp"} {
		path := filepath.Join(mediaRoot, "products", "p1", name)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected mirrored file %s: %v", name, err)
		}
		if info.Size() != int64(len(imageBody)) {
			t.Errorf("%s size = %d, want %d", name, info.Size(), len(imageBody))
		}
	}

	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	p := snap.Products[0]
	if !p.WithLocalMedia {
		t.Error("withLocalMedia not set")
	}
	if len(p.Images) != 2 || p.Images[0] != "/products/products/p1/img_0.png" {
		t.Errorf("images = %v, want local paths", p.Images)
	}
	if p.Thumbnail != p.Images[0] {
		t.Errorf("thumbnail = %q, want first image", p.Thumbnail)
	}
	if len(p.SourceImages) != 2 || !strings.HasPrefix(p.SourceImages[0], srv.URL) {
		t.Errorf("sourceImages = %v, want preserved remote originals", p.SourceImages)
	}
}

// TestMirrorIsolatesFailures verifies that one product's dead URLs never
// abort the run: its siblings still download and the failure is counted.
func TestMirrorIsolatesFailures(t *testing.T) {
	srv := newMediaServer(t)

	svc, store, _ := newMirrorFixture(t, domain.Catalog{
		{ID: "good-1", Images: domain.FlexStrings{srv.URL + "/ok/a.jpg"}},
		{ID: "bad-1", Images: domain.FlexStrings{srv.URL + "/missing/gone.jpg"}},
		{ID: "bad-2", Images: domain.FlexStrings{srv.URL + "/tiny/broken.jpg"}},
		{ID: "good-2", Images: domain.FlexStrings{srv.URL + "/ok/b.jpg"}},
	})

	state, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Processed != 4 {
		t.Errorf("processed = %d, want every product visited", state.Processed)
	}
	if state.Downloaded != 2 || state.Failed != 2 {
		t.Errorf("state = %+v, want 2 downloaded / 2 failed", state)
	}

	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	for _, p := range snap.Products {
		wantLocal := strings.HasPrefix(p.ID, "good-")
		if p.WithLocalMedia != wantLocal {
			t.Errorf("product %s withLocalMedia = %v, want %v", p.ID, p.WithLocalMedia, wantLocal)
		}
	}
}

func TestMirrorRepairChainRecoversDeadURL(t *testing.T) {
	srv := newMediaServer(t)

	svc, _, mediaRoot := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Images: domain.FlexStrings{srv.URL + "/repair/photo.webp"}},
	})

	state, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Downloaded != 1 {
		t.Fatalf("state = %+v, want repaired download", state)
	}
	if _, err := os.Stat(filepath.Join(mediaRoot, "products", "p1", "img_0.jpg")); err != nil {
		t.Errorf("repaired file should carry the working extension: %v", err)
	}
}

func TestMirrorSkipsExistingUnlessForced(t *testing.T) {
	srv := newMediaServer(t)

	svc, _, _ := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Images: domain.FlexStrings{srv.URL + "/ok/a.jpg"}},
	})

	first, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Downloaded != 1 {
		t.Fatalf("first run state = %+v", first)
	}

	second, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Skipped != 1 || second.Downloaded != 0 {
		t.Errorf("second run state = %+v, want skip", second)
	}

	forced, err := svc.Run(t.Context(), MirrorOptions{Force: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if forced.Downloaded != 1 {
		t.Errorf("forced run state = %+v, want re-download from sourceImages", forced)
	}
}

// TestMirrorResumesAfterKilledRun covers the run that dies between its
// downloads and its catalog save: the media files are on disk but the record
// still points at the remote URLs. The next run must adopt the complete
// directory instead of downloading everything again.
func TestMirrorResumesAfterKilledRun(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, imageBody)
	}))
	t.Cleanup(srv.Close)

	remote := domain.FlexStrings{srv.URL + "/a.jpg", srv.URL + "/b.jpg"}
	svc, store, mediaRoot := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Images: remote},
	})

	if _, err := svc.Run(t.Context(), MirrorOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	downloadsAfterFirst := atomic.LoadInt32(&hits)

	// Roll the record back to its pre-run state while the mirrored files
	// stay on disk, which is exactly what a kill before the save leaves.
	rollBackToRemote(t, store, remote)

	second, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Skipped != 1 || second.Downloaded != 0 {
		t.Errorf("second run state = %+v, want the product skipped", second)
	}
	if got := atomic.LoadInt32(&hits); got != downloadsAfterFirst {
		t.Errorf("server hits went %d -> %d, want no re-downloads", downloadsAfterFirst, got)
	}

	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	p := snap.Products[0]
	if !p.WithLocalMedia {
		t.Error("adopted product should be marked withLocalMedia")
	}
	if len(p.Images) != 2 || p.Images[0] != "/products/products/p1/img_0.jpg" {
		t.Errorf("images = %v, want the adopted local paths", p.Images)
	}

	// A partial directory is not adoptable; the product is downloaded again.
	rollBackToRemote(t, store, remote)
	if err := os.Remove(filepath.Join(mediaRoot, "products", "p1", "img_1.jpg")); err != nil {
		t.Fatalf("remove mirrored file: %v", err)
	}
	third, err := svc.Run(t.Context(), MirrorOptions{})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Downloaded != 1 || third.Skipped != 0 {
		t.Errorf("third run state = %+v, want a re-download of the partial product", third)
	}
	if got := atomic.LoadInt32(&hits); got != downloadsAfterFirst+2 {
		t.Errorf("server hits = %d, want %d after re-mirroring both images", got, downloadsAfterFirst+2)
	}
}

// rollBackToRemote rewrites the single fixture product to its unmirrored
// form without touching the media directory.
func rollBackToRemote(t *testing.T, store *catalog.Store, remote domain.FlexStrings) {
	t.Helper()
	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	p := snap.Products[0]
	p.Images = append(domain.FlexStrings{}, remote...)
	p.SourceImages = nil
	p.Thumbnail = remote[0]
	p.WithLocalMedia = false
	if _, err := store.Save(t.Context(), snap); err != nil {
		t.Fatalf("save catalog: %v", err)
	}
}

func TestMirrorRespectsLimit(t *testing.T) {
	srv := newMediaServer(t)

	svc, _, _ := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Images: domain.FlexStrings{srv.URL + "/ok/a.jpg"}},
		{ID: "p2", Images: domain.FlexStrings{srv.URL + "/ok/b.jpg"}},
		{ID: "p3", Images: domain.FlexStrings{srv.URL + "/ok/c.jpg"}},
	})

	state, err := svc.Run(t.Context(), MirrorOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Processed != 2 || state.Downloaded != 2 {
		t.Errorf("state = %+v, want exactly 2 processed", state)
	}
}

func TestMirrorCapsImagesPerProduct(t *testing.T) {
	srv := newMediaServer(t)

	var urls domain.FlexStrings
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("%s/ok/img%d.jpg", srv.URL, i))
	}
	svc, store, mediaRoot := newMirrorFixture(t, domain.Catalog{
		{ID: "p1", Images: urls},
	})

	if _, err := svc.Run(t.Context(), MirrorOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(mediaRoot, "products", "p1"))
	if err != nil {
		t.Fatalf("read media dir: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("mirrored %d files, want cap of 5", len(entries))
	}

	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	if got := len(snap.Products[0].Images); got != 5 {
		t.Errorf("catalog lists %d images, want 5", got)
	}
}

func TestNormalizeSupplierURL(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "query string stripped",
			in:   "https://cdn.example.com/a.jpg?size=large&v=2",
			want: "https://cdn.example.com/a.jpg",
		},
		{
			name: "size suffix stripped",
			in:   "https://cdn.example.com/photo_800x800.jpg",
			want: "https://cdn.example.com/photo.jpg",
		},
		{
			name: "resize path rewritten",
			in:   "https://image.cjdropshipping.com/im/resize/pic.jpg",
			want: "https://image.cjdropshipping.com/pic.jpg",
		},
		{
			name: "crop path rewritten",
			in:   "https://image.cjdropshipping.com/im/crop/pic_400x400.png",
			want: "https://image.cjdropshipping.com/pic.png",
		},
		{
			name: "clean url untouched",
			in:   "https://cdn.example.com/a.jpg",
			want: "https://cdn.example.com/a.jpg",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeSupplierURL(tc.in); got != tc.want {
				t.Errorf("normalizeSupplierURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
