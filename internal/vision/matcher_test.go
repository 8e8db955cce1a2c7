package vision

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// createFlatImage returns a solid-color image of the given size.
func createFlatImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// createPatternImage returns a deterministic non-uniform image so that
// correlation denominators are never degenerate.
func createPatternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.SetRGBA(x, y, color.RGBA{v, 255 - v, v / 2, 255})
		}
	}
	return img
}

// stamp copies src into dst with its top-left corner at (x, y).
func stamp(dst *image.RGBA, src image.Image, x, y int) {
	b := src.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dst.Set(x+sx-b.Min.X, y+sy-b.Min.Y, src.At(sx, sy))
		}
	}
}

func TestFindBest_ExactMatch(t *testing.T) {
	tmpl := createPatternImage(20, 12)
	raster := createFlatImage(200, 150, color.RGBA{30, 30, 30, 255})
	stamp(raster, tmpl, 110, 74)

	var m Matcher
	tests := []struct {
		name      string
		threshold float64
	}{
		{"low threshold", 0.5},
		{"default threshold", 0.8},
		{"strict threshold", 0.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center, score, ok := m.FindBest(raster, tmpl, tt.threshold)
			if !ok {
				t.Fatalf("FindBest missed an exact match at threshold %v", tt.threshold)
			}
			if score < tt.threshold {
				t.Errorf("score %v below threshold %v", score, tt.threshold)
			}
			want := image.Pt(110+10, 74+6)
			if center != want {
				t.Errorf("center: got %v, want %v", center, want)
			}
		})
	}
}

func TestFindBest_WithNoise(t *testing.T) {
	tmpl := createPatternImage(24, 16)
	raster := createFlatImage(160, 120, color.RGBA{60, 60, 60, 255})
	stamp(raster, tmpl, 40, 50)

	// Perturb the stamped region slightly; NCC should still score high.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 30; i++ {
		x := 40 + rng.Intn(24)
		y := 50 + rng.Intn(16)
		c := raster.RGBAAt(x, y)
		c.R += 3
		c.G += 3
		raster.SetRGBA(x, y, c)
	}

	var m Matcher
	center, score, ok := m.FindBest(raster, tmpl, 0.8)
	if !ok {
		t.Fatalf("FindBest missed a noisy match, score %v", score)
	}
	want := image.Pt(40+12, 50+8)
	if abs(center.X-want.X) > 12 || abs(center.Y-want.Y) > 8 {
		t.Errorf("center %v further than half template size from %v", center, want)
	}
}

func TestFindBest_NoMatch(t *testing.T) {
	tmpl := createPatternImage(20, 20)
	raster := createFlatImage(100, 100, color.RGBA{200, 10, 10, 255})

	var m Matcher
	if _, score, ok := m.FindBest(raster, tmpl, 0.8); ok {
		t.Errorf("FindBest reported a match (score %v) on a flat raster", score)
	}
}

func TestFindBest_TemplateLargerThanRaster(t *testing.T) {
	tmpl := createPatternImage(50, 50)
	raster := createPatternImage(20, 20)

	var m Matcher
	if _, _, ok := m.FindBest(raster, tmpl, 0.1); ok {
		t.Error("FindBest should miss when template exceeds raster size")
	}
}

func TestFindBest_NilInputs(t *testing.T) {
	var m Matcher
	if _, _, ok := m.FindBest(nil, createPatternImage(5, 5), 0.5); ok {
		t.Error("nil raster should be a miss")
	}
	if _, _, ok := m.FindBest(createPatternImage(5, 5), nil, 0.5); ok {
		t.Error("nil template should be a miss")
	}
}

func TestFindAll_MultipleOccurrences(t *testing.T) {
	tmpl := createPatternImage(16, 16)
	raster := createFlatImage(300, 100, color.RGBA{20, 20, 20, 255})
	stamp(raster, tmpl, 10, 10)
	stamp(raster, tmpl, 120, 40)
	stamp(raster, tmpl, 250, 70)

	var m Matcher
	hits := m.FindAll(raster, tmpl, 0.95)
	if len(hits) != 3 {
		t.Fatalf("hits: got %d (%v), want 3", len(hits), hits)
	}
	wants := []image.Point{{18, 18}, {128, 48}, {258, 78}}
	for i, want := range wants {
		if hits[i] != want {
			t.Errorf("hit %d: got %v, want %v", i, hits[i], want)
		}
	}
}

func TestFindAll_DeduplicatesNearbyHits(t *testing.T) {
	tmpl := createPatternImage(16, 16)
	raster := createFlatImage(200, 80, color.RGBA{20, 20, 20, 255})
	stamp(raster, tmpl, 50, 30)

	var m Matcher
	// A generous threshold lets windows adjacent to the true hit qualify;
	// de-duplication must still collapse them.
	hits := m.FindAll(raster, tmpl, 0.5)
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if abs(hits[i].X-hits[j].X) < dedupeRadius && abs(hits[i].Y-hits[j].Y) < dedupeRadius {
				t.Errorf("hits %v and %v are within %dpx of each other", hits[i], hits[j], dedupeRadius)
			}
		}
	}
}

func TestFindAll_EmptyOnNoMatch(t *testing.T) {
	tmpl := createPatternImage(16, 16)
	raster := createFlatImage(100, 100, color.RGBA{250, 250, 250, 255})

	var m Matcher
	if hits := m.FindAll(raster, tmpl, 0.9); len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestTemplateCache_LoadAndNegativeCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tmpl.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, createPatternImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cache := NewTemplateCache()

	img, ok := cache.Load(path)
	if !ok || img == nil {
		t.Fatal("Load failed for a valid template")
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("dimensions: got %v, want 8x8", img.Bounds())
	}

	if _, ok := cache.Load(filepath.Join(dir, "missing.png")); ok {
		t.Error("Load should report a miss for a missing file")
	}
	// Negative entries stick until evicted.
	if _, ok := cache.Load(filepath.Join(dir, "missing.png")); ok {
		t.Error("negative cache entry should persist")
	}

	bad := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Load(bad); ok {
		t.Error("Load should report a miss for an undecodable file")
	}

	if _, ok := cache.Load(""); ok {
		t.Error("Load should report a miss for an empty path")
	}
}

func TestTemplateCache_EvictPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.png")

	cache := NewTemplateCache()
	if _, ok := cache.Load(path); ok {
		t.Fatal("file does not exist yet")
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, createPatternImage(4, 4)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cache.Evict(path)
	if _, ok := cache.Load(path); !ok {
		t.Error("Load should succeed after Evict once the file exists")
	}
}

func TestWindowColor(t *testing.T) {
	raster := createFlatImage(50, 50, color.RGBA{255, 0, 0, 255})

	sum := WindowColor(raster, image.Pt(25, 25), 10, 10)
	if sum.Hex != "#ff0000" {
		t.Errorf("Hex: got %s, want #ff0000", sum.Hex)
	}
	if sum.H != 0 || sum.S != 100 || sum.L != 50 {
		t.Errorf("HSL: got (%d,%d,%d), want (0,100,50)", sum.H, sum.S, sum.L)
	}

	// A window fully outside the raster yields the zero summary.
	if got := WindowColor(raster, image.Pt(500, 500), 10, 10); got != (ColorSummary{}) {
		t.Errorf("out-of-bounds window: got %+v, want zero", got)
	}
}
