package vision

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
)

// dedupeRadius is the per-axis distance within which two detections are
// considered the same hit.
const dedupeRadius = 10

// grayPlane is a grayscale image flattened to float64 samples for correlation.
type grayPlane struct {
	w, h int
	pix  []float64
}

// newGrayPlane converts an image to a luminance plane using bild's
// grayscale filter as the common color space.
func newGrayPlane(img image.Image) grayPlane {
	g := effect.Grayscale(img)
	b := g.Bounds()
	p := grayPlane{w: b.Dx(), h: b.Dy()}
	p.pix = make([]float64, p.w*p.h)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Channels are equal after the grayscale filter; red suffices.
			p.pix[i] = float64(g.RGBAAt(x, y).R)
			i++
		}
	}
	return p
}

func (p grayPlane) at(x, y int) float64 {
	return p.pix[y*p.w+x]
}

// integralPlanes holds summed-area tables of a plane and its squares,
// giving O(1) window sums during the correlation scan.
type integralPlanes struct {
	w, h       int
	sum, sumSq []float64
}

func newIntegralPlanes(p grayPlane) integralPlanes {
	ip := integralPlanes{w: p.w, h: p.h}
	stride := p.w + 1
	ip.sum = make([]float64, stride*(p.h+1))
	ip.sumSq = make([]float64, stride*(p.h+1))
	for y := 0; y < p.h; y++ {
		var rowSum, rowSumSq float64
		for x := 0; x < p.w; x++ {
			v := p.at(x, y)
			rowSum += v
			rowSumSq += v * v
			ip.sum[(y+1)*stride+x+1] = ip.sum[y*stride+x+1] + rowSum
			ip.sumSq[(y+1)*stride+x+1] = ip.sumSq[y*stride+x+1] + rowSumSq
		}
	}
	return ip
}

// window returns the sum and sum of squares over the w*h window at (x,y).
func (ip integralPlanes) window(x, y, w, h int) (s, sq float64) {
	stride := ip.w + 1
	s = ip.sum[(y+h)*stride+x+w] - ip.sum[y*stride+x+w] -
		ip.sum[(y+h)*stride+x] + ip.sum[y*stride+x]
	sq = ip.sumSq[(y+h)*stride+x+w] - ip.sumSq[y*stride+x+w] -
		ip.sumSq[(y+h)*stride+x] + ip.sumSq[y*stride+x]
	return s, sq
}

// Matcher finds template images inside larger rasters.
//
// The zero value is ready to use; Matcher carries no state between calls and
// is safe for concurrent use.
type Matcher struct{}

// FindBest locates the single highest-scoring occurrence of tmpl inside
// raster. It returns the center of the matched window, the correlation score,
// and whether the score reached threshold. A template larger than the raster
// is a miss, not an error.
func (Matcher) FindBest(raster, tmpl image.Image, threshold float64) (image.Point, float64, bool) {
	scan := newScan(raster, tmpl)
	if scan == nil {
		return image.Point{}, 0, false
	}

	best := image.Point{}
	bestScore := -1.0
	scan.each(func(x, y int, score float64) bool {
		if score > bestScore {
			bestScore = score
			best = image.Pt(x+scan.tw/2, y+scan.th/2)
		}
		return true
	})

	if bestScore < threshold {
		return image.Point{}, bestScore, false
	}
	return best, bestScore, true
}

// FindAll returns the centers of every occurrence of tmpl scoring at least
// threshold, scanning row-major from the top-left. Candidates whose center
// lies within 10px (per axis) of an already-accepted center are suppressed;
// the earliest-scanned candidate wins.
func (Matcher) FindAll(raster, tmpl image.Image, threshold float64) []image.Point {
	scan := newScan(raster, tmpl)
	if scan == nil {
		return nil
	}

	var hits []image.Point
	scan.each(func(x, y int, score float64) bool {
		if score < threshold {
			return true
		}
		c := image.Pt(x+scan.tw/2, y+scan.th/2)
		for _, h := range hits {
			if abs(c.X-h.X) < dedupeRadius && abs(c.Y-h.Y) < dedupeRadius {
				return true
			}
		}
		hits = append(hits, c)
		return true
	})
	return hits
}

// templateScan precomputes everything needed to score candidate windows.
type templateScan struct {
	raster   grayPlane
	integral integralPlanes
	tmpl     grayPlane
	tw, th   int
	tSum     float64
	tSumSq   float64
}

func newScan(raster, tmpl image.Image) *templateScan {
	if raster == nil || tmpl == nil {
		return nil
	}
	s := &templateScan{
		raster: newGrayPlane(raster),
		tmpl:   newGrayPlane(tmpl),
	}
	s.tw, s.th = s.tmpl.w, s.tmpl.h
	if s.tw == 0 || s.th == 0 || s.tw > s.raster.w || s.th > s.raster.h {
		return nil
	}
	s.integral = newIntegralPlanes(s.raster)
	for _, v := range s.tmpl.pix {
		s.tSum += v
		s.tSumSq += v * v
	}
	return s
}

// each invokes fn for every candidate window position in row-major order
// with the normalized cross-correlation score. fn returning false stops the
// scan early.
func (s *templateScan) each(fn func(x, y int, score float64) bool) {
	n := float64(s.tw * s.th)
	tMean := s.tSum / n
	tVar := s.tSumSq - s.tSum*s.tSum/n

	for y := 0; y <= s.raster.h-s.th; y++ {
		for x := 0; x <= s.raster.w-s.tw; x++ {
			wSum, wSumSq := s.integral.window(x, y, s.tw, s.th)
			wVar := wSumSq - wSum*wSum/n

			denom := math.Sqrt(tVar * wVar)
			var score float64
			if denom > 1e-9 {
				var dot float64
				for ty := 0; ty < s.th; ty++ {
					row := (y + ty) * s.raster.w
					trow := ty * s.tw
					for tx := 0; tx < s.tw; tx++ {
						dot += s.raster.pix[row+x+tx] * s.tmpl.pix[trow+tx]
					}
				}
				score = (dot - wSum*tMean) / denom
			}
			if !fn(x, y, score) {
				return
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
