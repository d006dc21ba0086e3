// Package raster implements spec component C4, the Shape Rasterizer:
// rendering each tessellated shape to its own offscreen image and writing
// it out as the package's per-character PNG. Render targets are pooled the
// way phanxgames-willow pools its RenderTexture objects
// (rendertarget.go's renderTexturePool), since a converter run creates and
// discards one per shape and reuse avoids repeated GPU allocation.
package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/tessellate"
)

// targetPool recycles offscreen ebiten.Images bucketed by size, mirroring
// willow's power-of-two bucketed renderTexturePool but keyed on exact
// dimensions since shape sizes here are known up front rather than
// growing dynamically.
type targetPool struct {
	mu   sync.Mutex
	free map[[2]int][]*ebiten.Image
}

func newTargetPool() *targetPool {
	return &targetPool{free: make(map[[2]int][]*ebiten.Image)}
}

func (p *targetPool) acquire(w, h int) *ebiten.Image {
	key := [2]int{w, h}
	p.mu.Lock()
	defer p.mu.Unlock()
	if bucket := p.free[key]; len(bucket) > 0 {
		img := bucket[len(bucket)-1]
		p.free[key] = bucket[:len(bucket)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImage(w, h)
}

func (p *targetPool) release(img *ebiten.Image) {
	b := img.Bounds()
	key := [2]int{b.Dx(), b.Dy()}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[key] = append(p.free[key], img)
}

// Job is one shape ready to rasterize: its tessellated fill batches, the
// offscreen canvas size (already scaled), and the output PNG path.
type Job struct {
	CharacterID uint16
	Draws       []tessellate.Draw
	Width       int
	Height      int
	// OffsetX/OffsetY are the midpoint of the shape's local bounds in
	// unscaled pixels, carried through unchanged to Result.
	OffsetX, OffsetY float32
	OutputPath       string
}

// Result mirrors Job with the offset carried through for the package's
// shape_offset table.
type Result struct {
	CharacterID      uint16
	OffsetX, OffsetY float32
}

// RunAll rasterizes every job in parallel under a bounded worker pool,
// scaling each render target post-draw by postScale via x/image/draw's
// bilinear sampler, and writes each as a PNG to its OutputPath. Per spec
// §5, converter-side parallelism is scoped to this per-shape fan-out and
// shares one GPU command queue; ebiten serializes draw submission
// internally, so the worker count here only bounds CPU-side batch
// preparation and PNG encoding.
func RunAll(jobs []Job, postScale float64, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	pool := newTargetPool()
	results := make([]Result, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			img, err := rasterizeOne(pool, job, postScale)
			if err != nil {
				return fmt.Errorf("raster: shape %d: %w", job.CharacterID, err)
			}
			if err := writePNG(job.OutputPath, img); err != nil {
				return fmt.Errorf("raster: write %s: %w", job.OutputPath, err)
			}
			results[i] = Result{CharacterID: job.CharacterID, OffsetX: job.OffsetX, OffsetY: job.OffsetY}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func rasterizeOne(pool *targetPool, job Job, postScale float64) (image.Image, error) {
	target := pool.acquire(job.Width, job.Height)
	defer pool.release(target)

	for _, d := range job.Draws {
		if len(d.Vertices) == 0 {
			continue
		}
		target.DrawTriangles(d.Vertices, d.Indices, whitePixel(), &ebiten.DrawTrianglesOptions{})
	}

	rgba := ebitenImageToRGBA(target)
	if postScale == 1.0 || postScale <= 0 {
		return rgba, nil
	}
	return scaleRGBA(rgba, postScale), nil
}

var whitePixelOnce sync.Once
var whitePixelImg *ebiten.Image

// whitePixel is the 1x1 opaque-white source willow's mesh rendering uses
// for solid-fill triangle batches (mesh.go's whitePixelImage), letting the
// same DrawTriangles call serve color and textured fills.
func whitePixel() *ebiten.Image {
	whitePixelOnce.Do(func() {
		whitePixelImg = ebiten.NewImage(1, 1)
		whitePixelImg.Fill(whiteColor{})
	})
	return whitePixelImg
}

type whiteColor struct{}

func (whiteColor) RGBA() (r, g, b, a uint32) { return 0xffff, 0xffff, 0xffff, 0xffff }

func ebitenImageToRGBA(img *ebiten.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	img.ReadPixels(out.Pix)
	return out
}

func scaleRGBA(src *image.RGBA, scale float64) *image.RGBA {
	b := src.Bounds()
	w := int(float64(b.Dx())*scale) + 1
	h := int(float64(b.Dy())*scale) + 1
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		return err
	}
	return w.Flush()
}
