package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestScaleRGBADoublesDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	dst := scaleRGBA(src, 2.0)
	b := dst.Bounds()
	if b.Dx() != 9 || b.Dy() != 9 {
		// scaleRGBA's +1 convention matches the converter's own canvas-size
		// formula (int(extent*scale)+1, truncating), so 4*2+1 = 9 on each axis.
		t.Fatalf("got %dx%d, want 9x9", b.Dx(), b.Dy())
	}
}

func TestScaleRGBAUnitScaleAddsOnePixel(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	dst := scaleRGBA(src, 1.0)
	b := dst.Bounds()
	// scaleRGBA always applies the +1 sizing convention; callers skip the
	// call entirely for postScale==1 (see rasterizeOne), so this exercises
	// the helper directly rather than RunAll's fast path.
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("got %dx%d, want 4x4", b.Dx(), b.Dy())
	}
}

func TestWritePNGCreatesReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})

	if err := writePNG(path, img); err != nil {
		t.Fatalf("writePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written png: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode written png: %v", err)
	}
	if decoded.Bounds().Dx() != 2 || decoded.Bounds().Dy() != 2 {
		t.Fatalf("got bounds %v, want 2x2", decoded.Bounds())
	}
}
