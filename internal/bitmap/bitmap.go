// Package bitmap implements spec component C2, the Bitmap Catalog: turning
// a DefineBits* tag's raw payload into decoded RGBA pixels, tolerating the
// JPEG-family tags' well-known malformed marker stream and rejecting
// bitmaps too large to safely hold in memory.
package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
)

// maxDecodedBytes is the §4.2 size ceiling: a bitmap whose decoded RGBA
// buffer (width*height*4 bytes) would exceed 128 MiB is rejected rather
// than decoded, per SPEC_FULL.md's resolution of the width*height*4 vs.
// width*height pixel-count ambiguity in the original threshold.
const maxDecodedBytes = 128 * 1024 * 1024

// ErrTooLarge is returned by Decode when the bitmap's dimensions would
// exceed maxDecodedBytes once expanded to RGBA.
var ErrTooLarge = fmt.Errorf("bitmap: decoded size exceeds %d bytes", maxDecodedBytes)

// Format selects how a CompressedBitmap's Data is interpreted.
type Format uint8

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatGIF
	FormatLossless // DefineBitsLossless(2): raw pixel data, no container
)

// CompressedBitmap is a DefineBits*-tag payload not yet decoded to pixels.
// AlphaData, when non-nil, is the JPEG3/4 trailing alpha-channel plane
// (one byte per pixel, zlib-compressed) that has no equivalent in a plain
// JPEG file and must be recombined after the color planes decode.
type CompressedBitmap struct {
	ID        uint16
	Format    Format
	Data      []byte
	AlphaData []byte
}

// Decode expands b to a premultiplied-alpha RGBA image, applying the
// JPEG-family marker repair and the alpha-plane merge where applicable.
// Grounded on original_source/runtime/src/parser/bitmap.rs's bitmap
// decode path (remove_invalid_jpeg_data, determine_jpeg_tag_format) and
// decode.rs's format dispatch.
func Decode(b CompressedBitmap) (*image.RGBA, error) {
	switch b.Format {
	case FormatJPEG:
		return decodeJPEG(b)
	case FormatPNG:
		return decodeStdlib(b.Data, png.Decode)
	case FormatGIF:
		return decodeStdlib(b.Data, gif.Decode)
	case FormatLossless:
		return nil, fmt.Errorf("bitmap: lossless pixel decode must go through DecodeLossless")
	default:
		return nil, fmt.Errorf("bitmap: unknown format %d", b.Format)
	}
}

func decodeJPEG(b CompressedBitmap) (*image.RGBA, error) {
	data := b.Data
	// Pre-version-8 SWFs may carry an erroneous FF D9 FF D8 header before
	// the JPEG's own SOI; it is dropped before the marker scan.
	if bytes.HasPrefix(data, []byte{0xFF, 0xD9, 0xFF, 0xD8}) {
		data = data[4:]
	}
	cleaned := removeInvalidJPEGData(data)
	// A stream missing its trailing EOI marker gets one appended.
	if !bytes.HasSuffix(cleaned, []byte{0xFF, 0xD9}) {
		cleaned = append(cleaned[:len(cleaned):len(cleaned)], 0xFF, 0xD9)
	}
	if err := probeSize(cleaned, jpegBounds); err != nil {
		return nil, err
	}
	img, err := decodeStdlib(cleaned, jpeg.Decode)
	if err != nil {
		return nil, fmt.Errorf("bitmap: jpeg decode: %w", err)
	}
	if len(b.AlphaData) > 0 {
		applyAlphaPlane(img, b.AlphaData)
	}
	return img, nil
}

func jpegBounds(data []byte) (image.Rectangle, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}

func decodeStdlib(data []byte, decode func(r io.Reader) (image.Image, error)) (*image.RGBA, error) {
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

func probeSize(data []byte, bounds func([]byte) (image.Rectangle, error)) error {
	r, err := bounds(data)
	if err != nil {
		return err
	}
	w, h := r.Dx(), r.Dy()
	if int64(w)*int64(h)*4 > maxDecodedBytes {
		return ErrTooLarge
	}
	return nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

// applyAlphaPlane overwrites img's alpha channel from a one-byte-per-pixel
// plane in row-major order, the format DefineBitsJPEG3/4 append after the
// embedded JPEG stream, and scales each pixel's color channels by the new
// alpha so img stays premultiplied.
func applyAlphaPlane(img *image.RGBA, alpha []byte) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i >= len(alpha) {
				return
			}
			c := img.RGBAAt(x, y)
			a := uint16(alpha[i])
			c.R = uint8(uint16(c.R) * a / 255)
			c.G = uint8(uint16(c.G) * a / 255)
			c.B = uint8(uint16(c.B) * a / 255)
			c.A = alpha[i]
			img.SetRGBA(x, y, c)
			i++
		}
	}
}

// removeInvalidJPEGData strips the malformed duplicate SOI/marker pair
// that some SWF authoring tools embed at the start of a DefineBitsJPEG2/3
// payload: a full marker-table scan (not just a magic-byte prefix check)
// dropping bytes up to the second SOI (0xFFD8) marker when one is found
// after the first, rather than assuming a fixed-offset header.
func removeInvalidJPEGData(data []byte) []byte {
	if len(data) < 4 {
		return data
	}
	if data[0] != 0xFF || data[1] != 0xD8 {
		return data
	}
	for i := 2; i < len(data)-1; i++ {
		if data[i] == 0xFF && data[i+1] == 0xD8 {
			return data[i:]
		}
		if data[i] == 0xFF && data[i+1] == 0xDA {
			// Start-of-scan reached with no duplicate SOI found: the header
			// is well-formed.
			break
		}
	}
	return data
}

// DecodeLossless expands a DefineBitsLossless(2) payload, given its
// already-zlib-decompressed pixel data and, for the colormapped format 3,
// its color table. A nil colorTable selects the 32-bit layout (format 5),
// read as four bytes per pixel in R, G, B, A order; the 15-bit format 4 is
// not handled.
func DecodeLossless(width, height int, pixels []byte, colorTable []color.RGBA) (*image.RGBA, error) {
	if int64(width)*int64(height)*4 > maxDecodedBytes {
		return nil, ErrTooLarge
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if colorTable != nil {
		stride := paddedRowBytes(width)
		for y := 0; y < height; y++ {
			row := pixels[y*stride:]
			for x := 0; x < width; x++ {
				idx := int(row[x])
				if idx < len(colorTable) {
					out.SetRGBA(x, y, colorTable[idx])
				}
			}
		}
		return out, nil
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			if i+4 > len(pixels) {
				return out, nil
			}
			out.SetRGBA(x, y, color.RGBA{R: pixels[i], G: pixels[i+1], B: pixels[i+2], A: pixels[i+3]})
		}
	}
	return out, nil
}

// paddedRowBytes rounds a colormapped row up to a 4-byte boundary, the
// padding SWF's lossless format requires.
func paddedRowBytes(width int) int {
	return (width + 3) &^ 3
}
