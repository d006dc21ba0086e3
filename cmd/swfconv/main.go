// Command swfconv converts a SWF movie into a swfanim package: a JSON
// timeline file plus one PNG per shape and bitmap character. See spec §6.1.
package main

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	swfanim "github.com/aojiaoxiaolinlin/swf-animation-sub000"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/bitmap"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/config"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/distill"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/logcfg"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/raster"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/shapedecode"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/swf"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/tessellate"
)

var (
	flagScale        float32
	flagSettingsPath string
	flagOutputDir    string
	flagLogLevel     string
)

func main() {
	root := &cobra.Command{
		Use:   "swfconv swf_file_path",
		Short: "Convert a SWF movie into a swfanim animation package",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().Float32Var(&flagScale, "scale", 1.0, "global rasterization scale")
	root.Flags().StringVar(&flagSettingsPath, "settings-path", "", "path to Settings.toml")
	root.Flags().StringVar(&flagOutputDir, "output", "", "output directory (default ./output/<stem>/)")
	root.Flags().StringVar(&flagLogLevel, "log", "", "log level (trace|debug|info|warn|error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logcfg.Init(flagLogLevel)
	logger := logcfg.Logger

	swfPath := args[0]
	stem := strings.TrimSuffix(filepath.Base(swfPath), filepath.Ext(swfPath))
	outDir := flagOutputDir
	if outDir == "" {
		outDir = filepath.Join("output", stem)
	}

	settings, err := config.Load(flagSettingsPath)
	if err != nil {
		return fmt.Errorf("swfconv: %w", err)
	}

	f, err := os.Open(swfPath)
	if err != nil {
		return fmt.Errorf("swfconv: open %s: %w", swfPath, err)
	}
	defer f.Close()

	movie, err := swf.Open(f)
	if err != nil {
		return fmt.Errorf("swfconv: invalid SWF: %w", err)
	}
	logger.Infof("opened %s: version %d, %d frames at %.2f fps", swfPath, movie.Header.Version, movie.Header.FrameCount, movie.Header.FrameRate)

	tags, err := movie.Tags()
	if err != nil {
		return fmt.Errorf("swfconv: invalid SWF: %w", err)
	}

	spriteTags, shapeGeometry, bitmaps := scanDefinitions(tags, logger)

	result, err := distill.Run(movie, tags, spriteTags)
	if err != nil {
		return fmt.Errorf("swfconv: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("swfconv: %w", err)
	}

	jobs := make([]raster.Job, 0, len(shapeGeometry))
	shapeOffsets := make(map[uint16]swfanim.Offset, len(shapeGeometry)+len(bitmaps))
	for charID, draws := range shapeGeometry {
		scale := flagScale * float32(settings.ScaleFor(charID))
		box := tessellate.Bounds(draws)
		width := int(math.Ceil(float64(box.MaxX-box.MinX)*float64(scale))) + 1
		height := int(math.Ceil(float64(box.MaxY-box.MinY)*float64(scale))) + 1
		offsetX, offsetY := (box.MinX+box.MaxX)/2, (box.MinY+box.MaxY)/2
		shapeOffsets[charID] = swfanim.Offset{X: offsetX, Y: offsetY}
		jobs = append(jobs, raster.Job{
			CharacterID: charID,
			Draws:       tessellate.ScaleDraws(draws, box, scale),
			Width:       width,
			Height:      height,
			OffsetX:     offsetX,
			OffsetY:     offsetY,
			OutputPath:  filepath.Join(outDir, fmt.Sprintf("%d.png", charID)),
		})
	}

	if _, err := raster.RunAll(jobs, 1.0, 4); err != nil {
		logger.Errorf("rasterize: %v", err)
	}

	// A DefineBits* character can also be placed directly (not only sampled
	// as a shape's fill), so it gets its own output PNG the same way a
	// tessellated shape does.
	for charID, img := range bitmaps {
		path := filepath.Join(outDir, fmt.Sprintf("%d.png", charID))
		if err := writeImagePNG(path, img); err != nil {
			logger.Errorf("bitmap %d: write png: %v", charID, err)
			continue
		}
		b := img.Bounds()
		shapeOffsets[charID] = swfanim.Offset{X: float32(b.Dx()) / 2, Y: float32(b.Dy()) / 2}
	}

	pkg := &swfanim.Package{
		Meta: swfanim.Meta{
			FrameRate: movie.Header.FrameRate,
			Frames:    movie.Header.FrameCount,
			Version:   "0.1.0",
		},
		Definitions:    result.Clips,
		Animations:     result.Animations,
		AnimationOrder: result.AnimationOrder,
		ShapeOffsets:   shapeOffsets,
	}

	outPath := filepath.Join(outDir, stem+".json")
	if err := pkg.Save(outPath); err != nil {
		return fmt.Errorf("swfconv: %w", err)
	}
	logger.Infof("wrote %s", outPath)
	return nil
}

// scanDefinitions makes a first pass over the root tag stream: it slices
// each DefineSprite's nested tag stream out so distill.Run can recurse into
// it, tessellates every DefineShape-family character's fill geometry via
// internal/shapedecode, and decodes every DefineBitsJPEG2/3/4 and
// DefineBitsLossless2 character straight to RGBA pixels via internal/bitmap.
// DefineBits and DefineBitsLossless (version 1) tags are not decoded.
func scanDefinitions(tags []swf.Tag, logger interface{ Warnf(string, ...any) }) (map[uint16][]swf.Tag, map[uint16][]tessellate.Draw, map[uint16]*image.RGBA) {
	sprites := make(map[uint16][]swf.Tag)
	shapes := make(map[uint16][]tessellate.Draw)
	bitmaps := make(map[uint16]*image.RGBA)

	for _, tag := range tags {
		switch tag.Code {
		case swf.TagDefineSprite:
			if len(tag.Data) < 4 {
				logger.Warnf("short DefineSprite record, skipping")
				continue
			}
			charID := uint16(tag.Data[0]) | uint16(tag.Data[1])<<8
			nested, err := swf.ReadTags(bytes.NewReader(tag.Data[4:]))
			if err != nil {
				logger.Warnf("sprite %d: reading nested tags: %v", charID, err)
				continue
			}
			sprites[charID] = nested
		case swf.TagDefineShape, swf.TagDefineShape2, swf.TagDefineShape3, swf.TagDefineShape4:
			if len(tag.Data) < 2 {
				continue
			}
			charID := uint16(tag.Data[0]) | uint16(tag.Data[1])<<8
			draws, err := shapedecode.Decode(shapeVersionOf(tag.Code), tag.Data)
			if err != nil {
				logger.Warnf("shape %d: %v", charID, err)
				continue
			}
			shapes[charID] = draws
		case swf.TagDefineBitsJPEG2, swf.TagDefineBitsJPEG3, swf.TagDefineBitsJPEG4, swf.TagDefineBitsLossless2:
			if len(tag.Data) < 2 {
				continue
			}
			charID := uint16(tag.Data[0]) | uint16(tag.Data[1])<<8
			img, err := decodeBitmapTag(tag.Code, tag.Data)
			if err != nil {
				logger.Warnf("bitmap %d: %v", charID, err)
				continue
			}
			bitmaps[charID] = img
		}
	}
	return sprites, shapes, bitmaps
}

func shapeVersionOf(code uint16) int {
	switch code {
	case swf.TagDefineShape:
		return 1
	case swf.TagDefineShape2:
		return 2
	case swf.TagDefineShape3:
		return 3
	default:
		return 4
	}
}

// decodeBitmapTag dispatches a DefineBits*-family tag's body (including its
// leading character id) to internal/bitmap, unpacking each tag's own
// container framing first: JPEG2 is a bare JPEG stream, JPEG3/4 prefix it
// with a length field and append a zlib-compressed alpha plane, and
// Lossless2 is itself a zlib-compressed pixel (or palette index) buffer.
func decodeBitmapTag(tagCode uint16, data []byte) (*image.RGBA, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("short bitmap tag")
	}
	body := data[2:]
	switch tagCode {
	case swf.TagDefineBitsJPEG2:
		return bitmap.Decode(bitmap.CompressedBitmap{Format: bitmap.FormatJPEG, Data: body})
	case swf.TagDefineBitsJPEG3, swf.TagDefineBitsJPEG4:
		return decodeJPEGWithAlpha(tagCode, body)
	case swf.TagDefineBitsLossless2:
		return decodeLossless2(body)
	default:
		return nil, fmt.Errorf("unsupported bitmap tag code %d", tagCode)
	}
}

func decodeJPEGWithAlpha(tagCode uint16, body []byte) (*image.RGBA, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("short jpeg bitmap record")
	}
	jpegLen := binary.LittleEndian.Uint32(body[:4])
	rest := body[4:]
	if tagCode == swf.TagDefineBitsJPEG4 {
		if len(rest) < 2 {
			return nil, fmt.Errorf("short jpeg4 deblock param")
		}
		rest = rest[2:] // deblocking filter param, not applied here
	}
	if uint64(jpegLen) > uint64(len(rest)) {
		return nil, fmt.Errorf("jpeg data length exceeds tag body")
	}
	jpegData := rest[:jpegLen]
	var alpha []byte
	if tail := rest[jpegLen:]; len(tail) > 0 {
		zr, err := zlib.NewReader(bytes.NewReader(tail))
		if err != nil {
			return nil, fmt.Errorf("alpha plane: %w", err)
		}
		alpha, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("alpha plane: %w", err)
		}
	}
	return bitmap.Decode(bitmap.CompressedBitmap{Format: bitmap.FormatJPEG, Data: jpegData, AlphaData: alpha})
}

func decodeLossless2(body []byte) (*image.RGBA, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("short lossless bitmap record")
	}
	format := body[0]
	width := int(binary.LittleEndian.Uint16(body[1:3]))
	height := int(binary.LittleEndian.Uint16(body[3:5]))
	rest := body[5:]

	switch format {
	case 3: // 8-bit colormapped
		if len(rest) < 1 {
			return nil, fmt.Errorf("short colormap header")
		}
		tableSize := int(rest[0]) + 1
		zr, err := zlib.NewReader(bytes.NewReader(rest[1:]))
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if len(raw) < tableSize*3 {
			return nil, fmt.Errorf("truncated color table")
		}
		table := make([]color.RGBA, tableSize)
		for i := 0; i < tableSize; i++ {
			table[i] = color.RGBA{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2], A: 255}
		}
		return bitmap.DecodeLossless(width, height, raw[tableSize*3:], table)
	case 5: // 32-bit
		zr, err := zlib.NewReader(bytes.NewReader(rest))
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		return bitmap.DecodeLossless(width, height, raw, nil)
	default:
		return nil, fmt.Errorf("unsupported lossless bitmap format %d", format)
	}
}

func writeImagePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
