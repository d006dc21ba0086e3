// Package swf implements the SWF container format's compression dispatch
// and tag stream reader (spec component C1: SWF Decompressor/Tag Reader).
// It exposes a flat, typed stream of Tags; it never interprets a tag's
// payload beyond the header fields needed to route it — that is
// internal/distill's job.
package swf

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// Tag codes this module's distiller cares about. The full SWF tag space is
// much larger; every other tag streams through with its raw code and is
// skipped by the distiller.
const (
	TagEnd                 = 0
	TagShowFrame           = 1
	TagDefineShape         = 2
	TagPlaceObject         = 4
	TagRemoveObject        = 5
	TagDefineBitsJPEG2     = 21
	TagDefineShape2        = 22
	TagPlaceObject2        = 26
	TagRemoveObject2       = 28
	TagDefineShape3        = 32
	TagDefineBitsJPEG3     = 35
	TagDefineBitsLossless2 = 36
	TagDefineSprite        = 39
	TagFrameLabel          = 43
	TagPlaceObject3        = 70
	TagSymbolClass         = 76
	TagDefineShape4        = 83
	TagDefineBitsJPEG4     = 90
)

// Tag is one length-prefixed record from the tag stream, with its body
// still raw: the distiller decodes it by code.
type Tag struct {
	Code uint16
	Data []byte
}

// Header carries the file-level fields read from the SWF header and the
// stage-size RECT, both expressed in twips (1/20 px) as the format stores
// them; callers convert to pixels at ingest per spec §3.
type Header struct {
	Version    uint8
	StageRect  Rect
	FrameRate  float32 // frames per second, decoded from the 8.8 fixed-point field
	FrameCount uint16
}

// Rect is a SWF RECT record in twips.
type Rect struct {
	XMin, XMax, YMin, YMax int32
}

// Movie is a fully decompressed, header-parsed SWF ready for tag-by-tag
// iteration via Tags.
type Movie struct {
	Header Header
	body   *bufio.Reader
}

// Open reads the 8-byte SWF file header from r, decompresses the body
// according to the 3-byte magic (signature "FWS" = uncompressed,
// "CWS" = zlib, "ZWS" = LZMA), and parses the stage RECT plus frame
// rate/count that follow it.
func Open(r io.Reader) (*Movie, error) {
	var sig [3]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("swf: read signature: %w", err)
	}
	var versionAndLen [5]byte
	if _, err := io.ReadFull(r, versionAndLen[:]); err != nil {
		return nil, fmt.Errorf("swf: read header: %w", err)
	}
	version := versionAndLen[0]

	var body io.Reader
	switch string(sig[:]) {
	case "FWS":
		body = r
	case "CWS":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("swf: zlib init: %w", err)
		}
		body = zr
	case "ZWS":
		// The LZMA body starts with a 4-byte compressed length and the
		// 5 LZMA property bytes. lzma.NewReader expects the classic 13-byte
		// header (properties plus 8-byte uncompressed size), so it is rebuilt
		// here from the properties and the header's file length minus the
		// 8-byte file header.
		var zwsHeader [9]byte
		if _, err := io.ReadFull(r, zwsHeader[:]); err != nil {
			return nil, fmt.Errorf("swf: lzma header: %w", err)
		}
		var classic [13]byte
		copy(classic[:5], zwsHeader[4:])
		binary.LittleEndian.PutUint64(classic[5:], uint64(binary.LittleEndian.Uint32(versionAndLen[1:5]))-8)
		lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(classic[:]), r))
		if err != nil {
			return nil, fmt.Errorf("swf: lzma init: %w", err)
		}
		body = lr
	default:
		return nil, fmt.Errorf("swf: unrecognized signature %q", sig)
	}

	br := bufio.NewReader(body)
	rect, err := readRect(br)
	if err != nil {
		return nil, fmt.Errorf("swf: stage rect: %w", err)
	}
	var rateAndCount [4]byte
	if _, err := io.ReadFull(br, rateAndCount[:]); err != nil {
		return nil, fmt.Errorf("swf: frame rate/count: %w", err)
	}
	frameRate := float32(binary.LittleEndian.Uint16(rateAndCount[0:2])) / 256.0
	frameCount := binary.LittleEndian.Uint16(rateAndCount[2:4])

	return &Movie{
		Header: Header{
			Version:    version,
			StageRect:  rect,
			FrameRate:  frameRate,
			FrameCount: frameCount,
		},
		body: br,
	}, nil
}

// Tags reads every tag in the movie's body, stopping at the end-tag or EOF.
func (m *Movie) Tags() ([]Tag, error) {
	return readTagStream(m.body)
}

// ReadTags reads a raw tag stream with no file-level header: the format a
// DefineSprite tag's body holds after its character-id/frame-count fields
// (spec §3's nested sprite definitions), already decompressed since it lives
// inside a tag this package already read. Callers slice that nested stream
// out of a DefineSprite tag's Data and pass it here to recurse into it.
func ReadTags(r io.Reader) ([]Tag, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return readTagStream(br)
}

func readTagStream(body *bufio.Reader) ([]Tag, error) {
	var tags []Tag
	for {
		var header [2]byte
		if _, err := io.ReadFull(body, header[:]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return tags, nil
			}
			return tags, fmt.Errorf("swf: read tag header: %w", err)
		}
		code := binary.LittleEndian.Uint16(header[:])
		length := uint32(code & 0x3F)
		tagCode := code >> 6
		if length == 0x3F {
			var lenBuf [4]byte
			if _, err := io.ReadFull(body, lenBuf[:]); err != nil {
				return tags, fmt.Errorf("swf: read long tag length: %w", err)
			}
			length = binary.LittleEndian.Uint32(lenBuf[:])
		}
		data := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(body, data); err != nil {
				return tags, fmt.Errorf("swf: read tag %d body: %w", tagCode, err)
			}
		}
		if tagCode == TagEnd {
			tags = append(tags, Tag{Code: tagCode, Data: data})
			return tags, nil
		}
		tags = append(tags, Tag{Code: tagCode, Data: data})
	}
}

// readRect parses a variable-width bit-packed SWF RECT.
func readRect(r *bufio.Reader) (Rect, error) {
	br := newBitReader(r)
	nbits, err := br.readUint(5)
	if err != nil {
		return Rect{}, err
	}
	read := func() (int32, error) {
		v, err := br.readUint(int(nbits))
		return signExtend(v, int(nbits)), err
	}
	xmin, err := read()
	if err != nil {
		return Rect{}, err
	}
	xmax, err := read()
	if err != nil {
		return Rect{}, err
	}
	ymin, err := read()
	if err != nil {
		return Rect{}, err
	}
	ymax, err := read()
	if err != nil {
		return Rect{}, err
	}
	br.align()
	return Rect{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax}, nil
}

func signExtend(v uint32, bits int) int32 {
	if bits == 0 {
		return 0
	}
	signBit := uint32(1) << (bits - 1)
	if v&signBit != 0 {
		return int32(v) - int32(uint32(1)<<bits)
	}
	return int32(v)
}

// bitReader reads MSB-first bit fields, the convention SWF uses for its
// packed records (RECT, shape records).
type bitReader struct {
	r       *bufio.Reader
	current byte
	bits    int
}

func newBitReader(r *bufio.Reader) *bitReader {
	return &bitReader{r: r}
}

func (b *bitReader) readUint(n int) (uint32, error) {
	var v uint32
	for n > 0 {
		if b.bits == 0 {
			c, err := b.r.ReadByte()
			if err != nil {
				return 0, fmt.Errorf("swf: bit reader underrun: %w", err)
			}
			b.current = c
			b.bits = 8
		}
		take := n
		if take > b.bits {
			take = b.bits
		}
		shift := b.bits - take
		mask := byte((1 << take) - 1)
		v = (v << take) | uint32((b.current>>shift)&mask)
		b.bits -= take
		n -= take
	}
	return v, nil
}

func (b *bitReader) align() {
	b.bits = 0
}
