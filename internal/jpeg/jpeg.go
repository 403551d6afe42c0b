// Package jpeg extracts metadata from JPEG marker segments.
//
// Segments form a flat sequence ending at the first SOS or EOI marker, so
// the walk never recurses. Application segments are told apart by the
// identifier at the start of their payload.
package jpeg

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/tiff"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Application segment identifiers.
var (
	idJFIF        = []byte("JFIF\x00")
	idJFXX        = []byte("JFXX\x00")
	idExif        = []byte("Exif\x00\x00")
	idXMP         = []byte("http://ns.adobe.com/xap/1.0/\x00")
	idExtendedXMP = []byte("http://ns.adobe.com/xmp/extension/\x00")
	idICC         = []byte("ICC_PROFILE\x00")
	idPhotoshop   = []byte("Photoshop 3.0\x00")
	idAdobe       = []byte("Adobe")
)

// Extract walks the segments before the first scan.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	dir := types.NewDirectory("JPEG")
	md.AddDirectory(dir)
	h := &segments{Base: walker.Base{Dir: dir}, md: md}
	return walker.New(walker.SegmentReader{}, cfg).Walk(ctx, c, walker.Unbounded, h)
}

func init() {
	registry.Register(types.FormatJPEG, registry.ExtractorFunc(Extract))
}

// segments decodes every segment of interest. Each application segment
// kind writes into its own directory.
type segments struct {
	walker.Base
	md       *types.Metadata
	huffman  int
	quant    int
	iccParts int
	iccSize  int
}

// dir returns the named directory, creating it on first use.
func (s *segments) dir(name string) *types.Directory {
	if d := s.md.Directory(name); d != nil {
		return d
	}
	d := types.NewDirectory(name)
	s.md.AddDirectory(d)
	return d
}

func (s *segments) AcceptLeaf(h *walker.Header) bool {
	switch m := h.Marker; {
	case isSOF(m):
		return true
	case m == walker.MarkerDHT, m == walker.MarkerDQT, m == walker.MarkerDRI, m == walker.MarkerCOM:
		return true
	case m == walker.MarkerAPP0, m == walker.MarkerAPP0+1, m == walker.MarkerAPP0+2,
		m == walker.MarkerAPP0+13, m == walker.MarkerAPP0+14:
		return true
	}
	return false
}

// isSOF reports whether m is a start-of-frame marker. DHT, JPG and DAC sit
// in the same range.
func isSOF(m byte) bool {
	return m >= walker.MarkerSOF0 && m <= 0xCF &&
		m != walker.MarkerDHT && m != walker.MarkerJPG && m != walker.MarkerDAC
}

func (s *segments) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch m := h.Marker; {
	case isSOF(m):
		return nil, s.frame(m, payload)
	case m == walker.MarkerDHT:
		return nil, s.huffmanTables(payload)
	case m == walker.MarkerDQT:
		return nil, s.quantTables(payload)
	case m == walker.MarkerDRI:
		ch := binary.ChainBytes(payload, binary.BigEndian)
		n := ch.U16("restart interval")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		s.Dir.Set("Restart Interval", n)
	case m == walker.MarkerCOM:
		return nil, s.comment(payload)
	case m == walker.MarkerAPP0:
		return nil, s.app0(payload)
	case m == walker.MarkerAPP0+1:
		return nil, s.app1(payload)
	case m == walker.MarkerAPP0+2:
		return nil, s.app2(payload)
	case m == walker.MarkerAPP0+13:
		return nil, s.app13(payload)
	case m == walker.MarkerAPP0+14:
		return nil, s.app14(payload)
	}
	return nil, nil
}

var compressionTypes = [16]string{
	0:  "Baseline DCT, Huffman coding",
	1:  "Extended sequential DCT, Huffman coding",
	2:  "Progressive DCT, Huffman coding",
	3:  "Lossless, Huffman coding",
	5:  "Sequential DCT, differential Huffman coding",
	6:  "Progressive DCT, differential Huffman coding",
	7:  "Lossless, differential Huffman coding",
	9:  "Extended sequential DCT, arithmetic coding",
	10: "Progressive DCT, arithmetic coding",
	11: "Lossless, arithmetic coding",
	13: "Sequential DCT, differential arithmetic coding",
	14: "Progressive DCT, differential arithmetic coding",
	15: "Lossless, differential arithmetic coding",
}

func (s *segments) frame(m byte, payload []byte) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	precision := ch.U8("sample precision")
	height := ch.U16("image height")
	width := ch.U16("image width")
	components := ch.U8("component count")
	if err := ch.Error(); err != nil {
		return err
	}

	s.Dir.Set("Compression Type", compressionTypes[m-walker.MarkerSOF0])
	s.Dir.Set("Bits Per Sample", precision)
	s.Dir.Set("Image Height", height)
	s.Dir.Set("Image Width", width)
	s.Dir.Set("Color Components", components)

	var factors []byte
	for range components {
		ch.Skip(1, "component ID")
		factors = append(factors, ch.U8("sampling factors"))
		ch.Skip(1, "quantization table")
	}
	if err := ch.Error(); err != nil {
		return err
	}
	if components == 3 {
		s.Dir.Set("Y Cb Cr Sub Sampling", subsampling(factors[0]))
	}
	return nil
}

// subsampling describes the luma sampling factors relative to 1x1 chroma.
func subsampling(f byte) string {
	h, v := f>>4, f&0x0F
	name := map[[2]byte]string{
		{1, 1}: "YCbCr4:4:4",
		{2, 1}: "YCbCr4:2:2",
		{2, 2}: "YCbCr4:2:0",
		{4, 1}: "YCbCr4:1:1",
		{1, 2}: "YCbCr4:4:0",
	}[[2]byte{h, v}]
	if name == "" {
		return fmt.Sprintf("(%d %d)", h, v)
	}
	return fmt.Sprintf("%s (%d %d)", name, h, v)
}

// huffmanTables counts the tables of a DHT segment, which may hold several.
func (s *segments) huffmanTables(payload []byte) error {
	for p := payload; len(p) > 0; {
		if len(p) < 17 {
			return fmt.Errorf("Huffman table of %d bytes is too short", len(p))
		}
		n := 17
		for _, c := range p[1:17] {
			n += int(c)
		}
		if n > len(p) {
			return fmt.Errorf("Huffman table needs %d bytes, %d left", n, len(p))
		}
		s.huffman++
		p = p[n:]
	}
	s.Dir.Set("Huffman Tables", s.huffman)
	return nil
}

// quantTables counts the tables of a DQT segment. 16-bit tables have the
// high nibble of the first byte set.
func (s *segments) quantTables(payload []byte) error {
	for p := payload; len(p) > 0; {
		n := 65
		if p[0]>>4 != 0 {
			n = 129
		}
		if n > len(p) {
			return fmt.Errorf("quantization table needs %d bytes, %d left", n, len(p))
		}
		s.quant++
		p = p[n:]
	}
	s.Dir.Set("Quantization Tables", s.quant)
	return nil
}

func (s *segments) comment(payload []byte) error {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(bytes.TrimRight(payload, "\x00"))
	if err != nil {
		return err
	}
	s.dir("JPEG Comment").Set("Comment", string(text))
	return nil
}

func (s *segments) app0(payload []byte) error {
	switch {
	case bytes.HasPrefix(payload, idJFIF):
		ch := binary.ChainBytes(payload[len(idJFIF):], binary.BigEndian)
		major, minor := ch.U8("major version"), ch.U8("minor version")
		units := ch.U8("density units")
		x, y := ch.U16("x density"), ch.U16("y density")
		tw, th := ch.U8("thumbnail width"), ch.U8("thumbnail height")
		if err := ch.Error(); err != nil {
			return err
		}
		d := s.dir("JFIF")
		d.Set("JFIF Version", fmt.Sprintf("%d.%02d", major, minor))
		d.Set("Resolution Unit", [...]string{"None", "inches", "cm"}[min(units, 2)])
		d.Set("X Resolution", x)
		d.Set("Y Resolution", y)
		if tw > 0 && th > 0 {
			d.Set("Thumbnail Width", tw)
			d.Set("Thumbnail Height", th)
		}
	case bytes.HasPrefix(payload, idJFXX):
		if len(payload) > len(idJFXX) {
			code := payload[len(idJFXX)]
			d := s.dir("JFIF")
			switch code {
			case 0x10:
				d.Set("Thumbnail Format", "JPEG")
			case 0x11:
				d.Set("Thumbnail Format", "1 byte/pixel")
			case 0x13:
				d.Set("Thumbnail Format", "3 bytes/pixel")
			}
		}
	}
	return nil
}

func (s *segments) app1(payload []byte) error {
	switch {
	case bytes.HasPrefix(payload, idExif):
		c := binary.NewBytesCursor(payload[len(idExif):])
		h, err := tiff.ReadHeader(c)
		if err != nil {
			return fmt.Errorf("Exif: %w", err)
		}
		d := s.dir("Exif")
		d.Set("Byte Order", tiff.ByteOrderName(h.Order))
		d.Set("First IFD Offset", h.FirstIFD)
		n, err := tiff.EntryCount(c, h)
		if err != nil {
			return fmt.Errorf("Exif: %w", err)
		}
		d.Set("IFD0 Entry Count", n)
	case bytes.HasPrefix(payload, idXMP):
		d := s.dir("XMP")
		d.Set("XMP Size", len(payload)-len(idXMP))
	case bytes.HasPrefix(payload, idExtendedXMP):
		d := s.dir("XMP")
		n, _ := d.GetInt("Extended XMP Segments")
		d.Set("Extended XMP Segments", n+1)
	}
	return nil
}

func (s *segments) app2(payload []byte) error {
	if !bytes.HasPrefix(payload, idICC) {
		return nil
	}
	ch := binary.ChainBytes(payload[len(idICC):], binary.BigEndian)
	seq := ch.U8("ICC chunk number")
	total := ch.U8("ICC chunk count")
	if err := ch.Error(); err != nil {
		return err
	}

	d := s.dir("ICC Profile")
	s.iccParts++
	s.iccSize += int(ch.Remaining())
	d.Set("Segments", fmt.Sprintf("%d of %d", s.iccParts, total))
	d.Set("Profile Data Size", s.iccSize)
	if seq != 1 {
		return nil
	}

	size := ch.U32("profile size")
	cmm := ch.String(4, "CMM type")
	version := ch.Bytes(4, "profile version")
	class := ch.String(4, "profile class")
	space := ch.String(4, "color space")
	pcs := ch.String(4, "connection space")
	if err := ch.Error(); err != nil {
		return err
	}
	d.Set("Profile Size", size)
	d.SetString("Profile CMM Type", strings.TrimRight(cmm, "\x00 "))
	d.Set("Profile Version", fmt.Sprintf("%d.%d.%d", version[0], version[1]>>4, version[1]&0x0F))
	d.Set("Profile Class", strings.TrimSpace(class))
	d.Set("Color Space Data", strings.TrimSpace(space))
	d.Set("Profile Connection Space", strings.TrimSpace(pcs))
	return nil
}

// app13 counts the image resource blocks of a Photoshop segment.
func (s *segments) app13(payload []byte) error {
	if !bytes.HasPrefix(payload, idPhotoshop) {
		return nil
	}
	d := s.dir("Photoshop")
	d.Set("Photoshop Size", len(payload)-len(idPhotoshop))

	ch := binary.ChainBytes(payload[len(idPhotoshop):], binary.BigEndian)
	var count int
	for ch.Remaining() >= 12 {
		if sig := ch.String(4, "resource signature"); sig != "8BIM" {
			return fmt.Errorf("Photoshop resource signature %q", sig)
		}
		id := ch.U16("resource ID")
		// Pascal name padded to an even length, counting the length byte.
		n := int64(ch.U8("resource name length"))
		ch.Skip(n+(n+1)&1, "resource name")
		size := int64(ch.U32("resource size"))
		ch.Skip(size+size&1, "resource data")
		if err := ch.Error(); err != nil {
			return err
		}
		count++
		if id == 0x0404 {
			d.Set("Has IPTC", true)
		}
	}
	d.Set("Resource Count", count)
	return nil
}

func (s *segments) app14(payload []byte) error {
	if !bytes.HasPrefix(payload, idAdobe) {
		return nil
	}
	ch := binary.ChainBytes(payload[len(idAdobe):], binary.BigEndian)
	version := ch.U16("DCT encode version")
	flags0 := ch.U16("flags 0")
	flags1 := ch.U16("flags 1")
	transform := ch.U8("color transform")
	if err := ch.Error(); err != nil {
		return err
	}
	d := s.dir("Adobe JPEG")
	d.Set("DCT Encode Version", version)
	d.Set("APP14 Flags 0", fmt.Sprintf("0x%04X", flags0))
	d.Set("APP14 Flags 1", fmt.Sprintf("0x%04X", flags1))
	switch transform {
	case 0:
		d.Set("Color Transform", "Unknown (RGB or CMYK)")
	case 1:
		d.Set("Color Transform", "YCbCr")
	case 2:
		d.Set("Color Transform", "YCCK")
	default:
		d.Set("Color Transform", fmt.Sprintf("Unknown (%d)", transform))
	}
	return nil
}
