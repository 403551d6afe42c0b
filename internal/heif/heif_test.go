package heif

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff/bmfftest"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

func be() *binary.Writer { return binary.NewWriter(binary.BigEndian) }

func extract(t *testing.T, data []byte) *types.Directory {
	t.Helper()
	md := types.NewMetadata("test.heic", types.FormatHEIF, int64(len(data)))
	c := binary.NewBufferCursor(bytes.NewReader(data), int64(len(data)), "test.heic")
	require.NoError(t, Extract(context.Background(), c, md, walker.DefaultConfig()))
	require.Len(t, md.Directories(), 1)
	return md.Directory("HEIF")
}

func infe(id uint16, typ string) []byte {
	return binary.FullBox("infe", 2, 0, be().U16(id).U16(0).String(typ).U8(0).Bytes())
}

func hvcC() []byte {
	b := make([]byte, 23)
	b[0] = 1
	b[1] = 0x01
	b[12] = 90
	b[16] = 0xFD
	b[17] = 0xF8
	return binary.Box("hvcC", b)
}

func image(handler string) []byte {
	ipco := binary.Box("ipco",
		hvcC(),
		binary.FullBox("ispe", 0, 0, be().U32(4032).U32(3024).Bytes()),
		binary.Box("irot", []byte{1}),
		binary.Box("colr", be().String("nclx").U16(12).U16(13).U16(6).U8(0x80).Bytes()),
		binary.FullBox("pixi", 0, 0, []byte{3, 8, 8, 8}),
		binary.FullBox("ispe", 0, 0, be().U32(320).U32(240).Bytes()),
	)
	ipma := binary.FullBox("ipma", 0, 0, be().
		U32(2).
		U16(1).U8(5).U8(0x81).U8(2).U8(0x83).U8(4).U8(5).
		U16(3).U8(1).U8(6).
		Bytes())

	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr(handler, ""),
		binary.FullBox("pitm", 0, 0, be().U16(1).Bytes()),
		binary.FullBox("iinf", 0, 0, be().U16(3).Bytes(), infe(1, "hvc1"), infe(2, "Exif"), infe(3, "hvc1")),
		binary.FullBox("iloc", 0, 0, be().U16(0x4400).U16(3).Zeros(16).Bytes()),
		binary.FullBox("iref", 0, 0, binary.Box("thmb", be().U16(3).U16(1).U16(1).Bytes())),
		binary.Box("iprp", ipco, ipma),
	)
	return bytes.Join([][]byte{
		bmfftest.Ftyp("heic", "mif1", "heic"),
		meta,
		binary.Box("mdat", make([]byte, 64)),
	}, nil)
}

func TestExtract_Picture(t *testing.T) {
	dir := extract(t, image("pict"))

	expect := map[string]any{
		"Major Brand":              "heic",
		"Handler Type":             "Picture",
		"Primary Item Reference":   uint32(1),
		"Item Count":               uint32(3),
		"Item Types":               "hvc1, Exif, hvc1",
		"Exif Item":                uint32(2),
		"Item Location Count":      uint32(3),
		"Thumbnail References":     1,
		"HEVC Profile":             "Main",
		"HEVC Level":               3.0,
		"Chroma Format":            "4:2:0",
		"Image Width":              uint32(4032),
		"Image Height":             uint32(3024),
		"Rotation":                 90,
		"Color Primaries":          "Display P3",
		"Transfer Characteristics": "sRGB",
		"Video Full Range Flag":    true,
		"Bits Per Channel":         "8 8 8",
		"Primary Item Properties":  "hvcC, ispe, irot, colr, pixi",
	}
	for name, want := range expect {
		got, ok := dir.Get(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, want, got, name)
		}
	}
	assert.False(t, dir.HasErrors(), dir.Errors())
}

func TestExtract_RequiresPictHandler(t *testing.T) {
	dir := extract(t, image("meta"))

	assert.True(t, dir.Has("Major Brand"))
	assert.True(t, dir.Has("Handler Type"))
	assert.False(t, dir.Has("Primary Item Reference"))
	assert.False(t, dir.Has("Image Width"))
}

func TestExtract_PropertyIndexOutOfRange(t *testing.T) {
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("pict", ""),
		binary.FullBox("pitm", 0, 0, be().U16(1).Bytes()),
		binary.Box("iprp",
			binary.Box("ipco", binary.Box("irot", []byte{2})),
			binary.FullBox("ipma", 0, 0, be().U32(1).U16(1).U8(2).U8(1).U8(7).Bytes()),
		),
	)
	dir := extract(t, meta)

	rot, _ := dir.Get("Rotation")
	assert.Equal(t, 180, rot)
	require.Len(t, dir.Errors(), 1)
	assert.Contains(t, dir.Errors()[0], "property 7 of 1")
}

func TestExtract_UUIDBoxes(t *testing.T) {
	id := uuid.MustParse("be7acfcb-97a9-42e8-9c71-999491e3afac")
	dir := extract(t, bytes.Join([][]byte{
		bmfftest.Ftyp("avif", "avif", "mif1"),
		binary.Box("uuid", id[:], []byte("<x:xmpmeta/>")),
	}, nil))

	ids, _ := dir.GetString("UUID Boxes")
	assert.Equal(t, id.String(), ids)
}

func TestExtract_AV1(t *testing.T) {
	av1C := binary.Box("av1C", []byte{0x81, 0x20 | 8, 0x40, 0})
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("pict", ""),
		binary.FullBox("pitm", 0, 0, be().U16(1).Bytes()),
		binary.Box("iprp",
			binary.Box("ipco", av1C),
			binary.FullBox("ipma", 0, 0, be().U32(1).U16(1).U8(1).U8(0x81).Bytes()),
		),
	)
	dir := extract(t, bytes.Join([][]byte{bmfftest.Ftyp("avif"), meta}, nil))

	profile, _ := dir.GetString("AV1 Profile")
	assert.Equal(t, "High", profile)
	depth, _ := dir.Get("Bit Depth")
	assert.Equal(t, 10, depth)
	level, _ := dir.GetInt("AV1 Level")
	assert.Equal(t, int64(8), level)
}
