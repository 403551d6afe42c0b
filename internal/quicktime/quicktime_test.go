package quicktime

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff/bmfftest"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

func extract(t *testing.T, data []byte) *types.Metadata {
	t.Helper()
	md := types.NewMetadata("test.mov", types.FormatQuickTime, int64(len(data)))
	c := binary.NewBufferCursor(bytes.NewReader(data), int64(len(data)), "test.mov")
	require.NoError(t, Extract(context.Background(), c, md, walker.DefaultConfig()))
	return md
}

func be() *binary.Writer { return binary.NewWriter(binary.BigEndian) }

// text builds one international text record.
func text(lang uint16, s string) []byte {
	return be().U16(uint16(len(s))).U16(lang).String(s).Bytes()
}

func soundTrak() []byte {
	return binary.Box("trak",
		bmfftest.Tkhd(1, 0, 0),
		binary.Box("mdia",
			bmfftest.Mdhd(48000, 96000, "und"),
			bmfftest.QTHdlr("mhlr", "soun", "Apple Sound Media Handler"),
			binary.Box("minf",
				bmfftest.Smhd(0),
				bmfftest.QTHdlr("dhlr", "alis", "Apple Alias Data Handler"),
				binary.Box("stbl", bmfftest.AudioStsd("sowt", 2, 16, 48000)),
			),
		),
	)
}

func videoTrak() []byte {
	return binary.Box("trak",
		bmfftest.Tkhd(2, 640, 480),
		binary.Box("mdia",
			bmfftest.Mdhd(2500, 2500, "und"),
			bmfftest.QTHdlr("mhlr", "vide", "Apple Video Media Handler"),
			binary.Box("minf",
				bmfftest.Vmhd(),
				binary.Box("stbl",
					bmfftest.VisualStsd("jpeg", 640, 480, "Photo - JPEG"),
					bmfftest.Stts(25, 100),
				),
			),
		),
	)
}

func timecodeTrak() []byte {
	entry := be().U32(34).String("tmcd").Zeros(6).U16(1).Zeros(4).
		U32(1).U32(30000).U32(1001).U8(30).U8(0).Bytes()
	stsd := binary.FullBox("stsd", 0, 0, be().U32(1).Raw(entry...).Bytes())
	tcmi := binary.FullBox("tcmi", 0, 0, be().U16(0).U16(0).U16(12).Zeros(2).
		U16(65535).U16(65535).U16(65535).U16(0).U16(0).U16(0).
		U8(6).String("Menlo\xA5").Bytes())

	return binary.Box("trak",
		binary.Box("mdia",
			bmfftest.QTHdlr("mhlr", "tmcd", "Time Code Media Handler"),
			binary.Box("minf",
				binary.Box("gmhd", binary.Box("tmcd", tcmi)),
				binary.Box("stbl", stsd),
			),
		),
	)
}

func TestExtract_Movie(t *testing.T) {
	md := extract(t, bytes.Join([][]byte{
		bmfftest.Ftyp("qt  ", "qt  "),
		binary.Box("wide"),
		binary.Box("mdat", make([]byte, 32)),
		binary.Box("moov", bmfftest.Mvhd(600, 1200), soundTrak(), videoTrak(), timecodeTrak()),
	}, nil))

	root := md.Directory("QuickTime")
	require.NotNil(t, root)
	major, _ := root.GetString("Major Brand")
	assert.Equal(t, "qt", major)
	d, _ := root.Get("Duration")
	assert.Equal(t, 2*time.Second, d)

	tracks := md.DirectoriesNamed("QuickTime Track")
	require.Len(t, tracks, 3)
	desc, _ := tracks[0].GetString("Handler Description")
	assert.Equal(t, "Apple Sound Media Handler", desc, "the data handler does not override the media handler")

	sound := md.Directory("QuickTime Sound")
	require.NotNil(t, sound)
	codec, _ := sound.GetString("Audio Codec")
	assert.Equal(t, "PCM (little-endian)", codec)
	rate, _ := sound.Get("Audio Sample Rate")
	assert.Equal(t, 48000.0, rate)

	video := md.Directory("QuickTime Video")
	require.NotNil(t, video)
	fps, _ := video.Get("Video Frame Rate")
	assert.Equal(t, 25.0, fps)
	name, _ := video.GetString("Compressor Name")
	assert.Equal(t, "Photo - JPEG", name)

	tc := md.Directory("QuickTime Timecode")
	require.NotNil(t, tc)
	drop, _ := tc.Get("Drop Frame")
	assert.Equal(t, true, drop)
	tcfps, _ := tc.Get("Frame Rate")
	assert.InDelta(t, 29.97, tcfps, 0.001)
	font, _ := tc.GetString("Font Name")
	assert.Equal(t, "Menlo•", font)

	assert.Empty(t, md.Errors())
}

func TestExtract_UserDataText(t *testing.T) {
	nam := binary.Box("\xA9nam", text(0, "Caf\x8E"), text(2, "Kaffee"))
	day := binary.Box("\xA9day", text(0x15C7, "2024-05-01T10:00:00Z"))
	// udta is terminated by four zero bytes in older files.
	udta := binary.Box("udta", nam, day, binary.Box("name", []byte("Clip")), []byte{0, 0, 0, 0})
	md := extract(t, binary.Box("moov", udta))

	root := md.Directory("QuickTime")
	title, _ := root.GetString("Title")
	assert.Equal(t, "Café", title)
	german, _ := root.GetString("Title-de")
	assert.Equal(t, "Kaffee", german)
	date, _ := root.GetString("Content Create Date")
	assert.Equal(t, "2024-05-01T10:00:00Z", date)
	name, _ := root.GetString("Name")
	assert.Equal(t, "Clip", name)
	assert.Empty(t, md.Errors())
}

func TestExtract_UserDataTextOverrun(t *testing.T) {
	bad := binary.Box("\xA9cmt", be().U16(100).U16(0).String("short").Bytes())
	md := extract(t, binary.Box("moov", binary.Box("udta", bad)))

	errs := md.Directory("QuickTime").Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "exceeds")
}

func TestExtract_MdtaMetadata(t *testing.T) {
	keys := binary.FullBox("keys", 0, 0, be().
		U32(2).
		U32(8+24).String("mdta").String("com.apple.quicktime.make").
		U32(8+25).String("mdta").String("com.apple.quicktime.model").
		Bytes())
	// Classic QuickTime meta: no version/flags before the first child.
	meta := binary.Box("meta",
		bmfftest.Hdlr("mdta", ""),
		keys,
		binary.Box("ilst",
			binary.Box("\x00\x00\x00\x01", bmfftest.Data(1, []byte("Apple"))),
			binary.Box("\x00\x00\x00\x02", bmfftest.Data(1, []byte("iPhone 15 Pro"))),
		),
	)
	md := extract(t, binary.Box("moov", bmfftest.Mvhd(600, 600), meta))

	dir := md.Directory("QuickTime Metadata")
	require.NotNil(t, dir)
	mk, _ := dir.GetString("Make")
	assert.Equal(t, "Apple", mk)
	model, _ := dir.GetString("Model")
	assert.Equal(t, "iPhone 15 Pro", model)
	assert.Empty(t, md.Errors())
}

func TestExtract_UdtaMetaFullBox(t *testing.T) {
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("mdir", ""),
		binary.Box("ilst", bmfftest.TextItem("\xA9nam", "Trailer")),
	)
	md := extract(t, binary.Box("moov", binary.Box("udta", meta)))

	dir := md.Directory("QuickTime ItemList")
	require.NotNil(t, dir)
	title, _ := dir.GetString("Title")
	assert.Equal(t, "Trailer", title)
}

func TestExtract_UdtaMetaStream(t *testing.T) {
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("mdir", ""),
		binary.Box("ilst", bmfftest.TextItem("\xA9ART", "Someone")),
	)
	data := binary.Box("moov", binary.Box("udta", meta))
	md := types.NewMetadata("", types.FormatQuickTime, -1)
	require.NoError(t, Extract(context.Background(), binary.NewStreamCursor(bytes.NewReader(data), ""), md, walker.DefaultConfig()))

	dir := md.Directory("QuickTime ItemList")
	require.NotNil(t, dir)
	artist, _ := dir.GetString("Artist")
	assert.Equal(t, "Someone", artist)
}

func TestExtract_CompressedMovie(t *testing.T) {
	cmov := binary.Box("cmov", binary.Box("dcom", []byte("zlib")), binary.Box("cmvd", make([]byte, 8)))
	md := extract(t, bytes.Join([][]byte{binary.Box("moov", cmov), binary.Box("free", nil)}, nil))

	errs := md.Directory("QuickTime").Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "cmov: Compressed QuickTime movies not supported", errs[0])
}

func TestExtract_Preview(t *testing.T) {
	pnot := binary.Box("pnot", be().U32(3600).U16(0).String("PICT").U16(1).Bytes())
	md := extract(t, bytes.Join([][]byte{pnot, binary.Box("PICT", make([]byte, 10))}, nil))

	root := md.Directory("QuickTime")
	typ, _ := root.GetString("Preview Atom Type")
	assert.Equal(t, "PICT", typ)
	date, _ := root.Get("Preview Date")
	assert.Equal(t, time.Date(1904, 1, 1, 1, 0, 0, 0, time.UTC), date)
}
