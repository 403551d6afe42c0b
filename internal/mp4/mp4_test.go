package mp4

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff/bmfftest"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

func extract(t *testing.T, data []byte) *types.Metadata {
	t.Helper()
	md := types.NewMetadata("test.mp4", types.FormatMP4, int64(len(data)))
	c := binary.NewBufferCursor(bytes.NewReader(data), int64(len(data)), "test.mp4")
	require.NoError(t, Extract(context.Background(), c, md, walker.DefaultConfig()))
	return md
}

func join(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

func soundTrack() []byte {
	return binary.Box("trak",
		bmfftest.Tkhd(1, 0, 0),
		binary.Box("mdia",
			bmfftest.Mdhd(44100, 441000, "eng"),
			bmfftest.Hdlr("soun", "SoundHandler"),
			binary.Box("minf",
				bmfftest.Smhd(-128),
				binary.Box("stbl", bmfftest.AudioStsd("mp4a", 2, 16, 44100, bmfftest.Esds(2))),
			),
		),
	)
}

func TestExtract_TruncatedMoov(t *testing.T) {
	moov := binary.NewWriter(binary.BigEndian).U32(5000).String("moov").Raw(bmfftest.Mvhd(600, 600)...).Bytes()
	md := extract(t, join(bmfftest.Ftyp("isom", "isom", "mp41"), moov))

	dir := md.Directory("MP4")
	require.NotNil(t, dir)
	major, _ := dir.GetString("Major Brand")
	assert.Equal(t, "isom", major)
	assert.True(t, dir.Has("Compatible Brands"))
	assert.True(t, dir.Has("Duration"), "the complete mvhd inside the cut-off moov is decoded")

	require.Len(t, dir.Errors(), 1)
	assert.Contains(t, dir.Errors()[0], "exceeds data size")
	assert.Len(t, md.Errors(), 1)
}

func TestExtract_HandlerHandOff(t *testing.T) {
	// The second track has no hdlr, so its smhd stays with the generic
	// track handler and is never decoded.
	generic := binary.Box("trak",
		binary.Box("mdia",
			bmfftest.Mdhd(1000, 1000, "und"),
			binary.Box("minf", bmfftest.Smhd(64)),
		),
	)
	md := extract(t, join(
		bmfftest.Ftyp("mp42"),
		binary.Box("moov", bmfftest.Mvhd(1000, 10_000), soundTrack(), generic),
	))

	sounds := md.DirectoriesNamed("MP4 Sound")
	require.Len(t, sounds, 1)
	balance, _ := sounds[0].Get("Balance")
	assert.Equal(t, -0.5, balance)
	codec, _ := sounds[0].GetString("Audio Codec")
	assert.Equal(t, "AAC", codec)
	profile, _ := sounds[0].GetString("Audio Profile")
	assert.Equal(t, "AAC-LC", profile)

	tracks := md.DirectoriesNamed("MP4 Track")
	require.Len(t, tracks, 2)
	ht, _ := tracks[0].GetString("Handler Type")
	assert.Equal(t, "Audio Track", ht)
	lang, _ := tracks[0].GetString("Media Language Code")
	assert.Equal(t, "eng", lang)
	assert.False(t, tracks[1].Has("Handler Type"))
	for _, d := range md.Directories() {
		if d.Name != "MP4 Sound" {
			assert.False(t, d.Has("Balance"), d.Name)
		}
	}
	assert.Empty(t, md.Errors())
}

func TestExtract_Video(t *testing.T) {
	trak := binary.Box("trak",
		bmfftest.Tkhd(1, 1920, 1080),
		binary.Box("mdia",
			bmfftest.Mdhd(30000, 300300, "und"),
			bmfftest.Hdlr("vide", "VideoHandler"),
			binary.Box("minf",
				bmfftest.Vmhd(),
				binary.Box("stbl",
					bmfftest.VisualStsd("avc1", 1920, 1080, "AVC Coding"),
					bmfftest.Stts(300, 1001),
				),
			),
		),
	)
	md := extract(t, join(bmfftest.Ftyp("isom"), binary.Box("moov", bmfftest.Mvhd(1000, 10_000), trak)))

	v := md.Directory("MP4 Video")
	require.NotNil(t, v)
	fps, _ := v.Get("Video Frame Rate")
	assert.InDelta(t, 29.97, fps, 0.001)
	codec, _ := v.GetString("Video Codec")
	assert.Equal(t, "H.264", codec)
	mode, _ := v.GetString("Graphics Mode")
	assert.Equal(t, "ditherCopy", mode)

	root := md.Directory("MP4")
	d, _ := root.Get("Duration")
	assert.Equal(t, 10*time.Second, d)
}

func TestExtract_Hint(t *testing.T) {
	trak := binary.Box("trak", binary.Box("mdia",
		bmfftest.Hdlr("hint", ""),
		binary.Box("minf", bmfftest.Hmhd(1400, 1000, 500_000, 250_000)),
	))
	md := extract(t, binary.Box("moov", trak))

	h := md.Directory("MP4 Hint")
	require.NotNil(t, h)
	n, _ := h.GetInt("Max Bitrate")
	assert.Equal(t, int64(500_000), n)
}

func TestExtract_ItemList(t *testing.T) {
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("mdir", ""),
		binary.Box("ilst",
			bmfftest.TextItem("\xA9nam", "Chapter One"),
			bmfftest.TextItem("\xA9ART", "Narrator"),
			bmfftest.TrackItem("trkn", 1, 10),
		),
	)
	md := extract(t, binary.Box("moov", binary.Box("udta", meta)))

	items := md.Directory("MP4 ItemList")
	require.NotNil(t, items)
	title, _ := items.GetString("Title")
	assert.Equal(t, "Chapter One", title)
	track, _ := items.GetString("Track Number")
	assert.Equal(t, "1 of 10", track)
}

func TestExtract_KeyedMetadata(t *testing.T) {
	keys := binary.FullBox("keys", 0, 0, binary.NewWriter(binary.BigEndian).
		U32(1).
		U32(8+24).String("mdta").String("com.apple.quicktime.make").
		Bytes())
	meta := binary.FullBox("meta", 0, 0,
		bmfftest.Hdlr("mdta", ""),
		keys,
		binary.Box("ilst", binary.Box("\x00\x00\x00\x01", bmfftest.Data(1, []byte("Apple")))),
	)
	md := extract(t, binary.Box("moov", meta))

	dir := md.Directory("MP4 Metadata")
	require.NotNil(t, dir)
	mk, _ := dir.GetString("Make")
	assert.Equal(t, "Apple", mk)
	assert.Nil(t, md.Directory("MP4 ItemList"))
}

func TestExtract_NeroChapters(t *testing.T) {
	w := binary.NewWriter(binary.BigEndian).Zeros(4).U8(2).
		U64(0).U8(5).String("Intro").
		U64(65_500 * 10_000).U8(4).String("Main")
	md := extract(t, binary.Box("moov", binary.Box("udta", binary.FullBox("chpl", 1, 0, w.Bytes()))))

	dir := md.Directory("MP4")
	n, _ := dir.GetInt("Chapter Count")
	assert.Equal(t, int64(2), n)
	second, _ := dir.GetString("Chapter 2")
	assert.Equal(t, "0:01:05.500 Main", second)
}

func TestExtract_3GPStrings(t *testing.T) {
	titl := binary.FullBox("titl", 0, 0, binary.NewWriter(binary.BigEndian).U16(0x15C7).String("Holiday").U8(0).Bytes())
	auth := binary.FullBox("auth", 0, 0, binary.NewWriter(binary.BigEndian).U16(0x55C4).Raw(0xFE, 0xFF, 0, 'J', 0, 'o').Bytes())
	yrrc := binary.FullBox("yrrc", 0, 0, binary.NewWriter(binary.BigEndian).U16(2024).Bytes())
	md := extract(t, join(bmfftest.Ftyp("3gp5"), binary.Box("moov", binary.Box("udta", titl, auth, yrrc))))

	dir := md.Directory("MP4")
	title, _ := dir.GetString("Title")
	assert.Equal(t, "Holiday", title)
	lang, _ := dir.GetString("Title Language")
	assert.Equal(t, "eng", lang)
	author, _ := dir.GetString("Author")
	assert.Equal(t, "Jo", author)
	assert.False(t, dir.Has("Author Language"))
	year, _ := dir.GetInt("Recording Year")
	assert.Equal(t, int64(2024), year)
}

func TestExtract_CanonUUID(t *testing.T) {
	cmt1 := binary.NewWriter(binary.LittleEndian).String("II").U16(42).U32(8).U16(4).Zeros(48).Bytes()
	id := canonUUID
	box := binary.Box("uuid", id[:],
		binary.Box("CNCV", []byte("CanonCR3_001/00.09.00/00.00.00\x00")),
		binary.Box("CMT1", cmt1),
	)
	other := uuid.MustParse("eaf42b5e-1c98-4b88-b9fb-b7dc406e4d16")
	md := extract(t, join(bmfftest.Ftyp("crx "), binary.Box("moov", box, binary.Box("uuid", other[:]))))

	dir := md.Directory("Canon")
	require.NotNil(t, dir)
	v, _ := dir.GetString("Compressor Version")
	assert.Equal(t, "CanonCR3_001/00.09.00/00.00.00", v)
	order, _ := dir.GetString("IFD0 Byte Order")
	assert.Equal(t, "Little-endian (Intel, II)", order)
	n, _ := dir.GetInt("IFD0 Entries")
	assert.Equal(t, int64(4), n)
	assert.Len(t, md.DirectoriesNamed("Canon"), 1)
}

func TestExtract_Fragments(t *testing.T) {
	mehd := binary.FullBox("mehd", 0, 0, binary.NewWriter(binary.BigEndian).U32(2000).Bytes())
	mfhd := func(seq uint32) []byte {
		return binary.FullBox("mfhd", 0, 0, binary.NewWriter(binary.BigEndian).U32(seq).Bytes())
	}
	md := extract(t, join(
		binary.Box("moov", bmfftest.Mvhd(1000, 0), binary.Box("mvex", mehd)),
		binary.Box("moof", mfhd(1)),
		binary.Box("mdat", make([]byte, 16)),
		binary.Box("moof", mfhd(2)),
	))

	dir := md.Directory("MP4")
	d, _ := dir.Get("Movie Fragment Duration")
	assert.Equal(t, 2*time.Second, d)
	n, _ := dir.GetInt("Movie Fragments")
	assert.Equal(t, int64(2), n)
	seq, _ := dir.GetInt("Last Fragment Sequence")
	assert.Equal(t, int64(2), seq)
}

func TestExtract_StreamMatchesBuffer(t *testing.T) {
	data := join(bmfftest.Ftyp("M4A ", "M4A ", "mp42"), binary.Box("moov", bmfftest.Mvhd(44100, 441000), soundTrack()))

	buffered := extract(t, data)
	streamed := types.NewMetadata("test.mp4", types.FormatM4A, -1)
	require.NoError(t, Extract(context.Background(),
		binary.NewStreamCursor(bytes.NewReader(data), "test.mp4"), streamed, walker.DefaultConfig()))

	require.Equal(t, len(buffered.Directories()), len(streamed.Directories()))
	for i, d := range buffered.Directories() {
		assert.Equal(t, d.TagList(), streamed.Directories()[i].TagList(), d.Name)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	data := join(bmfftest.Ftyp("isom"), binary.Box("moov", bmfftest.Mvhd(1000, 5000), soundTrack()))
	first, second := extract(t, data), extract(t, data)
	require.Equal(t, len(first.Directories()), len(second.Directories()))
	for i, d := range first.Directories() {
		assert.Equal(t, d.TagList(), second.Directories()[i].TagList())
	}
}
