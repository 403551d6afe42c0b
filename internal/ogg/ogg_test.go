package ogg

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

func le() *binary.Writer { return binary.NewWriter(binary.LittleEndian) }

// page builds an Ogg page. The CRC is left zero.
func page(flags byte, granule int64, serial uint32, lacing, payload []byte) []byte {
	return le().String("OggS").U8(0).U8(flags).
		U64(uint64(granule)).U32(serial).U32(0).U32(0).
		U8(uint8(len(lacing))).Raw(lacing...).Raw(payload...).Bytes()
}

// lace builds the lacing values and payload of complete packets.
func lace(packets ...[]byte) (lacing, payload []byte) {
	for _, p := range packets {
		n := len(p)
		for ; n >= 255; n -= 255 {
			lacing = append(lacing, 255)
		}
		lacing = append(lacing, byte(n))
		payload = append(payload, p...)
	}
	return lacing, payload
}

func packetPage(flags byte, granule int64, serial uint32, packets ...[]byte) []byte {
	lacing, payload := lace(packets...)
	return page(flags, granule, serial, lacing, payload)
}

func comments(vendor string, list ...string) []byte {
	w := le().U32(uint32(len(vendor))).String(vendor).U32(uint32(len(list)))
	for _, c := range list {
		w.U32(uint32(len(c))).String(c)
	}
	return w.Bytes()
}

func vorbisID(channels uint8, rate uint32, nominal int32) []byte {
	return le().String("\x01vorbis").U32(0).U8(channels).U32(rate).
		U32(0).U32(uint32(nominal)).U32(0).U8(0xB8).U8(1).Bytes()
}

func vorbisComment(list ...string) []byte {
	return append(append([]byte("\x03vorbis"), comments("Xiph.Org libVorbis I 20200704", list...)...), 1)
}

func opusHead(channels uint8, preSkip uint16) []byte {
	return le().String("OpusHead").U8(1).U8(channels).U16(preSkip).U32(44100).U16(0xFF00).U8(0).Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func extract(t *testing.T, data []byte, stream bool) *types.Metadata {
	t.Helper()
	md := types.NewMetadata("test.ogg", types.FormatOgg, int64(len(data)))
	var c *binary.Cursor
	if stream {
		c = binary.NewStreamCursor(bytes.NewReader(data), "test.ogg")
	} else {
		c = binary.NewBufferCursor(bytes.NewReader(data), int64(len(data)), "test.ogg")
	}
	require.NoError(t, Extract(context.Background(), c, md, walker.DefaultConfig()))
	return md
}

func vorbisFile(list ...string) []byte {
	const serial = 0x1234
	return concat(
		packetPage(flagBOS, 0, serial, vorbisID(2, 44100, 128000)),
		packetPage(0, 0, serial, vorbisComment(list...), []byte("\x05vorbis setup")),
		packetPage(0, 44100, serial, make([]byte, 100)),
		packetPage(0x04, 88200, serial, make([]byte, 50)),
	)
}

func TestExtract_Vorbis(t *testing.T) {
	data := vorbisFile("TITLE=Song", "ARTIST=Band")

	for _, stream := range []bool{false, true} {
		md := extract(t, data, stream)
		assert.Empty(t, md.Errors())

		ogg := md.Directory("Ogg")
		count, _ := ogg.GetInt("Stream Count")
		assert.EqualValues(t, 1, count)
		codecs, _ := ogg.Get("Codecs")
		assert.Equal(t, []string{"Vorbis"}, codecs)

		dir := md.Directory("Vorbis")
		require.NotNil(t, dir)
		rate, _ := dir.GetInt("Sample Rate")
		assert.EqualValues(t, 44100, rate)
		channels, _ := dir.GetInt("Audio Channels")
		assert.EqualValues(t, 2, channels)
		nominal, _ := dir.GetInt("Nominal Bitrate")
		assert.EqualValues(t, 128000, nominal)
		assert.False(t, dir.Has("Max Bitrate"))
		d, _ := dir.Get("Duration")
		assert.Equal(t, 2*time.Second, d)

		vc := md.Directory("Vorbis Comment")
		require.NotNil(t, vc)
		title, _ := vc.GetString("Title")
		assert.Equal(t, "Song", title)
		vendor, _ := vc.GetString("Vendor")
		assert.Equal(t, "Xiph.Org libVorbis I 20200704", vendor)
	}
}

func TestExtract_OpusCommentAcrossPages(t *testing.T) {
	const serial = 7
	tags := append([]byte("OpusTags"), comments(strings.Repeat("v", 265), "TITLE=Opus Song")...)
	require.Len(t, tags, 300)

	data := concat(
		packetPage(flagBOS, 0, serial, opusHead(2, 312)),
		page(0, noGranule, serial, []byte{255}, tags[:255]),
		page(flagContinued, 0, serial, []byte{45}, tags[255:]),
		packetPage(0x04, 48312, serial, make([]byte, 80)),
	)

	for _, stream := range []bool{false, true} {
		md := extract(t, data, stream)
		assert.Empty(t, md.Errors())

		dir := md.Directory("Opus")
		require.NotNil(t, dir)
		skip, _ := dir.GetInt("Pre Skip")
		assert.EqualValues(t, 312, skip)
		input, _ := dir.GetInt("Input Sample Rate")
		assert.EqualValues(t, 44100, input)
		gain, _ := dir.Get("Output Gain")
		assert.InDelta(t, -1.0, gain, 1e-9)
		d, _ := dir.Get("Duration")
		assert.Equal(t, time.Second, d)

		title, _ := md.Directory("Vorbis Comment").GetString("Title")
		assert.Equal(t, "Opus Song", title)
	}
}

func TestExtract_Picture(t *testing.T) {
	block := binary.NewWriter(binary.BigEndian).U32(3).
		U32(10).String("image/jpeg").U32(5).String("cover").
		U32(300).U32(300).U32(24).U32(0).U32(3).Raw(1, 2, 3).Bytes()
	data := vorbisFile("METADATA_BLOCK_PICTURE=" + base64.StdEncoding.EncodeToString(block))

	md := extract(t, data, false)
	assert.Empty(t, md.Errors())
	pic := md.Directory("Ogg Picture")
	require.NotNil(t, pic)
	mime, _ := pic.GetString("Picture MIME Type")
	assert.Equal(t, "image/jpeg", mime)
	desc, _ := pic.GetString("Picture Description")
	assert.Equal(t, "cover", desc)
}

func TestExtract_BadPicture(t *testing.T) {
	md := extract(t, vorbisFile("METADATA_BLOCK_PICTURE=!!!"), false)
	pic := md.Directory("Ogg Picture")
	require.NotNil(t, pic)
	require.Len(t, pic.Errors(), 1)
	assert.Contains(t, pic.Errors()[0], "picture")
}

func TestExtract_OtherCodec(t *testing.T) {
	data := concat(
		packetPage(flagBOS, 0, 1, []byte("\x80theora rest of header")),
		packetPage(flagBOS, 0, 2, vorbisID(1, 8000, 0)),
		packetPage(0, 0, 2, vorbisComment("TITLE=Clip")),
		packetPage(0, 0, 1, make([]byte, 10)),
		packetPage(0x04, 16000, 2, make([]byte, 10)),
	)
	md := extract(t, data, true)
	assert.Empty(t, md.Errors())

	codecs, _ := md.Directory("Ogg").Get("Codecs")
	assert.Equal(t, []string{"Theora", "Vorbis"}, codecs)
	d, _ := md.Directory("Vorbis").Get("Duration")
	assert.Equal(t, 2*time.Second, d)
}

func TestExtract_InvalidCapturePattern(t *testing.T) {
	data := concat(
		packetPage(flagBOS, 0, 1, vorbisID(2, 44100, 0)),
		bytes.Repeat([]byte("X"), 40),
	)
	md := extract(t, data, false)

	errs := md.Directory("Ogg").Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid capture pattern")
	assert.NotNil(t, md.Directory("Vorbis"))
}

func TestExtract_NoBeginningOfStream(t *testing.T) {
	md := extract(t, packetPage(0, 100, 1, make([]byte, 20)), false)
	errs := md.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no beginning-of-stream page")
}

func TestExtract_WrongCommentHeader(t *testing.T) {
	data := concat(
		packetPage(flagBOS, 0, 1, opusHead(1, 0)),
		packetPage(0, 0, 1, []byte("NotTags!")),
	)
	md := extract(t, data, false)
	errs := md.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "expected OpusTags header")
}

func TestLogical_Feed(t *testing.T) {
	l := &logical{serial: 1}
	lacing, payload := lace(make([]byte, 255), []byte("ab"))
	packets, err := l.feed(&Page{Lacing: lacing}, payload, 1<<20)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	assert.Len(t, packets[0], 255)
	assert.Equal(t, "ab", string(packets[1]))

	_, err = l.feed(&Page{Lacing: []byte{255, 255}}, make([]byte, 510), 300)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
	assert.True(t, l.done)
}
