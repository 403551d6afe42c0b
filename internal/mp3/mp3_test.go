package mp3

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3/id3test"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// 128 kbps, 44.1 kHz, joint stereo, original MPEG-1 Layer III.
var mpeg1L3 = []byte{0xFF, 0xFB, 0x90, 0x44}

const mpeg1L3Size = 417

func frame(header []byte, size int) []byte {
	b := make([]byte, size)
	copy(b, header)
	return b
}

func xingFrame(frames, bytes uint32) []byte {
	b := frame(mpeg1L3, mpeg1L3Size)
	copy(b[36:], binary.NewWriter(binary.BigEndian).String("Xing").U32(3).U32(frames).U32(bytes).Bytes())
	return b
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
	md := types.NewMetadata("test.mp3", types.FormatMP3, int64(len(data)))
	var c *binary.Cursor
	if stream {
		c = binary.NewStreamCursor(bytes.NewReader(data), "test.mp3")
	} else {
		c = binary.NewBufferCursor(bytes.NewReader(data), int64(len(data)), "test.mp3")
	}
	require.NoError(t, Extract(context.Background(), c, md, walker.DefaultConfig()))
	return md
}

func TestExtract_XingWithID3v2(t *testing.T) {
	data := concat(
		id3test.V23(id3test.Frame("TIT2", "Song"), id3test.Frame("TPE1", "Band")),
		xingFrame(100, 41700),
		frame(mpeg1L3, mpeg1L3Size),
	)

	for _, stream := range []bool{false, true} {
		md := extract(t, data, stream)
		assert.Empty(t, md.Errors())

		tags := md.Directory("ID3")
		require.NotNil(t, tags)
		title, _ := tags.GetString("Title")
		assert.Equal(t, "Song", title)

		dir := md.Directory("MPEG")
		require.NotNil(t, dir)
		version, _ := dir.GetString("MPEG Audio Version")
		assert.Equal(t, "1", version)
		layer, _ := dir.GetInt("Audio Layer")
		assert.EqualValues(t, 3, layer)
		bitrate, _ := dir.GetInt("Audio Bitrate")
		assert.EqualValues(t, 128000, bitrate)
		rate, _ := dir.GetInt("Sample Rate")
		assert.EqualValues(t, 44100, rate)
		mode, _ := dir.GetString("Channel Mode")
		assert.Equal(t, "Joint Stereo", mode)
		original, _ := dir.Get("Original Media")
		assert.Equal(t, true, original)

		kind, _ := dir.GetString("VBR Header")
		assert.Equal(t, "Xing", kind)
		vbr, _ := dir.Get("VBR")
		assert.Equal(t, true, vbr)
		frames, _ := dir.GetInt("Frame Count")
		assert.EqualValues(t, 100, frames)

		d, _ := dir.Get("Duration")
		samples := 100 * 1152
		assert.Equal(t, time.Duration(float64(samples)/44100*float64(time.Second)), d)
		avg, _ := dir.GetInt("Average Bitrate")
		assert.InDelta(t, 127706, avg, 2)
	}
}

func TestExtract_CBRWithID3v1(t *testing.T) {
	data := concat(
		frame(mpeg1L3, mpeg1L3Size),
		frame(mpeg1L3, mpeg1L3Size),
		frame(mpeg1L3, mpeg1L3Size),
		id3test.V1("Old Song", "Old Band", "", "2001", 17),
	)

	md := extract(t, data, false)
	assert.Empty(t, md.Errors())

	v1 := md.Directory("ID3v1")
	require.NotNil(t, v1)
	title, _ := v1.GetString("Title")
	assert.Equal(t, "Old Song", title)

	dir := md.Directory("MPEG")
	vbr, _ := dir.Get("VBR")
	assert.Equal(t, false, vbr)
	d, ok := dir.Get("Duration")
	require.True(t, ok)
	assert.InDelta(t, float64(3*mpeg1L3Size*8)/128000, d.(time.Duration).Seconds(), 1e-6)
}

func TestExtract_CBRStreamHasNoDuration(t *testing.T) {
	data := concat(frame(mpeg1L3, mpeg1L3Size), frame(mpeg1L3, mpeg1L3Size))
	md := extract(t, data, true)
	assert.Empty(t, md.Errors())

	dir := md.Directory("MPEG")
	assert.True(t, dir.Has("Audio Bitrate"))
	assert.False(t, dir.Has("Duration"))
}

func TestExtract_JunkBeforeFirstFrame(t *testing.T) {
	data := concat(make([]byte, 100), frame(mpeg1L3, mpeg1L3Size), frame(mpeg1L3, mpeg1L3Size))
	md := extract(t, data, false)
	assert.Empty(t, md.Errors())
	rate, _ := md.Directory("MPEG").GetInt("Sample Rate")
	assert.EqualValues(t, 44100, rate)
}

func TestExtract_NoFrame(t *testing.T) {
	md := extract(t, make([]byte, 2000), false)
	errs := md.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no MPEG audio frame")
}

func TestExtract_TruncatedID3v2(t *testing.T) {
	data := concat([]byte("ID3\x03\x00\x00\x00\x00\x07\x68"), make([]byte, 20))
	md := extract(t, data, false)

	dir := md.Directory("MPEG")
	require.Len(t, dir.Errors(), 1)
	assert.Contains(t, dir.Errors()[0], "ID3v2 tag")
	assert.False(t, dir.Has("Sample Rate"))
}

func TestExtract_OversizedID3v2(t *testing.T) {
	data := concat(
		id3test.V23(id3test.Frame("TIT2", "A long enough title")),
		frame(mpeg1L3, mpeg1L3Size),
	)
	md := types.NewMetadata("test.mp3", types.FormatMP3, int64(len(data)))
	cfg := walker.DefaultConfig()
	cfg.MaxPayload = 16
	require.NoError(t, Extract(context.Background(), binary.NewBytesCursor(data), md, cfg))

	assert.Nil(t, md.Directory("ID3"))
	dir := md.Directory("MPEG")
	require.Len(t, dir.Errors(), 1)
	assert.Contains(t, dir.Errors()[0], "exceeds limit")
	assert.True(t, dir.Has("Sample Rate"))
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name     string
		header   []byte
		version  string
		layer    int
		bitrate  int
		rate     int
		samples  int
		size     int
		channels int
	}{
		{"mpeg1 layer 3", mpeg1L3, "1", 3, 128000, 44100, 1152, 417, 2},
		{"mpeg2 layer 3 mono", []byte{0xFF, 0xF3, 0x80, 0xC0}, "2", 3, 64000, 22050, 576, 208, 1},
		{"mpeg2.5 layer 3", []byte{0xFF, 0xE3, 0x80, 0x00}, "2.5", 3, 64000, 11025, 576, 417, 2},
		{"mpeg1 layer 2", []byte{0xFF, 0xFD, 0xA0, 0x00}, "1", 2, 192000, 44100, 1152, 626, 2},
		{"mpeg1 layer 1", []byte{0xFF, 0xFF, 0x90, 0x00}, "1", 1, 288000, 44100, 384, 312, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.version, f.Version)
			assert.Equal(t, tt.layer, f.Layer)
			assert.Equal(t, tt.bitrate, f.Bitrate)
			assert.Equal(t, tt.rate, f.SampleRate)
			assert.Equal(t, tt.samples, f.SamplesPerFrame())
			assert.Equal(t, tt.size, f.Size())
			assert.Equal(t, tt.channels, f.Channels())
		})
	}
}

func TestParseFrame_Invalid(t *testing.T) {
	for name, header := range map[string][]byte{
		"short":            {0xFF, 0xFB},
		"no sync":          {0x00, 0xFB, 0x90, 0x00},
		"reserved version": {0xFF, 0xEB, 0x90, 0x00},
		"reserved layer":   {0xFF, 0xF9, 0x90, 0x00},
		"bad bitrate":      {0xFF, 0xFB, 0xF0, 0x00},
		"free bitrate":     {0xFF, 0xFB, 0x00, 0x00},
		"bad sample rate":  {0xFF, 0xFB, 0x9C, 0x00},
	} {
		_, err := ParseFrame(header)
		assert.Error(t, err, name)
	}
}

func TestParseVBR_VBRI(t *testing.T) {
	b := frame(mpeg1L3, mpeg1L3Size)
	copy(b[36:], binary.NewWriter(binary.BigEndian).String("VBRI").U16(1).U16(0).U16(75).U32(50000).U32(250).Bytes())
	f, err := ParseFrame(b)
	require.NoError(t, err)

	v, ok := f.ParseVBR(b)
	require.True(t, ok)
	assert.Equal(t, VBR{Kind: "VBRI", Frames: 250, Bytes: 50000}, v)

	_, ok = f.ParseVBR(frame(mpeg1L3, mpeg1L3Size))
	assert.False(t, ok)
}
