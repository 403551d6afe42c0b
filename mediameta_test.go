package mediameta_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta"
	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff/bmfftest"
)

func wav() []byte {
	f := binary.NewWriter(binary.LittleEndian).U16(1).U16(2).U32(44100).U32(176400).U16(4).U16(16).Bytes()
	return binary.List("RIFF", "WAVE",
		binary.Chunk("fmt ", f),
		binary.Chunk("data", make([]byte, 1000)),
	)
}

func mp4() []byte {
	return bytes.Join([][]byte{
		bmfftest.Ftyp("isom", "isom", "mp41"),
		binary.Box("moov",
			bmfftest.Mvhd(1000, 5000),
			binary.Box("trak",
				bmfftest.Tkhd(1, 0, 0),
				binary.Box("mdia",
					bmfftest.Mdhd(44100, 44100, "eng"),
					bmfftest.Hdlr("soun", "Sound"),
					binary.Box("minf", bmfftest.Smhd(0)),
				),
			),
		),
	}, nil)
}

func truncatedMP4() []byte {
	moov := binary.NewWriter(binary.BigEndian).U32(5000).String("moov").Raw(bmfftest.Mvhd(600, 600)...).Bytes()
	return append(bmfftest.Ftyp("isom"), moov...)
}

func flac() []byte {
	be := binary.NewWriter(binary.BigEndian)
	packed := uint64(44100)<<44 | uint64(1)<<41 | uint64(15)<<36 | 441000
	info := binary.NewWriter(binary.BigEndian).U16(4096).U16(4096).Zeros(6).U64(packed).Zeros(16).Bytes()
	return be.String("fLaC").U8(0x80).U8(0).U8(0).U8(uint8(len(info))).Raw(info...).Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func names(md *mediameta.Metadata) []string {
	var out []string
	for _, d := range md.Directories() {
		out = append(out, d.Name)
	}
	return out
}

func TestExtractReaderAt_WAV(t *testing.T) {
	data := wav()
	md, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, mediameta.FormatWAV, md.Format)
	assert.Equal(t, []string{"File Type", "WAV"}, names(md))
	assert.False(t, md.HasErrors())

	ft := md.Directory("File Type")
	typ, _ := ft.GetString("File Type")
	assert.Equal(t, "WAV", typ)
	ext, _ := ft.GetString("File Type Extension")
	assert.Equal(t, "wav", ext)
	mime, _ := ft.GetString("MIME Type")
	assert.Equal(t, "audio/vnd.wave", mime)

	rate, _ := md.Directory("WAV").GetInt("Sample Rate")
	assert.EqualValues(t, 44100, rate)
}

func TestExtract_StreamMatchesReaderAt(t *testing.T) {
	for name, data := range map[string][]byte{"wav": wav(), "mp4": mp4()} {
		t.Run(name, func(t *testing.T) {
			buffered, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)
			streamed, err := mediameta.Extract(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, names(buffered), names(streamed))
			for i, d := range buffered.Directories() {
				assert.Equal(t, d.TagList(), streamed.Directories()[i].TagList(), d.Name)
			}
			assert.Equal(t, len(buffered.Errors()), len(streamed.Errors()))
		})
	}
}

func TestExtract_FLAC(t *testing.T) {
	data := flac()
	for name, extract := range map[string]func() (*mediameta.Metadata, error){
		"stream": func() (*mediameta.Metadata, error) { return mediameta.Extract(bytes.NewReader(data)) },
		"buffer": func() (*mediameta.Metadata, error) {
			return mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)))
		},
	} {
		t.Run(name, func(t *testing.T) {
			md, err := extract()
			require.NoError(t, err)
			assert.Equal(t, mediameta.FormatFLAC, md.Format)
			assert.Equal(t, []string{"File Type", "FLAC"}, names(md))
			assert.False(t, md.HasErrors())

			rate, ok := md.Directory("FLAC").GetInt("Sample Rate")
			require.True(t, ok)
			assert.EqualValues(t, 44100, rate)
			assert.True(t, md.Directory("FLAC").Has("Duration"))
		})
	}
}

func TestExtract_Unknown(t *testing.T) {
	data := []byte("just some text, nothing more")

	md, err := mediameta.Extract(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatUnknown, md.Format)
	assert.Empty(t, md.Directories())

	md, err = mediameta.Extract(bytes.NewReader(data), mediameta.WithStrictParsing())
	require.Error(t, err)
	require.NotNil(t, md)
	var unsupported *mediameta.UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)
}

func TestExtract_Empty(t *testing.T) {
	md, err := mediameta.Extract(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatUnknown, md.Format)

	md, err = mediameta.ExtractReaderAt(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Empty(t, md.Directories())
}

func TestExtract_RecognizedWithoutExtractor(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	md, err := mediameta.Extract(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, mediameta.FormatPNG, md.Format)
	assert.Equal(t, []string{"File Type"}, names(md))

	_, err = mediameta.Extract(bytes.NewReader(png), mediameta.WithStrictParsing())
	var unsupported *mediameta.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Reason, "no extractor for PNG")
}

func TestExtract_ErrorOptions(t *testing.T) {
	data := truncatedMP4()

	md, err := mediameta.Extract(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, md.Errors(), 1)
	assert.Equal(t, `MP4: malformed "moov" header at offset 16: record end 5016 exceeds data size 132`, md.Errors()[0])
	assert.True(t, md.Directory("MP4").Has("Time Scale"), "the complete mvhd is decoded")

	buffered, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, md.Errors(), buffered.Errors())

	md, err = mediameta.Extract(bytes.NewReader(data), mediameta.WithStrictParsing())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict parsing failed")
	require.NotNil(t, md, "strict mode still returns what was read")
	assert.NotNil(t, md.Directory("MP4"))

	md, err = mediameta.Extract(bytes.NewReader(data), mediameta.WithIgnoreErrors(), mediameta.WithStrictParsing())
	require.NoError(t, err)
	assert.False(t, md.HasErrors())
}

func TestExtract_WithMaxDepth(t *testing.T) {
	data := mp4()
	md, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)), mediameta.WithMaxDepth(2))
	require.NoError(t, err)

	require.NotEmpty(t, md.Errors())
	assert.Contains(t, md.Errors()[0], "recursion limit of 2")
	assert.True(t, md.Directory("MP4").Has("Time Scale"), "records above the limit are decoded")
}

func TestExtract_WithMaxPayload(t *testing.T) {
	data := mp4()
	md, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)), mediameta.WithMaxPayload(16))
	require.NoError(t, err)

	require.NotEmpty(t, md.Errors())
	assert.Contains(t, md.Errors()[0], "exceeds limit of 16 bytes")
}

func TestExtract_WithFormat(t *testing.T) {
	// A RIFF file forced through the generic RIFF extractor.
	data := wav()
	md, err := mediameta.ExtractReaderAt(bytes.NewReader(data), int64(len(data)), mediameta.WithFormat(mediameta.FormatRIFF))
	require.NoError(t, err)

	assert.Equal(t, mediameta.FormatRIFF, md.Format)
	form, _ := md.Directory("RIFF").GetString("Form Type")
	assert.Equal(t, "WAVE", form)
}

func TestExtract_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := mediameta.Extract(bytes.NewReader(mp4()), mediameta.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "type=ftyp")
	assert.Contains(t, buf.String(), "type=mvhd")
	assert.Contains(t, buf.String(), "format=MP4")
}

func TestExtractFile(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4())

	md, err := mediameta.ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, md.Path)
	assert.EqualValues(t, len(mp4()), md.Size)
	assert.NotNil(t, md.Directory("MP4 Sound"))

	_, err = mediameta.ExtractFile(filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractContext_Canceled(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	md, err := mediameta.ExtractContext(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, md)
}

func TestExtractMany(t *testing.T) {
	paths := []string{
		writeFile(t, "a.wav", wav()),
		writeFile(t, "b.mp4", mp4()),
		writeFile(t, "c.txt", []byte("plain")),
	}

	results, err := mediameta.ExtractMany(context.Background(), paths, mediameta.WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, mediameta.FormatWAV, results[0].Format)
	assert.Equal(t, mediameta.FormatMP4, results[1].Format)
	assert.Equal(t, mediameta.FormatUnknown, results[2].Format)

	results, err = mediameta.ExtractMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestExtractMany_Failures(t *testing.T) {
	valid := writeFile(t, "a.wav", wav())

	t.Run("missing file", func(t *testing.T) {
		results, err := mediameta.ExtractMany(context.Background(), []string{valid, "/nonexistent/file.wav", valid})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "/nonexistent/file.wav")
		assert.Nil(t, results)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := mediameta.ExtractMany(ctx, []string{valid, valid})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, results)
	})
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   mediameta.Format
	}{
		{"wav", wav()[:12], mediameta.FormatWAV},
		{"mp4", mp4()[:12], mediameta.FormatMP4},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, mediameta.FormatJPEG},
		{"short", []byte{0xFF}, mediameta.FormatUnknown},
		{"empty", nil, mediameta.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediameta.Sniff(tt.prefix))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	data := mp4()
	assert.Equal(t, mediameta.FormatMP4, mediameta.DetectFormat(bytes.NewReader(data), int64(len(data))))
	assert.Equal(t, mediameta.FormatUnknown, mediameta.DetectFormat(bytes.NewReader(nil), 0))
}

func TestGetVersionInfo(t *testing.T) {
	info := mediameta.GetVersionInfo()
	assert.Equal(t, mediameta.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
