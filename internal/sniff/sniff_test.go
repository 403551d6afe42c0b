package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonhull/mediameta/internal/types"
)

func ftyp(brand string) []byte {
	return append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'}, brand...)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   types.Format
	}{
		{"mp4 isom", ftyp("isom"), types.FormatMP4},
		{"unknown brand defaults to mp4", ftyp("zzzz"), types.FormatMP4},
		{"quicktime brand", ftyp("qt  "), types.FormatQuickTime},
		{"heic", ftyp("heic"), types.FormatHEIF},
		{"mif1", ftyp("mif1"), types.FormatHEIF},
		{"avif", ftyp("avif"), types.FormatAVIF},
		{"m4a", ftyp("M4A "), types.FormatM4A},
		{"m4b", ftyp("M4B "), types.FormatM4B},
		{"3gp4", ftyp("3gp4"), types.Format3GP},
		{"3g2a", ftyp("3g2a"), types.Format3GP},
		{"cr3", ftyp("crx "), types.FormatCR3},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0, 1}, types.FormatJPEG},
		{"tiff intel", []byte{'I', 'I', 0x2A, 0, 8, 0, 0, 0, 0, 0, 0, 0}, types.FormatTIFF},
		{"tiff motorola", []byte{'M', 'M', 0, 0x2A, 0, 0, 0, 8, 0, 0, 0, 0}, types.FormatTIFF},
		{"bigtiff", []byte{'I', 'I', 0x2B, 0, 8, 0, 0, 0, 0, 0, 0, 0}, types.FormatBigTIFF},
		{"cr2", []byte{'I', 'I', 0x2A, 0, 0x10, 0, 0, 0, 'C', 'R', 2, 0}, types.FormatCR2},
		{"orf", []byte{'I', 'I', 'R', 'O', 8, 0, 0, 0, 0, 0, 0, 0}, types.FormatORF},
		{"rw2", []byte{'I', 'I', 'U', 0, 0x18, 0, 0, 0, 0, 0, 0, 0}, types.FormatRW2},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}, types.FormatPNG},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00"), types.FormatGIF},
		{"bmp", []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), types.FormatBMP},
		{"psd", []byte("8BPS\x00\x01\x00\x00\x00\x00\x00\x00"), types.FormatPSD},
		{"pcx", []byte{0x0A, 5, 1, 8, 0, 0, 0, 0, 0, 0, 0, 0}, types.FormatPCX},
		{"flac", []byte("fLaC\x00\x00\x00\x22\x10\x00\x10\x00"), types.FormatFLAC},
		{"id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00"), types.FormatMP3},
		{"mpeg frame sync", []byte{0xFF, 0xFB, 0x90, 0x64, 0, 0, 0, 0, 0, 0, 0, 0}, types.FormatMP3},
		{"ogg", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), types.FormatOgg},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), types.FormatWAV},
		{"avi", []byte("RIFF\x24\x00\x00\x00AVI "), types.FormatAVI},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBP"), types.FormatWebP},
		{"riff unknown form", []byte("RIFF\x24\x00\x00\x00ABCD"), types.FormatRIFF},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFF"), types.FormatAIFF},
		{"iff other", []byte("FORM\x00\x00\x00\x00ILBM"), types.FormatUnknown},
		{"quicktime moov", []byte{0, 0, 0, 0x6C, 'm', 'o', 'o', 'v', 0, 0, 0, 0}, types.FormatQuickTime},
		{"quicktime wide", []byte{0, 0, 0, 8, 'w', 'i', 'd', 'e', 0, 0, 0, 0}, types.FormatQuickTime},
		{"garbage", []byte("hello world!"), types.FormatUnknown},
		{"empty", nil, types.FormatUnknown},
		{"short", []byte{0xFF}, types.FormatUnknown},
		{"short riff", []byte("RIFF"), types.FormatRIFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.prefix))
		})
	}
}

func TestClassify_JPEGIsNotFrameSync(t *testing.T) {
	// 0xFFD8 has 11 leading bits 1111 1111 110, which must not look like MPEG sync.
	assert.Equal(t, types.FormatUnknown, Classify([]byte{0xFF, 0xD8, 0x00}))
}
