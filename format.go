package mediameta

import (
	"io"

	"github.com/simonhull/mediameta/internal/sniff"
	"github.com/simonhull/mediameta/internal/types"
)

// Format identifies a container format.
type Format = types.Format

// Format constants.
const (
	FormatUnknown   = types.FormatUnknown
	FormatJPEG      = types.FormatJPEG
	FormatTIFF      = types.FormatTIFF
	FormatBigTIFF   = types.FormatBigTIFF
	FormatCR2       = types.FormatCR2
	FormatORF       = types.FormatORF
	FormatRW2       = types.FormatRW2
	FormatPSD       = types.FormatPSD
	FormatPNG       = types.FormatPNG
	FormatGIF       = types.FormatGIF
	FormatBMP       = types.FormatBMP
	FormatICO       = types.FormatICO
	FormatPCX       = types.FormatPCX
	FormatWAV       = types.FormatWAV
	FormatAVI       = types.FormatAVI
	FormatWebP      = types.FormatWebP
	FormatRIFF      = types.FormatRIFF
	FormatQuickTime = types.FormatQuickTime
	FormatMP4       = types.FormatMP4
	FormatM4A       = types.FormatM4A
	FormatM4B       = types.FormatM4B
	Format3GP       = types.Format3GP
	FormatHEIF      = types.FormatHEIF
	FormatAVIF      = types.FormatAVIF
	FormatCR3       = types.FormatCR3
	FormatFLAC      = types.FormatFLAC
	FormatMP3       = types.FormatMP3
	FormatOgg       = types.FormatOgg
	FormatAIFF      = types.FormatAIFF
)

// PrefixLen is the number of leading bytes Sniff looks at.
const PrefixLen = sniff.PrefixLen

// Sniff identifies the format of a file from its first PrefixLen bytes.
// Shorter prefixes are allowed; FormatUnknown means nothing matched.
func Sniff(prefix []byte) Format {
	return sniff.Classify(prefix)
}

// DetectFormat reads the prefix of r and sniffs it.
func DetectFormat(r io.ReaderAt, size int64) Format {
	prefix, err := readPrefix(r, size)
	if err != nil {
		return FormatUnknown
	}
	return Sniff(prefix)
}

func readPrefix(r io.ReaderAt, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}
	prefix := make([]byte, min(size, PrefixLen))
	n, err := r.ReadAt(prefix, 0)
	if n == len(prefix) {
		return prefix, nil
	}
	return prefix[:n], err
}
