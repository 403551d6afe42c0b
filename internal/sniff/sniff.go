package sniff

import (
	"github.com/simonhull/mediameta/internal/types"
)

// PrefixLen is the number of leading bytes Classify needs to distinguish
// every supported format.
const PrefixLen = 12

var (
	// ftyp brands at offset 8, when "ftyp" appears at offset 4
	brands = NewTrie[byte, types.Format]()

	// magic numbers at offset 0
	magic = NewTrie[byte, types.Format]()

	// form types at offset 8, keyed by the magic match that introduces them
	forms = map[types.Format]*Trie[byte, types.Format]{}

	// QuickTime files without ftyp start with a top-level atom type at offset 4
	atoms = NewTrie[byte, types.Format]()

	// MPEG audio frame sync: the first 11 bits set
	frameSync = NewTrie[bool, types.Format]()
)

// formIFF marks an IFF "FORM" container whose form type decides the format.
const formIFF = types.FormatAIFF

func ascii(s string) []byte { return []byte(s) }

func init() {
	brands.SetDefault(types.FormatMP4)
	brands.Add(types.FormatQuickTime, ascii("qt  "))
	for _, brand := range []string{"heic", "heix", "mif1", "msf1", "hevc", "hevx", "heim", "heis"} {
		brands.Add(types.FormatHEIF, ascii(brand))
	}
	brands.Add(types.FormatAVIF, ascii("avif"))
	brands.Add(types.FormatAVIF, ascii("avis"))
	brands.Add(types.FormatM4A, ascii("M4A "))
	brands.Add(types.FormatM4A, ascii("M4P "))
	brands.Add(types.FormatM4B, ascii("M4B "))
	brands.SetDefault(types.Format3GP, ascii("3gp"))
	brands.SetDefault(types.Format3GP, ascii("3g2"))
	brands.Add(types.FormatCR3, ascii("crx "))

	magic.Add(types.FormatJPEG, []byte{0xFF, 0xD8, 0xFF})
	magic.Add(types.FormatTIFF, ascii("II"), []byte{0x2A, 0x00})
	magic.Add(types.FormatTIFF, ascii("MM"), []byte{0x00, 0x2A})
	magic.Add(types.FormatBigTIFF, ascii("II"), []byte{0x2B, 0x00})
	magic.Add(types.FormatBigTIFF, ascii("MM"), []byte{0x00, 0x2B})
	magic.Add(types.FormatCR2, ascii("II"), []byte{0x2A, 0x00, 0x10, 0x00, 0x00, 0x00}, ascii("CR"))
	magic.Add(types.FormatORF, ascii("IIRO"))
	magic.Add(types.FormatORF, ascii("IISR"))
	magic.Add(types.FormatORF, ascii("MMOR"))
	magic.Add(types.FormatRW2, ascii("IIU"), []byte{0x00})
	magic.Add(types.FormatPSD, ascii("8BPS"))
	magic.Add(types.FormatPNG, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
	magic.Add(types.FormatGIF, ascii("GIF87a"))
	magic.Add(types.FormatGIF, ascii("GIF89a"))
	magic.Add(types.FormatBMP, ascii("BM"))
	magic.Add(types.FormatICO, []byte{0x00, 0x00, 0x01, 0x00})
	for _, version := range []byte{0, 2, 3, 4, 5} {
		magic.Add(types.FormatPCX, []byte{0x0A, version, 0x01})
	}
	magic.Add(types.FormatFLAC, ascii("fLaC"))
	magic.Add(types.FormatMP3, ascii("ID3"))
	magic.Add(types.FormatOgg, ascii("OggS"))
	magic.Add(types.FormatRIFF, ascii("RIFF"))
	magic.Add(formIFF, ascii("FORM"))

	riff := NewTrie[byte, types.Format]().SetDefault(types.FormatRIFF)
	riff.Add(types.FormatWAV, ascii("WAVE"))
	riff.Add(types.FormatAVI, ascii("AVI "))
	riff.Add(types.FormatWebP, ascii("WEBP"))
	forms[types.FormatRIFF] = riff

	iff := NewTrie[byte, types.Format]()
	iff.Add(types.FormatAIFF, ascii("AIFF"))
	iff.Add(types.FormatAIFF, ascii("AIFC"))
	forms[formIFF] = iff

	for _, atom := range []string{"moov", "mdat", "free", "skip", "wide", "pnot"} {
		atoms.Add(types.FormatQuickTime, ascii(atom))
	}

	sync := make([]bool, 11)
	for i := range sync {
		sync[i] = true
	}
	frameSync.Add(types.FormatMP3, sync)
}

// Classify returns the container format identified by prefix, which should
// hold the first PrefixLen bytes of a file (fewer is allowed). It returns
// types.FormatUnknown when nothing matches.
func Classify(prefix []byte) types.Format {
	if len(prefix) >= 8 && string(prefix[4:8]) == "ftyp" {
		return brands.Find(prefix[8:min(len(prefix), PrefixLen)])
	}

	f := magic.Find(prefix)
	if sub, ok := forms[f]; ok {
		if len(prefix) < PrefixLen {
			if f == types.FormatRIFF {
				return f
			}
			return types.FormatUnknown
		}
		return sub.Find(prefix[8:PrefixLen])
	}
	if f != types.FormatUnknown {
		return f
	}

	if len(prefix) >= 8 {
		if f := atoms.Find(prefix[4:8]); f != types.FormatUnknown {
			return f
		}
	}

	return frameSync.Find(bits(prefix, 11))
}

// bits expands the first n bits of p, most significant first.
func bits(p []byte, n int) []bool {
	n = min(n, len(p)*8)
	out := make([]bool, n)
	for i := range out {
		out[i] = p[i/8]&(0x80>>(i%8)) != 0
	}
	return out
}
