package flac

import (
	"fmt"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// leadOut is the track number of a cue sheet's lead-out track.
const leadOut = 170

// CueSheet is a decoded CUESHEET block.
type CueSheet struct {
	MediaCatalogNumber string
	LeadIn             uint64
	IsCD               bool
	Tracks             []CueTrack
}

// CueTrack is one track of a cue sheet. Offsets are in samples.
type CueTrack struct {
	Offset      uint64
	Number      uint8
	ISRC        string
	IsAudio     bool
	PreEmphasis bool
	Indices     []CueIndex
}

// CueIndex is an index point relative to its track.
type CueIndex struct {
	Offset uint64
	Number uint8
}

// DecodeCueSheet decodes a CUESHEET block.
func DecodeCueSheet(payload []byte) (*CueSheet, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	cs := &CueSheet{}
	cs.MediaCatalogNumber = strings.TrimRight(ch.String(128, "media catalog number"), "\x00")
	cs.LeadIn = ch.U64("lead-in samples")
	cs.IsCD = ch.U8("cue sheet flags")&0x80 != 0
	ch.Skip(258, "reserved")
	count := ch.U8("track count")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	for i := range count {
		t := CueTrack{}
		t.Offset = ch.U64("track offset")
		t.Number = ch.U8("track number")
		t.ISRC = strings.TrimRight(ch.String(12, "ISRC"), "\x00")
		flags := ch.U8("track flags")
		t.IsAudio = flags&0x80 == 0
		t.PreEmphasis = flags&0x40 != 0
		ch.Skip(13, "reserved")
		n := ch.U8("index count")
		for range n {
			idx := CueIndex{Offset: ch.U64("index offset"), Number: ch.U8("index number")}
			ch.Skip(3, "reserved")
			t.Indices = append(t.Indices, idx)
		}
		if err := ch.Error(); err != nil {
			return nil, fmt.Errorf("track %d: %w", i+1, err)
		}
		cs.Tracks = append(cs.Tracks, t)
	}
	return cs, nil
}

// Set writes the cue sheet summary into dir and, given the stream's sample
// rate, one chapter per audio track.
func (cs *CueSheet) Set(dir *types.Directory, sampleRate uint32) {
	dir.SetString("Media Catalog Number", cs.MediaCatalogNumber)
	dir.Set("Lead In", cs.LeadIn)
	dir.Set("Is CD", cs.IsCD)
	dir.Set("Cue Tracks", len(cs.Tracks))
	if sampleRate > 0 {
		types.SetChapters(dir, cs.Chapters(sampleRate))
	}
}

// Chapters converts the audio tracks to chapters. The lead-out and data
// tracks are left out.
func (cs *CueSheet) Chapters(sampleRate uint32) []types.Chapter {
	var chapters []types.Chapter
	for _, t := range cs.Tracks {
		if !t.IsAudio || t.Number == leadOut {
			continue
		}
		title := fmt.Sprintf("Track %02d", t.Number)
		if t.ISRC != "" {
			title = fmt.Sprintf("Track %02d (%s)", t.Number, t.ISRC)
		}
		chapters = append(chapters, types.Chapter{Start: samplesToDuration(t.Offset, sampleRate), Title: title})
	}
	return chapters
}
