// Package vorbis decodes Vorbis comment lists.
//
// FLAC, Ogg Vorbis and Opus share the same tag format: a vendor string
// followed by a counted list of UTF-8 "KEY=VALUE" strings, every string
// prefixed with its little-endian 32-bit length. Field names are
// case-insensitive.
package vorbis

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// fieldNames maps well-known field names to tag names. Other fields are
// title-cased, so "MUSICBRAINZ_TRACKID" becomes "Musicbrainz Trackid".
var fieldNames = map[string]string{
	"TITLE":         "Title",
	"SUBTITLE":      "Subtitle",
	"VERSION":       "Version",
	"ARTIST":        "Artist",
	"ALBUM":         "Album",
	"ALBUMARTIST":   "Album Artist",
	"DATE":          "Date",
	"ORIGINALDATE":  "Original Date",
	"TRACKNUMBER":   "Track Number",
	"TRACKTOTAL":    "Track Total",
	"TOTALTRACKS":   "Track Total",
	"DISCNUMBER":    "Disc Number",
	"DISCTOTAL":     "Disc Total",
	"TOTALDISCS":    "Disc Total",
	"GENRE":         "Genre",
	"COMPOSER":      "Composer",
	"PERFORMER":     "Performer",
	"COMMENT":       "Comment",
	"DESCRIPTION":   "Description",
	"LYRICS":        "Lyrics",
	"PUBLISHER":     "Publisher",
	"LABEL":         "Label",
	"COPYRIGHT":     "Copyright",
	"LICENSE":       "License",
	"ISRC":          "ISRC",
	"BARCODE":       "Barcode",
	"CATALOGNUMBER": "Catalog Number",
	"LANGUAGE":      "Language",
	"LANG":          "Language",
	"ENCODER":       "Encoder",
	"ENCODED-BY":    "Encoded By",
	"LOCATION":      "Location",
	"CONTACT":       "Contact",
	"ORGANIZATION":  "Organization",
	"NARRATOR":      "Narrator",
	"ASIN":          "ASIN",
	"AUDIBLE_ASIN":  "ASIN",
	"BPM":           "Beats Per Minute",
}

// replayGain fields are decoded to float64.
var replayGain = map[string]string{
	"REPLAYGAIN_TRACK_GAIN": "Replay Gain Track Gain",
	"REPLAYGAIN_TRACK_PEAK": "Replay Gain Track Peak",
	"REPLAYGAIN_ALBUM_GAIN": "Replay Gain Album Gain",
	"REPLAYGAIN_ALBUM_PEAK": "Replay Gain Album Peak",
}

// FieldName returns the tag name for a comment field.
func FieldName(field string) string {
	field = strings.ToUpper(strings.TrimSpace(field))
	if name, ok := fieldNames[field]; ok {
		return name
	}
	if name, ok := replayGain[field]; ok {
		return name
	}
	words := strings.FieldsFunc(field, func(r rune) bool { return r == '_' || r == ' ' || r == '-' })
	for i, w := range words {
		words[i] = w[:1] + strings.ToLower(w[1:])
	}
	if len(words) == 0 {
		return "Unknown Field"
	}
	return strings.Join(words, " ")
}

// Comments is a decoded comment list.
type Comments struct {
	Vendor string
	// List holds the raw "KEY=VALUE" strings in stored order.
	List []string
}

// Decode parses a comment list. Trailing bytes, such as the Vorbis framing
// bit, are ignored. A truncated list returns the comments read so far with
// an error.
func Decode(payload []byte) (*Comments, error) {
	ch := binary.ChainBytes(payload, binary.LittleEndian)
	n := ch.U32("vendor string length")
	vendor := ch.String(int(n), "vendor string")
	count := ch.U32("comment count")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	c := &Comments{Vendor: vendor}
	for i := range count {
		n := ch.U32("comment length")
		s := ch.String(int(n), "comment")
		if err := ch.Error(); err != nil {
			return c, fmt.Errorf("comment %d of %d: %w", i+1, count, err)
		}
		c.List = append(c.List, s)
	}
	return c, nil
}

// Set writes the vendor string, every field and any chapters into dir.
// A field that occurs more than once becomes a []string in stored order.
func (c *Comments) Set(dir *types.Directory) {
	dir.SetString("Vendor", c.Vendor)

	var order []string
	values := make(map[string][]string)
	for _, comment := range c.List {
		field, value, ok := strings.Cut(comment, "=")
		if !ok || field == "" {
			dir.AddError(fmt.Sprintf("comment without field name: %q", clip(comment)))
			continue
		}
		field = strings.ToUpper(field)
		if isChapterField(field) {
			continue
		}

		if field == "METADATA_BLOCK_PICTURE" {
			dir.Set("Picture", fmt.Sprintf("(Binary data %d bytes)", base64.StdEncoding.DecodedLen(len(value))))
			continue
		}
		if name, ok := replayGain[field]; ok {
			dir.Set(name, parseReplayGain(value))
			continue
		}

		name := FieldName(field)
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], value)
	}

	for _, name := range order {
		if v := values[name]; len(v) == 1 {
			dir.Set(name, v[0])
		} else {
			dir.Set(name, v)
		}
	}
	types.SetChapters(dir, Chapters(c.List))
}

// parseReplayGain parses values like "-6.50 dB" and "0.988127".
func parseReplayGain(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "dB")
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64) //nolint:errcheck // zero for malformed values
	return v
}

func clip(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
