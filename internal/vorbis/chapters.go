package vorbis

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/mediameta/internal/types"
)

// isChapterField reports whether field is CHAPTERxxx or CHAPTERxxxNAME.
func isChapterField(field string) bool {
	_, _, ok := chapterNumber(field)
	return ok
}

func chapterNumber(field string) (n int, name, ok bool) {
	rest, found := strings.CutPrefix(field, "CHAPTER")
	if !found {
		return 0, false, false
	}
	rest, name = strings.CutSuffix(rest, "NAME")
	n, err := strconv.Atoi(rest)
	return n, name, err == nil
}

// Chapters extracts chapters from CHAPTERxxx comments:
//
//	CHAPTER001=00:00:00.000
//	CHAPTER001NAME=Introduction
//	CHAPTER002=00:05:23.500
//	CHAPTER002NAME=The Beginning
//
// Chapters are ordered by number. Entries without a valid timestamp are
// dropped; entries without a name are called "Chapter N".
func Chapters(comments []string) []types.Chapter {
	type entry struct {
		number int
		start  time.Duration
		valid  bool
		title  string
	}
	entries := make(map[int]*entry)

	for _, comment := range comments {
		field, value, ok := strings.Cut(comment, "=")
		if !ok {
			continue
		}
		n, name, ok := chapterNumber(strings.ToUpper(strings.TrimSpace(field)))
		if !ok {
			continue
		}
		e := entries[n]
		if e == nil {
			e = &entry{number: n}
			entries[n] = e
		}
		value = strings.TrimSpace(value)
		if name {
			e.title = value
		} else if d, err := parseTimestamp(value); err == nil {
			e.start, e.valid = d, true
		}
	}

	var list []*entry
	for _, e := range entries {
		if e.valid {
			list = append(list, e)
		}
	}
	slices.SortFunc(list, func(a, b *entry) int { return cmp.Compare(a.number, b.number) })

	chapters := make([]types.Chapter, 0, len(list))
	for _, e := range list {
		title := e.title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", e.number)
		}
		chapters = append(chapters, types.Chapter{Start: e.start, Title: title})
	}
	return chapters
}

// parseTimestamp parses HH:MM:SS.mmm, MM:SS.mmm or SS.mmm.
func parseTimestamp(ts string) (time.Duration, error) {
	parts := strings.Split(ts, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %s", ts)
	}

	var hours, minutes int
	var err error
	switch len(parts) {
	case 3:
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours in timestamp: %s", ts)
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minutes in timestamp: %s", ts)
		}
	case 2:
		if minutes, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid minutes in timestamp: %s", ts)
		}
	}
	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in timestamp: %s", ts)
	}

	if hours < 0 || minutes < 0 || minutes >= 60 || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("timestamp values out of range: %s", ts)
	}
	total := float64(hours*3600+minutes*60) + seconds
	return time.Duration(total * float64(time.Second)), nil
}
