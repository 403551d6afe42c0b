package types

import (
	"fmt"
	"time"
)

// Chapter is one chapter marker.
//
// Chapters come from Nero "chpl" lists in MP4 files, FLAC cue sheets and
// CHAPTERxxx Vorbis comments. Each source writes them into its directory
// with SetChapters.
type Chapter struct {
	Start time.Duration
	Title string
}

// SetChapters writes a "Chapter Count" tag followed by one "Chapter N" tag
// per chapter, formatted as "h:mm:ss.mmm Title".
func SetChapters(dir *Directory, chapters []Chapter) {
	if len(chapters) == 0 {
		return
	}
	dir.Set("Chapter Count", len(chapters))
	for i, c := range chapters {
		dir.Set(fmt.Sprintf("Chapter %d", i+1), fmt.Sprintf("%s %s", Clock(c.Start), c.Title))
	}
}

// Clock formats d as h:mm:ss.mmm.
func Clock(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
