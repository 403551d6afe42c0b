package bmff

import (
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// DecodeChpl decodes a Nero "chpl" chapter list. Start times are stored in
// 100-nanosecond units.
func DecodeChpl(payload []byte) ([]types.Chapter, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	ch.Skip(4, "reserved")
	count := ch.U8("chapter count")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	chapters := make([]types.Chapter, 0, count)
	for range count {
		start := ch.U64("chapter start time")
		n := ch.U8("chapter title length")
		title := ch.String(int(n), "chapter title")
		if err := ch.Error(); err != nil {
			return chapters, err
		}
		chapters = append(chapters, types.Chapter{Start: time.Duration(start * 100), Title: title})
	}
	return chapters, nil
}
