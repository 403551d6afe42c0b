package ogg

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/simonhull/mediameta/internal/flac"
	"github.com/simonhull/mediameta/internal/types"
)

// pictures decodes METADATA_BLOCK_PICTURE comments, each a base64-encoded
// FLAC picture block, into "Ogg Picture" directories.
func pictures(comments []string, md *types.Metadata) {
	for _, c := range comments {
		field, value, ok := strings.Cut(c, "=")
		if !ok || !strings.EqualFold(field, "METADATA_BLOCK_PICTURE") {
			continue
		}
		dir := types.NewDirectory("Ogg Picture")
		md.AddDirectory(dir)
		block, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			dir.AddError(fmt.Sprintf("picture: %v", err))
			continue
		}
		if err := flac.DecodePicture(block, dir); err != nil {
			dir.AddError(fmt.Sprintf("picture: %v", err))
		}
	}
}
