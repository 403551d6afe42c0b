package mediameta

import (
	"github.com/simonhull/mediameta/internal/types"
)

// ErrInsufficientData matches every InsufficientDataError with errors.Is.
var ErrInsufficientData = types.ErrInsufficientData

// InsufficientDataError reports a read past the end of the data.
type InsufficientDataError = types.InsufficientDataError

// MalformedHeaderError reports a record header that cannot be trusted.
type MalformedHeaderError = types.MalformedHeaderError

// RecursionLimitError reports a container nested beyond the depth limit.
type RecursionLimitError = types.RecursionLimitError

// UnsupportedFormatError is returned in strict mode for inputs no
// extractor handles.
type UnsupportedFormatError = types.UnsupportedFormatError
