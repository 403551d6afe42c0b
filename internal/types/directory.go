// Package types provides the core data structures shared by every extractor.
//
// A Metadata value aggregates the Directories produced while walking one
// file. Directories hold tag values in insertion order together with any
// errors recorded against them.
package types

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// Tag is a single named value inside a Directory.
type Tag struct {
	Name  string
	Value any
}

// String returns the value formatted for display.
func (t Tag) String() string {
	return FormatValue(t.Value)
}

// Directory is an ordered collection of tag values plus recorded errors.
//
// Setting a tag that already exists replaces its value but keeps its
// original position, so repeated extraction yields identical ordering.
type Directory struct {
	Name   string
	tags   []Tag
	index  map[string]int
	errors []string
}

// NewDirectory creates an empty directory with the given name.
func NewDirectory(name string) *Directory {
	return &Directory{
		Name:  name,
		index: make(map[string]int),
	}
}

// Set stores value under name.
func (d *Directory) Set(name string, value any) {
	if i, ok := d.index[name]; ok {
		d.tags[i].Value = value
		return
	}
	d.index[name] = len(d.tags)
	d.tags = append(d.tags, Tag{Name: name, Value: value})
}

// SetString stores a non-empty string value. Empty strings are ignored.
func (d *Directory) SetString(name, value string) {
	if value == "" {
		return
	}
	d.Set(name, value)
}

// Get returns the value stored under name.
func (d *Directory) Get(name string) (any, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.tags[i].Value, true
}

// GetString returns the value stored under name as a string. Values of
// other types are rendered with FormatValue; ok is false only when the
// tag is missing.
func (d *Directory) GetString(name string) (string, bool) {
	v, ok := d.Get(name)
	if !ok {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return FormatValue(v), true
}

// GetInt returns the value stored under name as an int64 when it is integral.
func (d *Directory) GetInt(name string) (int64, bool) {
	v, ok := d.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Has reports whether a tag named name has been set.
func (d *Directory) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Len returns the number of tags.
func (d *Directory) Len() int {
	return len(d.tags)
}

// Tags returns an iterator over the tags in insertion order.
func (d *Directory) Tags() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, t := range d.tags {
			if !yield(t.Name, t.Value) {
				return
			}
		}
	}
}

// TagList returns a copy of the tags in insertion order.
func (d *Directory) TagList() []Tag {
	out := make([]Tag, len(d.tags))
	copy(out, d.tags)
	return out
}

// AddError records a problem encountered while producing this directory.
func (d *Directory) AddError(msg string) {
	d.errors = append(d.errors, msg)
}

// Errors returns the recorded error messages in the order they occurred.
func (d *Directory) Errors() []string {
	return d.errors
}

// HasErrors reports whether any error has been recorded.
func (d *Directory) HasErrors() bool {
	return len(d.errors) > 0
}

// IsEmpty reports whether the directory has neither tags nor errors.
func (d *Directory) IsEmpty() bool {
	return len(d.tags) == 0 && len(d.errors) == 0
}

// ClearErrors drops all recorded errors.
func (d *Directory) ClearErrors() {
	d.errors = nil
}

// String returns a short summary, e.g. "MP4 Sound (5 tags, 1 error)".
func (d *Directory) String() string {
	return fmt.Sprintf("%s (%d tags, %d errors)", d.Name, len(d.tags), len(d.errors))
}

// FormatValue renders a tag value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(x))
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
