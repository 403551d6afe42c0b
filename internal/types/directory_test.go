package types

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_SetKeepsInsertionOrder(t *testing.T) {
	d := NewDirectory("MP4")
	d.Set("Major Brand", "isom")
	d.Set("Duration", 2*time.Second)
	d.Set("Major Brand", "mp42")
	d.SetString("Empty", "")

	assert.Equal(t, 2, d.Len())
	assert.False(t, d.Has("Empty"))

	var names []string
	for name := range d.Tags() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"Major Brand", "Duration"}, names)

	brand, ok := d.GetString("Major Brand")
	require.True(t, ok)
	assert.Equal(t, "mp42", brand)
}

func TestDirectory_Getters(t *testing.T) {
	d := NewDirectory("WAV")
	d.Set("Channels", uint16(2))
	d.Set("Track", "7")
	d.Set("Rate", 44100.0)

	n, ok := d.GetInt("Channels")
	require.True(t, ok)
	assert.EqualValues(t, 2, n)

	n, ok = d.GetInt("Track")
	require.True(t, ok)
	assert.EqualValues(t, 7, n)

	_, ok = d.GetInt("Rate")
	assert.False(t, ok)

	s, ok := d.GetString("Channels")
	require.True(t, ok, "non-string values are formatted")
	assert.Equal(t, "2", s)
	s, ok = d.GetString("Track")
	require.True(t, ok)
	assert.Equal(t, "7", s)
	_, ok = d.GetString("Missing")
	assert.False(t, ok)

	_, ok = d.Get("Missing")
	assert.False(t, ok)
}

func TestDirectory_GetIntRange(t *testing.T) {
	d := NewDirectory("FLAC")
	d.Set("Max", uint64(math.MaxInt64))
	d.Set("Huge", uint64(math.MaxUint64))

	n, ok := d.GetInt("Max")
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), n)

	_, ok = d.GetInt("Huge")
	assert.False(t, ok, "values above MaxInt64 do not fit")
}

func TestDirectory_TagsStopsEarly(t *testing.T) {
	d := NewDirectory("x")
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("c", 3)

	count := 0
	for range d.Tags() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestDirectory_TagListIsACopy(t *testing.T) {
	d := NewDirectory("x")
	d.Set("a", 1)
	list := d.TagList()
	list[0].Value = 99

	v, _ := d.Get("a")
	assert.Equal(t, 1, v)
	assert.Equal(t, "99", list[0].String())
}

func TestDirectory_Errors(t *testing.T) {
	d := NewDirectory("JPEG")
	assert.True(t, d.IsEmpty())

	d.AddError("first")
	d.AddError("second")
	assert.True(t, d.HasErrors())
	assert.False(t, d.IsEmpty())
	assert.Equal(t, []string{"first", "second"}, d.Errors())
	assert.Equal(t, "JPEG (0 tags, 2 errors)", d.String())

	d.ClearErrors()
	assert.False(t, d.HasErrors())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{[]byte{1, 2, 3}, "[3 bytes]"},
		{[]string{"isom", "mp41"}, "isom, mp41"},
		{1500 * time.Millisecond, "1.5s"},
		{errors.New("boom"), "boom"},
		{uint32(42), "42"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
