package id3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mediameta/internal/id3/id3test"
	"github.com/simonhull/mediameta/internal/types"
)

func TestTagSize(t *testing.T) {
	tag := id3test.V23(id3test.Frame("TIT2", "Title"))
	size, ok := TagSize(tag)
	require.True(t, ok)
	assert.EqualValues(t, len(tag), size)

	footer := append([]byte("ID3\x04\x00\x10"), 0, 0, 1, 0)
	size, ok = TagSize(footer)
	require.True(t, ok)
	assert.EqualValues(t, 10+128+10, size)

	_, ok = TagSize([]byte("ID3\x03\x00\x00\x80\x00\x00\x00"))
	assert.False(t, ok, "high bit in size")
	_, ok = TagSize([]byte("RIFF\x00\x00\x00\x00\x00\x00"))
	assert.False(t, ok)
	_, ok = TagSize([]byte("ID3"))
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	md := types.NewMetadata("test.mp3", types.FormatMP3, 0)
	tag := id3test.V23(
		id3test.Frame("TIT2", "Song"),
		id3test.Frame("TPE1", "Band"),
		id3test.Frame("TRCK", "3/12"),
	)
	require.NoError(t, Decode(tag, md))

	dir := md.Directory("ID3")
	require.NotNil(t, dir)
	v, _ := dir.GetString("ID3 Version")
	assert.Equal(t, "ID3v2.3", v)
	title, _ := dir.GetString("Title")
	assert.Equal(t, "Song", title)
	artist, _ := dir.GetString("Artist")
	assert.Equal(t, "Band", artist)
	track, _ := dir.GetString("Track")
	assert.Equal(t, "3 of 12", track)
	assert.False(t, dir.Has("Album"))
}

func TestDecode_Invalid(t *testing.T) {
	md := types.NewMetadata("test.mp3", types.FormatMP3, 0)
	err := Decode([]byte("nope"), md)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID3 tag")
	assert.Empty(t, md.Directories())
}

func TestDecodeV1(t *testing.T) {
	md := types.NewMetadata("test.mp3", types.FormatMP3, 0)
	data := append(make([]byte, 64), id3test.V1("Old Song", "Old Band", "Old Album", "1999", 17)...)
	require.NoError(t, DecodeV1(bytes.NewReader(data), md))

	dir := md.Directory("ID3v1")
	require.NotNil(t, dir)
	title, _ := dir.GetString("Title")
	assert.Equal(t, "Old Song", title)
	album, _ := dir.GetString("Album")
	assert.Equal(t, "Old Album", album)
	year, _ := dir.GetInt("Year")
	assert.EqualValues(t, 1999, year)
	genre, _ := dir.GetString("Genre")
	assert.Equal(t, "Rock", genre)
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "4", Position(4, 0))
	assert.Equal(t, "4 of 9", Position(4, 9))
}
