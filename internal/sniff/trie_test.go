package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrie_DeepestMatchWins(t *testing.T) {
	tr := NewTrie[byte, string]()
	tr.Add("short", []byte("ab"))
	tr.Add("long", []byte("abcd"))

	assert.Equal(t, "long", tr.Find([]byte("abcdef")))
	assert.Equal(t, "long", tr.Find([]byte("abcd")))
	assert.Equal(t, "short", tr.Find([]byte("abcX")))
	assert.Equal(t, "short", tr.Find([]byte("ab")))
	assert.Equal(t, "", tr.Find([]byte("a")))
	assert.Equal(t, "", tr.Find([]byte("zz")))
	assert.Equal(t, "", tr.Find(nil))
}

func TestTrie_Defaults(t *testing.T) {
	tr := NewTrie[byte, string]()
	tr.SetDefault("root")
	tr.SetDefault("under-x", []byte("x"))
	tr.Add("xyz", []byte("xyz"))

	assert.Equal(t, "root", tr.Find([]byte("q")))
	assert.Equal(t, "under-x", tr.Find([]byte("x")))
	assert.Equal(t, "under-x", tr.Find([]byte("xy")), "nearest ancestor default")
	assert.Equal(t, "under-x", tr.Find([]byte("xa")))
	assert.Equal(t, "xyz", tr.Find([]byte("xyz!")))
}

func TestTrie_MultiPartPaths(t *testing.T) {
	tr := NewTrie[byte, int]()
	tr.Add(7, []byte("II"), []byte{0x2A, 0x00})
	assert.Equal(t, 7, tr.Find([]byte{'I', 'I', 0x2A, 0x00, 0x08}))
	assert.Equal(t, 0, tr.Find([]byte{'I', 'I', 0x2B}))
}

func TestTrie_BoolKeys(t *testing.T) {
	tr := NewTrie[bool, string]()
	tr.SetDefault("neither")
	tr.Add("both", []bool{true, true})
	tr.Add("first-only", []bool{true, false})

	assert.Equal(t, "both", tr.Find([]bool{true, true}))
	assert.Equal(t, "first-only", tr.Find([]bool{true, false}))
	assert.Equal(t, "neither", tr.Find([]bool{false, true}))
	assert.Equal(t, "neither", tr.Find([]bool{true}))
}

func TestTrie_Overwrite(t *testing.T) {
	tr := NewTrie[byte, string]()
	tr.Add("first", []byte("k"))
	tr.Add("second", []byte("k"))
	assert.Equal(t, "second", tr.Find([]byte("k")))
}
