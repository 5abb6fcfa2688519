package core_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/keshon/ckpt/internal/core"
	"github.com/m-mizutani/gt"
)

func TestCleanPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"a.txt", "a.txt", true},
		{"dir/./b.txt", "dir/b.txt", true},
		{"dir\\win\\c.txt", "dir\\win\\c.txt", true},
		{"dir/a\\b", "dir/a\\b", true},
		{"dir/../d.txt", "d.txt", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{"../outside", "", false},
		{"a/../../outside", "", false},
		{".", "", false},
	}

	for _, tc := range cases {
		got, err := core.CleanPath(tc.in)
		if tc.ok {
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
		} else {
			gt.Error(t, err)
		}
	}
}

func TestFilesetNormalize(t *testing.T) {
	fs := core.Fileset{
		{Path: "b.txt", Content: []byte("b")},
		{Path: "dir/./a.txt", Content: []byte("a")},
		{Path: "a.txt", Content: []byte("root a")},
	}

	out, err := fs.Normalize()
	gt.NoError(t, err)
	gt.A(t, out).Length(3)
	gt.Equal(t, out.Paths(), []string{"a.txt", "b.txt", "dir/a.txt"})

	// input untouched
	gt.Equal(t, fs[1].Path, "dir/./a.txt")
}

func TestFilesetNormalizeRejectsDuplicates(t *testing.T) {
	fs := core.Fileset{
		{Path: "a.txt", Content: []byte("1")},
		{Path: "./a.txt", Content: []byte("2")},
	}
	_, err := fs.Normalize()
	gt.Error(t, err)
}

func TestFilesetDigestIsOrderIndependent(t *testing.T) {
	a := core.Fileset{
		{Path: "x", Content: []byte("1")},
		{Path: "y", Content: []byte("2")},
	}
	b := core.Fileset{
		{Path: "y", Content: []byte("2")},
		{Path: "x", Content: []byte("1")},
	}
	gt.Equal(t, a.Digest(), b.Digest())
	gt.True(t, a.Equal(b))

	c := core.Fileset{
		{Path: "x", Content: []byte("1")},
		{Path: "y", Content: []byte("3")},
	}
	gt.NotEqual(t, a.Digest(), c.Digest())
	gt.False(t, a.Equal(c))
}

func TestFilesetDigestSeparatesPathAndContent(t *testing.T) {
	a := core.Fileset{{Path: "ab", Content: []byte("c")}}
	b := core.Fileset{{Path: "a", Content: []byte("bc")}}
	gt.NotEqual(t, a.Digest(), b.Digest())
}

func TestFilesetDiff(t *testing.T) {
	base := core.Fileset{
		{Path: "keep.txt", Content: []byte("same")},
		{Path: "edit.txt", Content: []byte("old")},
		{Path: "gone.txt", Content: []byte("bye")},
	}
	cur := core.Fileset{
		{Path: "keep.txt", Content: []byte("same")},
		{Path: "edit.txt", Content: []byte("new")},
		{Path: "new.txt", Content: []byte("hi")},
	}

	changes := cur.Diff(base)
	gt.Equal(t, changes, []core.Change{
		{Path: "edit.txt", Kind: core.Modified},
		{Path: "gone.txt", Kind: core.Deleted},
		{Path: "new.txt", Kind: core.Added},
	})
	gt.A(t, cur.Diff(cur)).Length(0)
}

func TestFileEntryJSON(t *testing.T) {
	text := core.FileEntry{Path: "a.txt", Content: []byte("héllo")}
	data, err := json.Marshal(text)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains(`"content":"héllo"`)
	gt.S(t, string(data)).NotContains("encoding")

	bin := core.FileEntry{Path: "img.bin", Content: []byte{0xff, 0x00, 0xfe, 0x80}}
	data, err = json.Marshal(bin)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains(`"encoding":"base64"`)

	var back core.FileEntry
	gt.NoError(t, json.Unmarshal(data, &back))
	gt.Equal(t, back.Path, "img.bin")
	gt.Equal(t, back.Content, bin.Content)
}

func TestFileEntryJSONUnknownEncoding(t *testing.T) {
	var e core.FileEntry
	err := json.Unmarshal([]byte(`{"path":"a","content":"x","encoding":"rot13"}`), &e)
	gt.Error(t, err)
}

func TestIOError(t *testing.T) {
	gt.Nil(t, core.NewIOError("read", "a.txt", nil))

	err := core.NewIOError("read", "a.txt", os.ErrPermission)
	gt.True(t, errors.Is(err, core.ErrIO))
	gt.True(t, errors.Is(err, os.ErrPermission))
	gt.S(t, err.Error()).Contains("read a.txt")
}
