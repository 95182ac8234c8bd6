package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPages() []Page {
	return []Page{
		{Key: "page1", Name: "Main", PageID: "111", AccessToken: "tok1", Prefix: "Q:", Suffix: "#ask"},
		{Key: "page2", Name: "Other", PageID: "222", AccessToken: "tok2"},
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, "page1")
	assert.Error(t, err)

	_, err = New(testPages(), "missing")
	assert.Error(t, err)

	bad := testPages()
	bad[1].AccessToken = ""
	_, err = New(bad, "page1")
	assert.Error(t, err)

	dup := append(testPages(), Page{Key: "page1", Name: "Dup", PageID: "333", AccessToken: "tok3"})
	_, err = New(dup, "page1")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg, err := New(testPages(), "page1")
	require.NoError(t, err)

	assert.Equal(t, "page1", cfg.Resolve(""))
	assert.Equal(t, "page2", cfg.Resolve("page2"))
	assert.Equal(t, "page1", cfg.Resolve("bogus"))
}

func TestGet(t *testing.T) {
	cfg, err := New(testPages(), "page1")
	require.NoError(t, err)

	p, ok := cfg.Get("page2")
	require.True(t, ok)
	assert.Equal(t, "222", p.PageID)

	_, ok = cfg.Get("nope")
	assert.False(t, ok)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	doc := `{"pages":[{"key":"page1","name":"Main","page_id":"111","access_token":"tok1","prefix":"Q:","suffix":""}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path, "page1")
	require.NoError(t, err)
	p, ok := cfg.Get("page1")
	require.True(t, ok)
	assert.Equal(t, "Q:", p.Prefix)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"), "page1")
	assert.Error(t, err)
}
