// Package pages holds the target-page table: for each routing key, the
// external page identifier, its access credential and the message
// prefix/suffix applied before publishing. The table is loaded once at
// startup and never mutated.
package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ErrUnknownPage = errors.New("unknown target page")

type Page struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	PageID      string `json:"page_id"`
	AccessToken string `json:"access_token"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
}

func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Key, validation.Required),
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.PageID, validation.Required),
		validation.Field(&p.AccessToken, validation.Required),
	)
}

type Config struct {
	Pages      []Page
	DefaultKey string

	byKey map[string]Page
}

type pagesFile struct {
	Pages []Page `json:"pages"`
}

// Load reads the page table from a JSON file and validates it together with
// the configured default key.
func Load(path, defaultKey string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pages file: %w", err)
	}
	var f pagesFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse pages file: %w", err)
	}
	return New(f.Pages, defaultKey)
}

// New builds a Config from an in-memory page list. The default key must name
// one of the pages.
func New(list []Page, defaultKey string) (*Config, error) {
	if len(list) == 0 {
		return nil, errors.New("pages: empty page table")
	}
	byKey := make(map[string]Page, len(list))
	for _, p := range list {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pages: page %q: %w", p.Key, err)
		}
		if _, dup := byKey[p.Key]; dup {
			return nil, fmt.Errorf("pages: duplicate key %q", p.Key)
		}
		byKey[p.Key] = p
	}
	if _, ok := byKey[defaultKey]; !ok {
		return nil, fmt.Errorf("pages: default key %q not in page table", defaultKey)
	}
	return &Config{Pages: list, DefaultKey: defaultKey, byKey: byKey}, nil
}

// Get returns the page for a key.
func (c *Config) Get(key string) (Page, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

// Has reports whether a key exists in the table.
func (c *Config) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Resolve maps a caller-supplied page selector to a routing key: a selector
// that names a configured page wins, anything else falls back to the default.
func (c *Config) Resolve(selector string) string {
	if selector != "" && c.Has(selector) {
		return selector
	}
	return c.DefaultKey
}
