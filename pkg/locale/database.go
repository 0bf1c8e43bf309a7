package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when no requested locale is supported.
const DefaultLocale = "en"

//go:embed data/*.yaml
var builtin embed.FS

// Database is an immutable set of locale data with locale negotiation.
// It is safe for concurrent use.
type Database struct {
	locales       map[string]*Data
	keys          []string // index-aligned with tags, default first
	tags          []language.Tag
	matcher       language.Matcher
	defaultLocale string
}

// Option configures a Database during construction.
type Option func(*builder) error

type builder struct {
	dirs          []fs.FS
	defaultLocale string
	skipBuiltin   bool
}

// WithDefaultLocale sets the locale used when negotiation finds no match.
func WithDefaultLocale(tag string) Option {
	return func(b *builder) error {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: empty default locale", ErrInvalidLocale)
		}
		b.defaultLocale = tag
		return nil
	}
}

// WithDir loads additional locale files from the root of fsys.
// Files are named {tag}.yaml or {tag}.yml; a locale already loaded is replaced.
func WithDir(fsys fs.FS) Option {
	return func(b *builder) error {
		if fsys != nil {
			b.dirs = append(b.dirs, fsys)
		}
		return nil
	}
}

// WithoutBuiltin skips the embedded locale files.
func WithoutBuiltin() Option {
	return func(b *builder) error {
		b.skipBuiltin = true
		return nil
	}
}

var loadDefault = sync.OnceValues(func() (*Database, error) {
	return New()
})

// Default returns the database built from the embedded locale files.
// It is loaded once per process.
func Default() (*Database, error) {
	return loadDefault()
}

// New builds a Database from the embedded locale files and any extra directories.
func New(opts ...Option) (*Database, error) {
	b := &builder{defaultLocale: DefaultLocale}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	dirs := b.dirs
	if !b.skipBuiltin {
		sub, err := fs.Sub(builtin, "data")
		if err != nil {
			return nil, err
		}
		dirs = append([]fs.FS{sub}, dirs...)
	}

	locales := make(map[string]*Data)
	for _, dir := range dirs {
		if err := loadDir(dir, locales); err != nil {
			return nil, err
		}
	}
	if len(locales) == 0 {
		return nil, ErrEmptyDatabase
	}

	defTag, err := parseTag(b.defaultLocale)
	if err != nil {
		return nil, err
	}
	defKey := defTag.String()
	if _, ok := locales[defKey]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDefault, defKey)
	}

	keys := make([]string, 0, len(locales))
	for key := range locales {
		if key != defKey {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	keys = append([]string{defKey}, keys...)

	tags := make([]language.Tag, len(keys))
	for i, key := range keys {
		tags[i] = language.MustParse(key)
	}

	return &Database{
		locales:       locales,
		keys:          keys,
		tags:          tags,
		matcher:       language.NewMatcher(tags),
		defaultLocale: defKey,
	}, nil
}

func loadDir(fsys fs.FS, into map[string]*Data) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading locale directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		raw, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return fmt.Errorf("reading %q: %w", entry.Name(), err)
		}

		var d Data
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("%w: parsing %q: %s", ErrInvalidData, entry.Name(), err)
		}
		if err := d.validate(); err != nil {
			return fmt.Errorf("%q: %w", entry.Name(), err)
		}

		tag, err := language.Parse(d.Tag)
		if err != nil {
			return fmt.Errorf("%w: %q: tag %q: %s", ErrInvalidData, entry.Name(), d.Tag, err)
		}
		d.Tag = tag.String()
		into[d.Tag] = &d
	}

	return nil
}

// DefaultLocale returns the tag used when negotiation finds no match.
func (db *Database) DefaultLocale() string {
	return db.defaultLocale
}

// Locales returns the supported tags, default first, the rest sorted.
func (db *Database) Locales() []string {
	return slices.Clone(db.keys)
}

// Lookup returns the data for an exact supported tag.
func (db *Database) Lookup(tag string) (*Data, bool) {
	d, ok := db.locales[tag]
	return d, ok
}
