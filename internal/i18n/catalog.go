package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

// ErrUnsupportedLanguage is returned for a language without a catalog
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Catalog holds flattened translation tables keyed by language code.
type Catalog struct {
	messages    map[string]map[string]string
	defaultLang string
	languages   []string
	matcher     language.Matcher
}

// NewCatalog loads the built-in locales
func NewCatalog(defaultLang string) (*Catalog, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return LoadCatalog(sub, defaultLang)
}

// LoadCatalog reads every <lang>.json file at the root of fsys.
func LoadCatalog(fsys fs.FS, defaultLang string) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", file)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, errors.Wrapf(err, "parse %s", file)
		}
		lang := strings.TrimSuffix(path.Base(file), ".json")
		table := make(map[string]string)
		flatten("", tree, table)
		c.messages[lang] = table
		c.languages = append(c.languages, lang)
	}
	sort.Strings(c.languages)

	if _, ok := c.messages[defaultLang]; !ok {
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "default %q", defaultLang)
	}
	c.defaultLang = defaultLang

	// default first so it wins when nothing matches
	tags := []language.Tag{language.Make(defaultLang)}
	for _, lang := range c.languages {
		if lang != defaultLang {
			tags = append(tags, language.Make(lang))
		}
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case string:
			out[key] = t
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

// Default returns the fallback language
func (c *Catalog) Default() string {
	return c.defaultLang
}

// Languages lists the supported language codes
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.languages...)
}

// Has reports whether lang has a catalog
func (c *Catalog) Has(lang string) bool {
	_, ok := c.messages[lang]
	return ok
}

// T translates key into lang, falling back to the default language and
// finally to the key itself. {name} placeholders are replaced from vars.
func (c *Catalog) T(lang, key string, vars map[string]string) string {
	msg, ok := c.messages[lang][key]
	if !ok {
		msg, ok = c.messages[c.defaultLang][key]
	}
	if !ok {
		msg = key
	}
	if len(vars) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Match picks the best supported language for the given tags or
// Accept-Language values. Unknown input yields the default language.
func (c *Catalog) Match(preferred ...string) string {
	var tags []language.Tag
	for _, p := range preferred {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return c.defaultLang
	}

	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return c.defaultLang
	}
	if index == 0 {
		return c.defaultLang
	}
	return c.nonDefault()[index-1]
}

func (c *Catalog) nonDefault() []string {
	out := make([]string, 0, len(c.languages))
	for _, lang := range c.languages {
		if lang != c.defaultLang {
			out = append(out, lang)
		}
	}
	return out
}

var rtl = map[string]bool{"ar": true, "fa": true, "he": true, "ur": true}

// Direction returns the text direction of lang, "rtl" or "ltr"
func Direction(lang string) string {
	base, _ := language.Make(lang).Base()
	if rtl[base.String()] {
		return "rtl"
	}
	return "ltr"
}
