// Package locale picks the display language of the shell and holds its labels.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CookieName stores the visitor's explicit language choice.
const CookieName = "lang"

const (
	French  = "fr"
	English = "en"
	Arabic  = "ar"
)

var supported = []string{French, English, Arabic}

var rtl = map[string]bool{Arabic: true}

// Catalog resolves labels for the supported languages, falling back to its default language.
type Catalog struct {
	defaultLang string
	tags        []language.Tag
	matcher     language.Matcher
	messages    map[string]map[string]string
}

func New(defaultLang string) (*Catalog, error) {
	defaultLang = strings.ToLower(strings.TrimSpace(defaultLang))
	if defaultLang == "" {
		defaultLang = French
	}
	if !isSupported(defaultLang) {
		return nil, fmt.Errorf("[locale New] unsupported default language %q", defaultLang)
	}

	// The matcher falls back to its first tag.
	codes := []string{defaultLang}
	for _, code := range supported {
		if code != defaultLang {
			codes = append(codes, code)
		}
	}
	tags := make([]language.Tag, len(codes))
	for i, code := range codes {
		tags[i] = language.MustParse(code)
	}

	return &Catalog{
		defaultLang: defaultLang,
		tags:        tags,
		matcher:     language.NewMatcher(tags),
		messages:    labels,
	}, nil
}

func isSupported(code string) bool {
	for _, s := range supported {
		if s == code {
			return true
		}
	}
	return false
}

func (c *Catalog) Default() string {
	return c.defaultLang
}

// Supported returns the language codes in display order.
func (c *Catalog) Supported() []string {
	return append([]string(nil), supported...)
}

// IsSupported reports whether code is one of the shell languages.
func (c *Catalog) IsSupported(code string) bool {
	return isSupported(strings.ToLower(code))
}

// Negotiate picks the language from the cookie when it names a supported language,
// otherwise from the Accept-Language header.
func (c *Catalog) Negotiate(cookie, acceptLanguage string) string {
	if code := strings.ToLower(strings.TrimSpace(cookie)); isSupported(code) {
		return code
	}
	if acceptLanguage == "" {
		return c.defaultLang
	}
	wanted, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(wanted) == 0 {
		return c.defaultLang
	}
	_, index, confidence := c.matcher.Match(wanted...)
	if confidence == language.No {
		return c.defaultLang
	}
	base, _ := c.tags[index].Base()
	return base.String()
}

// T returns the label for key in lang, the default language label when lang has none,
// and key itself when no language has it.
func (c *Catalog) T(lang, key string) string {
	if msg, ok := c.messages[lang][key]; ok {
		return msg
	}
	if msg, ok := c.messages[c.defaultLang][key]; ok {
		return msg
	}
	return key
}

// Dir is the text direction of lang for the html dir attribute.
func (c *Catalog) Dir(lang string) string {
	if rtl[lang] {
		return "rtl"
	}
	return "ltr"
}

// Number formats n with the digit grouping of lang.
func (c *Catalog) Number(lang string, n int) string {
	tag, err := language.Parse(lang)
	if err != nil || !isSupported(lang) {
		tag = language.MustParse(c.defaultLang)
	}
	return message.NewPrinter(tag).Sprintf("%d", n)
}
