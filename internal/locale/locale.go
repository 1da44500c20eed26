// Package locale holds the fixed set of supported UI/content locales, their message tables, and the process-wide
// active locale.
//
// A [Locale] is both the UI language and the "language" parameter sent to the metadata API. Any tag outside the
// supported set resolves to [Default] through an x/text matcher, so callers never hold an unsupported value.
package locale

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is a supported BCP 47 tag such as "en-US".
type Locale string

const (
	EnglishUS  Locale = "en-US"
	KoreanKR   Locale = "ko-KR"
	JapaneseJP Locale = "ja-JP"

	Default = EnglishUS
)

// Direction is the text direction of a locale's script.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// supported is also the order the language menu lists entries in.
var supported = []Locale{KoreanKR, EnglishUS, JapaneseJP}

// fallbackOrder is the search fan-out order after the active locale.
var fallbackOrder = []Locale{JapaneseJP, KoreanKR, EnglishUS}

var matcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish, // first entry is the matcher's default
	language.MustParse(string(KoreanKR)),
	language.MustParse(string(JapaneseJP)),
})

var matcherOrder = []Locale{EnglishUS, KoreanKR, JapaneseJP}

var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Syrc": true, "Thaa": true, "Nkoo": true, "Adlm": true, "Rohg": true,
}

// Supported returns the supported locales in menu order.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Parse resolves an arbitrary tag ("ko", "ja_JP", "en-GB") to a supported locale, defaulting to [Default].
func Parse(s string) Locale {
	l, err := Lookup(s)
	if err != nil {
		return Default
	}
	return l
}

// Lookup resolves s like [Parse] but reports tags that match no supported locale.
func Lookup(s string) (Locale, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	if s == "" {
		return "", fmt.Errorf("%w: empty tag", shared.ErrUnsupportedLocale)
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", shared.ErrUnsupportedLocale, s, err)
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedLocale, s)
	}
	return matcherOrder[idx], nil
}

// MatchAcceptLanguage picks the best supported locale for an HTTP Accept-Language header.
func MatchAcceptLanguage(header string) Locale {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return matcherOrder[idx]
}

// SearchOrder returns the locales a multi-language search fans out to: active first, then the fixed fallback
// order, each at most once.
func SearchOrder(active Locale) []Locale {
	order := make([]Locale, 0, len(fallbackOrder)+1)
	order = append(order, active)
	for _, l := range fallbackOrder {
		if l != active {
			order = append(order, l)
		}
	}
	return order
}

// Tag returns the parsed [language.Tag].
func (l Locale) Tag() language.Tag {
	return language.Make(string(l))
}

// Lang returns the bare language subtag ("en", "ko", "ja").
func (l Locale) Lang() string {
	base, _ := l.Tag().Base()
	return base.String()
}

// Label returns the locale's name in its own language, e.g. "日本語".
func (l Locale) Label() string {
	base, _ := l.Tag().Base()
	return display.Self.Name(language.Make(base.String()))
}

// Direction reports the text direction of the locale's script.
func (l Locale) Direction() Direction {
	script, _ := l.Tag().Script()
	if rtlScripts[script.String()] {
		return RTL
	}
	return LTR
}

// Supported reports whether l is one of the fixed supported locales.
func (l Locale) Supported() bool {
	for _, s := range supported {
		if s == l {
			return true
		}
	}
	return false
}

func (l Locale) String() string { return string(l) }
