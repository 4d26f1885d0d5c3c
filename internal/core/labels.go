package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	LocaleEnglish    = "en"
	LocalePortuguese = "pt-BR"
)

var supportedLocales = []language.Tag{language.English, language.BrazilianPortuguese}

var monthAbbrev = map[language.Tag][12]string{
	language.English:             {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	language.BrazilianPortuguese: {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
}

// MonthLabeler renders month keys as short display labels and parses them
// back. Parsing uses the same table as formatting so a label produced by a
// labeler always round-trips through it.
type MonthLabeler struct {
	tag language.Tag
}

// NewMonthLabeler picks the closest supported locale for the given BCP 47
// tag. Unknown or empty tags fall back to English.
func NewMonthLabeler(locale string) MonthLabeler {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return MonthLabeler{tag: language.English}
	}
	_, idx, conf := language.NewMatcher(supportedLocales).Match(tag)
	if conf == language.No {
		return MonthLabeler{tag: language.English}
	}
	return MonthLabeler{tag: supportedLocales[idx]}
}

// Locale returns the BCP 47 tag the labeler formats with.
func (l MonthLabeler) Locale() string {
	if _, ok := monthAbbrev[l.tag]; !ok {
		return language.English.String()
	}
	return l.tag.String()
}

// names falls back to English for the zero value.
func (l MonthLabeler) names() [12]string {
	if names, ok := monthAbbrev[l.tag]; ok {
		return names
	}
	return monthAbbrev[language.English]
}

// Format renders k as "Mar 2024" (en) or "mar 2024" (pt-BR).
func (l MonthLabeler) Format(k MonthKey) string {
	if !k.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s %d", l.names()[k.Month-1], k.Year)
}

// Parse is the inverse of Format. Matching is case-insensitive, and a
// trailing period after the month ("mar. 2024") or a slash separator
// ("mar/2024") is tolerated.
func (l MonthLabeler) Parse(label string) (MonthKey, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(label), func(r rune) bool {
		return r == ' ' || r == '/'
	})
	if len(fields) != 2 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrUnparseableLabel, label)
	}
	name := strings.TrimSuffix(fields[0], ".")
	year, err := strconv.Atoi(fields[1])
	if err != nil || year < 1 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrUnparseableLabel, label)
	}

	fold := cases.Fold()
	name = fold.String(name)
	for i, candidate := range l.names() {
		if fold.String(candidate) == name {
			return MonthKey{Year: year, Month: time.Month(i + 1)}, nil
		}
	}
	return MonthKey{}, fmt.Errorf("%w: %q", ErrUnparseableLabel, label)
}
