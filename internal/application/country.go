package application

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/unicode/norm"
)

var nonLetters = regexp.MustCompile(`[^A-Za-z ]`)

// CountryResolver maps free-form country names to ISO 3166 alpha-2 codes using CLDR display names
type CountryResolver struct {
	codes map[string]string
}

// NewCountryResolver indexes English region names plus the names in each extra locale.
// When two regions normalise to the same name the alphabetically first code wins.
func NewCountryResolver(locales ...language.Tag) *CountryResolver {
	namers := []display.Namer{display.English.Regions()}
	for _, tag := range locales {
		namers = append(namers, display.Regions(tag))
	}

	codes := make(map[string]string)
	for first := 'A'; first <= 'Z'; first++ {
		for second := 'A'; second <= 'Z'; second++ {
			code := string([]rune{first, second})
			region, err := language.ParseRegion(code)
			if err != nil || !region.IsCountry() || region.String() != code {
				continue
			}
			for _, namer := range namers {
				name := normalizeCountryName(namer.Name(region))
				if name == "" {
					continue
				}
				if _, taken := codes[name]; !taken {
					codes[name] = code
				}
			}
		}
	}
	return &CountryResolver{codes: codes}
}

// ISOCode returns the code for a country name, or nil when nothing matches
func (r *CountryResolver) ISOCode(country string) *string {
	if strings.TrimSpace(country) == "" {
		return nil
	}
	code, ok := r.codes[normalizeCountryName(country)]
	if !ok {
		return nil
	}
	return &code
}

func normalizeCountryName(name string) string {
	decomposed := norm.NFKD.String(name)
	decomposed = strings.ReplaceAll(decomposed, "\u00a0", " ")
	return strings.ToLower(strings.TrimSpace(nonLetters.ReplaceAllString(decomposed, "")))
}
