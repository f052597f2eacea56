// Package nlu turns free-form voice/text property queries into structured
// search parameters. It is a deterministic, pattern-based fallback extractor:
// pure, side-effect free, and never failing. Unrecognized input degrades to
// empty parameters at base confidence rather than an error.
package nlu

import (
	"strconv"
	"strings"
	"unicode"

	"haus_search/internal/domain"
)

const (
	baseConfidence    = 0.40
	confidenceCeiling = 0.92
)

// Per-field confidence weights. A weight is added only when the parameter is
// populated AND a source entry exists for the same key; every extraction path
// below sets both, but the double gate is kept so a future path that forgets
// one of the two contributes nothing instead of skewing the score.
var confidenceWeights = []struct {
	field   string
	weight  float64
	present func(p *domain.SearchParameters) bool
}{
	{"location", 0.25, func(p *domain.SearchParameters) bool { return p.Location != nil }},
	{"propertyType", 0.20, func(p *domain.SearchParameters) bool { return p.PropertyType != nil }},
	{"priceRange", 0.15, func(p *domain.SearchParameters) bool { return p.PriceRange != nil }},
	{"bedrooms", 0.10, func(p *domain.SearchParameters) bool { return p.Bedrooms != nil }},
	{"bathrooms", 0.08, func(p *domain.SearchParameters) bool { return p.Bathrooms != nil }},
	{"listingType", 0.07, func(p *domain.SearchParameters) bool { return p.ListingType != nil }},
	{"amenities", 0.05, func(p *domain.SearchParameters) bool { return len(p.Amenities) > 0 }},
}

// Extract parses text into search parameters with per-field provenance and an
// aggregate confidence score. Fields are attempted independently; within a
// field the first matching pattern wins.
//
// prior carries the previous turn's parameters for conversational continuity.
// It is accepted but not read yet: whether unmentioned fields should stick
// across turns is an open product decision, so current behavior (no merging)
// is locked by tests until that lands.
func Extract(text string, prior *domain.SearchParameters) domain.ExtractionResult {
	_ = prior

	params := domain.SearchParameters{}
	sources := domain.ParameterSources{}

	if v, src, ok := extractLocation(text); ok {
		params.Location = &v
		sources["location"] = src
	}
	for _, tp := range propertyTypePatterns {
		if m := tp.re.FindString(text); m != "" {
			v := tp.value
			params.PropertyType = &v
			sources["propertyType"] = m
			break
		}
	}
	if m := bedroomsRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			params.Bedrooms = &n
			sources["bedrooms"] = m[0]
		}
	}
	if m := bathroomsRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			params.Bathrooms = &n
			sources["bathrooms"] = m[0]
		}
	}
	if pr, src, ok := extractPrice(text); ok {
		params.PriceRange = pr
		sources["priceRange"] = src
	}
	if m := rentRe.FindString(text); m != "" {
		v := domain.ForRent
		params.ListingType = &v
		sources["listingType"] = m
	} else if m := buyRe.FindString(text); m != "" {
		v := domain.ForSale
		params.ListingType = &v
		sources["listingType"] = m
	}
	if tags, src, ok := extractAmenities(text); ok {
		params.Amenities = tags
		sources["amenities"] = src
	}

	return domain.ExtractionResult{
		Parameters:       params,
		Confidence:       confidence(&params, sources, text),
		ParameterSources: sources,
	}
}

func extractLocation(text string) (value, source string, ok bool) {
	if m := locationPrepositionRe.FindStringSubmatchIndex(text); m != nil {
		phrase := text[m[4]:m[5]]
		end := 0
		for _, span := range locationWordRe.FindAllStringIndex(phrase, -1) {
			w := strings.ToLower(phrase[span[0]:span[1]])
			if _, stop := locationStopWords[w]; stop {
				break
			}
			end = span[1]
		}
		if end > 0 {
			// source runs from the preposition through the last kept word
			return capitalize(strings.TrimSpace(phrase[:end])), text[m[0] : m[4]+end], true
		}
	}
	if m := cityListRe.FindString(text); m != "" {
		return capitalize(m), m, true
	}
	return "", "", false
}

func extractPrice(text string) (*domain.PriceRange, string, bool) {
	for _, pp := range pricePatterns {
		m := pp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		switch pp.kind {
		case priceMax:
			v := parseAmount(m[1], m[2])
			return &domain.PriceRange{Max: &v}, m[0], true
		case priceMin:
			v := parseAmount(m[1], m[2])
			return &domain.PriceRange{Min: &v}, m[0], true
		case priceSpan:
			a := parseAmount(m[1], m[2])
			b := parseAmount(m[3], m[4])
			// min/max by value, not by position in the text
			if a > b {
				a, b = b, a
			}
			return &domain.PriceRange{Min: &a, Max: &b}, m[0], true
		}
	}
	return nil, "", false
}

func extractAmenities(text string) ([]string, string, bool) {
	var tags []string
	var matched []string
	for _, ap := range amenityPatterns {
		if m := ap.re.FindString(text); m != "" {
			tags = append(tags, ap.tag)
			matched = append(matched, m)
		}
	}
	if len(tags) == 0 {
		return nil, "", false
	}
	return tags, strings.Join(matched, ", "), true
}

// parseAmount normalizes "1,200" + "k" style numerals into whole dollars.
func parseAmount(num, suffix string) float64 {
	n, _ := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	switch strings.ToLower(suffix) {
	case "k":
		n *= 1_000
	case "m":
		n *= 1_000_000
	}
	return n
}

func confidence(p *domain.SearchParameters, sources domain.ParameterSources, text string) float64 {
	c := baseConfidence
	for _, cw := range confidenceWeights {
		if _, hasSource := sources[cw.field]; hasSource && cw.present(p) {
			c += cw.weight
		}
	}
	words := len(strings.Fields(text))
	if words > 10 {
		c += 0.05
	}
	if words > 15 {
		c += 0.05
	}
	if c > confidenceCeiling {
		c = confidenceCeiling
	}
	return c
}

// capitalize upper-cases the first letter only; the rest stays as matched.
func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
