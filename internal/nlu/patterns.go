package nlu

import (
	"regexp"

	"haus_search/internal/domain"
)

// A preposition introduces a free-text place; the capture runs over following
// alphabetic words and is cut at the first stop word afterwards.
var locationPrepositionRe = regexp.MustCompile(`(?i)\b(in|at|near|around)\s+([a-z][a-z'-]*(?:\s+[a-z][a-z'-]*)*)`)

var locationWordRe = regexp.MustCompile(`\S+`)

// Words that end a place phrase when they follow the preposition.
var locationStopWords = map[string]struct{}{
	"under": {}, "over": {}, "below": {}, "above": {}, "between": {},
	"with": {}, "for": {}, "that": {}, "and": {}, "or": {}, "to": {},
	"from": {}, "near": {}, "around": {}, "within": {}, "budget": {},
	"i": {}, "we": {}, "my": {}, "please": {},
}

// Fallback closed list of market localities; first match in the text wins.
var cityListRe = regexp.MustCompile(`(?i)\b(sydney|melbourne|brisbane|perth|adelaide|gold coast|canberra|hobart|darwin|newcastle|wollongong|bondi|manly|parramatta|cronulla|surry hills)\b`)

// Walked in declared order; the first match wins, which makes the order an
// implicit priority (a text naming both "house" and "apartment" is a house).
var propertyTypePatterns = []struct {
	value domain.PropertyType
	re    *regexp.Regexp
}{
	{domain.PropertyHouse, regexp.MustCompile(`(?i)\b(house|home)s?\b`)},
	{domain.PropertyApartment, regexp.MustCompile(`(?i)\b(apartment|unit|flat)s?\b`)},
	{domain.PropertyStudio, regexp.MustCompile(`(?i)\bstudios?\b`)},
	{domain.PropertyCondo, regexp.MustCompile(`(?i)\b(condo|condominium)s?\b`)},
	{domain.PropertyTownhouse, regexp.MustCompile(`(?i)\btown\s?houses?\b`)},
	{domain.PropertyLoft, regexp.MustCompile(`(?i)\blofts?\b`)},
	{domain.PropertyPenthouse, regexp.MustCompile(`(?i)\bpenthouses?\b`)},
	{domain.PropertyDuplex, regexp.MustCompile(`(?i)\bduplex(es)?\b`)},
}

var (
	bedroomsRe  = regexp.MustCompile(`(?i)\b(\d+)\s*(?:bed(?:room)?s?|br)\b`)
	bathroomsRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:bath(?:room)?s?|ba)\b`)
)

type priceKind int

const (
	priceMax priceKind = iota
	priceMin
	priceSpan
)

// Ordered; the first pattern to match settles the price range for the query.
var pricePatterns = []struct {
	kind priceKind
	re   *regexp.Regexp
}{
	{priceMax, regexp.MustCompile(`(?i)\b(?:under|below)\s+\$?([\d,]+(?:\.\d+)?)\s*([km])?\b`)},
	{priceMin, regexp.MustCompile(`(?i)\b(?:over|above)\s+\$?([\d,]+(?:\.\d+)?)\s*([km])?\b`)},
	{priceSpan, regexp.MustCompile(`(?i)\$?([\d,]+(?:\.\d+)?)\s*([km])?\s*(?:to|-|–)\s*\$?([\d,]+(?:\.\d+)?)\s*([km])?\b`)},
	{priceSpan, regexp.MustCompile(`(?i)\bbetween\s+\$?([\d,]+(?:\.\d+)?)\s*([km])?\s+and\s+\$?([\d,]+(?:\.\d+)?)\s*([km])?\b`)},
	{priceMax, regexp.MustCompile(`(?i)\bbudget\s+(?:of\s+)?\$?([\d,]+(?:\.\d+)?)\s*([km])?\b`)},
}

// Rent intent is tested before buy intent; a query naming both rents.
var (
	rentRe = regexp.MustCompile(`(?i)\b(rent|rental|renting|lease|leasing)\b`)
	buyRe  = regexp.MustCompile(`(?i)\b(buy|buying|purchase|purchasing|sale)\b`)
)

// Every amenity pattern is tested independently; matches accumulate in
// declaration order and each tag can appear at most once.
var amenityPatterns = []struct {
	tag string
	re  *regexp.Regexp
}{
	{"pool", regexp.MustCompile(`(?i)\b(?:swimming\s+)?pool\b`)},
	{"garage", regexp.MustCompile(`(?i)\bgarages?\b`)},
	{"garden", regexp.MustCompile(`(?i)\b(garden|yard|backyard)s?\b`)},
	{"balcony", regexp.MustCompile(`(?i)\bbalcon(?:y|ies)\b`)},
	{"gym", regexp.MustCompile(`(?i)\b(gym|fitness)\b`)},
	{"parking", regexp.MustCompile(`(?i)\b(parking|carport|car\s+space)s?\b`)},
	{"air-conditioning", regexp.MustCompile(`(?i)\b(air[\s-]?con(?:ditioning|ditioned)?|aircon)\b`)},
	{"pet-friendly", regexp.MustCompile(`(?i)\b(pet[\s-]friendly|pets?\s+(?:allowed|ok|okay|welcome))\b`)},
	{"furnished", regexp.MustCompile(`(?i)\bfurnished\b`)},
	{"study", regexp.MustCompile(`(?i)\b(study|home\s+office)\b`)},
	{"waterfront", regexp.MustCompile(`(?i)\b(waterfront|water\s+views?|ocean\s+views?)\b`)},
}
