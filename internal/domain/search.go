package domain

// PropertyType is the closed set of dwelling categories the extractor emits.
type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyApartment PropertyType = "apartment"
	PropertyStudio    PropertyType = "studio"
	PropertyCondo     PropertyType = "condo"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyLoft      PropertyType = "loft"
	PropertyPenthouse PropertyType = "penthouse"
	PropertyDuplex    PropertyType = "duplex"
)

// ListingType distinguishes sale and rental intent.
type ListingType string

const (
	ForSale ListingType = "for-sale"
	ForRent ListingType = "for-rent"
)

// PriceRange holds monetary bounds in whole dollars. Min <= Max when both set.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// SearchParameters is the sparse structured output of query extraction.
// Every field is optional; absent fields were not recognized in the input.
type SearchParameters struct {
	Location     *string       `json:"location,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Bathrooms    *int          `json:"bathrooms,omitempty"`
	PriceRange   *PriceRange   `json:"priceRange,omitempty"`
	ListingType  *ListingType  `json:"listingType,omitempty"`
	Amenities    []string      `json:"amenities,omitempty"`
}

// ParameterSources maps a populated field name to the literal input substring
// that triggered it. Composite fields (priceRange, amenities) collapse to a
// single entry. Built once per extraction, never mutated afterward.
type ParameterSources map[string]string

// ExtractionResult pairs extracted parameters with per-field provenance and an
// aggregate confidence in [0.40, 0.92].
type ExtractionResult struct {
	Parameters       SearchParameters `json:"parameters"`
	Confidence       float64          `json:"confidence"`
	ParameterSources ParameterSources `json:"parameterSources"`
}
