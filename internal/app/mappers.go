package app

import (
	"encoding/json"
	"strings"

	"haus_search/internal/domain"
)

/********** alias registries (single source of truth) **********/

var listingAliases = map[string][]string{
	"suburb":       {"suburb", "locality", "address.suburb", "location.suburb"},
	"state":        {"state", "address.state", "location.state"},
	"address":      {"address", "address.full", "full_address", "display_address"},
	"type":         {"type", "property_type", "propertyType", "dwelling_type"},
	"listing_type": {"listing_type", "listingType", "sale_mode", "channel"},
	"agency_id":    {"agency_id", "agencyId", "agency.id"},
}

var reportAliases = map[string][]string{
	"suburb":    {"suburb", "locality", "address.suburb"},
	"summary":   {"summary", "commentary", "text", "body"},
	"source":    {"source", "provider", "origin"},
	"source_id": {"id", "report_id", "reportId"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstStrAlias returns the first non-empty string among an alias set.
func firstStrAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, path := range aliases[key] {
		if v := lookupAny(m, path); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				s = strings.TrimSpace(s)
				return &s
			}
		}
	}
	return nil
}

// firstNumAlias returns the first numeric value among dot paths.
func firstNumAlias(m map[string]any, paths ...string) *float64 {
	for _, path := range paths {
		if v := lookupAny(m, path); v != nil {
			if f, ok := v.(float64); ok {
				return &f
			}
		}
	}
	return nil
}

func intFromNum(p *float64) *int {
	if p == nil {
		return nil
	}
	n := int(*p)
	return &n
}

func int64FromNum(p *float64) *int64 {
	if p == nil {
		return nil
	}
	n := int64(*p)
	return &n
}

func strList(m map[string]any, path string) []string {
	v := lookupAny(m, path)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

/********** feed payload -> domain **********/

func mapListing(p map[string]any) domain.Listing {
	raw, _ := json.Marshal(p)
	id := int64FromNum(firstNumAlias(p, "id", "listing_id", "listingId"))
	l := domain.Listing{
		AgencyID:    nil,
		Suburb:      firstStrAlias(p, listingAliases, "suburb"),
		State:       firstStrAlias(p, listingAliases, "state"),
		Address:     firstStrAlias(p, listingAliases, "address"),
		Type:        firstStrAlias(p, listingAliases, "type"),
		ListingType: firstStrAlias(p, listingAliases, "listing_type"),
		Bedrooms:    intFromNum(firstNumAlias(p, "bedrooms", "beds", "features.bedrooms")),
		Bathrooms:   intFromNum(firstNumAlias(p, "bathrooms", "baths", "features.bathrooms")),
		Parking:     intFromNum(firstNumAlias(p, "parking", "car_spaces", "features.parking")),
		Price:       firstNumAlias(p, "price", "price_guide", "pricing.value"),
		Lat:         firstNumAlias(p, "lat", "latitude", "location.lat"),
		Lon:         firstNumAlias(p, "lon", "lng", "longitude", "location.lon"),
		Amenities:   strList(p, "amenities"),
		Images:      strList(p, "images"),
		RawJSON:     raw,
	}
	if id != nil {
		l.ID = *id
	}
	if a := int64FromNum(firstNumAlias(p, "agency_id", "agencyId", "agency.id")); a != nil {
		l.AgencyID = a
	}
	return l
}

func mapReports(listingID int64, payloads []map[string]any) []domain.Report {
	out := make([]domain.Report, 0, len(payloads))
	for _, p := range payloads {
		raw, _ := json.Marshal(p)
		r := domain.Report{
			ListingID:    listingID,
			SourceID:     firstStrAlias(p, reportAliases, "source_id"),
			Suburb:       firstStrAlias(p, reportAliases, "suburb"),
			Estimate:     firstNumAlias(p, "estimate", "midpoint", "valuation.estimate"),
			LowEstimate:  firstNumAlias(p, "low_estimate", "lower", "valuation.low"),
			HighEstimate: firstNumAlias(p, "high_estimate", "upper", "valuation.high"),
			Summary:      firstStrAlias(p, reportAliases, "summary"),
			Source:       firstStrAlias(p, reportAliases, "source"),
			RawJSON:      raw,
		}
		if id := int64FromNum(firstNumAlias(p, "id", "report_id")); id != nil {
			r.ID = *id
		}
		out = append(out, r)
	}
	return out
}

/********** extraction -> listings query **********/

// ParamsToQuery turns extracted search parameters into a repository query.
// The location maps onto the suburb filter; the first amenity (when present)
// narrows the amenity filter, matching how the search surface exposes it.
func ParamsToQuery(p domain.SearchParameters, limit int) domain.ListingsQuery {
	q := domain.ListingsQuery{Limit: limit}
	q.Suburb = p.Location
	if p.PropertyType != nil {
		t := string(*p.PropertyType)
		q.Type = &t
	}
	if p.ListingType != nil {
		lt := string(*p.ListingType)
		q.ListingType = &lt
	}
	q.MinBeds = p.Bedrooms
	q.MinBaths = p.Bathrooms
	if p.PriceRange != nil {
		q.PriceMin = p.PriceRange.Min
		q.PriceMax = p.PriceRange.Max
	}
	if len(p.Amenities) > 0 {
		a := p.Amenities[0]
		q.Amenity = &a
	}
	return q
}
