package domain

type Listing struct {
	ID          int64
	AgencyID    *int64
	Suburb      *string
	State       *string
	Address     *string
	Type        *string // house|apartment|studio|condo|townhouse|loft|penthouse|duplex
	ListingType *string // for-sale|for-rent
	Bedrooms    *int
	Bathrooms   *int
	Parking     *int
	Price       *float64
	Lat, Lon    *float64
	Amenities   []string
	Images      []string
	RawJSON     []byte // full feed payload
}

type ListingsQuery struct {
	Suburb      *string
	Type        *string
	ListingType *string
	MinBeds     *int
	MinBaths    *int
	PriceMin    *float64
	PriceMax    *float64
	Amenity     *string
	Limit       int
}

type ListingsPage struct {
	Items      []Listing
	NextCursor *string
}
