package domain

// Report is an appraisal snapshot for a listing: a price estimate band plus a
// human-readable summary, as delivered by the listings feed.
type Report struct {
	ID           int64
	ListingID    int64
	SourceID     *string
	Suburb       *string
	Estimate     *float64
	LowEstimate  *float64
	HighEstimate *float64
	Summary      *string
	Source       *string
	RawJSON      []byte
}
