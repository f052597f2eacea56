package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"haus_search/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertListing(ctx context.Context, l domain.Listing) error {
	amen, _ := json.Marshal(l.Amenities)
	imgs, _ := json.Marshal(l.Images)
	_, err := r.db.ExecContext(ctx, upsertListingSQL,
		l.ID,
		valInt64(l.AgencyID),
		valStr(l.Suburb),
		valStr(l.State),
		valStr(l.Address),
		valStr(l.Type),
		valStr(l.ListingType),
		valInt(l.Bedrooms),
		valInt(l.Bathrooms),
		valInt(l.Parking),
		valF64(l.Price),
		valF64(l.Lat),
		valF64(l.Lon),
		string(amen),
		string(imgs),
		string(l.RawJSON),
	)
	return err
}

func (r *Repo) UpsertReports(ctx context.Context, rs []domain.Report) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*10) // 10 params per row
	for _, rp := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rp.ID,
			rp.ListingID,
			valStr(rp.SourceID),
			valStr(rp.Suburb),
			valF64(rp.Estimate),
			valF64(rp.LowEstimate),
			valF64(rp.HighEstimate),
			valStr(rp.Summary),
			valStr(rp.Source),
			string(rp.RawJSON),
		)
	}
	sqlStr := insertReportsPrefix + strings.Join(values, ",") + insertReportsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, getListingSQL, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) ListListings(ctx context.Context, q domain.ListingsQuery) (domain.ListingsPage, error) {
	var sb strings.Builder
	sb.WriteString(listListingsBaseSQL)
	var args []any
	if q.Suburb != nil {
		sb.WriteString(" AND suburb = ?")
		args = append(args, *q.Suburb)
	}
	if q.Type != nil {
		sb.WriteString(" AND type = ?")
		args = append(args, *q.Type)
	}
	if q.ListingType != nil {
		sb.WriteString(" AND listing_type = ?")
		args = append(args, *q.ListingType)
	}
	if q.MinBeds != nil {
		sb.WriteString(" AND bedrooms >= ?")
		args = append(args, *q.MinBeds)
	}
	if q.MinBaths != nil {
		sb.WriteString(" AND bathrooms >= ?")
		args = append(args, *q.MinBaths)
	}
	if q.PriceMin != nil {
		sb.WriteString(" AND price >= ?")
		args = append(args, *q.PriceMin)
	}
	if q.PriceMax != nil {
		sb.WriteString(" AND price <= ?")
		args = append(args, *q.PriceMax)
	}
	if q.Amenity != nil {
		sb.WriteString(" AND JSON_CONTAINS(amenities, JSON_QUOTE(?))")
		args = append(args, *q.Amenity)
	}
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sb.WriteString(" ORDER BY id LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return domain.ListingsPage{}, err
	}
	defer rows.Close()

	var page domain.ListingsPage
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return domain.ListingsPage{}, err
		}
		page.Items = append(page.Items, l)
	}
	return page, rows.Err()
}

func (r *Repo) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	row := r.db.QueryRowContext(ctx, getReportSQL, id)

	var rep domain.Report
	var sourceID, suburb, summary, source sql.NullString
	var estimate, low, high sql.NullFloat64
	err := row.Scan(&rep.ID, &rep.ListingID, &sourceID, &suburb,
		&estimate, &low, &high, &summary, &source)
	if err == sql.ErrNoRows {
		return domain.Report{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Report{}, err
	}
	rep.SourceID = nullStr(sourceID)
	rep.Suburb = nullStr(suburb)
	rep.Estimate = nullF64(estimate)
	rep.LowEstimate = nullF64(low)
	rep.HighEstimate = nullF64(high)
	rep.Summary = nullStr(summary)
	rep.Source = nullStr(source)
	return rep, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanListing(sc scanner) (domain.Listing, error) {
	var l domain.Listing
	var agencyID sql.NullInt64
	var suburb, state, address, typ, listingType sql.NullString
	var beds, baths, parking sql.NullInt64
	var price, lat, lon sql.NullFloat64
	var amenJSON, imgJSON sql.NullString

	err := sc.Scan(&l.ID, &agencyID, &suburb, &state, &address, &typ, &listingType,
		&beds, &baths, &parking, &price, &lat, &lon, &amenJSON, &imgJSON)
	if err != nil {
		return domain.Listing{}, err
	}
	l.AgencyID = nullI64(agencyID)
	l.Suburb = nullStr(suburb)
	l.State = nullStr(state)
	l.Address = nullStr(address)
	l.Type = nullStr(typ)
	l.ListingType = nullStr(listingType)
	l.Bedrooms = nullInt(beds)
	l.Bathrooms = nullInt(baths)
	l.Parking = nullInt(parking)
	l.Price = nullF64(price)
	l.Lat = nullF64(lat)
	l.Lon = nullF64(lon)
	if amenJSON.Valid && amenJSON.String != "" {
		_ = json.Unmarshal([]byte(amenJSON.String), &l.Amenities)
	}
	if imgJSON.Valid && imgJSON.String != "" {
		_ = json.Unmarshal([]byte(imgJSON.String), &l.Images)
	}
	return l, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullI64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
