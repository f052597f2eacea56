package mysql

const upsertListingSQL = `
INSERT INTO listings
  (id, agency_id, suburb, state, address, type, listing_type,
   bedrooms, bathrooms, parking, price, lat, lon, amenities, images, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  agency_id    = VALUES(agency_id),
  suburb       = VALUES(suburb),
  state        = VALUES(state),
  address      = VALUES(address),
  type         = VALUES(type),
  listing_type = VALUES(listing_type),
  bedrooms     = VALUES(bedrooms),
  bathrooms    = VALUES(bathrooms),
  parking      = VALUES(parking),
  price        = VALUES(price),
  lat          = VALUES(lat),
  lon          = VALUES(lon),
  amenities    = VALUES(amenities),
  images       = VALUES(images),
  raw          = VALUES(raw),
  updated_at   = CURRENT_TIMESTAMP
`

const insertReportsPrefix = "INSERT INTO reports\n" +
	"  (id, listing_id, source_id, suburb, estimate, low_estimate, high_estimate, summary, source, raw)\nVALUES "

// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertReportsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  suburb        = COALESCE(VALUES(suburb), reports.suburb),\n" +
	"  estimate      = COALESCE(VALUES(estimate), reports.estimate),\n" +
	"  low_estimate  = COALESCE(VALUES(low_estimate), reports.low_estimate),\n" +
	"  high_estimate = COALESCE(VALUES(high_estimate), reports.high_estimate),\n" +
	"  summary       = COALESCE(VALUES(summary), reports.summary),\n" +
	"  source        = COALESCE(VALUES(source), reports.source),\n" +
	"  raw           = COALESCE(VALUES(raw), reports.raw)\n"

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getListingSQL = `
SELECT
  id, agency_id, suburb, state, address, type, listing_type,
  bedrooms, bathrooms, parking, price, lat, lon, amenities, images
FROM listings
WHERE id = ?
`

const getReportSQL = `
SELECT
  id, listing_id, source_id, suburb, estimate, low_estimate, high_estimate, summary, source
FROM reports
WHERE id = ?
`

// listListingsBaseSQL is extended with filter predicates in the repo; keep the
// trailing "WHERE 1=1" so every predicate can append with AND.
const listListingsBaseSQL = `
SELECT
  id, agency_id, suburb, state, address, type, listing_type,
  bedrooms, bathrooms, parking, price, lat, lon, amenities, images
FROM listings
WHERE 1=1
`
