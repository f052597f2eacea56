package shared

// ListingIDs is the seed set the ingestor walks when no explicit range is
// configured. Production runs override via the feed's change stream.
var ListingIDs = []int64{
	1001001, 1001002, 1001003, 1001004, 1001005,
	1001006, 1001007, 1001008, 1001009, 1001010,
	1002001, 1002002, 1002003, 1002004, 1002005,
	1003001, 1003002, 1003003, 1003004, 1003005,
}
