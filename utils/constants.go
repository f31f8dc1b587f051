// File: utils/constants.go
package utils

import "time"

// ListingCachePrefix is the prefix used for cached availability listings.
const ListingCachePrefix = "listing:"

// ListingCacheTTL bounds how stale a cached listing may be. Booking never reads it.
const ListingCacheTTL = 15 * time.Second

// BalanceLockPrefix is the prefix of the per-client ledger lock keys.
const BalanceLockPrefix = "balance_lock:"
