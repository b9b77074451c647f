package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// Roles carried in tokens and security logs.
const (
	RoleCitizen = "citizen"
	RoleLawyer  = "lawyer"
	RoleAdmin   = "admin"
)

// Context keys set by the auth middleware.
const (
	CtxAccountID = "accountID"
	CtxRole      = "role"
	CtxTokenHash = "tokenHash"
	CtxGeo       = "geoLocation"
)

// AuthCacheKey is the Redis key holding the cached session of an account.
func AuthCacheKey(role, accountID string) string {
	return AuthCachePrefix + role + ":" + accountID
}

// Listing page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampLimit applies the default page size and caps oversized requests.
func ClampLimit(limit int64) int64 {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
