package cache

// responseCacheTable holds one row per request signature.
const responseCacheTable = "response_cache"

// ResponseCacheSchema defines the schema for the SQLite response cache
const ResponseCacheSchema = `
CREATE TABLE IF NOT EXISTS response_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_response_cached_at ON response_cache(cached_at);
`
