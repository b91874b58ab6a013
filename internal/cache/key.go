package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CredentialParam is the query parameter carrying the provider API key.
// It never takes part in a cache key.
const CredentialParam = "api_key"

// Signature renders endpoint and params as a canonical request string.
// Keys and repeated values are sorted and the credential is dropped, so
// logically identical requests produce the same signature.
func Signature(endpoint string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == CredentialParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	sep := "?"
	for _, k := range keys {
		values := append([]string(nil), params[k]...)
		sort.Strings(values)
		for _, v := range values {
			b.WriteString(sep)
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
			sep = "&"
		}
	}
	return b.String()
}

// BuildKey returns the filesystem-safe cache key for a request.
func BuildKey(endpoint string, params url.Values) string {
	sum := sha1.Sum([]byte(Signature(endpoint, params)))
	return hex.EncodeToString(sum[:])
}
