package dbmanager

import "strings"

// nonDeterministicConstructs are functions whose results change between
// executions; queries containing any of them must not be served from cache.
var nonDeterministicConstructs = []string{
	"now(",
	"current_timestamp",
	"current_date",
	"current_time",
	"localtimestamp",
	"sysdate",
	"random(",
	"rand(",
	"uuid(",
	"gen_random_uuid(",
	"uuid_generate_v4(",
	"newid(",
	"last_insert_id(",
	"lastval(",
	"currval(",
	"nextval(",
}

// IsCacheable reports whether a query's results may be cached: the statement
// must be read-only (SELECT or WITH) and free of non-deterministic
// constructs. The decision is identical for every backend.
func IsCacheable(query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(trimmed, "select") && !strings.HasPrefix(trimmed, "with") {
		return false
	}

	for _, construct := range nonDeterministicConstructs {
		if strings.Contains(trimmed, construct) {
			return false
		}
	}
	return true
}
