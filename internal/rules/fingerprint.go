package rules

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a short stable hash of the rule's normalized form.
// Two stored strings that normalize to the same RuleSet (blank rows dropped,
// match mode defaulted) share a fingerprint, so it can be used to tell
// whether a collection's materialized members are stale relative to its rule.
func Fingerprint(raw string) string {
	return FingerprintSet(Parse(raw))
}

// FingerprintSet hashes an already-parsed RuleSet.
func FingerprintSet(rs RuleSet) string {
	sum := xxhash.Sum64String(Serialize(rs))
	return strconv.FormatUint(sum, 16)
}
