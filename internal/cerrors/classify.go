package cerrors

import "strings"

// GenericRevertMessage is the fallback shown when a revert reason matches
// no known pattern.
const GenericRevertMessage = "transaction would fail, please check your inputs"

// revertPatterns maps known revert-reason substrings to user-facing
// explanations. Matching is case-insensitive and first-match-wins, so more
// specific patterns come first.
var revertPatterns = []struct {
	substr  string
	message string
}{
	{"exceeds available supply", "not enough tokens available for this purchase"},
	{"exceeds tier allocation", "purchase exceeds your tier allocation"},
	{"tier allocation", "purchase exceeds your tier allocation"},
	{"insufficient funds", "insufficient funds to cover the purchase and gas"},
	{"sale is not active", "this sale is not currently active"},
	{"sale not active", "this sale is not currently active"},
	{"inactive sale", "this sale is not currently active"},
	{"lock period", "tokens are still in their lock period"},
	{"nothing to claim", "no tokens are claimable yet"},
	{"max 1000 tokens per request", "maximum 1000 tokens per faucet request"},
}

// ClassifyRevert maps a raw revert reason or provider error string to a
// user-facing message. Unknown reasons fall back to GenericRevertMessage.
func ClassifyRevert(reason string) string {
	lower := strings.ToLower(reason)
	for _, p := range revertPatterns {
		if strings.Contains(lower, p.substr) {
			return p.message
		}
	}
	return GenericRevertMessage
}

// IsRejection reports whether an error string looks like the user declining
// a signature prompt rather than an on-chain failure.
func IsRejection(reason string) bool {
	lower := strings.ToLower(reason)
	return strings.Contains(lower, "user rejected") ||
		strings.Contains(lower, "user denied") ||
		strings.Contains(lower, "request rejected")
}
