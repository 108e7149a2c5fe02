// Package tokens implements the crude token-count heuristic used for
// routing and billing fallback. It is deliberately not a real tokenizer.
package tokens

// Count is a non-negative token count. The zero value is a count of 0.
type Count int64

// Of constructs a Count from an explicit, already-known integer (e.g. the
// usage numbers reported by an upstream provider).
func Of(n int) Count {
	if n < 0 {
		return 0
	}
	return Count(n)
}

// EstimateText approximates the token count of a single string as
// floor(len(text)/4). This deliberately under-counts non-Latin scripts,
// where a "token" in most real tokenizers maps to far fewer than four
// bytes; it is used only for routing decisions and as a billing fallback
// when a provider does not report usage, never as an authoritative count.
func EstimateText(text string) Count {
	return Count(len(text) / 4)
}

// EstimateMessages sums the character-based estimate across every message's
// content. Roles are not counted; only content length matters.
func EstimateMessages(contents []string) Count {
	total := 0
	for _, c := range contents {
		total += len(c)
	}
	return Count(total / 4)
}

// Exceeds reports whether the count is strictly greater than limit.
func (c Count) Exceeds(limit int) bool {
	return int64(c) > int64(limit)
}

// Int returns the plain integer value.
func (c Count) Int() int {
	return int(c)
}

// Add returns the sum of two counts.
func (c Count) Add(other Count) Count {
	return c + other
}
