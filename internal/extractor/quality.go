package extractor

import (
	"strings"
	"unicode"
)

// textQuality is the share of characters that are basic ASCII letters,
// digits, whitespace or common punctuation. Garbage from identity-encoded
// fonts tends to decode to accented or private-use runes, so unicode.IsLetter
// is too broad here.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(".,-/:;()'\"%&@#!?+=*", r)) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually every bank statement. Text with none of
// them is most likely mis-decoded.
var commonWords = []string{
	"bank", "account", "a/c", "balance", "date", "statement", "customer",
	"name", "branch", "ifsc", "amount", "credit", "debit", "transaction",
	"opening", "closing", "period", "page", "number",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, w := range commonWords {
		if strings.Contains(combined, w) {
			return true
		}
	}
	return false
}

// IsReadableText requires more than 50 characters, more than 60% of them
// readable ASCII, and at least one common statement word.
func IsReadableText(pages []string) bool {
	return totalTextLen(pages) > 50 && textQuality(pages) > 0.6 && containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
