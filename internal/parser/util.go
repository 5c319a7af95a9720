package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var wordPattern = regexp.MustCompile(`[a-z]+`)

// wordTrim is stripped from both ends of a word before it is compared with a
// word list.
const wordTrim = `.,:;()[]{}'"-!?*#|`

// SplitLines splits text into trimmed, non-empty lines, keeping their order.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// fold returns the case-folded form of s for word-list lookups.
// A Caser is not safe for concurrent use, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// lowerWords returns the runs of ASCII letters in the lower-cased line.
func lowerWords(line string) []string {
	return wordPattern.FindAllString(strings.ToLower(line), -1)
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func containsLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// digitHeavy reports whether more than a third of s's characters are digits.
// A fraction of exactly one third is not digit heavy.
func digitHeavy(s string) bool {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return false
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits*3 > total
}

// isUpperWord reports whether w has letters and none of them is lower case.
func isUpperWord(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isNameToken reports whether w can be part of a capitalized run: it starts
// with an upper-case letter, carries no digits and contains only letters and
// the punctuation found inside names ("D'SOUZA", "R.K.", "M/S").
func isNameToken(w string) bool {
	if w == "&" {
		return true
	}
	first := true
	for _, r := range w {
		switch {
		case unicode.IsDigit(r):
			return false
		case unicode.IsLetter(r):
			if first && !unicode.IsUpper(r) {
				return false
			}
			first = false
		case strings.ContainsRune(".'&/-", r):
		default:
			return false
		}
	}
	return !first
}

// capitalizedRun returns the leading run of name tokens in s. The run stops
// at the first token that is lower case, digit-bearing or a stop-word, and
// after a token that ends with a separator such as ',' or ':'.
func (r *Rules) capitalizedRun(s string) []string {
	var run []string
	for _, tok := range strings.Fields(s) {
		word := strings.Trim(tok, `,;:()[]"`)
		if word == "" || !isNameToken(word) {
			break
		}
		if r.stopWords[strings.ToUpper(strings.TrimRight(word, "."))] {
			break
		}
		run = append(run, word)
		if strings.ContainsAny(tok[len(tok)-1:], ",;:)") {
			break
		}
	}
	for len(run) > 0 && run[len(run)-1] == "&" {
		run = run[:len(run)-1]
	}
	return run
}

// nameWordCount counts words, ignoring bare connectors.
func nameWordCount(words []string) int {
	n := 0
	for _, w := range words {
		if w != "&" {
			n++
		}
	}
	return n
}

// isListed reports whether the trimmed, folded form of w is in set.
func isListed(set map[string]bool, w string) bool {
	return set[fold(strings.Trim(w, wordTrim))]
}
