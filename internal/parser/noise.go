package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// NoiseStripper removes banking and regulatory boilerplate from header lines.
type NoiseStripper struct {
	rules *Rules
}

func NewNoiseStripper(rules *Rules) *NoiseStripper {
	return &NoiseStripper{rules: rules}
}

// CleanLine applies the removal rules in order, drops banned words and
// reports whether anything worth keeping is left. Digit-heavy lines are
// dropped before and after cleaning.
func (n *NoiseStripper) CleanLine(line string) (string, bool) {
	if digitHeavy(line) {
		return "", false
	}

	s := line
	for _, rule := range n.rules.removal {
		s = rule.apply(s)
	}

	var kept []string
	for _, w := range strings.Fields(s) {
		if !isListed(n.rules.banned, w) {
			kept = append(kept, w)
		}
	}
	out := strings.Join(kept, " ")
	if out == "" || !(containsLetter(out) || containsDigit(out)) || digitHeavy(out) {
		return "", false
	}
	return out, true
}

// Strip cleans every line and drops the ones that end up empty.
func (n *NoiseStripper) Strip(lines []string, tr *models.Trace) []string {
	var out []string
	for i, line := range lines {
		cleaned, ok := n.CleanLine(line)
		if !ok {
			tr.Add(models.StageNoise, models.ActionDiscarded, i+1, line, "")
			continue
		}
		tr.Add(models.StageNoise, models.ActionCleaned, i+1, line, cleaned)
		out = append(out, cleaned)
	}
	return out
}

func (r removalRule) apply(s string) string {
	if r.minLength <= 0 {
		return r.re.ReplaceAllString(s, " ")
	}
	return r.re.ReplaceAllStringFunc(s, func(m string) string {
		if utf8.RuneCountInString(m) < r.minLength {
			return m
		}
		return " "
	})
}
