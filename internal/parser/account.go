package parser

import (
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// AccountExtractor finds the account number in header lines.
type AccountExtractor struct {
	rules *Rules
}

func NewAccountExtractor(rules *Rules) *AccountExtractor {
	return &AccountExtractor{rules: rules}
}

// Find returns the account number and the line it came from. Labelled
// patterns are tried first, in priority order, over all lines. Without a
// labelled match, the first long digit run on a line free of transaction or
// contact vocabulary is taken, skipping mobile numbers.
func (a *AccountExtractor) Find(lines []string, tr *models.Trace) (number, line string, ok bool) {
	for _, re := range a.rules.accounts {
		for i, l := range lines {
			if m := re.FindStringSubmatch(l); m != nil {
				tr.Add(models.StageAccount, models.ActionMatched, i+1, l, "labelled: "+m[1])
				return m[1], l, true
			}
		}
	}

	for i, l := range lines {
		if a.excluded(l) {
			continue
		}
		for _, m := range a.rules.accountFallback.FindAllStringSubmatch(l, -1) {
			num := m[len(m)-1]
			if a.IsMobileNumber(num) {
				tr.Add(models.StageAccount, models.ActionRejected, i+1, l, "mobile number: "+num)
				continue
			}
			tr.Add(models.StageAccount, models.ActionMatched, i+1, l, "unlabelled: "+num)
			return num, l, true
		}
	}
	return "", "", false
}

// IsMobileNumber reports whether digits look like an Indian mobile number,
// with or without the 91 country code.
func (a *AccountExtractor) IsMobileNumber(digits string) bool {
	return a.rules.mobile != nil && a.rules.mobile.MatchString(digits)
}

func (a *AccountExtractor) excluded(line string) bool {
	lower := strings.ToLower(line)
	for _, term := range a.rules.accountExclusions {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
