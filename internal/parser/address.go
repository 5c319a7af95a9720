package parser

import (
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// AddressRemover excises the customer's mailing address from header lines.
type AddressRemover struct {
	rules  *Rules
	minRun int
}

func NewAddressRemover(rules *Rules) *AddressRemover {
	minRun := rules.scoring.AddressBlockMinRun
	if minRun < 1 {
		minRun = 2
	}
	return &AddressRemover{rules: rules, minRun: minRun}
}

// IsAddressLine reports whether line carries an address marker: a building
// or locality word, a directional qualifier, a PIN code or a region name.
func (a *AddressRemover) IsAddressLine(line string) bool {
	lower := strings.ToLower(line)
	for _, re := range a.rules.address {
		if re.MatchString(lower) {
			return true
		}
	}
	return a.rules.regions != nil && a.rules.regions.MatchString(line)
}

// FindBlock returns the inclusive bounds of the first run of at least minRun
// consecutive address lines.
func (a *AddressRemover) FindBlock(lines []string) (start, end int, ok bool) {
	run := 0
	for i, line := range lines {
		if a.IsAddressLine(line) {
			if run == 0 {
				start = i
			}
			run++
			continue
		}
		if run >= a.minRun {
			return start, i - 1, true
		}
		run = 0
	}
	if run >= a.minRun {
		return start, len(lines) - 1, true
	}
	return 0, 0, false
}

// Remove returns lines without the first address block. Lines are returned
// unchanged when no block qualifies.
func (a *AddressRemover) Remove(lines []string, tr *models.Trace) []string {
	start, end, ok := a.FindBlock(lines)
	if !ok {
		return lines
	}
	out := make([]string, 0, len(lines)-(end-start+1))
	out = append(out, lines[:start]...)
	for i := start; i <= end; i++ {
		tr.Add(models.StageAddress, models.ActionRemoved, i+1, lines[i], "address block")
	}
	return append(out, lines[end+1:]...)
}
