package parser

import (
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// Segment is the header part of a document and where it ended.
type Segment struct {
	Header []string
	// Boundary is the index of the first table line, or -1 when the document
	// has no recognisable table.
	Boundary     int
	BoundaryLine string
}

// Segmenter splits document lines into a header and a transaction table.
type Segmenter struct {
	rules       *Rules
	stopAtTable bool
}

func NewSegmenter(rules *Rules, stopAtTable bool) *Segmenter {
	return &Segmenter{rules: rules, stopAtTable: stopAtTable}
}

// IsTableHeader reports whether line looks like the column header row of a
// transaction table: a known pair of column terms, or enough distinct column
// terms on their own.
func (s *Segmenter) IsTableHeader(line string) bool {
	words := lowerWords(line)
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}

	for _, combo := range s.rules.combos {
		all := len(combo) > 0
		for _, term := range combo {
			if !present[term] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	distinct := 0
	for w := range present {
		if s.rules.columnTerms[w] {
			distinct++
		}
	}
	return distinct >= s.rules.minColumnTerms
}

// IsTransactionLine reports whether line starts with a date and carries an
// amount after it.
func (s *Segmenter) IsTransactionLine(line string) bool {
	loc := s.rules.txnDate.FindStringIndex(line)
	if loc == nil {
		return false
	}
	rest := line[loc[1]:]
	for _, re := range s.rules.amounts {
		if re.MatchString(rest) {
			return true
		}
	}
	return false
}

// isSectionMarker matches lines containing a configured section marker, such
// as "BALANCE BROUGHT FORWARD" for layouts that print it only inside the
// transaction section. No markers are configured by default.
func (s *Segmenter) isSectionMarker(line string) bool {
	lower := strings.Join(strings.Fields(strings.ToLower(line)), " ")
	for _, m := range s.rules.sectionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsBoundary reports whether line belongs to the transaction table.
func (s *Segmenter) IsBoundary(line string) bool {
	return s.IsTableHeader(line) || s.IsTransactionLine(line) || s.isSectionMarker(line)
}

// Segment collects header lines up to the first table line. When the
// segmenter does not stop at the table, table lines are skipped and
// collection continues.
func (s *Segmenter) Segment(lines []string, tr *models.Trace) Segment {
	seg := Segment{Boundary: -1}
	for i, line := range lines {
		if s.IsBoundary(line) {
			if seg.Boundary < 0 {
				seg.Boundary = i
				seg.BoundaryLine = line
			}
			if s.stopAtTable {
				tr.Add(models.StageSegment, models.ActionBoundary, i+1, line, "table starts; header closed")
				break
			}
			tr.Add(models.StageSegment, models.ActionSkipped, i+1, line, "table line")
			continue
		}
		tr.Add(models.StageSegment, models.ActionHeader, i+1, line, "")
		seg.Header = append(seg.Header, line)
	}
	return seg
}
