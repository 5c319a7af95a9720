package parser

import (
	"testing"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

func TestIsTableHeader(t *testing.T) {
	s := NewSegmenter(testRules(t), true)

	tests := []struct {
		input    string
		expected bool
	}{
		{"Date Particulars Debit Credit Balance", true},
		{"Txn Date Value Date Description", true},
		{"TRANSACTION DETAILS", true},
		{"Withdrawal Deposit Balance", true},
		{"Chq/Ref No Amount Balance", true},
		{"Statement Date: 01/04/2023", false},
		{"CUSTOMER NAME: SURESH PATEL", false},
		{"ACCOUNT STATEMENT", false},
		{"Last update: 01/04/2023 particulars", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := s.IsTableHeader(tt.input); got != tt.expected {
				t.Errorf("IsTableHeader(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsTransactionLine(t *testing.T) {
	s := NewSegmenter(testRules(t), true)

	tests := []struct {
		input    string
		expected bool
	}{
		{"01-01-24 NEFT TRANSFER 1,500.00", true},
		{"15/04/2023 UPI PAYMENT 250.00 DR", true},
		{"3.4.2023 INTEREST 12.50 CR", true},
		{"01-01-24 ...", false},
		{"01.01.2024 opening", false},
		{"NEFT 1,500.00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := s.IsTransactionLine(tt.input); got != tt.expected {
				t.Errorf("IsTransactionLine(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSegmentStopsAtTableHeader(t *testing.T) {
	s := NewSegmenter(testRules(t), true)
	lines := []string{
		"ACCOUNT STATEMENT",
		"CUSTOMER NAME: SURESH PATEL",
		"BRANCH: ANDHERI",
		"Date Particulars Debit Credit Balance",
		"01-01-24 NEFT 100.00 1,000.00",
		"NOMINEE NAME: RITA PATEL",
	}

	tr := &models.Trace{}
	seg := s.Segment(lines, tr)

	want := lines[:3]
	if !equalLines(seg.Header, want) {
		t.Errorf("header: got %q, want %q", seg.Header, want)
	}
	if seg.Boundary != 3 {
		t.Errorf("boundary: got %d, want 3", seg.Boundary)
	}
	if seg.BoundaryLine != "Date Particulars Debit Credit Balance" {
		t.Errorf("boundary line: got %q", seg.BoundaryLine)
	}
	ev, ok := tr.Find(models.StageSegment, models.ActionBoundary)
	if !ok || ev.LineNum != 4 {
		t.Errorf("boundary event: got %+v, %v", ev, ok)
	}
}

func TestSegmentStopsAtTransactionRow(t *testing.T) {
	s := NewSegmenter(testRules(t), true)
	lines := []string{"MR RAJESH SHAH", "01/04/2023 OPENING 500.00", "LATER LINE"}

	seg := s.Segment(lines, nil)
	if !equalLines(seg.Header, []string{"MR RAJESH SHAH"}) {
		t.Errorf("header: got %q", seg.Header)
	}
}

func TestSegmentWithoutTable(t *testing.T) {
	s := NewSegmenter(testRules(t), true)
	lines := []string{"MR RAJESH SHAH", "FLAT NO 12"}

	seg := s.Segment(lines, nil)
	if seg.Boundary != -1 {
		t.Errorf("boundary: got %d, want -1", seg.Boundary)
	}
	if !equalLines(seg.Header, lines) {
		t.Errorf("header: got %q, want %q", seg.Header, lines)
	}
}

func TestSegmentContinuesPastTable(t *testing.T) {
	s := NewSegmenter(testRules(t), false)
	lines := []string{
		"STATEMENT",
		"Date Particulars Debit Credit",
		"01-01-24 NEFT 100.00",
		"MR RAJESH SHAH",
	}

	tr := &models.Trace{}
	seg := s.Segment(lines, tr)

	want := []string{"STATEMENT", "MR RAJESH SHAH"}
	if !equalLines(seg.Header, want) {
		t.Errorf("header: got %q, want %q", seg.Header, want)
	}
	if seg.Boundary != 1 {
		t.Errorf("boundary: got %d, want 1", seg.Boundary)
	}
	if got := len(tr.Stage(models.StageSegment)); got != 4 {
		t.Errorf("segment events: got %d, want 4", got)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"blank lines dropped", "\n  \nA\n\n B \n", []string{"A", "B"}},
		{"crlf", "ONE\r\nTWO\r\n", []string{"ONE", "TWO"}},
		{"form feed splits pages", "PAGE ONE\fPAGE TWO", []string{"PAGE ONE", "PAGE TWO"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitLines(tt.input); !equalLines(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentKeepsHeaderOpeningBalance(t *testing.T) {
	s := NewSegmenter(testRules(t), true)
	lines := []string{
		"STATEMENT OF ACCOUNT",
		"Opening Balance as on 01-04-2024",
		"MR RAJESH SHAH",
		"Date Particulars Debit Credit Balance",
	}

	seg := s.Segment(lines, nil)
	want := lines[:3]
	if !equalLines(seg.Header, want) {
		t.Errorf("header: got %q, want %q", seg.Header, want)
	}
	if seg.Boundary != 3 {
		t.Errorf("boundary: got %d, want 3", seg.Boundary)
	}
}

func TestSegmentConfiguredSectionMarker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vocabulary.SectionMarkers = []string{"Balance Brought Forward"}
	rules, err := Compile(cfg)
	if err != nil {
		t.Fatalf("compile rules: %v", err)
	}
	s := NewSegmenter(rules, true)
	lines := []string{"MR RAJESH SHAH", "BALANCE  BROUGHT FORWARD", "LATER LINE"}

	seg := s.Segment(lines, nil)
	if !equalLines(seg.Header, []string{"MR RAJESH SHAH"}) {
		t.Errorf("header: got %q", seg.Header)
	}
	if seg.Boundary != 1 {
		t.Errorf("boundary: got %d, want 1", seg.Boundary)
	}
}
