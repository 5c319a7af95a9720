package parser

import (
	"strings"
	"testing"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

const sampleStatement = `STATE BANK OF INDIA
ACCOUNT STATEMENT
MR RAJESH SHAH
FLAT NO 12, SUNSHINE APARTMENTS
MG ROAD, ANDHERI WEST
MUMBAI MAHARASHTRA 400053
Account No: 30012345678
IFSC: SBIN0001234
Statement Period 01/04/2023 To 31/03/2024
Date Particulars Debit Credit Balance
01/04/2023 OPENING BALANCE 10,000.00
02/04/2023 UPI PAYMENT MR AMIT JOSHI 250.00 9,750.00`

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestAnalyzeLabelledName(t *testing.T) {
	p := newPipeline(t)
	text := "ACCOUNT STATEMENT\nCUSTOMER NAME: SURESH PATEL\nBRANCH: ANDHERI\nDate Particulars Debit Credit\n01-01-24 ..."

	res, tr := p.Analyze(text)
	if res.CustomerName != "SURESH PATEL" {
		t.Errorf("name: got %q, want %q", res.CustomerName, "SURESH PATEL")
	}
	if res.AccountNumber != "" {
		t.Errorf("account: got %q, want empty", res.AccountNumber)
	}
	if res.Status() != models.StatusPartial {
		t.Errorf("status: got %q, want %q", res.Status(), models.StatusPartial)
	}
	if len(res.HeaderLines) != 3 {
		t.Errorf("header lines: got %d, want 3", len(res.HeaderLines))
	}
	e, ok := tr.Find(models.StageSegment, models.ActionBoundary)
	if !ok {
		t.Fatal("expected a boundary event")
	}
	if e.LineNum != 4 {
		t.Errorf("boundary line: got %d, want 4", e.LineNum)
	}
}

func TestAnalyzeFullStatement(t *testing.T) {
	p := newPipeline(t)

	res, tr := p.Analyze(sampleStatement)
	if res.CustomerName != "RAJESH SHAH" {
		t.Errorf("name: got %q, want %q", res.CustomerName, "RAJESH SHAH")
	}
	if res.NameTier != TierTitle {
		t.Errorf("tier: got %q, want %q", res.NameTier, TierTitle)
	}
	if res.EntityType != models.EntityIndividual {
		t.Errorf("entity: got %q, want %q", res.EntityType, models.EntityIndividual)
	}
	if res.AccountNumber != "30012345678" {
		t.Errorf("account: got %q, want %q", res.AccountNumber, "30012345678")
	}
	if res.Status() != models.StatusSuccess {
		t.Errorf("status: got %q, want %q", res.Status(), models.StatusSuccess)
	}
	if len(res.HeaderLines) != 9 {
		t.Errorf("header lines: got %d, want 9", len(res.HeaderLines))
	}
	if got := len(tr.Stage(models.StageAddress)); got != 3 {
		t.Errorf("address events: got %d, want 3", got)
	}
	for _, line := range res.CleanedLines {
		if strings.Contains(line, "AMIT") {
			t.Errorf("transaction text leaked into header: %q", line)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	p := newPipeline(t)

	for _, text := range []string{"", "   \n\n\t"} {
		res, tr := p.Analyze(text)
		if res.Status() != models.StatusFailed {
			t.Errorf("status: got %q, want %q", res.Status(), models.StatusFailed)
		}
		if _, ok := tr.Find(models.StageSegment, models.ActionEmpty); !ok {
			t.Error("expected an empty event")
		}
	}
}

func TestAnalyzeNoiseBeforeAddress(t *testing.T) {
	text := "RAMESH KUMAR VERMA\nSHOP 4 GANESH\nPUNE 411001"

	res, _ := newPipeline(t).Analyze(text)
	if !equalLines(res.CleanedLines, []string{"RAMESH KUMAR VERMA"}) {
		t.Errorf("address first: got %q", res.CleanedLines)
	}

	cfg := testConfig(t)
	cfg.Policy.AddressBeforeNoise = false
	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, _ = p.Analyze(text)
	// "PUNE 411001" is digit heavy before cleaning and is dropped, leaving a
	// single address line that does not form a block.
	want := []string{"RAMESH KUMAR VERMA", "SHOP 4 GANESH"}
	if !equalLines(res.CleanedLines, want) {
		t.Errorf("noise first: got %q, want %q", res.CleanedLines, want)
	}
	if res.CustomerName != "RAMESH KUMAR VERMA" {
		t.Errorf("name: got %q, want %q", res.CustomerName, "RAMESH KUMAR VERMA")
	}
}

func TestAnalyzeOpeningBalanceInHeader(t *testing.T) {
	text := "STATEMENT OF ACCOUNT\nOpening Balance as on 01-04-2024\nMR RAJESH SHAH\n" +
		"Account No: 30012345678\nDate Particulars Debit Credit Balance\n01-04-24 NEFT 100.00"

	res, _ := newPipeline(t).Analyze(text)
	if res.CustomerName != "RAJESH SHAH" {
		t.Errorf("name: got %q, want %q", res.CustomerName, "RAJESH SHAH")
	}
	if res.AccountNumber != "30012345678" {
		t.Errorf("account: got %q, want %q", res.AccountNumber, "30012345678")
	}
	if res.Status() != models.StatusSuccess {
		t.Errorf("status: got %q, want %q", res.Status(), models.StatusSuccess)
	}
}

func TestAnalyzeRejectsAddressOnlyScoringLine(t *testing.T) {
	text := "Savings Account Statement\nSHANTI TOWER COMPLEX\nDate Particulars"

	res, _ := newPipeline(t).Analyze(text)
	if res.CustomerName != "" {
		t.Errorf("name: got %q, want none", res.CustomerName)
	}
}

func TestAnalyzeContinuePastTable(t *testing.T) {
	text := "ACCOUNT STATEMENT\nDate Particulars Debit Credit\n01-01-24 NEFT 100.00\nCUSTOMER NAME: SURESH PATEL"

	res, _ := newPipeline(t).Analyze(text)
	if res.CustomerName != "" {
		t.Errorf("stop at table: got name %q, want none", res.CustomerName)
	}

	cfg := testConfig(t)
	cfg.Policy.StopAtTable = false
	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, _ = p.Analyze(text)
	if res.CustomerName != "SURESH PATEL" {
		t.Errorf("continue past table: got %q, want %q", res.CustomerName, "SURESH PATEL")
	}
}
