package parser

import (
	"fmt"
	"log/slog"

	"github.com/insightdelivered/statement-holder-extractor/internal/config"
	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// Analyzer turns one document's text into an extraction result.
type Analyzer interface {
	// Analyze never fails: text without a name or account number yields an
	// empty result with status Failed.
	Analyze(text string) (models.ExtractionResult, *models.Trace)
}

// Pipeline runs segmentation, address removal, noise stripping, the name
// cascade and account-number extraction over a document.
type Pipeline struct {
	Segmenter *Segmenter
	Address   *AddressRemover
	Noise     *NoiseStripper
	Names     *Cascade
	Accounts  *AccountExtractor

	addressBeforeNoise bool
	logger             *slog.Logger
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules, err := Compile(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile vocabulary: %w", err)
	}
	return &Pipeline{
		Segmenter:          NewSegmenter(rules, cfg.Policy.StopAtTable),
		Address:            NewAddressRemover(rules),
		Noise:              NewNoiseStripper(rules),
		Names:              NewCascade(rules),
		Accounts:           NewAccountExtractor(rules),
		addressBeforeNoise: cfg.Policy.AddressBeforeNoise,
		logger:             logger,
	}, nil
}

// Analyze implements Analyzer.
func (p *Pipeline) Analyze(text string) (models.ExtractionResult, *models.Trace) {
	tr := &models.Trace{}
	var res models.ExtractionResult

	lines := SplitLines(text)
	if len(lines) == 0 {
		tr.Add(models.StageSegment, models.ActionEmpty, 0, "", "no text")
		return res, tr
	}

	seg := p.Segmenter.Segment(lines, tr)
	res.HeaderLines = seg.Header

	var labelled, cleaned []string
	if p.addressBeforeNoise {
		labelled = p.Address.Remove(seg.Header, tr)
		cleaned = p.Noise.Strip(labelled, tr)
	} else {
		labelled = seg.Header
		cleaned = p.Address.Remove(p.Noise.Strip(seg.Header, tr), tr)
	}
	res.CleanedLines = cleaned

	if c, ok := p.Names.Find(View{Lines: labelled, Cleaned: cleaned}, tr); ok {
		res.CustomerName = c.Name
		res.NameLine = c.Line
		res.NameTier = c.Tier
		res.EntityType = c.Entity
	}

	if num, line, ok := p.Accounts.Find(seg.Header, tr); ok {
		res.AccountNumber = num
		res.AccountLine = line
	}

	p.logger.Debug("pipeline.analyzed",
		"lines", len(lines),
		"header_lines", len(seg.Header),
		"boundary", seg.Boundary,
		"name", res.CustomerName,
		"tier", res.NameTier,
		"account", res.AccountNumber,
		"status", res.Status(),
	)
	return res, tr
}
