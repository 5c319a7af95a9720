package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// Name tiers, in cascade order.
const (
	TierLabel   = "label"
	TierTitle   = "title"
	TierScoring = "scoring"
)

// View is what the name strategies look at. Lines keep their labels and
// punctuation; Cleaned is the noise-stripped form of the same header.
type View struct {
	Lines   []string
	Cleaned []string
}

// Candidate is a name found by a strategy, after post-cleaning.
type Candidate struct {
	Name   string
	Line   string
	Tier   string
	Entity models.EntityType
	Score  int
}

// NameStrategy is one tier of the name cascade.
type NameStrategy interface {
	Tier() string
	Find(v View, tr *models.Trace) (Candidate, bool)
}

// Cascade tries its strategies in order and returns the first match.
// An earlier tier always wins over a later one.
type Cascade struct {
	Strategies []NameStrategy
}

// NewCascade returns the label, title and scoring tiers in that order.
func NewCascade(rules *Rules) *Cascade {
	return &Cascade{Strategies: []NameStrategy{
		&LabelStrategy{rules: rules},
		&TitleStrategy{rules: rules},
		&ScoringStrategy{rules: rules},
	}}
}

func (c *Cascade) Find(v View, tr *models.Trace) (Candidate, bool) {
	for _, s := range c.Strategies {
		if cand, ok := s.Find(v, tr); ok {
			tr.Add(models.StageName, models.ActionMatched, 0, cand.Line, fmt.Sprintf("%s: %s", cand.Tier, cand.Name))
			return cand, true
		}
	}
	return Candidate{}, false
}

// LabelStrategy reads the capitalized run after an explicit label such as
// "NAME OF CUSTOMER:" or "A/C NAME".
type LabelStrategy struct {
	rules *Rules
}

func (s *LabelStrategy) Tier() string { return TierLabel }

func (s *LabelStrategy) Find(v View, tr *models.Trace) (Candidate, bool) {
	for i, line := range v.Lines {
		for _, re := range s.rules.labels {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				if s.excluded(line[:loc[0]]) {
					continue
				}
				run := s.rules.capitalizedRun(line[loc[1]:])
				name, ok := s.rules.finalizeName(strings.Join(run, " "))
				if !ok {
					if len(run) > 0 {
						tr.Add(models.StageName, models.ActionRejected, i+1, line, TierLabel+": "+strings.Join(run, " "))
					}
					continue
				}
				return Candidate{Name: name, Line: line, Tier: TierLabel, Entity: s.rules.entityOf(name, models.EntityUnknown)}, true
			}
		}
	}
	return Candidate{}, false
}

// excluded reports whether the word before a label turns it into a label
// for someone else ("BRANCH NAME", "NOMINEE NAME").
func (s *LabelStrategy) excluded(before string) bool {
	words := strings.Fields(before)
	if len(words) == 0 {
		return false
	}
	last := strings.ToUpper(strings.Trim(words[len(words)-1], wordTrim))
	return s.rules.labelExclusions[last]
}

// TitleStrategy finds names introduced by an honorific (MR, SMT), a business
// prefix (M/S, MESSRS) or ending in a business suffix (TRADERS, INDUSTRIES).
type TitleStrategy struct {
	rules *Rules
}

func (s *TitleStrategy) Tier() string { return TierTitle }

func (s *TitleStrategy) Find(v View, tr *models.Trace) (Candidate, bool) {
	for i, line := range v.Lines {
		if c, ok := s.afterPrefix(line, i, s.rules.personalTitle, models.EntityIndividual, tr); ok {
			return c, true
		}
		if c, ok := s.afterPrefix(line, i, s.rules.businessPrefix, models.EntityBusiness, tr); ok {
			return c, true
		}
		if c, ok := s.suffixed(line, i, tr); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

func (s *TitleStrategy) afterPrefix(line string, idx int, prefix *regexp.Regexp, entity models.EntityType, tr *models.Trace) (Candidate, bool) {
	if prefix == nil {
		return Candidate{}, false
	}
	for _, loc := range prefix.FindAllStringIndex(line, -1) {
		run := s.rules.capitalizedRun(line[loc[1]:])
		if len(run) == 0 {
			continue
		}
		name, ok := s.rules.finalizeName(strings.Join(run, " "))
		if !ok {
			tr.Add(models.StageName, models.ActionRejected, idx+1, line, TierTitle+": "+strings.Join(run, " "))
			continue
		}
		return Candidate{Name: name, Line: line, Tier: TierTitle, Entity: s.rules.entityOf(name, entity)}, true
	}
	return Candidate{}, false
}

// suffixed scans every capitalized run of line for a business suffix and
// keeps the run up to and including it.
func (s *TitleStrategy) suffixed(line string, idx int, tr *models.Trace) (Candidate, bool) {
	if len(s.rules.businessSuffix) == 0 {
		return Candidate{}, false
	}
	fields := strings.Fields(line)
	for start := 0; start < len(fields); start++ {
		run := s.rules.capitalizedRun(strings.Join(fields[start:], " "))
		if len(run) == 0 {
			continue
		}
		for j := 1; j < len(run); j++ {
			if !s.rules.businessSuffix[strings.ToUpper(strings.Trim(run[j], wordTrim))] {
				continue
			}
			name, ok := s.rules.finalizeName(strings.Join(run[:j+1], " "))
			if !ok {
				tr.Add(models.StageName, models.ActionRejected, idx+1, line, TierTitle+": "+strings.Join(run[:j+1], " "))
				break
			}
			return Candidate{Name: name, Line: line, Tier: TierTitle, Entity: models.EntityBusiness}, true
		}
		start += len(run) - 1
	}
	return Candidate{}, false
}

// ScoringStrategy ranks the first cleaned header lines by how name-like they
// look and takes the best one.
type ScoringStrategy struct {
	rules *Rules
}

func (s *ScoringStrategy) Tier() string { return TierScoring }

type scoredLine struct {
	index int
	line  string
	words []string
	score int
}

// Score returns a line's score and the upper-case words that would form the
// name. position is the line's 0-based index in the header. A line whose
// score is not positive before the position bonus scores 0.
func (s *ScoringStrategy) Score(line string, position int) (int, []string) {
	sc := s.rules.scoring
	if len(line) < sc.MinLineLength || containsDigit(line) {
		return 0, nil
	}

	var upper []string
	for _, w := range strings.Fields(line) {
		if isUpperWord(w) && !isListed(s.rules.banned, w) {
			upper = append(upper, w)
		}
	}
	if len(upper) < sc.MinUppercaseWords {
		return 0, nil
	}

	score := sc.UppercaseWordWeight * len(upper)
	if s.rules.anyIn(upper, s.rules.companySuffix) {
		score += sc.CompanySuffixBonus
	}
	if s.rules.anyIn(upper, s.rules.addressTerms) {
		score -= sc.AddressPenalty
	}
	if len(strings.Join(upper, " ")) > sc.LongLineLimit {
		score -= sc.LongLinePenalty
	}
	// The position bonus only ranks lines that already qualify.
	if score <= 0 {
		return 0, nil
	}
	if bonus := (sc.ScoringWindow - position) * sc.PositionBonusStep; bonus > 0 {
		score += bonus
	}
	return score, upper
}

func (s *ScoringStrategy) Find(v View, tr *models.Trace) (Candidate, bool) {
	lines := v.Cleaned
	if len(lines) > s.rules.scoring.ScoringWindow {
		lines = lines[:s.rules.scoring.ScoringWindow]
	}

	var ranked []scoredLine
	for i, line := range lines {
		score, words := s.Score(line, i)
		tr.Add(models.StageName, models.ActionScored, i+1, line, fmt.Sprintf("score=%d", score))
		if score > 0 {
			ranked = append(ranked, scoredLine{index: i, line: line, words: words, score: score})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	for _, sl := range ranked {
		name, ok := s.rules.finalizeName(strings.Join(sl.words, " "))
		if !ok {
			tr.Add(models.StageName, models.ActionRejected, sl.index+1, sl.line, TierScoring+": "+strings.Join(sl.words, " "))
			continue
		}
		return Candidate{Name: name, Line: sl.line, Tier: TierScoring, Entity: s.rules.entityOf(name, models.EntityUnknown), Score: sl.score}, true
	}
	return Candidate{}, false
}

// finalizeName post-cleans a candidate: it cuts the text at the first cut
// term, drops leading honorifics and rejects names with too few or too many
// words or with a banned or boilerplate word in them.
func (r *Rules) finalizeName(candidate string) (string, bool) {
	if r.cut != nil {
		if loc := r.cut.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
	}

	words := strings.Fields(candidate)
	for len(words) > 0 && r.honorifics[strings.ToUpper(strings.TrimRight(words[0], "."))] {
		words = words[1:]
	}
	for len(words) > 0 && strings.Trim(words[len(words)-1], wordTrim+"&") == "" {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return "", false
	}
	words[len(words)-1] = strings.TrimRight(words[len(words)-1], ".,;:-")

	n := nameWordCount(words)
	if n < r.scoring.MinNameWords || n > r.scoring.MaxNameWords {
		return "", false
	}
	for _, w := range words {
		if isListed(r.banned, w) || isListed(r.boilerplate, w) {
			return "", false
		}
	}
	return strings.Join(words, " "), true
}

// entityOf upgrades the entity type to business when the name carries a
// company or business suffix.
func (r *Rules) entityOf(name string, fallback models.EntityType) models.EntityType {
	words := strings.Fields(name)
	if r.anyIn(words, r.companySuffix) || r.anyIn(words, r.businessSuffix) {
		return models.EntityBusiness
	}
	return fallback
}

func (r *Rules) anyIn(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[strings.ToUpper(strings.Trim(w, wordTrim))] {
			return true
		}
	}
	return false
}
