package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/config"
)

// Rules is the compiled form of config.Vocabulary shared by every stage.
type Rules struct {
	combos         [][]string
	columnTerms    map[string]bool
	minColumnTerms int
	sectionMarkers []string

	txnDate *regexp.Regexp
	amounts []*regexp.Regexp

	address []*regexp.Regexp
	regions *regexp.Regexp

	banned      map[string]bool
	boilerplate map[string]bool
	removal     []removalRule

	labels          []*regexp.Regexp
	labelExclusions map[string]bool
	stopWords       map[string]bool
	honorifics      map[string]bool
	personalTitle   *regexp.Regexp
	businessPrefix  *regexp.Regexp
	businessSuffix  map[string]bool
	companySuffix   map[string]bool
	addressTerms    map[string]bool
	cut             *regexp.Regexp

	accounts          []*regexp.Regexp
	accountFallback   *regexp.Regexp
	accountExclusions []string
	mobile            *regexp.Regexp

	scoring config.ScoringConfig
}

type removalRule struct {
	name      string
	re        *regexp.Regexp
	minLength int
}

// Compile builds Rules from a validated configuration.
func Compile(cfg *config.Config) (*Rules, error) {
	voc := cfg.Vocabulary
	r := &Rules{
		minColumnTerms:    voc.MinColumnTerms,
		columnTerms:       foldSet(voc.TableColumnTerms),
		banned:            foldSet(voc.BannedWords),
		boilerplate:       foldSet(voc.BoilerplateWords),
		labelExclusions:   upperSet(voc.LabelExclusions),
		stopWords:         upperSet(voc.StopWords),
		honorifics:        upperSet(append(append([]string{}, voc.PersonalTitles...), voc.BusinessPrefixes...)),
		businessSuffix:    upperSet(voc.BusinessSuffixes),
		companySuffix:     upperSet(voc.CompanySuffixes),
		addressTerms:      upperSet(voc.AddressTerms),
		accountExclusions: lowerList(voc.AccountExclusions),
		sectionMarkers:    lowerList(voc.SectionMarkers),
		scoring:           cfg.Scoring,
	}
	if r.minColumnTerms <= 0 {
		r.minColumnTerms = 3
	}
	for _, combo := range voc.TableHeaderCombinations {
		r.combos = append(r.combos, lowerList(combo))
	}

	var err error
	if r.txnDate, err = regexp.Compile(voc.TransactionDatePattern); err != nil {
		return nil, fmt.Errorf("transaction date pattern: %w", err)
	}
	if r.amounts, err = compileAll(voc.AmountPatterns); err != nil {
		return nil, fmt.Errorf("amount patterns: %w", err)
	}
	if r.address, err = compileAll(voc.AddressPatterns); err != nil {
		return nil, fmt.Errorf("address patterns: %w", err)
	}
	if r.labels, err = compileAll(voc.NameLabels); err != nil {
		return nil, fmt.Errorf("name labels: %w", err)
	}
	if r.accounts, err = compileAll(voc.AccountPatterns); err != nil {
		return nil, fmt.Errorf("account patterns: %w", err)
	}
	if r.accountFallback, err = regexp.Compile(voc.AccountFallbackPattern); err != nil {
		return nil, fmt.Errorf("account fallback pattern: %w", err)
	}
	if voc.MobilePattern != "" {
		if r.mobile, err = regexp.Compile(voc.MobilePattern); err != nil {
			return nil, fmt.Errorf("mobile pattern: %w", err)
		}
	}

	r.regions = alternation(voc.Regions)
	r.personalTitle = prefixPattern(voc.PersonalTitles)
	r.businessPrefix = prefixPattern(voc.BusinessPrefixes)
	r.cut = alternation(append(append([]string{}, voc.CutTerms...), voc.Regions...))

	for _, rule := range voc.RemovalRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("removal rule %s: %w", rule.Name, err)
		}
		r.removal = append(r.removal, removalRule{name: rule.Name, re: re, minLength: rule.MinLength})
	}
	// Region names can span several words, so the per-word banned set cannot
	// catch them.
	if r.regions != nil {
		r.removal = append(r.removal, removalRule{name: "region", re: r.regions})
	}

	return r, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// alternation builds a case-insensitive whole-word match for any of terms.
// Spaces inside a term match any run of whitespace.
func alternation(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		words := strings.Fields(t)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		parts = append(parts, strings.Join(words, `\s+`))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// prefixPattern matches a title such as "MR." or "M/S" and the spacing after it.
func prefixPattern(titles []string) *regexp.Regexp {
	if len(titles) == 0 {
		return nil
	}
	parts := make([]string, 0, len(titles))
	for _, t := range titles {
		parts = append(parts, regexp.QuoteMeta(t))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b\.?\s*`)
}

func foldSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[fold(w)] = true
	}
	return m
}

func upperSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToUpper(w)] = true
	}
	return m
}

func lowerList(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
