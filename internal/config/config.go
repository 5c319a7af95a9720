package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaultYAML []byte

// EnvPrefix is prepended to every environment override, e.g.
// HOLDER_POLICY_STOP_AT_TABLE=false.
const EnvPrefix = "HOLDER"

// ErrInvalidConfig is returned when a loaded configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Vocabulary Vocabulary       `mapstructure:"vocabulary"`
}

type InputConfig struct {
	Dir string `mapstructure:"dir"`
}

type OutputConfig struct {
	XLSX    string `mapstructure:"xlsx"`
	CSV     string `mapstructure:"csv"`
	History string `mapstructure:"history"`
}

// ExtractionConfig names the external tools used when the Go PDF readers
// cannot produce readable text.
type ExtractionConfig struct {
	Pdftotext     string `mapstructure:"pdftotext"`
	Pdftoppm      string `mapstructure:"pdftoppm"`
	Tesseract     string `mapstructure:"tesseract"`
	EnableOCR     bool   `mapstructure:"enable_ocr"`
	OCRLanguage   string `mapstructure:"ocr_language"`
	DPI           int    `mapstructure:"dpi"`
	FirstPageOnly bool   `mapstructure:"first_page_only"`
}

// PolicyConfig holds the stage-ordering decisions that the heuristics never
// settled on.
type PolicyConfig struct {
	// AddressBeforeNoise runs the address-block remover on the raw header
	// lines before noise stripping. When false the order is reversed.
	AddressBeforeNoise bool `mapstructure:"address_before_noise"`
	// StopAtTable makes the first table line terminal for header collection.
	// When false table lines are skipped and collection continues.
	StopAtTable bool `mapstructure:"stop_at_table"`
}

// ScoringConfig holds the tunable numbers used by the parser.
type ScoringConfig struct {
	UppercaseWordWeight int `mapstructure:"uppercase_word_weight"`
	MinUppercaseWords   int `mapstructure:"min_uppercase_words"`
	CompanySuffixBonus  int `mapstructure:"company_suffix_bonus"`
	AddressPenalty      int `mapstructure:"address_penalty"`
	LongLinePenalty     int `mapstructure:"long_line_penalty"`
	LongLineLimit       int `mapstructure:"long_line_limit"`
	ScoringWindow       int `mapstructure:"scoring_window"`
	PositionBonusStep   int `mapstructure:"position_bonus_step"`
	MinLineLength       int `mapstructure:"min_line_length"`
	MinNameWords        int `mapstructure:"min_name_words"`
	MaxNameWords        int `mapstructure:"max_name_words"`
	AddressBlockMinRun  int `mapstructure:"address_block_min_run"`
}

// RemovalRule is one entry of the ordered noise-removal table. Matches
// shorter than MinLength runes are left in place.
type RemovalRule struct {
	Name      string `mapstructure:"name"`
	Pattern   string `mapstructure:"pattern"`
	MinLength int    `mapstructure:"min_length"`
}

// Vocabulary holds every word list and regex table used by the parser.
type Vocabulary struct {
	TableHeaderCombinations [][]string `mapstructure:"table_header_combinations"`
	TableColumnTerms        []string   `mapstructure:"table_column_terms"`
	MinColumnTerms          int        `mapstructure:"min_column_terms"`
	SectionMarkers          []string   `mapstructure:"section_markers"`

	TransactionDatePattern string   `mapstructure:"transaction_date_pattern"`
	AmountPatterns         []string `mapstructure:"amount_patterns"`

	AddressPatterns []string `mapstructure:"address_patterns"`
	Regions         []string `mapstructure:"regions"`

	BannedWords  []string      `mapstructure:"banned_words"`
	RemovalRules []RemovalRule `mapstructure:"removal_rules"`

	NameLabels       []string `mapstructure:"name_labels"`
	LabelExclusions  []string `mapstructure:"label_exclusions"`
	StopWords        []string `mapstructure:"stop_words"`
	PersonalTitles   []string `mapstructure:"personal_titles"`
	BusinessPrefixes []string `mapstructure:"business_prefixes"`
	BusinessSuffixes []string `mapstructure:"business_suffixes"`
	CompanySuffixes  []string `mapstructure:"company_suffixes"`
	AddressTerms     []string `mapstructure:"address_terms"`
	CutTerms         []string `mapstructure:"cut_terms"`
	BoilerplateWords []string `mapstructure:"boilerplate_words"`

	AccountPatterns        []string `mapstructure:"account_patterns"`
	AccountFallbackPattern string   `mapstructure:"account_fallback_pattern"`
	AccountExclusions      []string `mapstructure:"account_exclusions"`
	MobilePattern          string   `mapstructure:"mobile_pattern"`
}

// Load reads the embedded defaults, merges the optional YAML file at path
// over them and applies HOLDER_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("read default config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Load("")
}

// Validate checks that every pattern compiles and that the lists the parser
// cannot work without are present.
func (c *Config) Validate() error {
	voc := c.Vocabulary

	var patterns []string
	patterns = append(patterns, voc.TransactionDatePattern, voc.AccountFallbackPattern, voc.MobilePattern)
	patterns = append(patterns, voc.AmountPatterns...)
	patterns = append(patterns, voc.AddressPatterns...)
	patterns = append(patterns, voc.NameLabels...)
	patterns = append(patterns, voc.AccountPatterns...)
	for _, r := range voc.RemovalRules {
		if r.Pattern == "" {
			return fmt.Errorf("%w: removal rule %q has no pattern", ErrInvalidConfig, r.Name)
		}
		patterns = append(patterns, r.Pattern)
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: pattern %q: %v", ErrInvalidConfig, p, err)
		}
	}

	for _, re := range voc.AccountPatterns {
		if regexp.MustCompile(re).NumSubexp() < 1 {
			return fmt.Errorf("%w: account pattern %q needs a capture group", ErrInvalidConfig, re)
		}
	}

	switch {
	case voc.TransactionDatePattern == "":
		return fmt.Errorf("%w: vocabulary.transaction_date_pattern is empty", ErrInvalidConfig)
	case voc.AccountFallbackPattern == "":
		return fmt.Errorf("%w: vocabulary.account_fallback_pattern is empty", ErrInvalidConfig)
	case len(voc.TableColumnTerms) == 0:
		return fmt.Errorf("%w: vocabulary.table_column_terms is empty", ErrInvalidConfig)
	case len(voc.NameLabels) == 0:
		return fmt.Errorf("%w: vocabulary.name_labels is empty", ErrInvalidConfig)
	}

	s := c.Scoring
	if s.MinNameWords < 1 || s.MaxNameWords < s.MinNameWords {
		return fmt.Errorf("%w: name word bounds %d..%d", ErrInvalidConfig, s.MinNameWords, s.MaxNameWords)
	}
	if s.AddressBlockMinRun < 1 {
		return fmt.Errorf("%w: address_block_min_run must be positive", ErrInvalidConfig)
	}
	if s.ScoringWindow < 1 {
		return fmt.Errorf("%w: scoring_window must be positive", ErrInvalidConfig)
	}
	return nil
}
