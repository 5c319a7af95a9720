package parser

import (
	"testing"

	"github.com/insightdelivered/statement-holder-extractor/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	return cfg
}

func testRules(t *testing.T) *Rules {
	t.Helper()
	rules, err := Compile(testConfig(t))
	if err != nil {
		t.Fatalf("compile rules: %v", err)
	}
	return rules
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
