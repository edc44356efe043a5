package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()
	require.NoError(t, r.Validate())
	assert.Equal(t, 55.0, r.Scoring.Threshold)
	assert.Equal(t, 0, r.Scoring.PrefixLength)
	assert.Equal(t, "moria", r.Aliases["Moria Surgical"])
	assert.IsNonDecreasing(t, r.DomainTerms)
	assert.Contains(t, r.DomainTerms, "lampe à fente")
}

func TestParse_OverlaysDefaults(t *testing.T) {
	r, err := Parse([]byte(`
aliases:
  "Moria Instruments": moria
domain_terms:
  - "  Vitrectome "
  - scissors
scoring:
  threshold: 60
  prefix_length: 5
`))
	require.NoError(t, err)
	assert.Equal(t, "moria", r.Aliases["Moria Instruments"])
	assert.Equal(t, "moria", r.Aliases["Moria Surgical"], "defaults are kept")
	assert.Contains(t, r.DomainTerms, "vitrectome")
	assert.Equal(t, 60.0, r.Scoring.Threshold)
	assert.Equal(t, 5, r.Scoring.PrefixLength)
	assert.Equal(t, 5.0, r.Scoring.DomainTermWeight, "unset weights keep their defaults")

	seen := map[string]int{}
	for _, term := range r.DomainTerms {
		seen[term]++
	}
	assert.Equal(t, 1, seen["scissors"])
}

func TestParse_Replace(t *testing.T) {
	r, err := Parse([]byte(`
replace_aliases: true
aliases:
  Acme: acme
replace_domain_terms: true
domain_terms: [widget]
measurement_units: [MM, in]
scoring:
  domain_term_weight: 0
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Acme": "acme"}, r.Aliases)
	assert.Equal(t, []string{"widget"}, r.DomainTerms)
	assert.Equal(t, []string{"mm", "in"}, r.MeasurementUnits)
	assert.Equal(t, 0.0, r.Scoring.DomainTermWeight)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero threshold":  "scoring:\n  threshold: 0\n",
		"negative weight": "scoring:\n  model_code_weight: -1\n",
		"prefix score":    "scoring:\n  prefix_score: 120\n",
		"min code length": "scoring:\n  min_code_length: 0\n",
		"empty alias key": "aliases:\n  \"\": moria\n",
		"broken yaml":     "scoring: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), r)

	p := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(p, []byte("scoring:\n  threshold: 70\n"), 0o644))
	r, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, 70.0, r.Scoring.Threshold)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
