// Package rules holds the static matching configuration: manufacturer aliases,
// the domain vocabulary, measurement units and scoring weights.
// A Rules value is built once at startup and never mutated afterwards.
package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

type Scoring struct {
	// порог принятия для name_similarity (композит может быть > 100)
	Threshold         float64 `yaml:"threshold" json:"threshold" validate:"gt=0"`
	DomainTermWeight  float64 `yaml:"domain_term_weight" json:"domainTermWeight" validate:"gte=0"`
	MeasurementWeight float64 `yaml:"measurement_weight" json:"measurementWeight" validate:"gte=0"`
	ModelCodeWeight   float64 `yaml:"model_code_weight" json:"modelCodeWeight" validate:"gte=0"`

	// артикулы
	MinCodeLength int     `yaml:"min_code_length" json:"minCodeLength" validate:"gte=1"`
	PrefixLength  int     `yaml:"prefix_length" json:"prefixLength" validate:"gte=0"` // 0: выключено
	PrefixScore   float64 `yaml:"prefix_score" json:"prefixScore" validate:"gte=0,lte=100"`
}

type Rules struct {
	Aliases          map[string]string `yaml:"aliases" json:"aliases" validate:"dive,keys,required,endkeys,required"`
	DomainTerms      []string          `yaml:"domain_terms" json:"domainTerms" validate:"dive,required"`
	MeasurementUnits []string          `yaml:"measurement_units" json:"measurementUnits" validate:"min=1,dive,required"`
	Scoring          Scoring           `yaml:"scoring" json:"scoring"`
}

// Default: значения, которыми пользовались скрипты сверки каталога.
func Default() Rules {
	r := Rules{
		Aliases:          defaultAliases(),
		DomainTerms:      append([]string(nil), defaultDomainTerms...),
		MeasurementUnits: []string{"mm", "cm", "ml", "gauge", "g"},
		Scoring: Scoring{
			Threshold:         55,
			DomainTermWeight:  5,
			MeasurementWeight: 10,
			ModelCodeWeight:   20,
			MinCodeLength:     3,
			PrefixLength:      0,
			PrefixScore:       75,
		},
	}
	return r.normalized()
}

// fileRules: то, что может лежать в YAML. Указатели в scoring нужны, чтобы
// отличать "не задано" от нуля.
type fileRules struct {
	Aliases          map[string]string `yaml:"aliases"`
	ReplaceAliases   bool              `yaml:"replace_aliases"`
	DomainTerms      []string          `yaml:"domain_terms"`
	ReplaceTerms     bool              `yaml:"replace_domain_terms"`
	MeasurementUnits []string          `yaml:"measurement_units"`
	Scoring          struct {
		Threshold         *float64 `yaml:"threshold"`
		DomainTermWeight  *float64 `yaml:"domain_term_weight"`
		MeasurementWeight *float64 `yaml:"measurement_weight"`
		ModelCodeWeight   *float64 `yaml:"model_code_weight"`
		MinCodeLength     *int     `yaml:"min_code_length"`
		PrefixLength      *int     `yaml:"prefix_length"`
		PrefixScore       *float64 `yaml:"prefix_score"`
	} `yaml:"scoring"`
}

// Load читает YAML и накладывает его поверх Default. Пустой path: только дефолты.
func Load(path string) (Rules, error) {
	r := Default()
	if strings.TrimSpace(path) == "" {
		return r, r.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(b)
}

// Parse: как Load, но из байтов.
func Parse(b []byte) (Rules, error) {
	r := Default()
	var fr fileRules
	if err := yaml.Unmarshal(b, &fr); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}

	if fr.ReplaceAliases {
		r.Aliases = map[string]string{}
	}
	for k, v := range fr.Aliases {
		r.Aliases[k] = v
	}
	if fr.ReplaceTerms {
		r.DomainTerms = nil
	}
	r.DomainTerms = append(r.DomainTerms, fr.DomainTerms...)
	if len(fr.MeasurementUnits) > 0 {
		r.MeasurementUnits = fr.MeasurementUnits
	}

	s := fr.Scoring
	setF(&r.Scoring.Threshold, s.Threshold)
	setF(&r.Scoring.DomainTermWeight, s.DomainTermWeight)
	setF(&r.Scoring.MeasurementWeight, s.MeasurementWeight)
	setF(&r.Scoring.ModelCodeWeight, s.ModelCodeWeight)
	setF(&r.Scoring.PrefixScore, s.PrefixScore)
	setI(&r.Scoring.MinCodeLength, s.MinCodeLength)
	setI(&r.Scoring.PrefixLength, s.PrefixLength)

	r = r.normalized()
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	return nil
}

// normalized: словарь в нижнем регистре, без дублей, отсортирован.
func (r Rules) normalized() Rules {
	seen := make(map[string]struct{}, len(r.DomainTerms))
	terms := make([]string, 0, len(r.DomainTerms))
	for _, t := range r.DomainTerms {
		t = strings.ToLower(strings.Join(strings.Fields(t), " "))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	sort.Strings(terms)
	r.DomainTerms = terms

	units := make([]string, 0, len(r.MeasurementUnits))
	for _, u := range r.MeasurementUnits {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			units = append(units, u)
		}
	}
	r.MeasurementUnits = units
	return r
}

func setF(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setI(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
