package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// settingsFile mirrors the [NEAT] section of a settings document. Pointer
// fields distinguish "absent" from an explicit zero so absent keys keep
// their declared defaults.
type settingsFile struct {
	PopSize              int     `ini:"pop_size"`
	MaxGenerations       *int    `ini:"max_generations"`
	MaxPopulationHistory *int    `ini:"max_population_history"`
	StartSequenceAt      *int    `ini:"start_sequence_at"`
	EndSequenceAt        *int    `ini:"end_sequence_at"`
	EvalWorkers          *int    `ini:"eval_workers"`
	Seed                 *int64  `ini:"seed"`
	FitnessAggregation   *string `ini:"fitness_aggregation"`
}

// LoadSettings loads a Settings object from an INI file. The [NEAT] section
// holds the controller-facing parameters; every key of the [Operator]
// section is carried verbatim as a free-form numeric parameter for the
// population modules.
//
// Example document:
//
//	[NEAT]
//	pop_size               = 50
//	max_generations        = 200
//	max_population_history = 10
//	start_sequence_at      = 0
//	end_sequence_at        = 3
//	eval_workers           = 4
//	seed                   = 1971
//	fitness_aggregation    = mean
//
//	[Operator]
//	mutate_power            = 0.5
//	compatibility_threshold = 3.0
func LoadSettings(filePath string) (*Settings, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file '%s': %w", filePath, err)
	}

	raw := settingsFile{}
	if err := cfg.Section("NEAT").MapTo(&raw); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}

	opts := []SettingsOption{}
	if raw.MaxGenerations != nil {
		opts = append(opts, WithMaxGenerations(*raw.MaxGenerations))
	}
	if raw.MaxPopulationHistory != nil {
		opts = append(opts, WithHistoryCapacity(*raw.MaxPopulationHistory))
	}
	if raw.StartSequenceAt != nil || raw.EndSequenceAt != nil {
		start, end := 0, 0
		if raw.StartSequenceAt != nil {
			start = *raw.StartSequenceAt
		}
		if raw.EndSequenceAt != nil {
			end = *raw.EndSequenceAt
		}
		opts = append(opts, WithSequenceRange(start, end))
	}
	if raw.EvalWorkers != nil {
		opts = append(opts, WithEvalWorkers(*raw.EvalWorkers))
	}
	if raw.Seed != nil {
		opts = append(opts, WithSeed(*raw.Seed))
	}
	if raw.FitnessAggregation != nil {
		opts = append(opts, WithFitnessAggregation(cleanIniString(*raw.FitnessAggregation)))
	}

	// Operator parameters pass through by name; the core never interprets
	// them.
	if section, err := cfg.GetSection("Operator"); err == nil {
		params := make(map[string]float64, len(section.Keys()))
		for _, key := range section.Keys() {
			value, err := key.Float64()
			if err != nil {
				return nil, configErrorf("operator parameter %q is not numeric: %s",
					key.Name(), cleanIniString(key.String()))
			}
			params[cleanIniString(key.Name())] = value
		}
		opts = append(opts, WithParams(params))
	}

	settings, err := NewSettings(raw.PopSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("settings file '%s': %w", filePath, err)
	}
	return settings, nil
}

// cleanIniString removes inline comments and trims whitespace from a string
// read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
