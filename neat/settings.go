package neat

// settingsAttrs declares the defaultable Settings fields. The sequence
// range is inclusive on both ends; the single-sequence default [0,0] runs
// one evaluation trial per generation.
var settingsAttrs = NewAttrTable().
	MustDeclare(AttrDef{Name: "max_generations", Default: 100}).
	MustDeclare(AttrDef{Name: "max_population_history", Default: 10}).
	MustDeclare(AttrDef{Name: "start_sequence_at", Default: 0}).
	MustDeclare(AttrDef{Name: "end_sequence_at", Default: 0}).
	MustDeclare(AttrDef{Name: "fitness_aggregation", Default: "mean"})

// Settings is the immutable-after-construction bag of evolutionary
// parameters consumed by the Controller and its collaborators. The bounded
// fields above are attribute-registry backed so unset values materialize
// lazily from their declared defaults; free-form numeric operator
// parameters (mutation rates, thresholds and the like, owned by the
// population modules) travel in Params untouched.
//
// Settings is constructed without an owner; the Controller adopts it.
type Settings struct {
	Entity

	attrs *AttrSet

	popSize     int
	evalWorkers int
	seed        int64

	params map[string]float64
}

// SettingsOption customizes a Settings under construction.
type SettingsOption func(*Settings) error

// NewSettings builds a validated Settings object. Unspecified defaultable
// fields keep their declared defaults.
func NewSettings(populationSize int, opts ...SettingsOption) (*Settings, error) {
	s := &Settings{
		Entity:      newUnownedEntity("settings", nil),
		attrs:       NewAttrSet(settingsAttrs),
		popSize:     populationSize,
		evalWorkers: 1,
		params:      make(map[string]float64),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// WithMaxGenerations sets the generation bound.
func WithMaxGenerations(n int) SettingsOption {
	return func(s *Settings) error { return s.attrs.Set("max_generations", n) }
}

// WithHistoryCapacity sets the bounded population-history capacity.
func WithHistoryCapacity(n int) SettingsOption {
	return func(s *Settings) error { return s.attrs.Set("max_population_history", n) }
}

// WithSequenceRange sets the inclusive evaluation sequence bounds.
func WithSequenceRange(start, end int) SettingsOption {
	return func(s *Settings) error {
		if err := s.attrs.Set("start_sequence_at", start); err != nil {
			return err
		}
		return s.attrs.Set("end_sequence_at", end)
	}
}

// WithEvalWorkers sets the parallel evaluation width.
func WithEvalWorkers(n int) SettingsOption {
	return func(s *Settings) error {
		s.evalWorkers = n
		return nil
	}
}

// WithSeed sets the gaussian source seed.
func WithSeed(seed int64) SettingsOption {
	return func(s *Settings) error {
		s.seed = seed
		return nil
	}
}

// WithFitnessAggregation selects, by name, the statistical function that
// folds a member's per-sequence scores into its fitness. The name must be
// one of the StatFunctions keys; "mean" is the default.
func WithFitnessAggregation(name string) SettingsOption {
	return func(s *Settings) error { return s.attrs.Set("fitness_aggregation", name) }
}

// WithParam sets one free-form operator parameter.
func WithParam(name string, value float64) SettingsOption {
	return func(s *Settings) error {
		s.params[name] = value
		return nil
	}
}

// WithParams merges a map of free-form operator parameters.
func WithParams(params map[string]float64) SettingsOption {
	return func(s *Settings) error {
		for name, value := range params {
			s.params[name] = value
		}
		return nil
	}
}

func (s *Settings) validate() error {
	if s.popSize <= 0 {
		return configErrorf("pop_size must be positive, got %d", s.popSize)
	}
	if s.evalWorkers <= 0 {
		return configErrorf("eval_workers must be positive, got %d", s.evalWorkers)
	}
	if s.MaxGenerations() <= 0 {
		return configErrorf("max_generations must be positive, got %d", s.MaxGenerations())
	}
	if s.MaxPopulationHistory() <= 0 {
		return configErrorf("max_population_history must be positive, got %d", s.MaxPopulationHistory())
	}
	if s.EndSequenceAt() < s.StartSequenceAt() {
		return configErrorf("end_sequence_at (%d) cannot precede start_sequence_at (%d)",
			s.EndSequenceAt(), s.StartSequenceAt())
	}
	if name := s.FitnessAggregation(); StatFunctions[name] == nil {
		return configErrorf("fitness_aggregation %q is not a known statistic", name)
	}
	return nil
}

// PopulationSize returns the number of members each generation carries.
func (s *Settings) PopulationSize() int { return s.popSize }

// EvalWorkers returns the parallel evaluation width. 1 (the default) keeps
// the evaluate phase strictly sequential.
func (s *Settings) EvalWorkers() int { return s.evalWorkers }

// Seed returns the seed feeding the controller's gaussian source.
func (s *Settings) Seed() int64 { return s.seed }

// MaxGenerations returns the generation bound.
func (s *Settings) MaxGenerations() int { return s.intAttr("max_generations") }

// MaxPopulationHistory returns the population-history capacity.
func (s *Settings) MaxPopulationHistory() int { return s.intAttr("max_population_history") }

// StartSequenceAt returns the first evaluation sequence number, inclusive.
func (s *Settings) StartSequenceAt() int { return s.intAttr("start_sequence_at") }

// EndSequenceAt returns the last evaluation sequence number, inclusive.
func (s *Settings) EndSequenceAt() int { return s.intAttr("end_sequence_at") }

// FitnessAggregation returns the name of the statistic selected to fold
// per-sequence scores into member fitness.
func (s *Settings) FitnessAggregation() string {
	v, err := s.attrs.Get("fitness_aggregation")
	if err != nil {
		panic(err)
	}
	return v.(string)
}

// Param looks up a free-form operator parameter.
func (s *Settings) Param(name string) (float64, bool) {
	v, ok := s.params[name]
	return v, ok
}

// ParamOr looks up a free-form operator parameter, falling back to def.
func (s *Settings) ParamOr(name string, def float64) float64 {
	if v, ok := s.params[name]; ok {
		return v
	}
	return def
}

// ParamNames returns the names of all free-form parameters present.
func (s *Settings) ParamNames() []string {
	names := make([]string, 0, len(s.params))
	for name := range s.params {
		names = append(names, name)
	}
	return names
}

func (s *Settings) intAttr(name string) int {
	v, err := s.attrs.Get(name)
	if err != nil {
		// The four bounded fields are declared above; a miss is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return v.(int)
}
