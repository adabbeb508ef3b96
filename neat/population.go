package neat

import "context"

// ReportRecord is the per-generation summary a population produces at the
// end of its cycle. It is handed to every registered report hook and is the
// fitness figure source for the stop predicate.
type ReportRecord struct {
	Population  string  `json:"population"`
	Generation  int     `json:"generation"`
	Members     int     `json:"members"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	StdevFit    float64 `json:"stdev_fitness"`
	Species     int     `json:"species"`
	BestMember  string  `json:"best_member,omitempty"`
}

// Population is the collaborator the controller drives through the phase
// sequence, one object per generation. Implementations own their member
// representation entirely; the core only sees these entry points.
//
// Evaluate receives its sequence number explicitly so implementations stay
// correct when the controller fans evaluation out across sequence numbers;
// concurrent Evaluate calls must confine shared-state mutation to
// order-independent accumulation.
type Population interface {
	// Mutate applies the population's genetic operators in place.
	Mutate(ctx context.Context) error
	// Express materializes phenotypes for the current genomes.
	Express(ctx context.Context) error
	// Evaluate scores members against the given sequence number.
	Evaluate(ctx context.Context, seq int) error
	// Analyze aggregates per-sequence results into member fitness.
	Analyze(ctx context.Context) error
	// Speciate groups members by compatibility.
	Speciate(ctx context.Context) error
	// Evolve produces the next-generation population object. The receiver
	// is retained by the controller as "just evolved" for reporting but is
	// superseded for the next generation.
	Evolve(ctx context.Context) (Population, error)
	// Report summarizes the generation that just ran.
	Report() ReportRecord

	// Name returns the population's symbolic identity.
	Name() string
	// Generation returns the generation slot this population occupies.
	Generation() int
	// SetGeneration is called by the controller when the population enters
	// a generation.
	SetGeneration(gen int)
}

// PopulationFactory constructs the initial population for a run, sized and
// shaped from the controller's settings.
type PopulationFactory func(c *Controller) (Population, error)

// Expressor turns genomes into phenotypes. Implementations are domain
// objects constructed with a Controller owner and are swappable via the
// factory wired into the population that consumes them.
type Expressor interface {
	Express(ctx context.Context, pop Population) error
}

// Evaluator scores a population against one sequence number and aggregates
// the scores afterwards.
type Evaluator interface {
	Evaluate(ctx context.Context, pop Population, seq int) error
	Analyze(ctx context.Context, pop Population) error
}

// Evolver reproduces a scored population into its successor.
type Evolver interface {
	Evolve(ctx context.Context, pop Population) (Population, error)
}
