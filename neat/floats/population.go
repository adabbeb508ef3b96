// Package floats provides the reference Population for the orchestration
// core: members carry innovation-numbered weight genes and evolve by
// gaussian perturbation, innovation-aligned crossover and distance-based
// speciation. It exists so a Controller run is usable out of the box and
// as the template for richer genome representations.
package floats

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/evolvekit/neat-core/neat"
)

// Free-form operator parameter names consulted from Settings, with their
// defaults. All are optional.
const (
	ParamGenes              = "genes"                              // initial gene count (default 3)
	ParamWeightInitMean     = "weight_init_mean"                   // default 0.0
	ParamWeightInitStdev    = "weight_init_stdev"                  // default 1.0
	ParamWeightMutateRate   = "weight_mutate_rate"                 // default 0.8
	ParamWeightMutatePower  = "weight_mutate_power"                // default 0.5
	ParamGeneAddProb        = "gene_add_prob"                      // default 0.0
	ParamElitism            = "elitism"                            // default 1
	ParamSurvivalThreshold  = "survival_threshold"                 // default 0.4
	ParamCompatThreshold    = "compatibility_threshold"            // default 3.0
	ParamCompatDisjointCoef = "compatibility_disjoint_coefficient" // default 1.0
	ParamCompatWeightCoef   = "compatibility_weight_coefficient"   // default 0.5
)

// Gene is one weight tagged with the innovation number allocated when the
// gene first appeared anywhere in the population.
type Gene struct {
	Innovation int64
	Weight     float64
}

// Member is one individual: a genome of weight genes, the phenotype
// expressed from it, and the fitness accumulated across evaluation
// sequences.
type Member struct {
	ID      string
	Genes   []Gene
	Fitness float64
	Species int

	phenotype []float64

	mu     sync.Mutex
	scores []float64
}

// addScore records one sequence's fitness contribution. The collected
// scores are folded through a permutation-invariant statistic at Analyze,
// so parallel evaluation units may interleave freely.
func (m *Member) addScore(score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
}

// resetScores clears the per-generation accumulation.
func (m *Member) resetScores() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = nil
}

// aggregateScore folds the accumulated scores through agg, 0 with no
// trials.
func (m *Member) aggregateScore(agg func([]float64) float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scores) == 0 {
		return 0
	}
	return agg(m.scores)
}

// Phenotype returns the expressed weight vector, nil before Express.
func (m *Member) Phenotype() []float64 { return m.phenotype }

// clone deep-copies the member's genome; accumulated scores and phenotype
// do not carry over.
func (m *Member) clone() *Member {
	genes := make([]Gene, len(m.Genes))
	copy(genes, m.Genes)
	return &Member{ID: neat.NewName("member", nil), Genes: genes}
}

// params bundles the resolved operator parameters.
type params struct {
	genes             int
	initMean          float64
	initStdev         float64
	mutateRate        float64
	mutatePower       float64
	geneAddProb       float64
	elitism           int
	survivalThreshold float64
	compatThreshold   float64
	disjointCoef      float64
	weightCoef        float64
}

func resolveParams(s *neat.Settings) params {
	return params{
		genes:             int(s.ParamOr(ParamGenes, 3)),
		initMean:          s.ParamOr(ParamWeightInitMean, 0.0),
		initStdev:         s.ParamOr(ParamWeightInitStdev, 1.0),
		mutateRate:        s.ParamOr(ParamWeightMutateRate, 0.8),
		mutatePower:       s.ParamOr(ParamWeightMutatePower, 0.5),
		geneAddProb:       s.ParamOr(ParamGeneAddProb, 0.0),
		elitism:           int(s.ParamOr(ParamElitism, 1)),
		survivalThreshold: s.ParamOr(ParamSurvivalThreshold, 0.4),
		compatThreshold:   s.ParamOr(ParamCompatThreshold, 3.0),
		disjointCoef:      s.ParamOr(ParamCompatDisjointCoef, 1.0),
		weightCoef:        s.ParamOr(ParamCompatWeightCoef, 0.5),
	}
}

// Population implements neat.Population over float-vector genomes.
type Population struct {
	neat.Entity

	ctrl    *neat.Controller
	par     params
	rng     *rand.Rand
	members []*Member

	expressor neat.Expressor
	evaluator neat.Evaluator
	evolver   neat.Evolver

	generation   int
	speciesCount int
}

// Option customizes a Population under construction, chiefly by swapping
// a collaborator implementation.
type Option func(*Population)

// WithExpressor swaps the phenotype expressor.
func WithExpressor(e neat.Expressor) Option { return func(p *Population) { p.expressor = e } }

// WithEvaluator swaps the evaluator.
func WithEvaluator(e neat.Evaluator) Option { return func(p *Population) { p.evaluator = e } }

// WithEvolver swaps the evolver.
func WithEvolver(e neat.Evolver) Option { return func(p *Population) { p.evolver = e } }

// Factory returns a neat.PopulationFactory building this population.
func Factory(opts ...Option) neat.PopulationFactory {
	return func(c *neat.Controller) (neat.Population, error) {
		return New(c, opts...)
	}
}

// New seeds the initial population from the controller's settings. Every
// seed member shares the same gene structure, so the initial innovation
// numbers are allocated once and shared; weights are drawn from the
// controller's gaussian source.
func New(c *neat.Controller, opts ...Option) (*Population, error) {
	entity, err := neat.NewEntity("population", c)
	if err != nil {
		return nil, err
	}

	settings := c.Settings()
	par := resolveParams(settings)
	if par.genes <= 0 {
		par.genes = 1
	}
	if par.elitism < 0 {
		par.elitism = 0
	}

	p := &Population{
		Entity: entity,
		ctrl:   c,
		par:    par,
		rng:    rand.New(rand.NewSource(settings.Seed() + 1)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.ensureCollaborators(); err != nil {
		return nil, err
	}

	innovations := make([]int64, par.genes)
	for i := range innovations {
		innovations[i] = c.NextInnovation()
	}

	p.members = make([]*Member, settings.PopulationSize())
	for i := range p.members {
		genes := make([]Gene, par.genes)
		for j := range genes {
			genes[j] = Gene{
				Innovation: innovations[j],
				Weight:     c.SampleGaussian()*par.initStdev + par.initMean,
			}
		}
		p.members[i] = &Member{ID: neat.NewName("member", nil), Genes: genes}
	}
	return p, nil
}

func (p *Population) ensureCollaborators() error {
	var err error
	if p.expressor == nil {
		if p.expressor, err = NewExpressor(p.ctrl); err != nil {
			return err
		}
	}
	if p.evaluator == nil {
		if p.evaluator, err = NewEvaluator(p.ctrl); err != nil {
			return err
		}
	}
	if p.evolver == nil {
		if p.evolver, err = NewEvolver(p.ctrl); err != nil {
			return err
		}
	}
	return nil
}

// Members exposes the current individuals, for reporting and tests.
func (p *Population) Members() []*Member { return p.members }

// Controller returns the owning controller.
func (p *Population) Controller() *neat.Controller { return p.ctrl }

// Generation returns the generation slot this population occupies.
func (p *Population) Generation() int { return p.generation }

// SetGeneration records the generation slot; called by the controller.
func (p *Population) SetGeneration(gen int) { p.generation = gen }

// Mutate perturbs weights through the controller's gaussian source and,
// with gene_add_prob, appends a fresh gene under a newly allocated
// innovation number. Per-generation score accumulation resets here.
func (p *Population) Mutate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, m := range p.members {
		m.resetScores()
		for i := range m.Genes {
			if p.rng.Float64() < p.par.mutateRate {
				m.Genes[i].Weight += p.ctrl.SampleGaussian() * p.par.mutatePower
			}
		}
		if p.par.geneAddProb > 0 && p.rng.Float64() < p.par.geneAddProb {
			m.Genes = append(m.Genes, Gene{
				Innovation: p.ctrl.NextInnovation(),
				Weight:     p.ctrl.SampleGaussian()*p.par.initStdev + p.par.initMean,
			})
		}
	}
	return nil
}

// Express delegates to the expressor collaborator.
func (p *Population) Express(ctx context.Context) error {
	return p.expressor.Express(ctx, p)
}

// Evaluate delegates one sequence number to the evaluator collaborator.
// Safe for concurrent calls across distinct sequence numbers.
func (p *Population) Evaluate(ctx context.Context, seq int) error {
	return p.evaluator.Evaluate(ctx, p, seq)
}

// Analyze delegates score aggregation to the evaluator collaborator.
func (p *Population) Analyze(ctx context.Context) error {
	return p.evaluator.Analyze(ctx, p)
}

// Speciate groups members against per-species representatives: a member
// joins the first species whose representative lies within the
// compatibility threshold, otherwise it founds a new one.
func (p *Population) Speciate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var representatives []*Member
	for _, m := range p.members {
		assigned := false
		for si, rep := range representatives {
			if p.distance(m, rep) < p.par.compatThreshold {
				m.Species = si + 1
				assigned = true
				break
			}
		}
		if !assigned {
			representatives = append(representatives, m)
			m.Species = len(representatives)
		}
	}
	p.speciesCount = len(representatives)
	return nil
}

// distance is the compatibility distance between two genomes: disjoint
// gene count scaled by the disjoint coefficient and normalized by the
// larger genome size, plus mean matching-weight difference scaled by the
// weight coefficient.
func (p *Population) distance(a, b *Member) float64 {
	weightsA := genesByInnovation(a.Genes)
	weightsB := genesByInnovation(b.Genes)

	matching := 0
	weightDiff := 0.0
	for innov, wa := range weightsA {
		if wb, ok := weightsB[innov]; ok {
			matching++
			d := wa - wb
			if d < 0 {
				d = -d
			}
			weightDiff += d
		}
	}
	disjoint := len(weightsA) + len(weightsB) - 2*matching

	size := len(weightsA)
	if len(weightsB) > size {
		size = len(weightsB)
	}
	if size == 0 {
		return 0
	}

	d := float64(disjoint) * p.par.disjointCoef / float64(size)
	if matching > 0 {
		d += weightDiff / float64(matching) * p.par.weightCoef
	}
	return d
}

func genesByInnovation(genes []Gene) map[int64]float64 {
	out := make(map[int64]float64, len(genes))
	for _, g := range genes {
		out[g.Innovation] = g.Weight
	}
	return out
}

// Evolve delegates reproduction to the evolver collaborator.
func (p *Population) Evolve(ctx context.Context) (neat.Population, error) {
	return p.evolver.Evolve(ctx, p)
}

// Report summarizes the generation that just ran.
func (p *Population) Report() neat.ReportRecord {
	fitnesses := make([]float64, len(p.members))
	best := ""
	bestFit := 0.0
	for i, m := range p.members {
		fitnesses[i] = m.Fitness
		if best == "" || m.Fitness > bestFit {
			best = m.ID
			bestFit = m.Fitness
		}
	}
	return neat.ReportRecord{
		Population:  p.Name(),
		Generation:  p.generation,
		Members:     len(p.members),
		BestFitness: bestFit,
		MeanFitness: neat.Mean(fitnesses),
		MinFitness:  neat.MinFloat(fitnesses),
		StdevFit:    neat.Stdev(fitnesses),
		Species:     p.speciesCount,
		BestMember:  best,
	}
}

// ranked returns members ordered best-first: through the controller's
// compare hook when exactly one is registered, by descending fitness
// otherwise.
func (p *Population) ranked() ([]*Member, error) {
	out := make([]*Member, len(p.members))
	copy(out, p.members)

	compare := p.ctrl.CompareHooks()
	if compare.One() {
		var hookErr error
		sort.SliceStable(out, func(i, j int) bool {
			if hookErr != nil {
				return false
			}
			res, err := compare.CallOne(out[i].Fitness, out[j].Fitness)
			if err != nil {
				hookErr = err
				return false
			}
			before, ok := res.(bool)
			if !ok {
				hookErr = fmt.Errorf("compare hook returned %T, want bool", res)
				return false
			}
			return before
		})
		if hookErr != nil {
			return nil, hookErr
		}
		return out, nil
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fitness > out[j].Fitness
	})
	return out, nil
}
