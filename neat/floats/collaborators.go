package floats

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/evolvekit/neat-core/neat"
)

// The three collaborator implementations below are domain objects: each is
// constructed with a Controller owner and can be swapped wholesale through
// the population Options.

// Expressor materializes a member's phenotype as its flat weight vector.
// The recurrence extension point is not consulted here; weight-vector
// phenotypes carry no temporal state.
type Expressor struct {
	neat.Entity
}

// NewExpressor constructs the default expressor.
func NewExpressor(c *neat.Controller) (*Expressor, error) {
	entity, err := neat.NewEntity("expressor", c)
	if err != nil {
		return nil, err
	}
	return &Expressor{Entity: entity}, nil
}

// Express copies each member's gene weights into its phenotype slot.
func (e *Expressor) Express(ctx context.Context, pop neat.Population) error {
	p, err := asFloats(pop)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, m := range p.members {
		vector := make([]float64, len(m.Genes))
		for i, g := range m.Genes {
			vector[i] = g.Weight
		}
		m.phenotype = vector
	}
	return nil
}

// Evaluator scores members through the controller's query, fitness and
// cost extension points.
//
// Per sequence number, the query hook (when exactly one is registered)
// supplies the stimulus. The fitness hook is required, registered exactly
// once; it receives (phenotype []float64, seq int, stimulus any) and
// returns the member's float64 contribution for that sequence.
// Contributions accumulate order-independently, so the controller may fan
// sequence numbers out across workers.
type Evaluator struct {
	neat.Entity
}

// NewEvaluator constructs the default evaluator.
func NewEvaluator(c *neat.Controller) (*Evaluator, error) {
	entity, err := neat.NewEntity("evaluator", c)
	if err != nil {
		return nil, err
	}
	return &Evaluator{Entity: entity}, nil
}

// Evaluate scores every member against one sequence number.
func (ev *Evaluator) Evaluate(ctx context.Context, pop neat.Population, seq int) error {
	p, err := asFloats(pop)
	if err != nil {
		return err
	}

	var stimulus any
	query := p.ctrl.QueryHooks()
	if query.One() {
		stimulus, err = query.CallOne(seq)
		if err != nil {
			return fmt.Errorf("query hook for sequence %d: %w", seq, err)
		}
	}

	fitness := p.ctrl.FitnessHooks()
	for _, m := range p.members {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := fitness.CallOne(m.Phenotype(), seq, stimulus)
		if err != nil {
			return fmt.Errorf("fitness hook for member %s, sequence %d: %w", m.ID, seq, err)
		}
		score, ok := res.(float64)
		if !ok {
			return fmt.Errorf("fitness hook returned %T, want float64", res)
		}
		m.addScore(score)
	}
	return nil
}

// Analyze folds the accumulated per-sequence scores into member fitness
// through the statistic named by the fitness_aggregation setting,
// subtracting the cost hook's penalty when one is registered.
func (ev *Evaluator) Analyze(ctx context.Context, pop neat.Population) error {
	p, err := asFloats(pop)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Validated against the StatFunctions keys at settings construction.
	agg := neat.StatFunctions[p.ctrl.Settings().FitnessAggregation()]

	cost := p.ctrl.CostHooks()
	for _, m := range p.members {
		fitness := m.aggregateScore(agg)
		if cost.One() {
			res, err := cost.CallOne(m.Phenotype())
			if err != nil {
				return fmt.Errorf("cost hook for member %s: %w", m.ID, err)
			}
			penalty, ok := res.(float64)
			if !ok {
				return fmt.Errorf("cost hook returned %T, want float64", res)
			}
			fitness -= penalty
		}
		m.Fitness = fitness
	}
	return nil
}

// Evolver reproduces a scored population by elitism plus truncation
// selection with innovation-aligned uniform crossover: matching genes pick
// a parent at random, disjoint genes come from the fitter parent.
type Evolver struct {
	neat.Entity
}

// NewEvolver constructs the default evolver.
func NewEvolver(c *neat.Controller) (*Evolver, error) {
	entity, err := neat.NewEntity("evolver", c)
	if err != nil {
		return nil, err
	}
	return &Evolver{Entity: entity}, nil
}

// Evolve builds the next-generation population object. The receiving
// population is left untouched for reporting.
func (ev *Evolver) Evolve(ctx context.Context, pop neat.Population) (neat.Population, error) {
	p, err := asFloats(pop)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked, err := p.ranked()
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("cannot evolve an empty population")
	}

	next, err := p.successor()
	if err != nil {
		return nil, err
	}

	elite := p.par.elitism
	if elite > len(ranked) {
		elite = len(ranked)
	}
	members := make([]*Member, 0, len(ranked))
	for i := 0; i < elite; i++ {
		members = append(members, ranked[i].clone())
	}

	// Parents come from the surviving fraction of the ranking.
	survivors := int(float64(len(ranked)) * p.par.survivalThreshold)
	if survivors < 1 {
		survivors = 1
	}
	for len(members) < len(ranked) {
		a := ranked[p.rng.Intn(survivors)]
		b := ranked[p.rng.Intn(survivors)]
		members = append(members, crossover(p.rng, a, b))
	}

	next.members = members
	return next, nil
}

// crossover combines two parents gene-by-gene. Genes are aligned by
// innovation number; the fitter parent donates its disjoint genes.
func crossover(rng *rand.Rand, a, b *Member) *Member {
	primary, secondary := a, b
	if b.Fitness > a.Fitness {
		primary, secondary = b, a
	}
	byInnovation := make(map[int64]float64, len(secondary.Genes))
	for _, g := range secondary.Genes {
		byInnovation[g.Innovation] = g.Weight
	}

	genes := make([]Gene, len(primary.Genes))
	for i, g := range primary.Genes {
		weight := g.Weight
		if other, ok := byInnovation[g.Innovation]; ok && rng.Float64() < 0.5 {
			weight = other
		}
		genes[i] = Gene{Innovation: g.Innovation, Weight: weight}
	}
	return &Member{ID: neat.NewName("member", nil), Genes: genes}
}

// successor creates the next generation's empty population shell, sharing
// the current collaborators, parameters and random source.
func (p *Population) successor() (*Population, error) {
	entity, err := neat.NewEntity("population", p.ctrl)
	if err != nil {
		return nil, err
	}
	return &Population{
		Entity:    entity,
		ctrl:      p.ctrl,
		par:       p.par,
		rng:       p.rng,
		expressor: p.expressor,
		evaluator: p.evaluator,
		evolver:   p.evolver,
	}, nil
}

func asFloats(pop neat.Population) (*Population, error) {
	p, ok := pop.(*Population)
	if !ok {
		return nil, fmt.Errorf("collaborator wired to %T, want *floats.Population", pop)
	}
	return p, nil
}
