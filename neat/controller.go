package neat

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Extension point names exposed by the Controller. Each is a hook-chain
// mode attribute; registration and invocation go through the HookChain
// operations.
const (
	HookQuery           = "query"             // supplies stimulus input for a sequence number
	HookFitness         = "fitness"           // scores a member's response
	HookRecurrence      = "recurrence"        // recurrence policy consulted by expressors
	HookCompare         = "compare"           // ranking order used by evolvers
	HookCost            = "cost"              // cost penalty folded into fitness
	HookStopOnFit       = "stop_on_fit"       // single-call stop predicate
	HookEndOfGeneration = "end_of_generation" // fired after each generation advances
	HookReport          = "report"            // receives every generation's ReportRecord
	HookPreExit         = "pre_exit"          // fired once before an early exit
)

// attrDeferred is the Controller's queue-mode attribute: callbacks pushed
// during a generation and drained at the next generation boundary.
const attrDeferred = "deferred"

var controllerAttrs = NewAttrTable().
	MustDeclare(AttrDef{Name: HookQuery, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookFitness, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookRecurrence, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookCompare, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookCost, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookStopOnFit, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookEndOfGeneration, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookReport, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: HookPreExit, Mode: AttrHooks}).
	MustDeclare(AttrDef{Name: attrDeferred, Mode: AttrQueue})

// ControllerConfig wires a Controller together. Settings is required;
// Population must be set before Run is called. A nil Logger silences the
// controller.
type ControllerConfig struct {
	Settings   *Settings
	Population PopulationFactory
	Logger     *zerolog.Logger
	NameSource NameSource
}

// Controller is the top-level orchestrator of an evolutionary run. It owns
// the global mutable state (the monotonic innovation counter, the
// generation and sequence counters, the bounded population history and the
// gaussian source) plus the hook chains for every extension point, and it
// drives one Population per generation through the fixed phase sequence.
//
// A Controller is created once per run and owns itself: its Entity owner
// reference points back at the Controller.
type Controller struct {
	Entity

	settings   *Settings
	factory    PopulationFactory
	log        zerolog.Logger
	nameSource NameSource
	attrs      *AttrSet

	innovation atomic.Int64

	rngMu sync.Mutex
	rng   *rand.Rand

	generation int
	sequence   int
	current    Population
	history    []Population
}

// NewController constructs the orchestrator and adopts its Settings.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Settings == nil {
		return nil, configErrorf("controller requires settings")
	}

	seed := cfg.Settings.Seed()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Controller{
		Entity:     newUnownedEntity("controller", cfg.NameSource),
		settings:   cfg.Settings,
		factory:    cfg.Population,
		log:        logger,
		nameSource: cfg.NameSource,
		attrs:      NewAttrSet(controllerAttrs),
		rng:        rand.New(rand.NewSource(seed)),
	}
	c.Entity.owner = c
	cfg.Settings.adopt(c)
	return c, nil
}

// Settings returns the parameter bag this controller was built with.
func (c *Controller) Settings() *Settings { return c.settings }

// Generation returns the current generation index; 0 before Run starts.
func (c *Controller) Generation() int { return c.generation }

// Sequence returns the controller-wide current sequence number. It is only
// updated on the sequential evaluation path; parallel evaluation hands each
// unit its own copy instead of mutating this field.
func (c *Controller) Sequence() int { return c.sequence }

// CurrentPopulation returns the population being driven this generation,
// or nil before the first acquisition.
func (c *Controller) CurrentPopulation() Population { return c.current }

// History returns the retained pre-mutation population snapshots, oldest
// first. Its length never exceeds the configured capacity.
func (c *Controller) History() []Population {
	out := make([]Population, len(c.history))
	copy(out, c.history)
	return out
}

// NextInnovation allocates the next innovation number. Values are strictly
// increasing, never reused, and allocation is atomic so concurrent genetic
// operators never observe the same value. The first allocation returns 1.
func (c *Controller) NextInnovation() int64 {
	return c.innovation.Add(1)
}

// SampleGaussian draws from the controller-owned standard normal source.
// Safe for concurrent use.
func (c *Controller) SampleGaussian() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.NormFloat64()
}

// Hooks returns the chain for a named extension point.
func (c *Controller) Hooks(point string) (*HookChain, error) {
	return c.attrs.HookChain(point)
}

// HookPoints lists every extension point name in declaration order.
func (c *Controller) HookPoints() []string {
	points := make([]string, 0, len(controllerAttrs.Names()))
	for _, name := range controllerAttrs.Names() {
		if name != attrDeferred {
			points = append(points, name)
		}
	}
	return points
}

func (c *Controller) hookChain(point string) *HookChain {
	hc, err := c.attrs.HookChain(point)
	if err != nil {
		// Every point above is declared in controllerAttrs.
		panic(err)
	}
	return hc
}

// QueryHooks returns the stimulus-query extension point.
func (c *Controller) QueryHooks() *HookChain { return c.hookChain(HookQuery) }

// FitnessHooks returns the fitness extension point.
func (c *Controller) FitnessHooks() *HookChain { return c.hookChain(HookFitness) }

// RecurrenceHooks returns the recurrence-policy extension point.
func (c *Controller) RecurrenceHooks() *HookChain { return c.hookChain(HookRecurrence) }

// CompareHooks returns the ranking extension point.
func (c *Controller) CompareHooks() *HookChain { return c.hookChain(HookCompare) }

// CostHooks returns the cost-penalty extension point.
func (c *Controller) CostHooks() *HookChain { return c.hookChain(HookCost) }

// StopHooks returns the single-call stop predicate extension point.
func (c *Controller) StopHooks() *HookChain { return c.hookChain(HookStopOnFit) }

// GenerationHooks returns the end-of-generation extension point.
func (c *Controller) GenerationHooks() *HookChain { return c.hookChain(HookEndOfGeneration) }

// ReportHooks returns the report extension point.
func (c *Controller) ReportHooks() *HookChain { return c.hookChain(HookReport) }

// ExitHooks returns the pre-exit extension point.
func (c *Controller) ExitHooks() *HookChain { return c.hookChain(HookPreExit) }

// Defer schedules a callback to run at the next generation boundary, after
// the end-of-generation hooks. Deferred callbacks queued during the final
// generation run before Run returns.
func (c *Controller) Defer(fn func(*Controller)) {
	q, err := c.attrs.Queue(attrDeferred)
	if err != nil {
		panic(err)
	}
	q.Push(fn)
}

func (c *Controller) drainDeferred() {
	q, err := c.attrs.Queue(attrDeferred)
	if err != nil {
		panic(err)
	}
	for _, item := range q.Drain() {
		if fn, ok := item.(func(*Controller)); ok {
			fn(c)
		}
	}
}

// StopReason distinguishes the two normal run terminations.
type StopReason int

const (
	// RunCompleted means the generation bound was exhausted.
	RunCompleted StopReason = iota
	// RunStoppedEarly means the stop predicate fired during StopCheck.
	RunStoppedEarly
)

func (r StopReason) String() string {
	if r == RunStoppedEarly {
		return "stopped-early"
	}
	return "completed"
}

// RunResult is the typed termination signal returned by Run, letting the
// caller decide process-level behavior.
type RunResult struct {
	Reason      StopReason
	Generations int          // generations fully executed
	Final       ReportRecord // report of the last generation that ran
}

// Run executes the generational state machine from generation 1 and
// returns on normal completion, early termination via the stop predicate,
// context cancellation, or the first phase failure. Phase failures are
// returned as RunFailure; the controller never retries a phase.
func (c *Controller) Run(ctx context.Context) (RunResult, error) {
	if c.factory == nil {
		return RunResult{}, configErrorf("controller requires a population factory before Run")
	}

	maxGen := c.settings.MaxGenerations()
	var last ReportRecord

	for gen := 1; ; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		c.generation = gen

		// AcquirePopulation: construct lazily on the first generation,
		// otherwise reuse the carry-over from the previous Evolve.
		if c.current == nil {
			pop, err := c.factory(c)
			if err != nil {
				return RunResult{}, &RunFailure{Phase: "acquire", Generation: gen, Err: err}
			}
			c.current = pop
			c.log.Debug().Str("population", pop.Name()).Msg("initial population acquired")
		}
		pop := c.current

		// RecordHistory: the snapshot is taken before mutation, so history
		// holds what generation gen started from.
		c.recordHistory(pop)
		pop.SetGeneration(gen)

		if err := c.phase(ctx, gen, "mutate", pop.Mutate); err != nil {
			return RunResult{}, err
		}
		if err := c.phase(ctx, gen, "express", pop.Express); err != nil {
			return RunResult{}, err
		}
		if err := c.evaluate(ctx, gen, pop); err != nil {
			return RunResult{}, err
		}
		if err := c.phase(ctx, gen, "analyze", pop.Analyze); err != nil {
			return RunResult{}, err
		}
		if err := c.phase(ctx, gen, "speciate", pop.Speciate); err != nil {
			return RunResult{}, err
		}

		next, err := pop.Evolve(ctx)
		if err != nil {
			return RunResult{}, &RunFailure{Phase: "evolve", Generation: gen, Err: err}
		}
		c.log.Debug().Int("generation", gen).Str("phase", "evolve").Msg("phase complete")

		rec := pop.Report()
		last = rec
		if _, err := c.ReportHooks().CallAll(rec); err != nil {
			return RunResult{}, &RunFailure{Phase: "report", Generation: gen, Err: err}
		}
		c.log.Info().
			Int("generation", gen).
			Float64("best", rec.BestFitness).
			Float64("mean", rec.MeanFitness).
			Int("species", rec.Species).
			Msg("generation reported")

		// StopCheck: the single registered predicate sees the latest
		// fitness figure and the controller. This is the only normal early
		// exit.
		stop := c.StopHooks()
		if stop.One() {
			res, err := stop.CallOne(rec.BestFitness, c)
			if err != nil {
				return RunResult{}, &RunFailure{Phase: "stop_check", Generation: gen, Err: err}
			}
			halt, ok := res.(bool)
			if !ok {
				return RunResult{}, &RunFailure{
					Phase:      "stop_check",
					Generation: gen,
					Err:        fmt.Errorf("stop predicate returned %T, want bool", res),
				}
			}
			if halt {
				if _, err := c.ExitHooks().CallAll(c); err != nil {
					return RunResult{}, &RunFailure{Phase: "pre_exit", Generation: gen, Err: err}
				}
				c.drainDeferred()
				c.log.Info().Int("generation", gen).Msg("stop predicate satisfied, terminating run")
				return RunResult{Reason: RunStoppedEarly, Generations: gen, Final: rec}, nil
			}
		}

		// Advance: install the evolved population, fire end-of-generation
		// hooks, drain deferred work, loop unless the bound is reached.
		c.current = next
		if _, err := c.GenerationHooks().CallAll(c); err != nil {
			return RunResult{}, &RunFailure{Phase: "end_of_generation", Generation: gen, Err: err}
		}
		c.drainDeferred()

		if gen >= maxGen {
			c.log.Info().Int("generations", gen).Msg("generation bound reached")
			return RunResult{Reason: RunCompleted, Generations: gen, Final: last}, nil
		}
	}
}

// phase runs one delegated population phase, tagging any failure with the
// phase name and generation.
func (c *Controller) phase(ctx context.Context, gen int, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return &RunFailure{Phase: name, Generation: gen, Err: err}
	}
	c.log.Debug().Int("generation", gen).Str("phase", name).Msg("phase complete")
	return nil
}

// evaluate drives the population through every sequence number in the
// inclusive configured range. With eval_workers = 1 the loop is strictly
// sequential in ascending order and the controller-wide sequence field
// tracks progress; with more workers each unit receives its own sequence
// number and all units join before Analyze. A failure in any unit aborts
// the generation.
func (c *Controller) evaluate(ctx context.Context, gen int, pop Population) error {
	start := c.settings.StartSequenceAt()
	end := c.settings.EndSequenceAt()
	workers := c.settings.EvalWorkers()

	if workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for seq := start; seq <= end; seq++ {
			seq := seq
			g.Go(func() error {
				return pop.Evaluate(gctx, seq)
			})
		}
		if err := g.Wait(); err != nil {
			return &RunFailure{Phase: "evaluate", Generation: gen, Err: err}
		}
	} else {
		for seq := start; seq <= end; seq++ {
			if err := ctx.Err(); err != nil {
				return &RunFailure{Phase: "evaluate", Generation: gen, Err: err}
			}
			c.sequence = seq
			if err := pop.Evaluate(ctx, seq); err != nil {
				return &RunFailure{Phase: "evaluate", Generation: gen, Err: err}
			}
		}
	}

	c.log.Debug().Int("generation", gen).Str("phase", "evaluate").Msg("phase complete")
	return nil
}

// recordHistory appends a pre-mutation snapshot, evicting the oldest entry
// once capacity is reached.
func (c *Controller) recordHistory(pop Population) {
	limit := c.settings.MaxPopulationHistory()
	c.history = append(c.history, pop)
	if len(c.history) > limit {
		c.history = c.history[len(c.history)-limit:]
	}
}
