// Package neatcore is the orchestration core of a neuroevolution
// framework: a defaultable-attribute and hook-chain mechanism every domain
// object is built on, and a Controller that drives a population through a
// fixed sequence of generational phases (mutate, express, evaluate,
// analyze, speciate, evolve, report) until a stopping condition is met.
//
// External behavior (fitness functions, stopping criteria, reporting)
// plugs into the fixed control skeleton through named hook chains rather
// than inheritance. The concrete genetic operators live behind the
// Population collaborator interface; a reference float-vector population
// ships in neat/floats.
//
// Basic usage:
//
//	settings, err := neat.LoadSettings("path/to/settings.ini")
//	if err != nil {
//		log.Fatalf("Error loading settings: %v", err)
//	}
//
//	ctrl, err := neat.NewController(neat.ControllerConfig{
//		Settings:   settings,
//		Population: floats.Factory(),
//	})
//	if err != nil {
//		log.Fatalf("Error creating controller: %v", err)
//	}
//
//	ctrl.FitnessHooks().Set(myFitnessHook)
//	ctrl.StopHooks().Set(myStopPredicate)
//
//	result, err := ctrl.Run(context.Background())
//	if err != nil {
//		log.Fatalf("Run failed: %v", err)
//	}
//	fmt.Println(result.Reason, result.Final.BestFitness)
package neatcore
