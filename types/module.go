package types

// Module is the advance contract shared by the five physical sub-models.
// Update mutates the state in place for one tick. Modules are composed by
// the orchestrator in a fixed causal order; they are independent units, not
// a hierarchy.
type Module interface {
	Name() string
	Update(s *SimulationState) error
}
