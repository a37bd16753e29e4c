package testutil

// FixedHostID hands every host the same ID.
//
// Scenario runs use it so that a re-run records under the same host and
// produces byte-identical traces. Unlike host.FixedGenerator, which returns
// a list of IDs in order and panics when it runs out, FixedHostID never
// runs out.
//
// Thread-safety: FixedHostID is stateless and safe for concurrent use.
type FixedHostID struct {
	id string
}

// NewFixedHostID creates a generator that always returns id.
//
// The ID is typically set in the scenario YAML:
//
//	host_id: "scenario-resume-after-stop"
//
// If id is empty, Generate returns "test-host-default".
func NewFixedHostID(id string) *FixedHostID {
	if id == "" {
		id = "test-host-default"
	}
	return &FixedHostID{id: id}
}

// Generate returns the fixed ID. Implements host.IDGenerator.
func (g *FixedHostID) Generate() string {
	return g.id
}
