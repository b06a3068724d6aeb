package pipegraph

import (
	"sync"

	"github.com/pipegraph/pipegraph/config"
)

// Edge configuration keys.
const (
	// EdgeConfigDependency marks whether the downstream process
	// depends on this edge for ordering. Set by the edge builder from
	// the downstream port's flags and made read only.
	EdgeConfigDependency = "dependency"

	// EdgeConfigCapacity bounds the number of buffered datums. Zero
	// means unbounded.
	EdgeConfigCapacity = "capacity"
)

// Edge is the runtime channel materialized for a resolved connection.
// The pipeline builds one edge per connection during setup and
// attaches it to both endpoint processes; the same edge value is
// observed from both sides.
type Edge struct {
	dependency bool
	capacity   int

	mu    sync.Mutex
	queue []any

	upstream   Process
	downstream Process
}

// NewEdge constructs an edge from its merged configuration subtree.
func NewEdge(conf *config.Config) (*Edge, error) {
	if conf == nil {
		return nil, ErrNullPipelineConfig
	}
	return &Edge{
		dependency: conf.GetBool(EdgeConfigDependency, true),
		capacity:   conf.GetInt(EdgeConfigCapacity, 0),
	}, nil
}

// Dependency reports whether the downstream process depends on data
// from this edge for ordering. Edges into ports flagged FlagInputNoDep
// report false.
func (e *Edge) Dependency() bool {
	return e.dependency
}

// Capacity returns the configured buffer bound; zero is unbounded.
func (e *Edge) Capacity() int {
	return e.capacity
}

// SetUpstreamProcess records the producing endpoint.
func (e *Edge) SetUpstreamProcess(p Process) {
	e.upstream = p
}

// SetDownstreamProcess records the consuming endpoint.
func (e *Edge) SetDownstreamProcess(p Process) {
	e.downstream = p
}

// UpstreamProcess returns the producing endpoint, nil before setup
// wires it.
func (e *Edge) UpstreamProcess() Process {
	return e.upstream
}

// DownstreamProcess returns the consuming endpoint, nil before setup
// wires it.
func (e *Edge) DownstreamProcess() Process {
	return e.downstream
}

// Push buffers a datum. It reports false when a bounded edge is full.
func (e *Edge) Push(datum any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.capacity > 0 && len(e.queue) >= e.capacity {
		return false
	}
	e.queue = append(e.queue, datum)
	return true
}

// Pop removes and returns the oldest buffered datum.
func (e *Edge) Pop() (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	datum := e.queue[0]
	e.queue = e.queue[1:]
	return datum, true
}

// Len returns the number of buffered datums.
func (e *Edge) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
