package pipegraph

import "errors"

// Sentinel errors for pipeline assembly failures. Call sites wrap
// these with context; match with errors.Is.
var (
	// ErrNullPipelineConfig is returned by New when no configuration
	// is given.
	ErrNullPipelineConfig = errors.New("pipeline configuration is required")

	// ErrNullProcess is returned by AddProcess for a nil or unnamed
	// process.
	ErrNullProcess = errors.New("process is nil")

	// ErrDuplicateName is returned when a process or cluster name is
	// already registered.
	ErrDuplicateName = errors.New("name already in use")

	// Structural changes are frozen once setup has started.
	ErrAddAfterSetup           = errors.New("cannot add a process after setup")
	ErrRemoveAfterSetup        = errors.New("cannot remove a process after setup")
	ErrConnectionAfterSetup    = errors.New("cannot connect after setup")
	ErrDisconnectionAfterSetup = errors.New("cannot disconnect after setup")

	// ErrConnectionFlagMismatch is returned when a const output is
	// wired to a mutable input.
	ErrConnectionFlagMismatch = errors.New("connection flag mismatch")

	// ErrConnectionTypeMismatch is returned when two concrete,
	// incompatible port types are connected.
	ErrConnectionTypeMismatch = errors.New("connection type mismatch")

	// ErrUntypedDataDependent is returned when a data-dependent output
	// is still untyped after its process has been configured.
	ErrUntypedDataDependent = errors.New("data dependent port unresolved after configure")

	// ErrConnectionDependentType is returned when a process rejects
	// the type pinned onto its flow-dependent port.
	ErrConnectionDependentType = errors.New("flow dependent port rejected pinned type")

	// ErrPropagation is returned when a process rejects a type pushed
	// onto it during propagation.
	ErrPropagation = errors.New("type propagation rejected")

	// ErrDependentTypeCascade is returned when pinning a type made a
	// downstream propagation fail.
	ErrDependentTypeCascade = errors.New("flow dependent type cascade failed")

	// ErrUntypedConnection is returned when a flow-dependent subgraph
	// had no seed to resolve it.
	ErrUntypedConnection = errors.New("connection type could not be resolved")

	ErrNoSuchProcess = errors.New("no such process")
	ErrNoSuchPort    = errors.New("no such port")

	// ErrNoProcesses is returned by setup on an empty pipeline.
	ErrNoProcesses = errors.New("pipeline has no processes")

	// ErrMissingConnection is returned when a required port has no
	// edge.
	ErrMissingConnection = errors.New("required port is not connected")

	// ErrOrphanedProcesses is returned when some processes are
	// unreachable from the rest of the pipeline. A pipeline split into
	// disjoint subgraphs is rejected even if each subgraph is valid on
	// its own: a pipeline must be connected.
	ErrOrphanedProcesses = errors.New("orphaned processes")

	// ErrNotADAG is returned when the dependency-bearing subgraph has
	// a cycle.
	ErrNotADAG = errors.New("pipeline is not a directed acyclic graph")

	// ErrFrequencyMismatch is returned when declared port frequencies
	// are inconsistent across a connection.
	ErrFrequencyMismatch = errors.New("port frequency mismatch")

	// Lifecycle misuse.
	ErrDuplicateSetup       = errors.New("pipeline is already set up")
	ErrPipelineNotSetup     = errors.New("pipeline has not been set up")
	ErrPipelineNotReady     = errors.New("pipeline setup did not succeed")
	ErrResetRunningPipeline = errors.New("cannot reset a running pipeline")
	ErrPipelineNotRunning   = errors.New("pipeline is not running")
)
