package pipegraph

import "math/big"

// PortFlag annotates a port with a constraint the assembly engine
// enforces.
type PortFlag int

const (
	// FlagOutputConst promises that data leaving the port is never
	// mutated downstream.
	FlagOutputConst PortFlag = iota
	// FlagInputMutable declares that the consumer mutates the data it
	// receives. Incompatible with FlagOutputConst on the other end.
	FlagInputMutable
	// FlagInputNoDep marks an input as a runtime-only dependency; the
	// DAG check ignores connections into such ports, which makes
	// feedback loops legal.
	FlagInputNoDep
	// FlagRequired means the port must be connected for setup to
	// succeed.
	FlagRequired
)

func (f PortFlag) String() string {
	switch f {
	case FlagOutputConst:
		return "output_const"
	case FlagInputMutable:
		return "input_mutable"
	case FlagInputNoDep:
		return "input_nodep"
	case FlagRequired:
		return "required"
	default:
		return "unknown"
	}
}

// PortFlags is a set of port flags.
type PortFlags map[PortFlag]struct{}

// NewPortFlags builds a flag set from the given flags.
func NewPortFlags(flags ...PortFlag) PortFlags {
	s := make(PortFlags, len(flags))
	for _, f := range flags {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether the flag is present. A nil set has no flags.
func (s PortFlags) Has(f PortFlag) bool {
	_, ok := s[f]
	return ok
}

func (s PortFlags) clone() PortFlags {
	if s == nil {
		return nil
	}
	out := make(PortFlags, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

// PortInfo describes a single port: its type, its flags and an
// optional frequency relative to the owning process's core rate.
// A nil Frequency means the port declares no rate.
type PortInfo struct {
	Type        PortType
	Flags       PortFlags
	Frequency   *big.Rat
	Description string
}

func (i PortInfo) clone() PortInfo {
	out := i
	out.Flags = i.Flags.clone()
	if i.Frequency != nil {
		out.Frequency = new(big.Rat).Set(i.Frequency)
	}
	return out
}

// Process is a computational node with named, typed input and output
// ports. The pipeline consumes this contract during assembly; Base is
// the stock implementation.
type Process interface {
	Name() string

	// InputPorts and OutputPorts return port names in declaration
	// order.
	InputPorts() []string
	OutputPorts() []string

	InputPortInfo(port string) (PortInfo, error)
	OutputPortInfo(port string) (PortInfo, error)

	// SetInputPortType and SetOutputPortType resolve a deferred port
	// type. They report whether the process accepted the type.
	SetInputPortType(port string, t PortType) bool
	SetOutputPortType(port string, t PortType) bool

	ConnectInputPort(port string, e *Edge) error
	ConnectOutputPort(port string, e *Edge) error

	// SetCoreFrequency assigns the process rate computed by the
	// frequency reconciler.
	SetCoreFrequency(freq *big.Rat)

	Configure() error
	Init() error
	Reset() error
}

// ProcessCluster is a composite process: a named group of child
// processes, their internal wiring, and the mappings that bind the
// cluster's outward-facing ports to inner ports.
type ProcessCluster interface {
	Process

	Processes() []Process
	InternalConnections() []Connection

	// InputMappings connect an outward cluster input port (upstream
	// side of each mapping) to inner input ports. One cluster input
	// may fan in to several inner ports.
	InputMappings() []Connection

	// OutputMappings connect inner output ports to an outward cluster
	// output port (downstream side of each mapping). Exactly one
	// mapping may exist per cluster output port.
	OutputMappings() []Connection
}
