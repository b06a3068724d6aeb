package pipegraph

import (
	"fmt"
	"math/big"
)

// Base is the stock Process implementation. Declare ports on it, embed
// it in a concrete process, or use it directly with the hook fields.
//
// Setting a type on a flow-dependent port retypes every port on the
// process that shares the same tag, inputs and outputs alike. Reset
// restores the ports to their declared state and detaches all edges.
type Base struct {
	name string

	inputOrder  []string
	outputOrder []string
	inputs      map[string]PortInfo
	outputs     map[string]PortInfo

	declaredInputs  map[string]PortInfo
	declaredOutputs map[string]PortInfo

	inputEdges  map[string]*Edge
	outputEdges map[string][]*Edge

	coreFrequency *big.Rat

	// ConfigureFunc, InitFunc and ResetFunc run inside Configure, Init
	// and Reset when set. A data-dependent process resolves its output
	// types inside ConfigureFunc.
	ConfigureFunc func() error
	InitFunc      func() error
	ResetFunc     func() error

	// TypeSetHook, when set, can veto a type resolution. It receives
	// the port name, the proposed type and whether the port is an
	// input.
	TypeSetHook func(port string, t PortType, input bool) bool
}

// NewBase creates a process with no ports.
func NewBase(name string) *Base {
	return &Base{
		name:            name,
		inputs:          make(map[string]PortInfo),
		outputs:         make(map[string]PortInfo),
		declaredInputs:  make(map[string]PortInfo),
		declaredOutputs: make(map[string]PortInfo),
		inputEdges:      make(map[string]*Edge),
		outputEdges:     make(map[string][]*Edge),
	}
}

func (b *Base) Name() string {
	return b.name
}

// DeclareInputPort adds an input port. Redeclaring a port replaces it.
func (b *Base) DeclareInputPort(port string, info PortInfo) {
	if _, ok := b.inputs[port]; !ok {
		b.inputOrder = append(b.inputOrder, port)
	}
	b.inputs[port] = info.clone()
	b.declaredInputs[port] = info.clone()
}

// DeclareOutputPort adds an output port. Redeclaring a port replaces
// it.
func (b *Base) DeclareOutputPort(port string, info PortInfo) {
	if _, ok := b.outputs[port]; !ok {
		b.outputOrder = append(b.outputOrder, port)
	}
	b.outputs[port] = info.clone()
	b.declaredOutputs[port] = info.clone()
}

func (b *Base) InputPorts() []string {
	return append([]string(nil), b.inputOrder...)
}

func (b *Base) OutputPorts() []string {
	return append([]string(nil), b.outputOrder...)
}

func (b *Base) InputPortInfo(port string) (PortInfo, error) {
	info, ok := b.inputs[port]
	if !ok {
		return PortInfo{}, fmt.Errorf("%w: input %s on %s", ErrNoSuchPort, port, b.name)
	}
	return info.clone(), nil
}

func (b *Base) OutputPortInfo(port string) (PortInfo, error) {
	info, ok := b.outputs[port]
	if !ok {
		return PortInfo{}, fmt.Errorf("%w: output %s on %s", ErrNoSuchPort, port, b.name)
	}
	return info.clone(), nil
}

// SetInputPortType resolves the type of a deferred input port. It
// reports false when the port does not exist, the hook vetoes the
// type, or the port already carries a different concrete type.
func (b *Base) SetInputPortType(port string, t PortType) bool {
	return b.setPortType(port, t, true)
}

// SetOutputPortType resolves the type of a deferred output port, with
// the same acceptance rules as SetInputPortType. Data-dependent
// outputs accept any type, which is how ConfigureFunc resolves them.
func (b *Base) SetOutputPortType(port string, t PortType) bool {
	return b.setPortType(port, t, false)
}

func (b *Base) setPortType(port string, t PortType, input bool) bool {
	ports := b.outputs
	if input {
		ports = b.inputs
	}
	info, ok := ports[port]
	if !ok {
		return false
	}
	if b.TypeSetHook != nil && !b.TypeSetHook(port, t, input) {
		return false
	}

	switch {
	case info.Type == t:
		return true
	case info.Type.IsFlowDependent():
		b.retypeFlowTag(info.Type.Name, t)
		return true
	case info.Type.IsDataDependent() || info.Type.IsAny():
		info.Type = t
		ports[port] = info
		return true
	default:
		// A different concrete type is already pinned.
		return false
	}
}

// retypeFlowTag resolves every port sharing a flow tag at once.
func (b *Base) retypeFlowTag(tag string, t PortType) {
	for port, info := range b.inputs {
		if info.Type.IsFlowDependent() && info.Type.Name == tag {
			info.Type = t
			b.inputs[port] = info
		}
	}
	for port, info := range b.outputs {
		if info.Type.IsFlowDependent() && info.Type.Name == tag {
			info.Type = t
			b.outputs[port] = info
		}
	}
}

// ConnectInputPort attaches the edge feeding an input port. An input
// port accepts at most one edge.
func (b *Base) ConnectInputPort(port string, e *Edge) error {
	if _, ok := b.inputs[port]; !ok {
		return fmt.Errorf("%w: input %s on %s", ErrNoSuchPort, port, b.name)
	}
	if _, connected := b.inputEdges[port]; connected {
		return fmt.Errorf("input %s on %s is already connected", port, b.name)
	}
	b.inputEdges[port] = e
	return nil
}

// ConnectOutputPort attaches an edge consuming an output port. Output
// ports fan out to any number of edges.
func (b *Base) ConnectOutputPort(port string, e *Edge) error {
	if _, ok := b.outputs[port]; !ok {
		return fmt.Errorf("%w: output %s on %s", ErrNoSuchPort, port, b.name)
	}
	b.outputEdges[port] = append(b.outputEdges[port], e)
	return nil
}

// InputEdge returns the edge feeding the port, nil when unconnected.
func (b *Base) InputEdge(port string) *Edge {
	return b.inputEdges[port]
}

// OutputEdges returns the edges consuming the port.
func (b *Base) OutputEdges(port string) []*Edge {
	return append([]*Edge(nil), b.outputEdges[port]...)
}

func (b *Base) SetCoreFrequency(freq *big.Rat) {
	b.coreFrequency = new(big.Rat).Set(freq)
}

// CoreFrequency returns the rate assigned by the frequency reconciler,
// nil when the process was left unconstrained.
func (b *Base) CoreFrequency() *big.Rat {
	if b.coreFrequency == nil {
		return nil
	}
	return new(big.Rat).Set(b.coreFrequency)
}

func (b *Base) Configure() error {
	if b.ConfigureFunc != nil {
		return b.ConfigureFunc()
	}
	return nil
}

func (b *Base) Init() error {
	if b.InitFunc != nil {
		return b.InitFunc()
	}
	return nil
}

// Reset restores the declared port state, detaches every edge and
// clears the core frequency.
func (b *Base) Reset() error {
	for port, info := range b.declaredInputs {
		b.inputs[port] = info.clone()
	}
	for port, info := range b.declaredOutputs {
		b.outputs[port] = info.clone()
	}
	b.inputEdges = make(map[string]*Edge)
	b.outputEdges = make(map[string][]*Edge)
	b.coreFrequency = nil
	if b.ResetFunc != nil {
		return b.ResetFunc()
	}
	return nil
}
