package pipegraph

import (
	"math/big"
	"testing"

	"github.com/pipegraph/pipegraph/config"
)

// newTestPipeline builds a pipeline over an empty configuration.
func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(config.New())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

// sourceProc declares a process with a single output port.
func sourceProc(name, port string, typ PortType, flags ...PortFlag) *Base {
	b := NewBase(name)
	b.DeclareOutputPort(port, PortInfo{Type: typ, Flags: NewPortFlags(flags...)})
	return b
}

// sinkProc declares a process with a single input port.
func sinkProc(name, port string, typ PortType, flags ...PortFlag) *Base {
	b := NewBase(name)
	b.DeclareInputPort(port, PortInfo{Type: typ, Flags: NewPortFlags(flags...)})
	return b
}

// passProc declares a process with one input and one output port.
func passProc(name string, in PortType, out PortType) *Base {
	b := NewBase(name)
	b.DeclareInputPort("in", PortInfo{Type: in})
	b.DeclareOutputPort("out", PortInfo{Type: out})
	return b
}

// freq is shorthand for a port frequency.
func freq(num, den int64) *big.Rat {
	return big.NewRat(num, den)
}

var (
	intType    = ConcreteType("int")
	stringType = ConcreteType("string")
)
