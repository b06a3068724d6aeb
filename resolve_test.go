package pipegraph

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFlowDependentPinning(t *testing.T) {
	t.Run("push upstream", func(t *testing.T) {
		p := newTestPipeline(t)
		src := sourceProc("src", "o", FlowDependentType("T"))
		assert.NoError(t, p.AddProcess(src))
		assert.NoError(t, p.AddProcess(sinkProc("snk", "i", intType)))

		// Classification defers the connection until setup.
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))
		assert.Equal(t, 1, len(p.pending.pinnings))
		assert.Equal(t, 0, len(p.connections))

		assert.NoError(t, p.Setup())

		info, err := src.OutputPortInfo("o")
		assert.NoError(t, err)
		assert.Equal(t, intType, info.Type)

		e, err := p.EdgeForConnection("src", "o", "snk", "i")
		assert.NoError(t, err)
		assert.NotZero(t, e)
	})

	t.Run("push downstream", func(t *testing.T) {
		p := newTestPipeline(t)
		snk := sinkProc("snk", "i", FlowDependentType("T"))
		assert.NoError(t, p.AddProcess(sourceProc("src", "o", stringType)))
		assert.NoError(t, p.AddProcess(snk))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))

		assert.NoError(t, p.Setup())

		info, err := snk.InputPortInfo("i")
		assert.NoError(t, err)
		assert.Equal(t, stringType, info.Type)
	})

	t.Run("rejected pin", func(t *testing.T) {
		p := newTestPipeline(t)
		src := sourceProc("src", "o", FlowDependentType("T"))
		src.TypeSetHook = func(string, PortType, bool) bool { return false }
		assert.NoError(t, p.AddProcess(src))
		assert.NoError(t, p.AddProcess(sinkProc("snk", "i", intType)))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))

		err := p.Setup()
		assert.True(t, errors.Is(err, ErrConnectionDependentType))
	})
}

func TestUnseededFlow(t *testing.T) {
	p := newTestPipeline(t)
	assert.NoError(t, p.AddProcess(sourceProc("a", "o", FlowDependentType("T"))))
	assert.NoError(t, p.AddProcess(sinkProc("b", "i", FlowDependentType("T"))))
	assert.NoError(t, p.Connect("a", "o", "b", "i"))

	err := p.Setup()
	assert.True(t, errors.Is(err, ErrUntypedConnection))
}

func TestPropagation(t *testing.T) {
	t.Run("type spreads across a flow-dependent chain", func(t *testing.T) {
		p := newTestPipeline(t)
		a := sourceProc("a", "o", intType)
		b := passProc("b", FlowDependentType("T"), FlowDependentType("T"))
		c := passProc("c", FlowDependentType("U"), FlowDependentType("U"))
		d := sinkProc("d", "in", FlowDependentType("V"))
		assert.NoError(t, p.AddProcess(a))
		assert.NoError(t, p.AddProcess(b))
		assert.NoError(t, p.AddProcess(c))
		assert.NoError(t, p.AddProcess(d))

		assert.NoError(t, p.Connect("a", "o", "b", "in"))
		assert.NoError(t, p.Connect("b", "out", "c", "in"))
		assert.NoError(t, p.Connect("c", "out", "d", "in"))

		assert.NoError(t, p.Setup())

		for _, proc := range []*Base{b, c} {
			in, err := proc.InputPortInfo("in")
			assert.NoError(t, err)
			assert.Equal(t, intType, in.Type)
			out, err := proc.OutputPortInfo("out")
			assert.NoError(t, err)
			assert.Equal(t, intType, out.Type)
		}

		din, err := d.InputPortInfo("in")
		assert.NoError(t, err)
		assert.Equal(t, intType, din.Type)

		edges, err := p.OutputEdgesForProcess("b")
		assert.NoError(t, err)
		assert.Equal(t, 1, len(edges))
	})

	t.Run("seed from the downstream side", func(t *testing.T) {
		p := newTestPipeline(t)
		a := sourceProc("a", "o", FlowDependentType("T"))
		b := passProc("b", FlowDependentType("T"), FlowDependentType("T"))
		assert.NoError(t, p.AddProcess(a))
		assert.NoError(t, p.AddProcess(b))
		assert.NoError(t, p.AddProcess(sinkProc("c", "in", stringType)))

		assert.NoError(t, p.Connect("a", "o", "b", "in"))
		assert.NoError(t, p.Connect("b", "out", "c", "in"))

		assert.NoError(t, p.Setup())

		info, err := a.OutputPortInfo("o")
		assert.NoError(t, err)
		assert.Equal(t, stringType, info.Type)
	})

	t.Run("cascade failure", func(t *testing.T) {
		p := newTestPipeline(t)
		a := sourceProc("a", "o", intType)
		b := passProc("b", FlowDependentType("T"), FlowDependentType("T"))
		c := sinkProc("c", "in", FlowDependentType("U"))
		c.TypeSetHook = func(string, PortType, bool) bool { return false }
		assert.NoError(t, p.AddProcess(a))
		assert.NoError(t, p.AddProcess(b))
		assert.NoError(t, p.AddProcess(c))

		assert.NoError(t, p.Connect("a", "o", "b", "in"))
		assert.NoError(t, p.Connect("b", "out", "c", "in"))

		err := p.Setup()
		assert.True(t, errors.Is(err, ErrDependentTypeCascade))
	})

	t.Run("conflicting seeds", func(t *testing.T) {
		// b's input and output share a tag; pinning int on the input
		// also types the output, so the string consumer cannot be
		// satisfied.
		p := newTestPipeline(t)
		a := sourceProc("a", "o", intType)
		b := passProc("b", FlowDependentType("T"), FlowDependentType("T"))
		c := sinkProc("c", "in", stringType)
		assert.NoError(t, p.AddProcess(a))
		assert.NoError(t, p.AddProcess(b))
		assert.NoError(t, p.AddProcess(c))

		assert.NoError(t, p.Connect("a", "o", "b", "in"))
		assert.NoError(t, p.Connect("b", "out", "c", "in"))

		err := p.Setup()
		assert.Error(t, err)
	})
}

func TestDataDependent(t *testing.T) {
	t.Run("resolved during configure", func(t *testing.T) {
		p := newTestPipeline(t)
		src := sourceProc("src", "o", TypeDataDependent)
		src.ConfigureFunc = func() error {
			if !src.SetOutputPortType("o", intType) {
				return errors.New("retype failed")
			}
			return nil
		}
		assert.NoError(t, p.AddProcess(src))
		assert.NoError(t, p.AddProcess(sinkProc("snk", "i", intType)))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))
		assert.Equal(t, 1, len(p.pending.dataDep))

		assert.NoError(t, p.Setup())

		e, err := p.EdgeForConnection("src", "o", "snk", "i")
		assert.NoError(t, err)
		assert.NotZero(t, e)
	})

	t.Run("still untyped after configure", func(t *testing.T) {
		p := newTestPipeline(t)
		assert.NoError(t, p.AddProcess(sourceProc("src", "o", TypeDataDependent)))
		assert.NoError(t, p.AddProcess(sinkProc("snk", "i", intType)))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))

		err := p.Setup()
		assert.True(t, errors.Is(err, ErrUntypedDataDependent))
	})

	t.Run("resolves into a pinning", func(t *testing.T) {
		// The configured type seeds a downstream flow-dependent port.
		p := newTestPipeline(t)
		src := sourceProc("src", "o", TypeDataDependent)
		src.ConfigureFunc = func() error {
			src.SetOutputPortType("o", stringType)
			return nil
		}
		snk := sinkProc("snk", "i", FlowDependentType("T"))
		assert.NoError(t, p.AddProcess(src))
		assert.NoError(t, p.AddProcess(snk))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))

		assert.NoError(t, p.Setup())

		info, err := snk.InputPortInfo("i")
		assert.NoError(t, err)
		assert.Equal(t, stringType, info.Type)
	})

	t.Run("configure failure aborts setup", func(t *testing.T) {
		p := newTestPipeline(t)
		src := sourceProc("src", "o", intType)
		src.ConfigureFunc = func() error { return errors.New("bad settings") }
		assert.NoError(t, p.AddProcess(src))
		assert.NoError(t, p.AddProcess(sinkProc("snk", "i", intType)))
		assert.NoError(t, p.Connect("src", "o", "snk", "i"))

		err := p.Setup()
		assert.Error(t, err)
		assert.False(t, p.SetupSuccessful())
	})
}

func TestClassifyTypes(t *testing.T) {
	flowT := FlowDependentType("T")

	cases := []struct {
		name string
		up   PortType
		down PortType
		want classification
	}{
		{"concrete equal", intType, intType, classCompatible},
		{"concrete mismatch", intType, stringType, classMismatch},
		{"any upstream", TypeAny, intType, classCompatible},
		{"any downstream", intType, TypeAny, classCompatible},
		{"data dependent", TypeDataDependent, intType, classDataDependent},
		{"data dependent beats flow", TypeDataDependent, flowT, classDataDependent},
		{"both flow", flowT, FlowDependentType("U"), classUntyped},
		{"upstream flow", flowT, intType, classPinUpstream},
		{"downstream flow", intType, flowT, classPinDownstream},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyTypes(tc.up, tc.down))
		})
	}
}
