package pipegraph

// classification is the outcome of pairing an upstream output type
// with a downstream input type.
type classification int

const (
	// classCompatible accepts the connection as-is.
	classCompatible classification = iota
	// classMismatch rejects two incompatible concrete types.
	classMismatch
	// classDataDependent defers until the upstream process has been
	// configured.
	classDataDependent
	// classUntyped defers a connection whose both ends are
	// flow-dependent.
	classUntyped
	// classPinUpstream defers a connection whose upstream end is
	// flow-dependent; the downstream type will be pushed onto it.
	classPinUpstream
	// classPinDownstream is the symmetric case.
	classPinDownstream
)

// classifyTypes decides how a connection between the two port types is
// handled. It is pure; bookkeeping is the caller's job.
func classifyTypes(up, down PortType) classification {
	if up.IsDataDependent() {
		return classDataDependent
	}

	upFlow := up.IsFlowDependent()
	downFlow := down.IsFlowDependent()

	switch {
	case upFlow && downFlow:
		return classUntyped
	case upFlow:
		return classPinUpstream
	case downFlow:
		return classPinDownstream
	}

	if !up.IsAny() && !down.IsAny() && up != down {
		return classMismatch
	}

	return classCompatible
}

// flagsCompatible rejects wiring a const output to a mutable input.
func flagsCompatible(up, down PortFlags) bool {
	return !(up.Has(FlagOutputConst) && down.Has(FlagInputMutable))
}
