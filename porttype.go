package pipegraph

import "strings"

// PortKind discriminates the variants of a PortType.
type PortKind int

const (
	// KindConcrete is a named, fully resolved type.
	KindConcrete PortKind = iota
	// KindAny accepts any concrete type.
	KindAny
	// KindDataDependent marks an output whose type is known only after
	// the owning process has been configured.
	KindDataDependent
	// KindFlowDependent is a type variable. All ports on one process
	// that share the same tag resolve together.
	KindFlowDependent
)

// Wire encodings of the special kinds. These survive only in String
// and ParsePortType; the engine itself switches on Kind.
const (
	anyTypeName           = "_any"
	dataDependentTypeName = "_data_dependent"
	flowDependentPrefix   = "_flow_dependent/"
)

// PortType describes the type carried by a port. Name holds the
// concrete type name for KindConcrete and the tag for
// KindFlowDependent; it is empty otherwise.
type PortType struct {
	Kind PortKind
	Name string
}

// TypeAny accepts any concrete type.
var TypeAny = PortType{Kind: KindAny}

// TypeDataDependent marks an output typed during configuration.
var TypeDataDependent = PortType{Kind: KindDataDependent}

// ConcreteType names a fully resolved port type.
func ConcreteType(name string) PortType {
	return PortType{Kind: KindConcrete, Name: name}
}

// FlowDependentType creates a type variable with the given tag.
func FlowDependentType(tag string) PortType {
	return PortType{Kind: KindFlowDependent, Name: tag}
}

func (t PortType) IsAny() bool           { return t.Kind == KindAny }
func (t PortType) IsDataDependent() bool { return t.Kind == KindDataDependent }
func (t PortType) IsFlowDependent() bool { return t.Kind == KindFlowDependent }
func (t PortType) IsConcrete() bool      { return t.Kind == KindConcrete }

// String returns the wire encoding of the type. Concrete types encode
// as their bare name.
func (t PortType) String() string {
	switch t.Kind {
	case KindAny:
		return anyTypeName
	case KindDataDependent:
		return dataDependentTypeName
	case KindFlowDependent:
		return flowDependentPrefix + t.Name
	default:
		return t.Name
	}
}

// ParsePortType decodes the wire encoding produced by String.
func ParsePortType(s string) PortType {
	switch {
	case s == anyTypeName:
		return TypeAny
	case s == dataDependentTypeName:
		return TypeDataDependent
	case strings.HasPrefix(s, flowDependentPrefix):
		return FlowDependentType(strings.TrimPrefix(s, flowDependentPrefix))
	default:
		return ConcreteType(s)
	}
}
