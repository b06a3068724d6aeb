package pipegraph

// portSep separates a process name from a port name in configuration
// keys and diagnostics.
const portSep = "."

// PortAddress identifies a single port on a named process.
type PortAddress struct {
	Process string
	Port    string
}

// Addr is a convenience constructor for a PortAddress.
func Addr(process, port string) PortAddress {
	return PortAddress{Process: process, Port: port}
}

// IsZero reports whether the address is the empty sentinel.
func (a PortAddress) IsZero() bool {
	return a == PortAddress{}
}

func (a PortAddress) String() string {
	return a.Process + portSep + a.Port
}

// Connection is an ordered pair of port addresses. Data flows from the
// upstream output port to the downstream input port.
type Connection struct {
	Upstream   PortAddress
	Downstream PortAddress
}

func (c Connection) String() string {
	return c.Upstream.String() + " -> " + c.Downstream.String()
}

// mentions reports whether either endpoint of the connection lives on
// the named process.
func (c Connection) mentions(name string) bool {
	return c.Upstream.Process == name || c.Downstream.Process == name
}
