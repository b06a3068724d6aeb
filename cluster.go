package pipegraph

// Cluster is the stock ProcessCluster implementation: a named group of
// child processes with internal wiring and port mappings. Add children
// and mappings before handing the cluster to AddProcess; the pipeline
// flattens it at registration time and expands its connections during
// setup. The cluster object itself stays queryable afterwards.
type Cluster struct {
	*Base

	children   []Process
	internal   []Connection
	inputMaps  []Connection
	outputMaps []Connection
}

// NewCluster creates an empty cluster.
func NewCluster(name string) *Cluster {
	return &Cluster{Base: NewBase(name)}
}

// Add appends a child process. Children register with the pipeline in
// the order they were added.
func (c *Cluster) Add(p Process) {
	c.children = append(c.children, p)
}

// ConnectInternal wires two child ports together. The connection is
// replayed through the pipeline's connect when the cluster is added,
// so the usual flag and type checks apply.
func (c *Cluster) ConnectInternal(upstreamName, upstreamPort, downstreamName, downstreamPort string) {
	c.internal = append(c.internal, Connection{
		Upstream:   Addr(upstreamName, upstreamPort),
		Downstream: Addr(downstreamName, downstreamPort),
	})
}

// MapInput binds the cluster input port to an inner input port. A
// single cluster input may map to several inner ports.
func (c *Cluster) MapInput(port, innerName, innerPort string) {
	c.inputMaps = append(c.inputMaps, Connection{
		Upstream:   Addr(c.Name(), port),
		Downstream: Addr(innerName, innerPort),
	})
}

// MapOutput binds an inner output port to the cluster output port.
// Each cluster output port may carry exactly one mapping.
func (c *Cluster) MapOutput(innerName, innerPort, port string) {
	c.outputMaps = append(c.outputMaps, Connection{
		Upstream:   Addr(innerName, innerPort),
		Downstream: Addr(c.Name(), port),
	})
}

func (c *Cluster) Processes() []Process {
	return append([]Process(nil), c.children...)
}

func (c *Cluster) InternalConnections() []Connection {
	return append([]Connection(nil), c.internal...)
}

func (c *Cluster) InputMappings() []Connection {
	return append([]Connection(nil), c.inputMaps...)
}

func (c *Cluster) OutputMappings() []Connection {
	return append([]Connection(nil), c.outputMaps...)
}
