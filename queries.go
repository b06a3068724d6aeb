package pipegraph

import (
	"fmt"
	"slices"
)

// ProcessNames returns the names of all registered processes, sorted.
// Cluster children are included; clusters themselves are not.
func (p *Pipeline) ProcessNames() []string {
	names := make([]string, 0, len(p.processMap))
	for name := range p.processMap {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ProcessByName looks up a process.
func (p *Pipeline) ProcessByName(name string) (Process, error) {
	return p.processByName(name)
}

// ParentCluster returns the name of the cluster the process was
// registered under, or the empty string for a top-level process.
func (p *Pipeline) ParentCluster(name string) (string, error) {
	parent, ok := p.processParentMap[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSuchProcess, name)
	}
	return parent, nil
}

// ClusterNames returns the names of all registered clusters, sorted.
func (p *Pipeline) ClusterNames() []string {
	names := make([]string, 0, len(p.clusterMap))
	for name := range p.clusterMap {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ClusterByName looks up a cluster.
func (p *Pipeline) ClusterByName(name string) (ProcessCluster, error) {
	cluster, ok := p.clusterMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchProcess, name)
	}
	return cluster, nil
}

// ConnectionsFromAddr returns the downstream addresses the given
// output port was planned to feed. It consults the planned list and is
// valid before setup.
func (p *Pipeline) ConnectionsFromAddr(name, port string) []PortAddress {
	addr := Addr(name, port)
	var addrs []PortAddress
	for _, conn := range p.plannedConnections {
		if conn.Upstream == addr {
			addrs = append(addrs, conn.Downstream)
		}
	}
	return addrs
}

// ConnectionToAddr returns the upstream address planned to feed the
// given input port. It consults the planned list and is valid before
// setup.
func (p *Pipeline) ConnectionToAddr(name, port string) (PortAddress, bool) {
	addr := Addr(name, port)
	for _, conn := range p.plannedConnections {
		if conn.Downstream == addr {
			return conn.Upstream, true
		}
	}
	return PortAddress{}, false
}

// UpstreamForProcess returns every process feeding the named process.
func (p *Pipeline) UpstreamForProcess(name string) ([]Process, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	return p.processesFor(p.upstreamNamesFor(name))
}

// UpstreamForPort returns the process feeding the given input port,
// or false when nothing sends to it.
func (p *Pipeline) UpstreamForPort(name, port string) (Process, bool, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, false, err
	}
	sender, ok := p.senderFor(name, port)
	if !ok {
		return nil, false, nil
	}
	proc, err := p.processByName(sender.Process)
	if err != nil {
		return nil, false, err
	}
	return proc, true, nil
}

// DownstreamForProcess returns every process fed by the named process.
func (p *Pipeline) DownstreamForProcess(name string) ([]Process, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	return p.processesFor(p.downstreamNamesFor(name))
}

// DownstreamForPort returns every process fed by the given output
// port.
func (p *Pipeline) DownstreamForPort(name, port string) ([]Process, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	addr := Addr(name, port)
	seen := make(map[string]bool)
	var names []string
	for _, conn := range p.connections {
		if conn.Upstream == addr && !seen[conn.Downstream.Process] {
			seen[conn.Downstream.Process] = true
			names = append(names, conn.Downstream.Process)
		}
	}
	slices.Sort(names)
	return p.processesFor(names)
}

// SenderForPort returns the resolved upstream address feeding the
// given input port, or false when nothing sends to it.
func (p *Pipeline) SenderForPort(name, port string) (PortAddress, bool, error) {
	if err := p.ensureSetup(); err != nil {
		return PortAddress{}, false, err
	}
	sender, ok := p.senderFor(name, port)
	return sender, ok, nil
}

// ReceiversForPort returns the resolved downstream addresses fed by
// the given output port.
func (p *Pipeline) ReceiversForPort(name, port string) ([]PortAddress, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	addr := Addr(name, port)
	var addrs []PortAddress
	for _, conn := range p.connections {
		if conn.Upstream == addr {
			addrs = append(addrs, conn.Downstream)
		}
	}
	return addrs, nil
}

// EdgeForConnection returns the edge materialized for the given
// resolved connection, or nil when no such connection exists.
func (p *Pipeline) EdgeForConnection(upstreamName, upstreamPort, downstreamName, downstreamPort string) (*Edge, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	want := Connection{
		Upstream:   Addr(upstreamName, upstreamPort),
		Downstream: Addr(downstreamName, downstreamPort),
	}
	for i, conn := range p.connections {
		if conn == want {
			return p.edges[i], nil
		}
	}
	return nil, nil
}

// InputEdgesForProcess returns every edge feeding the named process.
func (p *Pipeline) InputEdgesForProcess(name string) ([]*Edge, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	var edges []*Edge
	for i, conn := range p.connections {
		if conn.Downstream.Process == name {
			edges = append(edges, p.edges[i])
		}
	}
	return edges, nil
}

// InputEdgeForPort returns the edge feeding the given input port, nil
// when unconnected.
func (p *Pipeline) InputEdgeForPort(name, port string) (*Edge, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	return p.inputEdgeFor(name, port), nil
}

// OutputEdgesForProcess returns every edge leaving the named process.
func (p *Pipeline) OutputEdgesForProcess(name string) ([]*Edge, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	var edges []*Edge
	for i, conn := range p.connections {
		if conn.Upstream.Process == name {
			edges = append(edges, p.edges[i])
		}
	}
	return edges, nil
}

// OutputEdgesForPort returns every edge leaving the given output port.
func (p *Pipeline) OutputEdgesForPort(name, port string) ([]*Edge, error) {
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}
	return p.outputEdgesFor(name, port), nil
}

// Unexported helpers shared with the structural checks; these assume
// setup is in progress or complete.

func (p *Pipeline) senderFor(name, port string) (PortAddress, bool) {
	addr := Addr(name, port)
	for _, conn := range p.connections {
		if conn.Downstream == addr {
			return conn.Upstream, true
		}
	}
	return PortAddress{}, false
}

func (p *Pipeline) inputEdgeFor(name, port string) *Edge {
	addr := Addr(name, port)
	for i, conn := range p.connections {
		if conn.Downstream == addr {
			return p.edges[i]
		}
	}
	return nil
}

func (p *Pipeline) outputEdgesFor(name, port string) []*Edge {
	addr := Addr(name, port)
	var edges []*Edge
	for i, conn := range p.connections {
		if conn.Upstream == addr {
			edges = append(edges, p.edges[i])
		}
	}
	return edges
}

func (p *Pipeline) upstreamNamesFor(name string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, conn := range p.connections {
		if conn.Downstream.Process == name && !seen[conn.Upstream.Process] {
			seen[conn.Upstream.Process] = true
			names = append(names, conn.Upstream.Process)
		}
	}
	slices.Sort(names)
	return names
}

func (p *Pipeline) downstreamNamesFor(name string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, conn := range p.connections {
		if conn.Upstream.Process == name && !seen[conn.Downstream.Process] {
			seen[conn.Downstream.Process] = true
			names = append(names, conn.Downstream.Process)
		}
	}
	slices.Sort(names)
	return names
}

func (p *Pipeline) processesFor(names []string) ([]Process, error) {
	procs := make([]Process, 0, len(names))
	for _, name := range names {
		proc, err := p.processByName(name)
		if err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return procs, nil
}
