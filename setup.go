package pipegraph

import (
	"errors"
	"fmt"
	"slices"
)

// Setup drives the assembly engine: cluster expansion, type
// resolution, edge construction, structural checks, initialization and
// frequency reconciliation, in that order. The first failure aborts
// setup; the pipeline then stays frozen with SetupSuccessful false
// until Reset.
func (p *Pipeline) Setup() error {
	if p.setup {
		return ErrDuplicateSetup
	}

	if len(p.processMap) == 0 {
		return ErrNoProcesses
	}

	// No turning back: processes are modified from here on and the
	// later checks assume a stable registry.
	p.setup = true
	p.setupInProgress = true
	p.setupSuccessful = false

	err := p.runSetup()
	p.setupInProgress = false
	if err != nil {
		return err
	}

	p.setupSuccessful = true
	return nil
}

func (p *Pipeline) runSetup() error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"map cluster connections", p.mapClusterConnections},
		{"configure processes", p.configureProcesses},
		{"check data dependent ports", p.checkForDataDepPorts},
		{"propagate pinned types", p.propagatePinnedTypes},
		{"check untyped ports", p.checkForUntypedPorts},
		{"make connections", p.makeConnections},
		{"check required ports", p.checkForRequiredPorts},
		{"check dag", p.checkForDAG},
		{"initialize processes", p.initializeProcesses},
		{"check port frequencies", p.checkPortFrequencies},
	}

	for _, step := range steps {
		p.log.V(1).Info("setup step", "step", step.name)
		if err := step.run(); err != nil {
			return err
		}
	}

	return nil
}

// mapClusterConnections rewrites every connection touching a cluster
// into connections between real processes, using the cluster's port
// mappings. Emitted connections may hit further clusters, so the
// mapping runs to a fixpoint.
func (p *Pipeline) mapClusterConnections() error {
	for pass := 0; len(p.pending.cluster) > 0; pass++ {
		if pass > len(p.clusterMap) {
			return fmt.Errorf("cluster connection mapping did not converge after %d passes", pass)
		}

		cconns := p.pending.cluster
		p.pending.cluster = nil

		for _, cconn := range cconns {
			if err := p.mapClusterConnection(cconn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) mapClusterConnection(cconn clusterConnection) error {
	conn := cconn.conn

	switch cconn.side {
	case clusterUpstream:
		// The cluster's output port feeds a consumer; route the
		// consumer to the inner port behind the output mapping.
		clusterAddr := conn.Upstream
		cluster, ok := p.clusterMap[clusterAddr.Process]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSuchProcess, clusterAddr.Process)
		}

		var mapped []Connection
		for _, m := range cluster.OutputMappings() {
			if m.Downstream == clusterAddr {
				mapped = append(mapped, m)
			}
		}

		if len(mapped) == 0 {
			return fmt.Errorf("%w: %s", ErrNoSuchPort, clusterAddr)
		}
		if len(mapped) != 1 {
			return fmt.Errorf("cluster %s declares %d output mappings for port %s",
				clusterAddr.Process, len(mapped), clusterAddr.Port)
		}

		inner := mapped[0].Upstream
		return p.Connect(inner.Process, inner.Port, conn.Downstream.Process, conn.Downstream.Port)

	case clusterDownstream:
		// A producer feeds the cluster's input port; fan the producer
		// out to every inner port behind the input mapping.
		clusterAddr := conn.Downstream
		cluster, ok := p.clusterMap[clusterAddr.Process]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSuchProcess, clusterAddr.Process)
		}

		var mapped []Connection
		for _, m := range cluster.InputMappings() {
			if m.Upstream == clusterAddr {
				mapped = append(mapped, m)
			}
		}

		if len(mapped) == 0 {
			return fmt.Errorf("%w: %s", ErrNoSuchPort, clusterAddr)
		}

		for _, m := range mapped {
			inner := m.Downstream
			err := p.Connect(conn.Upstream.Process, conn.Upstream.Port, inner.Process, inner.Port)
			if err != nil {
				return err
			}
		}
		return nil
	}

	return nil
}

// configureProcesses runs Configure on every process in registration
// order, then resolves the data-dependent connections whose upstream
// port lives on a just-configured process by replaying them through
// Connect.
func (p *Pipeline) configureProcesses() error {
	for _, name := range slices.Clone(p.processOrder) {
		proc := p.processMap[name]

		if err := proc.Configure(); err != nil {
			return fmt.Errorf("configure %s: %w", name, err)
		}

		var unresolved []Connection
		for _, conn := range p.pending.dataDep {
			if conn.Upstream.Process != name {
				unresolved = append(unresolved, conn)
				continue
			}

			info, err := proc.OutputPortInfo(conn.Upstream.Port)
			if err != nil {
				return err
			}
			if info.Type.IsDataDependent() {
				return fmt.Errorf("%w: %s", ErrUntypedDataDependent, conn.Upstream)
			}

			err = p.Connect(conn.Upstream.Process, conn.Upstream.Port,
				conn.Downstream.Process, conn.Downstream.Port)
			if err != nil {
				return err
			}
		}
		p.pending.dataDep = unresolved
	}

	return nil
}

func (p *Pipeline) checkForDataDepPorts() error {
	if n := len(p.pending.dataDep); n > 0 {
		return fmt.Errorf("data dependent port tracking failed: %d connections remain", n)
	}
	return nil
}

// propagationError reports a process refusing a type pushed onto it
// during propagation. The phase boundary wraps it into the
// externally-visible cascade error.
type propagationError struct {
	conn         Connection
	typ          PortType
	pushUpstream bool
}

func (e *propagationError) Error() string {
	direction := "downstream"
	if e.pushUpstream {
		direction = "upstream"
	}
	return fmt.Sprintf("%v: cannot push type %s %s on %s", ErrPropagation, e.typ, direction, e.conn)
}

func (e *propagationError) Unwrap() error {
	return ErrPropagation
}

// propagatePinnedTypes resolves every pinned connection by copying the
// concrete side's type onto the flow-dependent side, then spreads the
// new type across the untyped subgraph. Propagation can re-classify
// previously untyped connections into fresh pinnings, so the phase
// loops to a fixpoint.
func (p *Pipeline) propagatePinnedTypes() error {
	for len(p.pending.pinnings) > 0 {
		pinnings := p.pending.pinnings
		p.pending.pinnings = nil

		for _, pinning := range pinnings {
			if err := p.applyPinning(pinning); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) applyPinning(pinning typePinning) error {
	conn := pinning.conn

	upProc, err := p.processByName(conn.Upstream.Process)
	if err != nil {
		return err
	}
	downProc, err := p.processByName(conn.Downstream.Process)
	if err != nil {
		return err
	}

	upInfo, err := upProc.OutputPortInfo(conn.Upstream.Port)
	if err != nil {
		return err
	}
	downInfo, err := downProc.InputPortInfo(conn.Downstream.Port)
	if err != nil {
		return err
	}

	var seed PortAddress
	var seeded PortType

	switch pinning.dir {
	case pushUpstream:
		if !upProc.SetOutputPortType(conn.Upstream.Port, downInfo.Type) {
			return fmt.Errorf("%w: %s refused type %s for %s",
				ErrConnectionDependentType, conn.Upstream, downInfo.Type, conn)
		}
		seed = conn.Upstream
		seeded = downInfo.Type
	case pushDownstream:
		if !downProc.SetInputPortType(conn.Downstream.Port, upInfo.Type) {
			return fmt.Errorf("%w: %s refused type %s for %s",
				ErrConnectionDependentType, conn.Downstream, upInfo.Type, conn)
		}
		seed = conn.Downstream
		seeded = upInfo.Type
	}

	if err := p.propagate(seed.Process); err != nil {
		var perr *propagationError
		if errors.As(err, &perr) {
			return fmt.Errorf("%w: pinning %s to %s cascaded: %v",
				ErrDependentTypeCascade, seed, seeded, perr)
		}
		return err
	}

	// Retry the original connection now that one side is concrete.
	return p.Connect(conn.Upstream.Process, conn.Upstream.Port,
		conn.Downstream.Process, conn.Downstream.Port)
}

// propagate spreads freshly resolved types outward from root across
// the untyped connections, breadth-first. Connections it cannot
// resolve yet return to the untyped list for a later seed.
func (p *Pipeline) propagate(root string) error {
	queue := []string{root}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		proc, err := p.processByName(name)
		if err != nil {
			return err
		}

		conns := p.pending.untyped
		p.pending.untyped = nil

		for _, conn := range conns {
			resolved := false

			switch {
			case conn.Downstream.Process == name:
				// Push the input's resolved type up to the sender.
				info, err := proc.InputPortInfo(conn.Downstream.Port)
				if err != nil {
					return err
				}
				if !info.Type.IsFlowDependent() {
					upProc, err := p.processByName(conn.Upstream.Process)
					if err != nil {
						return err
					}
					if !upProc.SetOutputPortType(conn.Upstream.Port, info.Type) {
						return &propagationError{conn: conn, typ: info.Type, pushUpstream: true}
					}
					resolved = true
					err = p.Connect(conn.Upstream.Process, conn.Upstream.Port,
						conn.Downstream.Process, conn.Downstream.Port)
					if err != nil {
						return err
					}
					queue = append(queue, conn.Upstream.Process)
				}
			case conn.Upstream.Process == name:
				// Push the output's resolved type down to the consumer.
				info, err := proc.OutputPortInfo(conn.Upstream.Port)
				if err != nil {
					return err
				}
				if !info.Type.IsFlowDependent() {
					downProc, err := p.processByName(conn.Downstream.Process)
					if err != nil {
						return err
					}
					if !downProc.SetInputPortType(conn.Downstream.Port, info.Type) {
						return &propagationError{conn: conn, typ: info.Type, pushUpstream: false}
					}
					resolved = true
					err = p.Connect(conn.Upstream.Process, conn.Upstream.Port,
						conn.Downstream.Process, conn.Downstream.Port)
					if err != nil {
						return err
					}
					queue = append(queue, conn.Downstream.Process)
				}
			}

			if !resolved {
				p.pending.untyped = append(p.pending.untyped, conn)
			}
		}
	}

	return nil
}

func (p *Pipeline) checkForUntypedPorts() error {
	if len(p.pending.untyped) > 0 {
		return fmt.Errorf("%w: %s", ErrUntypedConnection, p.pending.untyped[0])
	}
	return nil
}

func (p *Pipeline) initializeProcesses() error {
	for _, name := range p.processOrder {
		if err := p.processMap[name].Init(); err != nil {
			return fmt.Errorf("init %s: %w", name, err)
		}
	}
	return nil
}
