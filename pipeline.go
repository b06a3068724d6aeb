package pipegraph

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/pipegraph/pipegraph/config"
)

// Pipeline assembles processes and the connections between their ports
// into a verified dataflow graph. Structural mutations accumulate
// while the pipeline is building; Setup drives the assembly engine and
// freezes the result. Pipeline is not safe for concurrent use.
type Pipeline struct {
	log  logr.Logger
	conf *config.Config

	// plannedConnections is the user-visible connection list; it
	// survives Reset and is replayed verbatim.
	plannedConnections []Connection

	// connections holds fully resolved process-to-process connections;
	// edges is keyed by connection index.
	connections []Connection
	edges       map[int]*Edge

	processMap       map[string]Process
	clusterMap       map[string]ProcessCluster
	processParentMap map[string]string
	processOrder     []string

	pending pendingSet

	setup           bool
	setupInProgress bool
	setupSuccessful bool
	running         bool
}

// pendingSet holds the connections deferred during building, consumed
// and drained by the setup phases. Reset replaces it wholesale.
type pendingSet struct {
	dataDep  []Connection
	cluster  []clusterConnection
	untyped  []Connection
	pinnings []typePinning
}

// clusterSide records which end of a deferred connection names a
// cluster.
type clusterSide int

const (
	clusterUpstream clusterSide = iota
	clusterDownstream
)

type clusterConnection struct {
	conn Connection
	side clusterSide
}

// pinDirection records which end of a pinned connection is
// flow-dependent and therefore receives the other end's type.
type pinDirection int

const (
	pushUpstream pinDirection = iota
	pushDownstream
)

type typePinning struct {
	conn Connection
	dir  pinDirection
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogr sets the logger used during assembly.
var WithLogr = func(log logr.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates an empty pipeline over the given configuration tree.
func New(conf *config.Config, opts ...Option) (*Pipeline, error) {
	if conf == nil {
		return nil, ErrNullPipelineConfig
	}
	p := &Pipeline{
		log:              logr.Discard(),
		conf:             conf,
		edges:            make(map[int]*Edge),
		processMap:       make(map[string]Process),
		clusterMap:       make(map[string]ProcessCluster),
		processParentMap: make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(conf *config.Config, opts ...Option) *Pipeline {
	p, err := New(conf, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// AddProcess registers a process or cluster. Clusters flatten: every
// child registers under its own name with the cluster recorded as its
// parent, and the cluster's internal connections replay through
// Connect so the usual checks apply.
func (p *Pipeline) AddProcess(proc Process) error {
	if proc == nil {
		return ErrNullProcess
	}
	if p.setup {
		return fmt.Errorf("%w: %s", ErrAddAfterSetup, proc.Name())
	}
	return p.addProcess(proc, "")
}

func (p *Pipeline) addProcess(proc Process, parent string) error {
	name := proc.Name()
	if name == "" {
		return fmt.Errorf("%w: process has an empty name", ErrNullProcess)
	}
	if err := p.checkDuplicateName(name); err != nil {
		return err
	}

	if cluster, ok := proc.(ProcessCluster); ok {
		p.clusterMap[name] = cluster
		p.processParentMap[name] = parent

		for _, child := range cluster.Processes() {
			if err := p.addProcess(child, name); err != nil {
				return err
			}
		}

		for _, conn := range cluster.InternalConnections() {
			err := p.Connect(conn.Upstream.Process, conn.Upstream.Port,
				conn.Downstream.Process, conn.Downstream.Port)
			if err != nil {
				return err
			}
		}

		return nil
	}

	p.processMap[name] = proc
	p.processParentMap[name] = parent
	p.processOrder = append(p.processOrder, name)

	return nil
}

func (p *Pipeline) checkDuplicateName(name string) error {
	if _, ok := p.processMap[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if _, ok := p.clusterMap[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	return nil
}

// RemoveProcess removes a process or cluster. Removing a cluster
// removes its children recursively. Every connection mentioning the
// name is purged from the planned and pending lists.
func (p *Pipeline) RemoveProcess(name string) error {
	if p.setup {
		return fmt.Errorf("%w: %s", ErrRemoveAfterSetup, name)
	}

	if cluster, ok := p.clusterMap[name]; ok {
		var err error
		for _, child := range cluster.Processes() {
			err = multierr.Append(err, p.RemoveProcess(child.Name()))
		}
		delete(p.clusterMap, name)
		delete(p.processParentMap, name)
		p.forgetProcess(name)
		return err
	}

	if _, ok := p.processMap[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchProcess, name)
	}

	delete(p.processMap, name)
	delete(p.processParentMap, name)
	p.processOrder = slices.DeleteFunc(p.processOrder, func(n string) bool {
		return n == name
	})
	p.forgetProcess(name)

	return nil
}

// forgetProcess drops every planned, resolved and pending connection
// touching the named process.
func (p *Pipeline) forgetProcess(name string) {
	mentions := func(c Connection) bool { return c.mentions(name) }

	p.plannedConnections = slices.DeleteFunc(p.plannedConnections, mentions)
	p.connections = slices.DeleteFunc(p.connections, mentions)
	p.pending.dataDep = slices.DeleteFunc(p.pending.dataDep, mentions)
	p.pending.untyped = slices.DeleteFunc(p.pending.untyped, mentions)
	p.pending.cluster = slices.DeleteFunc(p.pending.cluster, func(cc clusterConnection) bool {
		return cc.conn.mentions(name)
	})
	p.pending.pinnings = slices.DeleteFunc(p.pending.pinnings, func(tp typePinning) bool {
		return tp.conn.mentions(name)
	})
}

// Connect declares a connection from an output port to an input port.
// During building the connection is recorded verbatim and classified:
// cluster endpoints, data-dependent and flow-dependent types defer to
// setup; concrete types are checked immediately.
func (p *Pipeline) Connect(upstreamName, upstreamPort, downstreamName, downstreamPort string) error {
	conn := Connection{
		Upstream:   Addr(upstreamName, upstreamPort),
		Downstream: Addr(downstreamName, downstreamPort),
	}

	if p.setup && !p.setupInProgress {
		return fmt.Errorf("%w: %s", ErrConnectionAfterSetup, conn)
	}

	if !p.setupInProgress {
		p.plannedConnections = append(p.plannedConnections, conn)
	}

	_, upstreamIsCluster := p.clusterMap[upstreamName]
	_, downstreamIsCluster := p.clusterMap[downstreamName]
	if upstreamIsCluster {
		p.pending.cluster = append(p.pending.cluster, clusterConnection{conn: conn, side: clusterUpstream})
		return nil
	}
	if downstreamIsCluster {
		p.pending.cluster = append(p.pending.cluster, clusterConnection{conn: conn, side: clusterDownstream})
		return nil
	}

	upProc, err := p.processByName(upstreamName)
	if err != nil {
		return err
	}
	downProc, err := p.processByName(downstreamName)
	if err != nil {
		return err
	}

	upInfo, err := upProc.OutputPortInfo(upstreamPort)
	if err != nil {
		return err
	}
	downInfo, err := downProc.InputPortInfo(downstreamPort)
	if err != nil {
		return err
	}

	if !flagsCompatible(upInfo.Flags, downInfo.Flags) {
		return fmt.Errorf("%w: %s", ErrConnectionFlagMismatch, conn)
	}

	switch classifyTypes(upInfo.Type, downInfo.Type) {
	case classDataDependent:
		p.pending.dataDep = append(p.pending.dataDep, conn)
		return nil
	case classUntyped:
		p.pending.untyped = append(p.pending.untyped, conn)
		return nil
	case classPinUpstream:
		p.pending.pinnings = append(p.pending.pinnings, typePinning{conn: conn, dir: pushUpstream})
		return nil
	case classPinDownstream:
		p.pending.pinnings = append(p.pending.pinnings, typePinning{conn: conn, dir: pushDownstream})
		return nil
	case classMismatch:
		return fmt.Errorf("%w: %s (%s vs %s)", ErrConnectionTypeMismatch, conn, upInfo.Type, downInfo.Type)
	}

	p.connections = append(p.connections, conn)

	return nil
}

// Disconnect retracts a connection declared during building. It is the
// only retraction primitive and is silent when the connection does not
// exist.
func (p *Pipeline) Disconnect(upstreamName, upstreamPort, downstreamName, downstreamPort string) error {
	conn := Connection{
		Upstream:   Addr(upstreamName, upstreamPort),
		Downstream: Addr(downstreamName, downstreamPort),
	}

	if p.setup {
		return fmt.Errorf("%w: %s", ErrDisconnectionAfterSetup, conn)
	}

	equals := func(c Connection) bool { return c == conn }

	p.plannedConnections = slices.DeleteFunc(p.plannedConnections, equals)
	p.connections = slices.DeleteFunc(p.connections, equals)
	p.pending.dataDep = slices.DeleteFunc(p.pending.dataDep, equals)
	p.pending.untyped = slices.DeleteFunc(p.pending.untyped, equals)
	p.pending.cluster = slices.DeleteFunc(p.pending.cluster, func(cc clusterConnection) bool {
		return cc.conn == conn
	})
	p.pending.pinnings = slices.DeleteFunc(p.pending.pinnings, func(tp typePinning) bool {
		return tp.conn == conn
	})

	return nil
}

// IsSetup reports whether setup has been attempted.
func (p *Pipeline) IsSetup() bool {
	return p.setup
}

// SetupSuccessful reports whether the last setup completed.
func (p *Pipeline) SetupSuccessful() bool {
	return p.setupSuccessful
}

// Start marks the pipeline running. The pipeline must be set up.
func (p *Pipeline) Start() error {
	if err := p.ensureSetup(); err != nil {
		return err
	}
	p.running = true
	return nil
}

// Stop marks the pipeline stopped.
func (p *Pipeline) Stop() error {
	if !p.running {
		return ErrPipelineNotRunning
	}
	p.running = false
	return nil
}

// Reset returns the pipeline to the building state: every process is
// reset, all resolved structures are cleared, and the planned
// connection list is replayed verbatim.
func (p *Pipeline) Reset() error {
	if p.running {
		return ErrResetRunningPipeline
	}

	p.setup = false
	p.setupSuccessful = false

	var err error
	for _, name := range p.processOrder {
		err = multierr.Append(err, p.processMap[name].Reset())
	}
	if err != nil {
		return fmt.Errorf("reset processes: %w", err)
	}

	p.connections = nil
	p.edges = make(map[int]*Edge)
	p.pending = pendingSet{}

	p.setupInProgress = true
	defer func() { p.setupInProgress = false }()

	for _, conn := range slices.Clone(p.plannedConnections) {
		err := p.Connect(conn.Upstream.Process, conn.Upstream.Port,
			conn.Downstream.Process, conn.Downstream.Port)
		if err != nil {
			return fmt.Errorf("replay %s: %w", conn, err)
		}
	}

	return nil
}

func (p *Pipeline) processByName(name string) (Process, error) {
	proc, ok := p.processMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchProcess, name)
	}
	return proc, nil
}

func (p *Pipeline) ensureSetup() error {
	if !p.setup {
		return ErrPipelineNotSetup
	}
	if !p.setupInProgress && !p.setupSuccessful {
		return ErrPipelineNotReady
	}
	return nil
}
