// Package pipegraph assembles dataflow pipelines: processes with
// named, typed ports, wired together by connections and verified into
// a cycle-free, type-consistent graph with one runtime edge per
// resolved connection.
//
// # Overview
//
// A pipeline has two phases:
//
//  1. Building: register processes and clusters with AddProcess,
//     declare connections with Connect, retract them with Disconnect.
//  2. Setup: one call to Setup expands clusters, resolves deferred
//     port types, materializes edges, and runs the structural and
//     frequency checks. After a successful setup the graph is frozen
//     and queryable.
//
// Port types may be deferred. A data-dependent output is typed when
// its process is configured; a flow-dependent port is a type variable
// resolved by pinning (copying a concrete type from the other end of a
// connection) and propagation (spreading resolved types across the
// flow-dependent subgraph breadth-first). Setup rejects pipelines it
// cannot fully type.
//
// Clusters are composite processes. Their children register
// individually, and connections to cluster ports rewrite to the inner
// ports behind the cluster's input and output mappings before any type
// checking happens.
//
// Edges carry per-connection configuration merged from the pipeline's
// _edge, _edge_by_type/<type> and _edge_by_conn/<process>.<port>
// configuration blocks.
//
// # Basic Usage
//
//	conf := config.FromMap(map[string]any{})
//	pipe := pipegraph.MustNew(conf)
//
//	src := pipegraph.NewBase("src")
//	src.DeclareOutputPort("out", pipegraph.PortInfo{
//		Type: pipegraph.ConcreteType("int"),
//	})
//
//	snk := pipegraph.NewBase("snk")
//	snk.DeclareInputPort("in", pipegraph.PortInfo{
//		Type: pipegraph.ConcreteType("int"),
//	})
//
//	_ = pipe.AddProcess(src)
//	_ = pipe.AddProcess(snk)
//	_ = pipe.Connect("src", "out", "snk", "in")
//
//	if err := pipe.Setup(); err != nil {
//		// the pipeline is frozen; Reset returns it to building
//	}
//
// The pipeline is not safe for concurrent use. Assembly is
// single-threaded; a scheduler that executes the finished graph is a
// separate concern and not part of this package.
package pipegraph
