package pipegraph

import (
	"fmt"
	"strconv"

	"github.com/pipegraph/pipegraph/config"
)

// Configuration blocks recognized under the pipeline root.
const (
	configEdge     = "_edge"
	configEdgeType = "_edge_by_type"
	configEdgeConn = "_edge_by_conn"
)

// makeConnections materializes one edge per resolved connection. Each
// edge's configuration starts from the _edge defaults, merges the
// block keyed by the downstream port type, then the blocks keyed by
// either endpoint; the dependency key is derived from the downstream
// port's flags and frozen.
func (p *Pipeline) makeConnections() error {
	for i, conn := range p.connections {
		upProc, err := p.processByName(conn.Upstream.Process)
		if err != nil {
			return err
		}
		downProc, err := p.processByName(conn.Downstream.Process)
		if err != nil {
			return err
		}

		downInfo, err := downProc.InputPortInfo(conn.Downstream.Port)
		if err != nil {
			return err
		}

		edgeConf, err := p.edgeConfig(conn, downInfo)
		if err != nil {
			return err
		}

		e, err := NewEdge(edgeConf)
		if err != nil {
			return err
		}

		p.edges[i] = e

		if err := upProc.ConnectOutputPort(conn.Upstream.Port, e); err != nil {
			return err
		}
		if err := downProc.ConnectInputPort(conn.Downstream.Port, e); err != nil {
			return err
		}

		e.SetUpstreamProcess(upProc)
		e.SetDownstreamProcess(downProc)
	}

	return nil
}

func (p *Pipeline) edgeConfig(conn Connection, downInfo PortInfo) (*config.Config, error) {
	edgeConf := p.conf.Subblock(configEdge)

	typeConf := p.conf.Subblock(configEdgeType).Subblock(downInfo.Type.String())
	if err := edgeConf.Merge(typeConf); err != nil {
		return nil, fmt.Errorf("edge config for %s: %w", conn, err)
	}

	connConf := p.conf.Subblock(configEdgeConn)
	if err := edgeConf.Merge(connConf.Subblock(conn.Upstream.String())); err != nil {
		return nil, fmt.Errorf("edge config for %s: %w", conn, err)
	}
	if err := edgeConf.Merge(connConf.Subblock(conn.Downstream.String())); err != nil {
		return nil, fmt.Errorf("edge config for %s: %w", conn, err)
	}

	dependency := !downInfo.Flags.Has(FlagInputNoDep)
	if err := edgeConf.SetValue(EdgeConfigDependency, strconv.FormatBool(dependency)); err != nil {
		return nil, fmt.Errorf("edge config for %s: %w", conn, err)
	}
	edgeConf.MarkReadOnly(EdgeConfigDependency)

	return edgeConf, nil
}
