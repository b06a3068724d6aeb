package pipegraph

import (
	"fmt"
	"math/big"
	"slices"
)

// checkPortFrequencies assigns every constrained process a core
// frequency such that, for each connection with both port frequencies
// declared, upstream core times upstream port rate equals downstream
// core times downstream port rate. Connections missing a port
// frequency are skipped with a warning and leave their processes
// unconstrained. Finally all assignments are scaled by the LCM of
// their denominators so relative ratios survive with integral
// denominators.
func (p *Pipeline) checkPortFrequencies() error {
	baseFreq := big.NewRat(1, 1)

	if len(p.processMap) == 1 {
		p.processMap[p.processOrder[0]].SetCoreFrequency(baseFreq)
		return nil
	}

	coreFreqs := make(map[string]*big.Rat)

	queue := slices.Clone(p.connections)

	// stalled counts consecutive connections requeued without
	// progress. A full sweep with no progress means the remaining
	// connections form a component disjoint from everything assigned
	// so far; seed it and continue.
	stalled := 0

	for len(queue) > 0 {
		conn := queue[0]
		queue = queue[1:]

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

		if upInfo.Frequency == nil || downInfo.Frequency == nil {
			p.log.Info("connection frequency cannot be validated",
				"connection", conn.String())
			stalled = 0
			continue
		}

		upCore, haveUpstream := coreFreqs[conn.Upstream.Process]
		downCore, haveDownstream := coreFreqs[conn.Downstream.Process]

		if !haveUpstream && !haveDownstream {
			if len(coreFreqs) == 0 || stalled >= len(queue)+1 {
				// Seed this component at 1-to-1 on the upstream side.
				upCore = new(big.Rat).Set(baseFreq)
				coreFreqs[conn.Upstream.Process] = upCore
				haveUpstream = true
			}
		}

		switch {
		case haveUpstream && haveDownstream:
			// edge rate = upstream core * upstream port rate; the
			// downstream core must consume it at exactly its port rate.
			edgeFreq := new(big.Rat).Mul(upCore, upInfo.Frequency)
			expect := new(big.Rat).Quo(edgeFreq, downInfo.Frequency)
			if downCore.Cmp(expect) != 0 {
				return fmt.Errorf("%w: %s (upstream core %s, downstream core %s, expected %s)",
					ErrFrequencyMismatch, conn, upCore.RatString(), downCore.RatString(), expect.RatString())
			}
			stalled = 0
		case haveUpstream:
			edgeFreq := new(big.Rat).Mul(upCore, upInfo.Frequency)
			coreFreqs[conn.Downstream.Process] = new(big.Rat).Quo(edgeFreq, downInfo.Frequency)
			stalled = 0
		case haveDownstream:
			edgeFreq := new(big.Rat).Mul(downCore, downInfo.Frequency)
			coreFreqs[conn.Upstream.Process] = new(big.Rat).Quo(edgeFreq, upInfo.Frequency)
			stalled = 0
		default:
			// Not reachable from the assigned component yet.
			queue = append(queue, conn)
			stalled++
		}
	}

	// Scale by the LCM of all denominators, preserving ratios.
	denomLCM := big.NewInt(1)
	for _, freq := range coreFreqs {
		denomLCM = lcm(denomLCM, freq.Denom())
	}
	scale := new(big.Rat).SetInt(denomLCM)

	names := make([]string, 0, len(coreFreqs))
	for name := range coreFreqs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		core := new(big.Rat).Mul(coreFreqs[name], scale)
		p.processMap[name].SetCoreFrequency(core)
		p.log.V(1).Info("assigned core frequency", "process", name, "frequency", core.RatString())
	}

	return nil
}

func lcm(a, b *big.Int) *big.Int {
	gcd := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Div(a, gcd)
	return out.Mul(out, b)
}
