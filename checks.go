package pipegraph

import (
	"fmt"
	"slices"
)

// checkForRequiredPorts walks the pipeline from an arbitrary process,
// following connections in both directions, and verifies that every
// visited process has its required ports wired: an input edge for
// required inputs, at least one output edge for required outputs. Any
// process the walk never reaches makes the pipeline disconnected.
func (p *Pipeline) checkForRequiredPorts() error {
	visited := make(map[string]bool, len(p.processMap))
	queue := []string{p.processOrder[0]}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if visited[name] {
			continue
		}
		visited[name] = true

		proc := p.processMap[name]

		for _, port := range proc.InputPorts() {
			info, err := proc.InputPortInfo(port)
			if err != nil {
				return err
			}
			if info.Flags.Has(FlagRequired) && p.inputEdgeFor(name, port) == nil {
				return fmt.Errorf("%w: input %s", ErrMissingConnection, Addr(name, port))
			}
		}

		for _, port := range proc.OutputPorts() {
			info, err := proc.OutputPortInfo(port)
			if err != nil {
				return err
			}
			if info.Flags.Has(FlagRequired) && len(p.outputEdgesFor(name, port)) == 0 {
				return fmt.Errorf("%w: output %s", ErrMissingConnection, Addr(name, port))
			}
		}

		queue = append(queue, p.upstreamNamesFor(name)...)
		queue = append(queue, p.downstreamNamesFor(name)...)
	}

	if len(visited) != len(p.processMap) {
		var orphans []string
		for name := range p.processMap {
			if !visited[name] {
				orphans = append(orphans, name)
			}
		}
		slices.Sort(orphans)
		return fmt.Errorf("%w: %v", ErrOrphanedProcesses, orphans)
	}

	return nil
}

// checkForDAG topologically sorts the process graph. Connections into
// ports flagged FlagInputNoDep carry data at runtime but no ordering
// dependency, so they are left out; feedback loops annotated that way
// are legal.
func (p *Pipeline) checkForDAG() error {
	children := make(map[string][]string, len(p.processMap))
	inDegree := make(map[string]int, len(p.processMap))
	for name := range p.processMap {
		inDegree[name] = 0
	}

	for name, proc := range p.processMap {
		for _, port := range proc.InputPorts() {
			sender, ok := p.senderFor(name, port)
			if !ok {
				continue
			}

			info, err := proc.InputPortInfo(port)
			if err != nil {
				return err
			}
			if info.Flags.Has(FlagInputNoDep) {
				continue
			}

			children[sender.Process] = append(children[sender.Process], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm with a sorted queue for determinism.
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	slices.Sort(queue)

	processed := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		processed++

		next := slices.Clone(children[name])
		slices.Sort(next)
		for _, child := range next {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = insertSorted(queue, child)
			}
		}
	}

	if processed != len(p.processMap) {
		return ErrNotADAG
	}

	return nil
}

// insertSorted inserts an item into a sorted slice, keeping it sorted.
func insertSorted(s []string, item string) []string {
	idx, _ := slices.BinarySearch(s, item)
	return slices.Insert(s, idx, item)
}
