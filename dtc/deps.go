package dtc

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

type deviceNode struct {
	name string
	id   int64
}

func (n *deviceNode) ID() int64 {
	return n.id
}

func (n *deviceNode) String() string {
	return n.name
}

type depGraph struct {
	graph *multi.DirectedGraph
	nodes map[string]*deviceNode
}

func (g *depGraph) node(name string) *deviceNode {
	if node, ok := g.nodes[name]; ok {
		return node
	}

	hasher := fnv.New64()
	hasher.Write([]byte(name))
	node := &deviceNode{
		name: name,
		id:   int64(hasher.Sum64()),
	}
	g.nodes[name] = node
	return node
}

// checkDeps verifies the device references of the table. A cycle is an
// error. A reference to a device outside the table, or to a device that is
// initialized later than the device referring to it, only yields a warning
// since the firmware resolves names at runtime.
func checkDeps(entries []entry) (warnings []string, err error) {
	g := depGraph{
		graph: multi.NewDirectedGraph(),
		nodes: map[string]*deviceNode{},
	}

	position := map[string]int{}
	for i, e := range entries {
		position[e.name] = i
	}

	for i, e := range entries {
		for _, ref := range e.refs {
			if ref[1] == e.name {
				return nil, errors.Annotatef(ErrDependencyCycle, "%s refers to itself", e.name)
			}

			dep, ok := position[ref[1]]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s: %s %q is not in the device table", e.name, ref[0], ref[1]))
				continue
			}
			if dep > i {
				warnings = append(warnings, fmt.Sprintf("%s: initialized before %s %q", e.name, ref[0], ref[1]))
			}

			// Dependencies point at their users.
			g.graph.SetLine(g.graph.NewLine(g.node(ref[1]), g.node(e.name)))
		}
	}

	if _, sortErr := topo.Sort(g.graph); sortErr != nil {
		var cycles []string
		if unorderable, ok := sortErr.(topo.Unorderable); ok {
			for _, component := range unorderable {
				names := make([]string, len(component))
				for i, node := range component {
					names[i] = node.(*deviceNode).name
				}
				slices.Sort(names)
				cycles = append(cycles, strings.Join(names, ", "))
			}
		} else {
			cycles = append(cycles, sortErr.Error())
		}
		slices.Sort(cycles)
		return warnings, errors.Annotatef(ErrDependencyCycle, "%s", strings.Join(cycles, "; "))
	}

	return warnings, nil
}
