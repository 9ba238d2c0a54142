package reactive

import "fmt"

// Handle addresses a slot in the runtime's arena. The generation guards
// against stale handles once a slot has been released and reused.
// The zero Handle refers to nothing.
type Handle struct {
	idx uint32
	gen uint32
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// String returns a short description used in logs and error details.
func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("#%d.%d", h.idx, h.gen)
}

type nodeKind uint8

const (
	kindCell nodeKind = iota + 1
	kindDerived
	kindEffect
)

func (k nodeKind) String() string {
	switch k {
	case kindCell:
		return "cell"
	case kindDerived:
		return "derived"
	case kindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// reaction is implemented by Derived and Effect: anything that can sit on the
// dependent side of an edge.
type reaction interface {
	// invalidate is called when one of the reaction's sources changed.
	invalidate()
	label() string
}

// releaser is implemented by cells, which give their slot back once no
// reaction depends on them.
type releaser interface {
	release()
}

type node struct {
	gen  uint32
	live bool
	kind nodeKind

	// sources are the nodes this reaction read during its last pass.
	sources []Handle

	// prev is the previous pass's sources while a pass is open.
	prev    []Handle
	passing bool

	// dependents are the reactions that read this node.
	dependents []Handle

	// computing marks a derived value currently on the computation stack.
	computing bool

	target reaction
	cell   releaser
}

// graph is the arena of reactive nodes with adjacency lists.
// Every edge is stored twice: src.dependents holds dst and dst.sources holds src.
type graph struct {
	nodes []*node
	free  []uint32

	cells     int
	reactions int
}

func (g *graph) alloc(kind nodeKind) (Handle, *node) {
	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.nodes))
		g.nodes = append(g.nodes, &node{})
	}

	n := g.nodes[idx]
	n.gen++
	if n.gen == 0 {
		n.gen = 1
	}
	n.live = true
	n.kind = kind

	if kind == kindCell {
		g.cells++
	} else {
		g.reactions++
	}
	return Handle{idx: idx, gen: n.gen}, n
}

// get returns the live node for h, or nil if h is zero or stale.
func (g *graph) get(h Handle) *node {
	if h.IsZero() || int(h.idx) >= len(g.nodes) {
		return nil
	}
	n := g.nodes[h.idx]
	if !n.live || n.gen != h.gen {
		return nil
	}
	return n
}

// release clears a node's slot. Callers drop its edges first.
func (g *graph) release(h Handle) {
	n := g.get(h)
	if n == nil {
		return
	}
	if n.kind == kindCell {
		g.cells--
	} else {
		g.reactions--
	}
	gen := n.gen
	*n = node{gen: gen}
	g.free = append(g.free, h.idx)
}

// beginPass snapshots h's sources so the coming pass starts empty.
func (g *graph) beginPass(h Handle) {
	n := g.get(h)
	if n == nil {
		return
	}
	n.prev = n.sources
	n.sources = nil
	n.passing = true
}

// track records that reaction dst read src during the open pass.
func (g *graph) track(dst, src Handle) {
	if dst == src {
		return
	}
	d := g.get(dst)
	s := g.get(src)
	if d == nil || s == nil {
		return
	}
	if containsHandle(d.sources, src) {
		return
	}
	d.sources = append(d.sources, src)
	if !containsHandle(s.dependents, dst) {
		s.dependents = append(s.dependents, dst)
	}
}

// endPass drops the reverse edges of sources that were not read again.
func (g *graph) endPass(h Handle) {
	n := g.get(h)
	if n == nil || !n.passing {
		return
	}
	prev := n.prev
	n.prev = nil
	n.passing = false
	for _, src := range prev {
		if !containsHandle(n.sources, src) {
			g.dropDependent(src, h)
		}
	}
}

// detach removes every edge touching h in both directions.
func (g *graph) detach(h Handle) {
	n := g.get(h)
	if n == nil {
		return
	}

	sources := n.sources
	if n.passing {
		sources = append(sources, n.prev...)
	}
	n.sources, n.prev, n.passing = nil, nil, false
	for _, src := range sources {
		g.dropDependent(src, h)
	}

	dependents := n.dependents
	n.dependents = nil
	for _, dep := range dependents {
		if d := g.get(dep); d != nil {
			d.sources = removeHandle(d.sources, h)
			d.prev = removeHandle(d.prev, h)
		}
	}
}

// dropDependent removes dst from src.dependents, releasing src if it is a
// cell nobody depends on anymore.
func (g *graph) dropDependent(src, dst Handle) {
	s := g.get(src)
	if s == nil {
		return
	}
	s.dependents = removeHandle(s.dependents, dst)
	if s.kind == kindCell && len(s.dependents) == 0 {
		c := s.cell
		g.release(src)
		if c != nil {
			c.release()
		}
	}
}

// dependentsOf returns a copy of h's dependents, safe to iterate while the
// graph changes.
func (g *graph) dependentsOf(h Handle) []Handle {
	n := g.get(h)
	if n == nil || len(n.dependents) == 0 {
		return nil
	}
	out := make([]Handle, len(n.dependents))
	copy(out, n.dependents)
	return out
}

func containsHandle(hs []Handle, h Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

// removeHandle removes h preserving order, so notification order stays
// the order in which dependents subscribed.
func removeHandle(hs []Handle, h Handle) []Handle {
	for i, x := range hs {
		if x == h {
			copy(hs[i:], hs[i+1:])
			hs[len(hs)-1] = Handle{}
			return hs[:len(hs)-1]
		}
	}
	return hs
}
