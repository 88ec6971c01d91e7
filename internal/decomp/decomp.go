// Package decomp implements the tree decomposition data type of spec
// §4.4: a tree of bags, each carrying a vertex set, together with the
// width/bag-count bookkeeping and the three-property validator every
// downstream solver relies on for correctness checks.
//
// The tree shape and its reflect.DeepEqual-flavoured traversal helpers
// are generalized from the teacher's lib.Node (a hypergraph decomposition
// node keyed by Bag/Cover/Children), stripped of the hypergraph-specific
// Up/Low/Cover fields and given an explicit numeric Bag identity instead
// of relying on structural equality for child lookups.
package decomp

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// ErrInvalidDecomposition is returned by Validate when any of the three
// defining properties of a tree decomposition fails.
var ErrInvalidDecomposition = errors.New("decomp: invalid tree decomposition")

// Bag is one node of a tree decomposition: an id and the vertex set it
// carries.
type Bag struct {
	ID       int
	Vertices map[int]struct{}
	Children []*Bag
}

// NewBag returns a bag with the given id and vertex set.
func NewBag(id int, vertices ...int) *Bag {
	b := &Bag{ID: id, Vertices: make(map[int]struct{}, len(vertices))}
	for _, v := range vertices {
		b.Vertices[v] = struct{}{}
	}
	return b
}

// Has reports whether v is in this bag.
func (b *Bag) Has(v int) bool {
	_, ok := b.Vertices[v]
	return ok
}

// SortedVertices returns the bag's vertex set in ascending order.
func (b *Bag) SortedVertices() []int {
	out := make([]int, 0, len(b.Vertices))
	for v := range b.Vertices {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func (b *Bag) String() string {
	return fmt.Sprintf("bag(%d){%v}", b.ID, b.SortedVertices())
}

// AddChild attaches child as a direct child of b.
func (b *Bag) AddChild(child *Bag) {
	b.Children = append(b.Children, child)
}

// TreeDecomposition is a rooted tree of bags. It does not hold the graph
// it decomposes; Validate takes that graph as a parameter.
type TreeDecomposition struct {
	Root  *Bag
	nextID int
}

// New returns a tree decomposition consisting of a single bag.
func New(vertices ...int) *TreeDecomposition {
	return &TreeDecomposition{Root: NewBag(0, vertices...), nextID: 1}
}

// FromRoot wraps an already-built bag tree; nextID is seeded above the
// largest id found in the tree so further allocations stay unique.
func FromRoot(root *Bag) *TreeDecomposition {
	max := -1
	Walk(root, func(b *Bag) { if b.ID > max { max = b.ID } })
	return &TreeDecomposition{Root: root, nextID: max + 1}
}

// NewBag allocates a bag with a fresh id, owned by this decomposition.
func (td *TreeDecomposition) NewBag(vertices ...int) *Bag {
	b := NewBag(td.nextID, vertices...)
	td.nextID++
	return b
}

// Walk visits every bag in the tree in pre-order.
func Walk(root *Bag, visit func(*Bag)) {
	if root == nil {
		return
	}
	visit(root)
	for _, c := range root.Children {
		Walk(c, visit)
	}
}

// Bags returns every bag in the tree, pre-order.
func (td *TreeDecomposition) Bags() []*Bag {
	var out []*Bag
	Walk(td.Root, func(b *Bag) { out = append(out, b) })
	return out
}

// Width returns max(|bag|) - 1 over the whole tree, or -1 for an empty tree.
func (td *TreeDecomposition) Width() int {
	w := -1
	for _, b := range td.Bags() {
		if len(b.Vertices)-1 > w {
			w = len(b.Vertices) - 1
		}
	}
	return w
}

// BagCount returns the number of bags in the tree.
func (td *TreeDecomposition) BagCount() int {
	return len(td.Bags())
}

// parentOf finds the parent of target within root, nil if target is the
// root or not found.
func parentOf(root, target *Bag) *Bag {
	for _, c := range root.Children {
		if c == target {
			return root
		}
		if p := parentOf(c, target); p != nil {
			return p
		}
	}
	return nil
}

// Reroot makes newRoot the root of the tree, reversing parent/child
// pointers along the path from the old root, in the manner of the
// teacher's lib.Node.Reroot (which walks the ancestor chain and flips
// Children membership at each step).
func (td *TreeDecomposition) Reroot(newRoot *Bag) {
	if newRoot == td.Root {
		return
	}
	var chain []*Bag
	cur := newRoot
	for cur != td.Root {
		p := parentOf(td.Root, cur)
		if p == nil {
			return // newRoot not found in this tree
		}
		chain = append(chain, p)
		cur = p
	}
	// chain is [parent, grandparent, ..., oldRoot]; flip each edge.
	for i := 0; i < len(chain); i++ {
		parent := chain[i]
		var child *Bag
		if i == 0 {
			child = newRoot
		} else {
			child = chain[i-1]
		}
		parent.Children = removeChild(parent.Children, child)
		child.Children = append(child.Children, parent)
	}
	td.Root = newRoot
}

func removeChild(children []*Bag, target *Bag) []*Bag {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the three defining properties of a tree decomposition
// of g: vertex coverage, edge coverage, and the connected-subtree
// (running intersection) property.
func Validate(td *TreeDecomposition, g *graphstore.Graph) error {
	bags := td.Bags()

	covered := make(map[int]struct{})
	for _, b := range bags {
		for v := range b.Vertices {
			covered[v] = struct{}{}
		}
	}
	for _, v := range g.Vertices() {
		if _, ok := covered[v]; !ok {
			return fmt.Errorf("%w: vertex %d appears in no bag", ErrInvalidDecomposition, v)
		}
	}

	for _, v := range g.Vertices() {
		for _, u := range g.Neighbors(v) {
			if u < v {
				continue
			}
			if !anyBagContainsBoth(bags, v, u) {
				return fmt.Errorf("%w: edge {%d,%d} covered by no bag", ErrInvalidDecomposition, v, u)
			}
		}
	}

	for _, v := range g.Vertices() {
		occ := bagsContaining(bags, v)
		if len(occ) <= 1 {
			continue
		}
		if !connectedInTree(td.Root, occ) {
			return fmt.Errorf("%w: occurrences of vertex %d do not form a connected subtree", ErrInvalidDecomposition, v)
		}
	}
	return nil
}

func anyBagContainsBoth(bags []*Bag, u, v int) bool {
	for _, b := range bags {
		if b.Has(u) && b.Has(v) {
			return true
		}
	}
	return false
}

func bagsContaining(bags []*Bag, v int) map[*Bag]struct{} {
	out := make(map[*Bag]struct{})
	for _, b := range bags {
		if b.Has(v) {
			out[b] = struct{}{}
		}
	}
	return out
}

// connectedInTree reports whether the bags in occ form a connected
// subtree of the tree rooted at root.
func connectedInTree(root *Bag, occ map[*Bag]struct{}) bool {
	// The occ bags form a connected subtree exactly when one of them
	// (the subtree's top) has a parent outside occ.
	count := 0
	roots := 0
	var touch func(b *Bag, parentIn bool) bool // true if b or a descendant is in occ
	var ok = true
	touch = func(b *Bag, parentIn bool) bool {
		self := false
		if _, in := occ[b]; in {
			self = true
			count++
			if !parentIn {
				roots++
			}
		}
		childHits := 0
		for _, c := range b.Children {
			if touch(c, self) {
				childHits++
			}
		}
		present := self || childHits > 0
		if present && childHits > 0 && !self {
			// multiple disjoint occ-subtrees merging above a non-occ bag
			if childHits > 1 {
				ok = false
			}
		}
		return present
	}
	touch(root, false)
	return ok && count == len(occ) && roots == 1
}

// ConnectComponents glues independently built sub-decompositions into a
// single tree by attaching each given root directly as a child of base;
// it does not check that the parts share vertices with base.
func ConnectComponents(base *Bag, parts ...*Bag) {
	for _, p := range parts {
		base.AddChild(p)
	}
}
