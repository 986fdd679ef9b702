// Package bvh is a median-split bounding volume hierarchy over anything that
// can report a bounding box and answer a ray query.
package bvh

import (
	"errors"
	"math/rand"
	"sort"

	"row-major/lantern/aabox"
	"row-major/lantern/contact"
	"row-major/lantern/ray"
)

var ErrNoElements = errors.New("bvh: no elements to build over")

type Element struct {
	// A handle back into some other storage array.
	Ref int

	// The bounds of this element.
	Bounds aabox.AABox
}

// Node is either a leaf (Lo == Hi == nil) holding exactly one element, or a
// branch whose Bounds is the union of its children's.
type Node struct {
	Bounds aabox.AABox

	Element Element

	LoChild *Node
	HiChild *Node
}

func (n *Node) IsLeaf() bool {
	return n.LoChild == nil
}

type Tree struct {
	Root *Node

	len   int
	depth int
}

// New builds the hierarchy.  At every level the split axis is drawn from rng,
// elements are ordered by box centroid along it, and the list is cut in half.
func New(elements []Element, rng *rand.Rand) (*Tree, error) {
	if len(elements) == 0 {
		return nil, ErrNoElements
	}

	// Sorting reorders in place; keep the caller's slice intact.
	work := make([]Element, len(elements))
	copy(work, elements)

	root, depth := build(work, rng)
	return &Tree{
		Root:  root,
		len:   len(elements),
		depth: depth,
	}, nil
}

func build(elements []Element, rng *rand.Rand) (*Node, int) {
	if len(elements) == 1 {
		return &Node{
			Bounds:  elements[0].Bounds,
			Element: elements[0],
		}, 1
	}

	axis := 2
	switch x := rng.Float64(); {
	case x < 0.33:
		axis = 0
	case x < 0.66:
		axis = 1
	}

	sort.Slice(elements, func(i, j int) bool {
		return elements[i].Bounds.Centroid2(axis) < elements[j].Bounds.Centroid2(axis)
	})

	mid := len(elements) / 2
	lo, loDepth := build(elements[:mid], rng)
	hi, hiDepth := build(elements[mid:], rng)

	depth := loDepth
	if hiDepth > depth {
		depth = hiDepth
	}

	return &Node{
		Bounds:  aabox.MinContainingAABox(lo.Bounds, hi.Bounds),
		LoChild: lo,
		HiChild: hi,
	}, depth + 1
}

// Len is the number of elements in the tree.
func (t *Tree) Len() int {
	return t.len
}

// Depth is the number of nodes on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	return t.depth
}

// LeafFunc answers a ray query against a single element.
type LeafFunc func(ref int, query ray.RaySegment) contact.Contact

// Intersect returns the nearest contact reported by any leaf whose box the
// query passes through, or contact.ContactNaN().
func (t *Tree) Intersect(query ray.RaySegment, leaf LeafFunc) contact.Contact {
	return t.Root.intersect(query, leaf)
}

func (n *Node) intersect(query ray.RaySegment, leaf LeafFunc) contact.Contact {
	if aabox.RayTestAABox(query, n.Bounds).IsNaN() {
		return contact.ContactNaN()
	}

	if n.IsLeaf() {
		return leaf(n.Element.Ref, query)
	}

	lo := n.LoChild.intersect(query, leaf)
	hi := n.HiChild.intersect(query, leaf)
	return contact.Nearer(lo, hi)
}

// Walk visits every node, parents before children.
func (t *Tree) Walk(visit func(n *Node)) {
	workStack := []*Node{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		visit(cur)

		if !cur.IsLeaf() {
			workStack = append(workStack, cur.HiChild, cur.LoChild)
		}
	}
}
