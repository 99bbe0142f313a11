// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. Leaves carry hex digests and each parent is the
// digest of its children's hex strings concatenated left to right.
package merkle

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() string
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   string
	hashStrategy func(left string, right string) string
}

// WithHashStrategy is used to change the default pair hash strategy of
// using sha256 when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func(left string, right string) string) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: digest.Pair,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch. A single value produces a tree whose root is that leaf.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	leafs := make([]*Node[T], len(values))
	for i, value := range values {
		leafs[i] = &Node[T]{
			Hash:  value.Hash(),
			Value: value,
			leaf:  true,
			Tree:  t,
		}
	}

	root := leafs[0]
	if len(leafs) > 1 {
		root = buildIntermediate(leafs, t)
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Values())
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. An order of 0 means the proof
// hash comes first in the concatenation, 1 means it comes second.
//
// Given the leaf hash h and proof [p0, p1] with order [1, 0]:
//
//	s1   = sha256(h + p0)
//	root = sha256(p1 + s1)
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof []string
		var order []int64

		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Left == node {
				merkleProof = append(merkleProof, parent.Right.Hash)
				order = append(order, 1) // right leaf, concat second.
			} else {
				merkleProof = append(merkleProof, parent.Left.Hash)
				order = append(order, 0) // left leaf, concat first.
			}
			node = parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify validates the hashes at each level of the tree and returns nil
// if the resulting hash at the root of the tree matches the merkle root.
func (t *Tree[T]) Verify() error {
	if t.Root == nil {
		return errors.New("tree has not been generated")
	}

	if t.MerkleRoot != t.Root.verify() {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if the
// hashes are valid for that data by walking the proof up to the root.
func (t *Tree[T]) VerifyData(data T) error {
	proof, order, err := t.Proof(data)
	if err != nil {
		return err
	}

	if VerifyProof(data.Hash(), proof, order, t.MerkleRoot, t.hashStrategy) {
		return nil
	}

	return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
}

// Values returns a slice of the values stored in the tree in leaf order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, node := range t.Leafs {
		values[i] = node.Value
	}

	return values
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	s := ""

	for _, l := range t.Leafs {
		s += fmt.Sprint(l)
		s += "\n"
	}

	return s
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// VerifyProof recomputes a root from a leaf hash and its proof. It is used
// by clients that only hold a block's merkle root.
func VerifyProof(leaf string, proof []string, order []int64, root string, pair func(left string, right string) string) bool {
	if len(proof) != len(order) {
		return false
	}

	if pair == nil {
		pair = digest.Pair
	}

	h := leaf
	for i, p := range proof {
		switch order[i] {
		case 0:
			h = pair(p, h)
		default:
			h = pair(h, p)
		}
	}

	return h == root
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   string
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() string {
	if n.leaf {
		return n.Value.Hash()
	}

	return n.Tree.hashStrategy(n.Left.verify(), n.Right.verify())
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %v %v", n.leaf, n.dup, n.Hash, n.Value)
}

// =============================================================================

// buildIntermediate constructs the intermediate and root levels of the tree
// for a given layer of nodes. Nodes are paired left to right and an odd node
// out at the end of a layer is paired with itself.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) *Node[T] {
	if len(nl) == 1 {
		return nl[0]
	}

	nodes := make([]*Node[T], 0, (len(nl)+1)/2)
	for i := 0; i < len(nl); i += 2 {
		left, right := nl[i], nl[i]
		if i+1 < len(nl) {
			right = nl[i+1]
		}

		n := Node[T]{
			Left:  left,
			Right: right,
			Hash:  t.hashStrategy(left.Hash, right.Hash),
			Tree:  t,
			dup:   left == right,
		}

		nodes = append(nodes, &n)
		left.Parent = &n
		right.Parent = &n
	}

	return buildIntermediate(nodes, t)
}
