package diagram

import (
	"math/bits"
)

// Code is an upper-triangle connection code read column by column:
// pairs (0,1), (0,2), (1,2), (0,3), ... with the first pair in the most significant used bit.
// Of all relabellings of a graph, the canonical one has the largest Code.
type Code uint64

func pairPos(i, j int) int {
	return j*(j-1)/2 + i
}

func pairBit(n, i, j int) Code {
	return Code(1) << uint(NumPairs(n)-1-pairPos(i, j))
}

// CodeOf returns the connection code of the given adjacency bitmasks.
func CodeOf(n int, adj []uint16) Code {
	var code Code
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			code <<= 1
			if adj[j]>>uint(i)&1 != 0 {
				code |= 1
			}
		}
	}
	return code
}

// Adjacency returns per-point neighbor bitmasks.
func (c Code) Adjacency(n int) []uint16 {
	adj := make([]uint16, n)
	c.fillAdjacency(n, adj)
	return adj
}

func (c Code) fillAdjacency(n int, adj []uint16) {
	for i := range adj[:n] {
		adj[i] = 0
	}
	pos := NumPairs(n)
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			pos--
			if c>>uint(pos)&1 != 0 {
				adj[i] |= 1 << uint(j)
				adj[j] |= 1 << uint(i)
			}
		}
	}
}

// Bonds lists the set pairs of this code in column order.
func (c Code) Bonds(n int) []Bond {
	bonds := make([]Bond, 0, bits.OnesCount64(uint64(c)))
	pos := NumPairs(n)
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			pos--
			if c>>uint(pos)&1 != 0 {
				bonds = append(bonds, Bond{i, j})
			}
		}
	}
	return bonds
}

// NumBonds returns the number of set pairs.
func (c Code) NumBonds() int {
	return bits.OnesCount64(uint64(c))
}

// Complement returns the code of all pairs not set in c.
func (c Code) Complement(n int) Code {
	full := Code(1)<<uint(NumPairs(n)) - 1
	return full &^ c
}

// Relabel returns the code of the graph where point v is renamed perm[v].
func (c Code) Relabel(n int, perm []int) Code {
	var out Code
	for _, b := range c.Bonds(n) {
		i, j := perm[b.A], perm[b.B]
		if i > j {
			i, j = j, i
		}
		out |= pairBit(n, i, j)
	}
	return out
}
