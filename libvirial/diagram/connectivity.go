package diagram

import "math/bits"

func allPoints(n int) uint16 {
	return uint16(1)<<uint(n) - 1
}

// connected reports if the points in mask form one component using only bonds within mask.
func connected(adj []uint16, mask uint16) bool {
	if mask == 0 {
		return true
	}
	seen := mask & -mask
	frontier := seen
	for frontier != 0 {
		v := bits.TrailingZeros16(frontier)
		frontier &^= 1 << uint(v)
		next := adj[v] & mask &^ seen
		seen |= next
		frontier |= next
	}
	return seen == mask
}

// hasArticulationPoint reports if removing any single point disconnects the rest.
func hasArticulationPoint(adj []uint16, n int) bool {
	all := allPoints(n)
	for v := 0; v < n; v++ {
		if !connected(adj, all&^(1<<uint(v))) {
			return true
		}
	}
	return false
}

// hasArticulationPair reports if removing some pair of points disconnects the rest.
func hasArticulationPair(adj []uint16, n int) bool {
	all := allPoints(n)
	for u := 1; u < n; u++ {
		for v := 0; v < u; v++ {
			if !connected(adj, all&^(1<<uint(u)|1<<uint(v))) {
				return true
			}
		}
	}
	return false
}

// reaches reports if point to is reachable from point from using only points in mask.
func reaches(adj []uint16, mask uint16, from, to int) bool {
	seen := uint16(1) << uint(from)
	frontier := seen
	for frontier != 0 {
		v := bits.TrailingZeros16(frontier)
		frontier &^= 1 << uint(v)
		next := adj[v] & mask &^ seen
		seen |= next
		frontier |= next
	}
	return seen&(1<<uint(to)) != 0
}

// hasNodalPoint reports if some field point lies on every path between root points 0 and 1.
func hasNodalPoint(adj []uint16, n int) bool {
	all := allPoints(n)
	for v := 2; v < n; v++ {
		if !reaches(adj, all&^(1<<uint(v)), 0, 1) {
			return true
		}
	}
	return false
}

// accepts reports if a graph on opts.N points belongs to the class selected by opts.
func (opts *GenerateOpts) accepts(adj []uint16) bool {
	n := opts.N
	if !connected(adj, allPoints(n)) {
		return false
	}
	if opts.ExcludeArticulationPoints && hasArticulationPoint(adj, n) {
		return false
	}
	if opts.ExcludeArticulationPairs && hasArticulationPair(adj, n) {
		return false
	}
	return true
}
