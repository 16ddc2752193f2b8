package delivery

import "math"

const earthRadiusKm = 6371

// Selector picks the best delivery node for a requester. Selection is a pure
// function of the node list and requester location; it performs no I/O.
type Selector struct{}

// Select returns the best active node for the given requester location. With
// no location it falls back to the lowest latency active node. Ties are
// broken by registry order, so identical inputs always yield the same node.
func (Selector) Select(nodes []*Node, loc *Location) (*Node, error) {
	var best *Node

	if loc == nil {
		for _, node := range nodes {
			if !node.IsActive {
				continue
			}

			if best == nil || node.LatencyMs < best.LatencyMs {
				best = node
			}
		}

		if best == nil {
			return nil, ErrNoActiveNodes
		}

		return best, nil
	}

	bestScore := math.Inf(-1)

	for _, node := range nodes {
		if !node.IsActive {
			continue
		}

		if score := nodeScore(node, *loc); score > bestScore {
			best = node
			bestScore = score
		}
	}

	if best == nil {
		return nil, ErrNoActiveNodes
	}

	return best, nil
}

// Rank returns the active nodes ordered from best to worst score for the
// given location. Used by pre-warming to pick the top node subset.
func (s Selector) Rank(nodes []*Node, loc *Location) []*Node {
	ranked := make([]*Node, 0, len(nodes))

	for _, node := range nodes {
		if node.IsActive {
			ranked = append(ranked, node)
		}
	}

	reference := Location{}
	if loc != nil {
		reference = *loc
	}

	// insertion sort keeps registry order for equal scores
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && nodeScore(ranked[j], reference) > nodeScore(ranked[j-1], reference); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	return ranked
}

// nodeScore weighs proximity, latency and load headroom. Each term is capped
// at zero so a distant or overloaded node cannot go negative and dominate.
func nodeScore(node *Node, loc Location) float64 {
	distance := haversineKm(loc, node.Location)

	proximity := math.Max(0, 100-distance/100)
	latency := math.Max(0, 100-node.LatencyMs)
	headroom := math.Max(0, 100-node.Load()*100)

	return 0.4*proximity + 0.3*latency + 0.3*headroom
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
