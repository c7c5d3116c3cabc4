// Package homology computes Vietoris-Rips persistent homology of
// point clouds. H0 features come from a union-find pass over the
// sorted edge filtration; H1 features from Z2 boundary-matrix
// reduction of the triangle columns.
package homology

import (
	"math"
	"sort"

	"topowave/domain/core"
	"topowave/domain/diagram"
)

// VietorisRips computes persistence diagrams of a Euclidean point cloud.
type VietorisRips struct {
	// MaxDimension is the highest homology dimension to compute (0 or 1).
	MaxDimension int
	// MaxEdgeLength caps the filtration. Zero means no cap: the
	// filtration runs to the cloud diameter.
	MaxEdgeLength float64
}

// NewVietorisRips creates a filtration up to the given homology dimension.
func NewVietorisRips(maxDimension int, maxEdgeLength float64) (*VietorisRips, error) {
	if maxDimension < 0 || maxDimension > 1 {
		return nil, core.ErrInvalidHomologyDim
	}
	return &VietorisRips{MaxDimension: maxDimension, MaxEdgeLength: maxEdgeLength}, nil
}

type edge struct {
	a, b   int
	length float64
}

// Diagram computes the persistence diagram of one point cloud. Each
// feature that survives past the filtration cap is reported with an
// infinite death; PostProcess replaces those with a finite value.
func (vr *VietorisRips) Diagram(cloud [][]float64) (diagram.Diagram, error) {
	if len(cloud) == 0 {
		return diagram.Diagram{}, core.ErrEmptyPointCloud
	}

	edges := vr.buildEdges(cloud)
	points := connectedComponentPersistence(len(cloud), edges)

	if vr.MaxDimension >= 1 {
		points = append(points, loopPersistence(cloud, edges)...)
	}

	return diagram.Diagram{Points: points}, nil
}

// buildEdges returns all pairwise edges within the cap, sorted by
// length ascending with index order breaking ties.
func (vr *VietorisRips) buildEdges(cloud [][]float64) []edge {
	n := len(cloud)
	edges := make([]edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(cloud[i], cloud[j])
			if vr.MaxEdgeLength > 0 && d > vr.MaxEdgeLength {
				continue
			}
			edges = append(edges, edge{a: i, b: j, length: d})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].length != edges[j].length {
			return edges[i].length < edges[j].length
		}
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})
	return edges
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// connectedComponentPersistence tracks H0: every point is born at scale
// zero, and each edge that merges two components kills one of them at
// the edge length. The last surviving component is essential.
func connectedComponentPersistence(n int, edges []edge) []diagram.Point {
	uf := newUnionFind(n)
	points := make([]diagram.Point, 0, n)
	for _, e := range edges {
		if uf.union(e.a, e.b) {
			points = append(points, diagram.Point{Birth: 0, Death: e.length, Dimension: 0})
		}
	}
	// One essential class per remaining component.
	for i := 0; i < n; i++ {
		if uf.find(i) == i {
			points = append(points, diagram.Point{Birth: 0, Death: math.Inf(1), Dimension: 0})
		}
	}
	return points
}

// loopPersistence computes H1 over Z2. Edges whose endpoints are
// already connected create independent cycles; triangles fill cycles
// in. Reducing each triangle's boundary column pairs it with the
// youngest unpaired cycle edge, giving a (birth, death) pair.
func loopPersistence(cloud [][]float64, edges []edge) []diagram.Point {
	n := len(cloud)
	if n < 3 || len(edges) < 3 {
		return nil
	}

	// Cycle edges: those that do not merge components.
	uf := newUnionFind(n)
	creator := make([]bool, len(edges))
	for i, e := range edges {
		if !uf.union(e.a, e.b) {
			creator[i] = true
		}
	}

	// Edge index lookup for boundary columns.
	edgeIndex := make(map[[2]int]int, len(edges))
	for i, e := range edges {
		edgeIndex[[2]int{e.a, e.b}] = i
	}

	type triangle struct {
		boundary [3]int // edge indices, sorted ascending
		value    float64
	}
	var triangles []triangle
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ij, ok := edgeIndex[[2]int{i, j}]
			if !ok {
				continue
			}
			for k := j + 1; k < n; k++ {
				ik, ok := edgeIndex[[2]int{i, k}]
				if !ok {
					continue
				}
				jk, ok := edgeIndex[[2]int{j, k}]
				if !ok {
					continue
				}
				b := [3]int{ij, ik, jk}
				sort.Ints(b[:])
				// Triangle enters the filtration with its longest edge.
				triangles = append(triangles, triangle{boundary: b, value: edges[b[2]].length})
			}
		}
	}
	sort.Slice(triangles, func(i, j int) bool {
		if triangles[i].value != triangles[j].value {
			return triangles[i].value < triangles[j].value
		}
		return triangles[i].boundary[2] < triangles[j].boundary[2]
	})

	// Standard column reduction over Z2: pivot on the highest edge index.
	pivotOwner := make(map[int][]int, len(triangles))
	var points []diagram.Point
	paired := make([]bool, len(edges))
	for _, t := range triangles {
		col := []int{t.boundary[0], t.boundary[1], t.boundary[2]}
		for len(col) > 0 {
			low := col[len(col)-1]
			owner, taken := pivotOwner[low]
			if !taken {
				pivotOwner[low] = col
				paired[low] = true
				if creator[low] && t.value > edges[low].length {
					points = append(points, diagram.Point{
						Birth:     edges[low].length,
						Death:     t.value,
						Dimension: 1,
					})
				}
				break
			}
			col = symmetricDifference(col, owner)
		}
	}

	// Cycle edges never filled in are essential loops.
	for i, e := range edges {
		if creator[i] && !paired[i] {
			points = append(points, diagram.Point{Birth: e.length, Death: math.Inf(1), Dimension: 1})
		}
	}
	return points
}

// symmetricDifference merges two sorted index columns modulo 2.
func symmetricDifference(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets containing a and b, reporting whether they were
// previously disjoint.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	return true
}
