package zphy

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zphy/zphy/actor"
)

// CellKey - coordinates of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell - body indices stored in one hashed cell
type Cell struct {
	bodyIndices []int
}

// Pair - indices of two bodies that may be in contact, IndexA < IndexB
type Pair struct {
	IndexA int
	IndexB int
}

// SpatialGrid - uniform hashed grid for the broad phase
type SpatialGrid struct {
	cellSize float32
	cells    []Cell
	cellMask int

	// Bodies covering more cells than the table holds, tested against every body
	oversized []int
}

// NewSpatialGrid - numCells is rounded up to a power of two
func NewSpatialGrid(cellSize float32, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert - adds a body index to every cell its bounding box touches.
// A body spanning more cells than the table holds goes to the oversized list instead.
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	aabb := body.Collider.AABB()
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	if sg.cellSpan(minCell, maxCell) > len(sg.cells) {
		sg.oversized = append(sg.oversized, bodyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cell := &sg.cells[sg.hashCell(CellKey{x, y, z})]
				// Several cells of one body can hash to the same slot
				if n := len(cell.bodyIndices); n > 0 && cell.bodyIndices[n-1] == bodyIndex {
					continue
				}
				cell.bodyIndices = append(cell.bodyIndices, bodyIndex)
			}
		}
	}
}

// cellSpan - number of cells between two corners, stops counting past the table size
func (sg *SpatialGrid) cellSpan(minCell, maxCell CellKey) int {
	limit := len(sg.cells) + 1
	span := 1
	for _, d := range [3]int{maxCell.X - minCell.X + 1, maxCell.Y - minCell.Y + 1, maxCell.Z - minCell.Z + 1} {
		if d >= limit {
			return limit
		}
		span *= d
		if span >= limit {
			return limit
		}
	}
	return span
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.oversized = sg.oversized[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// FindPairs - pairs whose bounding boxes overlap, sorted by (IndexA, IndexB).
// Hash collisions only add candidates, they never hide one.
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies))
	seen := make([]int, len(bodies))
	for i := range seen {
		seen[i] = -1
	}
	isOversized := make([]bool, len(bodies))
	for _, idx := range sg.oversized {
		isOversized[idx] = true
	}

	for bodyIdx, bodyA := range bodies {
		start := len(pairs)

		if isOversized[bodyIdx] {
			// Oversized: every later body is a candidate
			for otherIdx := bodyIdx + 1; otherIdx < len(bodies); otherIdx++ {
				pairs = sg.appendIfOverlapping(pairs, bodies, bodyIdx, otherIdx)
			}
			continue
		}

		aabbA := bodyA.Collider.AABB()
		minCell := sg.worldToCell(aabbA.Min)
		maxCell := sg.worldToCell(aabbA.Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := sg.hashCell(CellKey{x, y, z})

					for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
						// Avoid (A,B) and (B,A) duplicates, and repeats across cells
						if otherIdx <= bodyIdx || seen[otherIdx] == bodyIdx {
							continue
						}
						seen[otherIdx] = bodyIdx
						pairs = sg.appendIfOverlapping(pairs, bodies, bodyIdx, otherIdx)
					}
				}
			}
		}

		for _, otherIdx := range sg.oversized {
			if otherIdx > bodyIdx {
				pairs = sg.appendIfOverlapping(pairs, bodies, bodyIdx, otherIdx)
			}
		}

		found := pairs[start:]
		sort.Slice(found, func(i, j int) bool { return found[i].IndexB < found[j].IndexB })
	}

	return pairs
}

func (sg *SpatialGrid) appendIfOverlapping(pairs []Pair, bodies []*actor.RigidBody, i, j int) []Pair {
	bodyA, bodyB := bodies[i], bodies[j]
	if !canCollide(bodyA, bodyB) {
		return pairs
	}
	if bodyA.Collider.AABB().Overlaps(bodyB.Collider.AABB()) {
		pairs = append(pairs, Pair{IndexA: i, IndexB: j})
	}
	return pairs
}

// worldToCell - world position to cell coordinates
func (sg *SpatialGrid) worldToCell(pos mgl32.Vec3) CellKey {
	return CellKey{
		X: int(math32.Floor(pos.X() / sg.cellSize)),
		Y: int(math32.Floor(pos.Y() / sg.cellSize)),
		Z: int(math32.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell - cell coordinates to an index in the cell array
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
