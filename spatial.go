package main

import "math"

// HitCellSize is the edge of a broad-phase cell. It is at least the largest
// bullet hit radius, so a query touches at most 2 cells per axis.
const HitCellSize = 4.0

type cellKey struct {
	X, Y, Z int32
}

func cellOf(v float64) int32 {
	return int32(math.Floor(v / HitCellSize))
}

// BulletGrid buckets player bullets by position so each obstacle only tests
// the bullets near it. Indices refer to the pool slice the grid was built
// from and stay valid until that pool is compacted.
type BulletGrid struct {
	cells map[cellKey][]int
	buf   []int
}

// Reset rebuilds the grid from bullets
func (g *BulletGrid) Reset(bullets []*Bullet) {
	if g.cells == nil {
		g.cells = make(map[cellKey][]int)
	} else {
		clear(g.cells)
	}
	for i, b := range bullets {
		if !b.Alive {
			continue
		}
		k := cellKey{cellOf(b.Pos.X), cellOf(b.Pos.Y), cellOf(b.Pos.Z)}
		g.cells[k] = append(g.cells[k], i)
	}
}

// Query returns the indices of bullets in cells overlapping the cube of
// half-size radius around pos. The slice is reused by the next call.
func (g *BulletGrid) Query(pos Vec3, radius float64) []int {
	g.buf = g.buf[:0]
	minX, maxX := cellOf(pos.X-radius), cellOf(pos.X+radius)
	minY, maxY := cellOf(pos.Y-radius), cellOf(pos.Y+radius)
	minZ, maxZ := cellOf(pos.Z-radius), cellOf(pos.Z+radius)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				g.buf = append(g.buf, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	return g.buf
}
