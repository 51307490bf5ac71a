package screen

import (
	"image"
	"slices"
)

// Merge groups changed pixels into update rectangles.
//
// Clustering is greedy and follows input order: the first unclaimed point
// seeds a cluster, and every later unclaimed point whose horizontal distance to
// the seed is at most radX and vertical distance at most radY joins it.
// Distances are measured from the seed, not from the growing box, so a cluster
// may extend beyond the radius on one side. Each cluster is emitted as the
// bounding box of its members; every input point is claimed by exactly one
// cluster.
//
// Points sorted by Y, as Diff produces them, let the scan stop at the first
// point below the seed's vertical reach. The result is the same either way.
func Merge(points []image.Point, radX, radY int) []image.Rectangle {
	if len(points) == 0 {
		return nil
	}
	sorted := slices.IsSortedFunc(points, func(a, b image.Point) int { return a.Y - b.Y })
	claimed := make([]bool, len(points))
	var rects []image.Rectangle

	for i, seed := range points {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		box := image.Rectangle{Min: seed, Max: seed}

		for j := i + 1; j < len(points); j++ {
			p := points[j]
			if sorted && p.Y-seed.Y > radY {
				break
			}
			if claimed[j] || abs(p.X-seed.X) > radX || abs(p.Y-seed.Y) > radY {
				continue
			}
			claimed[j] = true
			box.Min.X = min(box.Min.X, p.X)
			box.Min.Y = min(box.Min.Y, p.Y)
			box.Max.X = max(box.Max.X, p.X)
			box.Max.Y = max(box.Max.Y, p.Y)
		}

		box.Max = box.Max.Add(image.Pt(1, 1))
		rects = append(rects, box)
	}
	return rects
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
