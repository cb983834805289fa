package toolpath

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash is the Stats Cache key: a SHA-256 digest over the
// drawing's canonicalised segment list. crypto/sha256 is the obvious
// choice here — the spec mandates SHA-256 specifically, and there is
// no third-party alternative to reach for over a single, fixed,
// well-known hash algorithm already in the standard library.
type ContentHash [32]byte

// String renders the hash as a lowercase hex string.
func (h ContentHash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// HashDrawing computes the content hash of the drawing's already
// tessellated segments, rounding coordinates to 0.001 mm and ordering
// by contour id, then each contour's segments by their endpoints, so
// that the same tessellated geometry always produces the same key.
// Contour ids follow the drawing's entity order, so the same shapes
// listed in a different entity order hash differently.
func HashDrawing(inputs MotionInputs, toleranceMM float64) ContentHash {
	contours := make([]ContourPath, len(inputs.Contours))
	copy(contours, inputs.Contours)
	sort.Slice(contours, func(i, j int) bool { return contours[i].ContourID < contours[j].ContourID })

	h := sha256.New()
	fmt.Fprintf(h, "tol:%.3f\n", toleranceMM)
	for _, c := range contours {
		fmt.Fprintf(h, "contour:%d:%t\n", c.ContourID, c.Closed)
		segs := append(c.Segments[:0:0], c.Segments...)
		sort.Slice(segs, func(i, j int) bool {
			a, b := segs[i], segs[j]
			if a.Start.X != b.Start.X {
				return a.Start.X < b.Start.X
			}
			if a.Start.Y != b.Start.Y {
				return a.Start.Y < b.Start.Y
			}
			if a.End.X != b.End.X {
				return a.End.X < b.End.X
			}
			return a.End.Y < b.End.Y
		})
		for _, s := range segs {
			fmt.Fprintf(h, "%.3f,%.3f->%.3f,%.3f\n",
				round1000(s.Start.X), round1000(s.Start.Y),
				round1000(s.End.X), round1000(s.End.Y))
		}
	}
	var out ContentHash
	copy(out[:], h.Sum(nil))
	return out
}

func round1000(v float64) float64 {
	return roundTo(v, 0.001)
}

func roundTo(v, unit float64) float64 {
	if v >= 0 {
		return float64(int64(v/unit+0.5)) * unit
	}
	return -float64(int64(-v/unit+0.5)) * unit
}
