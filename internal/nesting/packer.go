package nesting

// packer implements the guillotine bin-packing algorithm: a list of
// free rectangles, each insertion chosen by best-area-fit and the free
// list re-split into the maximal rectangles left over (which may
// overlap one another).
type packer struct {
	freeRects []rect
	kerf      float64
}

type rect struct {
	x, y, w, h float64
}

func newPacker(width, height, kerf float64) *packer {
	return &packer{freeRects: []rect{{0, 0, width, height}}, kerf: kerf}
}

// insertBestOrientation tries the part unrotated, then rotated 90°,
// and keeps whichever orientation fits with less wasted area. Returns
// false if neither orientation fits on any free rectangle.
func (p *packer) insertBestOrientation(w, h float64) (ok bool, x, y float64, rotated bool) {
	normalFit := p.bestFit(w, h)
	rotatedFit := -1.0
	if w != h {
		rotatedFit = p.bestFit(h, w)
	}

	switch {
	case normalFit < 0 && rotatedFit < 0:
		return false, 0, 0, false
	case rotatedFit >= 0 && (normalFit < 0 || rotatedFit < normalFit):
		ok, x, y = p.insert(h, w)
		return ok, x, y, true
	default:
		ok, x, y = p.insert(w, h)
		return ok, x, y, false
	}
}

// insert places a w x h piece using best-area-fit, splits every
// overlapping free rectangle around it, and prunes any resulting
// rectangle fully contained in another.
func (p *packer) insert(w, h float64) (bool, float64, float64) {
	bestIdx := -1
	bestAreaFit := -1.0
	wk, hk := w+p.kerf, h+p.kerf

	for i, r := range p.freeRects {
		if wk <= r.w+0.001 && hk <= r.h+0.001 {
			areaFit := r.w*r.h - w*h
			if bestIdx < 0 || areaFit < bestAreaFit {
				bestIdx, bestAreaFit = i, areaFit
			}
		}
	}
	if bestIdx < 0 {
		return false, 0, 0
	}

	chosen := p.freeRects[bestIdx]
	px, py := chosen.x, chosen.y
	p.splitAroundPlacement(rect{x: px, y: py, w: wk, h: hk})
	return true, px, py
}

// bestFit reports the area waste of placing w x h without mutating
// packer state, or -1 if it doesn't fit anywhere.
func (p *packer) bestFit(w, h float64) float64 {
	wk, hk := w+p.kerf, h+p.kerf
	best := -1.0
	for _, r := range p.freeRects {
		if wk <= r.w+0.001 && hk <= r.h+0.001 {
			areaFit := r.w*r.h - w*h
			if best < 0 || areaFit < best {
				best = areaFit
			}
		}
	}
	return best
}

func (p *packer) splitAroundPlacement(placed rect) {
	var newRects []rect
	for _, r := range p.freeRects {
		if !rectsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}
		if placed.x > r.x+0.001 {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: placed.x - r.x, h: r.h})
		}
		if placed.x+placed.w < r.x+r.w-0.001 {
			newRects = append(newRects, rect{x: placed.x + placed.w, y: r.y, w: (r.x + r.w) - (placed.x + placed.w), h: r.h})
		}
		if placed.y > r.y+0.001 {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: r.w, h: placed.y - r.y})
		}
		if placed.y+placed.h < r.y+r.h-0.001 {
			newRects = append(newRects, rect{x: r.x, y: placed.y + placed.h, w: r.w, h: (r.y + r.h) - (placed.y + placed.h)})
		}
	}
	p.freeRects = pruneContained(newRects)
}

func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w-0.001 && a.x+a.w > b.x+0.001 &&
		a.y < b.y+b.h-0.001 && a.y+a.h > b.y+0.001
}

func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i != j && containsRect(b, a) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x+0.001 && outer.y <= inner.y+0.001 &&
		outer.x+outer.w >= inner.x+inner.w-0.001 &&
		outer.y+outer.h >= inner.y+inner.h-0.001
}
