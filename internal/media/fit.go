package media

// FitWithin scales w x h down to fit inside maxW x maxH keeping the aspect
// ratio. The longer side (relative to the box) is clamped and the other is
// scaled proportionally, rounded to the nearest integer. Sizes that already fit are
// returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return w, h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	// Compare w/h against maxW/maxH without floating point
	if w*maxH > h*maxW {
		nh := (h*maxW + w/2) / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := (w*maxH + h/2) / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}
