package carrier

import (
	"image"
	"math/rand/v2"
)

var nebulaColors = [][3]float64{
	{15, 35, 70},
	{45, 15, 55},
	{20, 55, 45},
}

// Generate draws a starfield with soft nebula clouds. The same seed and
// size always give the same image. It returns nil for non-positive sizes.
func Generate(seed uint64, w, h int) *image.NRGBA {
	if w <= 0 || h <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	// Clouds are additive radial falloffs so overlaps blend.
	side := min(w, h)
	for range 6 {
		cx := rng.IntN(w)
		cy := rng.IntN(h)
		r := side/12 + rng.IntN(side/4+1)
		col := nebulaColors[rng.IntN(len(nebulaColors))]
		cloud(img, cx, cy, r, col)
	}

	// Roughly 350 stars per 500×500.
	stars := w * h * 350 / (500 * 500)
	for range stars {
		x, y := rng.IntN(w), rng.IntN(h)
		v := uint8(180 + rng.IntN(76))
		off := img.PixOffset(x, y)
		img.Pix[off], img.Pix[off+1], img.Pix[off+2] = v, v, v
	}

	return img
}

func cloud(img *image.NRGBA, cx, cy, r int, col [3]float64) {
	if r <= 0 {
		return
	}
	b := img.Bounds().Intersect(image.Rect(cx-r, cy-r, cx+r+1, cy+r+1))
	rr := float64(r * r)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			d := (dx*dx + dy*dy) / rr
			if d >= 1 {
				continue
			}
			k := (1 - d) * (1 - d)
			off := img.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				v := float64(img.Pix[off+ch]) + col[ch]*k
				if v > 255 {
					v = 255
				}
				img.Pix[off+ch] = uint8(v)
			}
		}
	}
}
