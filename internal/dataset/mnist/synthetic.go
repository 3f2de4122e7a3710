package mnist

import (
	"math"
	"math/rand"
)

// Synthetic builds a deterministic stand-in dataset so training runs
// without the MNIST files: each class is a Gaussian blob at a
// class-specific position plus a little noise. The same seed always
// produces the same data.
func Synthetic(n int, seed int64) *Dataset {
	const size = 28
	rng := rand.New(rand.NewSource(seed))

	d := &Dataset{
		Images: make([]float32, n*size*size),
		Labels: make([]int32, n),
		rows:   size,
		cols:   size,
	}
	for i := 0; i < n; i++ {
		class := int32(i % 10)
		d.Labels[i] = class

		// Blob centers on a ring, one position per class.
		angle := 2 * math.Pi * float64(class) / 10
		cx := 14 + 7*math.Cos(angle)
		cy := 14 + 7*math.Sin(angle)

		img := d.Images[i*size*size : (i+1)*size*size]
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy := float64(x)-cx, float64(y)-cy
				v := math.Exp(-(dx*dx + dy*dy) / 8)
				v += 0.05 * rng.Float64()
				if v > 1 {
					v = 1
				}
				img[y*size+x] = float32(v)
			}
		}
	}
	return d
}
