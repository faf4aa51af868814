// Package transform converts sampled spherical signals to and from their
// spherical-harmonic coefficient representation.
//
// Signals are assumed antipodally symmetric, so only even degrees carry
// energy and the basis is restricted to l in {0, 2, ..., lMax}. The real
// basis follows the convention common in diffusion imaging: within each
// degree the orders run m = -l..l, with sine terms for negative m and
// cosine terms for positive m.
package transform

import "math"

// assocLegendre evaluates the normalized associated Legendre functions
// Nlm * Plm(x) for all 0 <= m <= l <= lMax at a single argument.
//
// The returned slice is indexed [l][m]. Normalization is the spherical
// harmonic one, sqrt((2l+1)/(4 pi) * (l-m)!/(l+m)!), folded into the
// recurrence so large degrees stay in range. Condon-Shortley phase is
// included.
func assocLegendre(lMax int, x float64) [][]float64 {
	p := make([][]float64, lMax+1)
	for l := range p {
		p[l] = make([]float64, l+1)
	}

	sinTheta := math.Sqrt(1 - x*x)

	// Diagonal: normalized P_m^m.
	p[0][0] = 1 / math.Sqrt(4*math.Pi)
	for m := 1; m <= lMax; m++ {
		p[m][m] = -math.Sqrt(float64(2*m+1)/float64(2*m)) * sinTheta * p[m-1][m-1]
	}

	// First superdiagonal: normalized P_{m+1}^m.
	for m := 0; m < lMax; m++ {
		p[m+1][m] = math.Sqrt(float64(2*m+3)) * x * p[m][m]
	}

	// Upward recurrence in l for fixed m.
	for m := 0; m <= lMax; m++ {
		for l := m + 2; l <= lMax; l++ {
			a := math.Sqrt(float64((2*l+1)*(2*l-1)) / float64((l-m)*(l+m)))
			b := math.Sqrt(float64((2*l+1)*(l-m-1)*(l+m-1)) / float64((2*l-3)*(l-m)*(l+m)))
			p[l][m] = a*x*p[l-1][m] - b*p[l-2][m]
		}
	}
	return p
}

// realSHRow evaluates the even-degree real spherical-harmonic basis at
// direction (theta, phi), returning one value per coefficient in the
// order degree-major, m = -l..l within each degree.
func realSHRow(lMax int, theta, phi float64) []float64 {
	p := assocLegendre(lMax, math.Cos(theta))
	row := make([]float64, 0, NumCoefficients(lMax))
	sqrt2 := math.Sqrt2

	for l := 0; l <= lMax; l += 2 {
		for m := -l; m < 0; m++ {
			row = append(row, sqrt2*p[l][-m]*math.Sin(float64(-m)*phi))
		}
		row = append(row, p[l][0])
		for m := 1; m <= l; m++ {
			row = append(row, sqrt2*p[l][m]*math.Cos(float64(m)*phi))
		}
	}
	return row
}

// NumCoefficients returns the size of the even-degree basis up to lMax:
// sum of 2l+1 over l in {0, 2, ..., lMax}.
func NumCoefficients(lMax int) int {
	n := 0
	for l := 0; l <= lMax; l += 2 {
		n += 2*l + 1
	}
	return n
}

// cartesianToSpherical converts a direction vector to inclination theta
// (from +z) and azimuth phi. Zero vectors map to the pole.
func cartesianToSpherical(v [3]float64) (theta, phi float64) {
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if r == 0 {
		return 0, 0
	}
	return math.Acos(v[2] / r), math.Atan2(v[1], v[0])
}
