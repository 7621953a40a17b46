package engine

/*------------------------------------------------------------------
 *
 * Purpose: 128-point curve lookup tables for velocity/CC curves
 * velocity/CC curves, and for the optional per-connection curve in the
 * modulation matrix (linear when no curve is set).
 *
 * Grounded on: original_source/src/sfizz/Curve.hpp, simplified from
 * a general interpolating curve object to the fixed 128-entry table
 * the spec calls for.
 *
 *------------------------------------------------------------------*/

const CurvePoints = 128

// Curve is a 128-point lookup table mapping a normalised [0,1) input to an
// output value, with linear interpolation between points.
type Curve struct {
	points [CurvePoints]float64
}

// DefaultVelocityCurve returns the v^2 default amplitude velocity curve
//.
func DefaultVelocityCurve() *Curve {
	c := &Curve{}

	for i := range c.points {
		x := float64(i) / float64(CurvePoints-1)
		c.points[i] = x * x
	}

	return c
}

// LinearCurve returns the identity curve used when no explicit curve is set
//.
func LinearCurve() *Curve {
	c := &Curve{}

	for i := range c.points {
		c.points[i] = float64(i) / float64(CurvePoints-1)
	}

	return c
}

// NewCurveFromPoints builds a curve from sparse (index, value) pairs,
// linearly filling the gaps — the representation a parsed curve=NN SFZ
// header section would produce via the external parser collaborator
//.
func NewCurveFromPoints(pairs map[int]float64) *Curve {
	c := &Curve{}

	if len(pairs) == 0 {
		return LinearCurve()
	}

	type pt struct {
		i int
		v float64
	}

	pts := make([]pt, 0, len(pairs))
	for i, v := range pairs {
		pts = append(pts, pt{i, v})
	}

	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[j].i < pts[i].i {
				pts[i], pts[j] = pts[j], pts[i]
			}
		}
	}

	for k := 0; k < len(pts)-1; k++ {
		a, b := pts[k], pts[k+1]
		for i := a.i; i <= b.i && i < CurvePoints; i++ {
			if b.i == a.i {
				c.points[i] = a.v
				continue
			}

			t := float64(i-a.i) / float64(b.i-a.i)
			c.points[i] = a.v + t*(b.v-a.v)
		}
	}

	for i := 0; i < pts[0].i; i++ {
		c.points[i] = pts[0].v
	}

	for i := pts[len(pts)-1].i; i < CurvePoints; i++ {
		c.points[i] = pts[len(pts)-1].v
	}

	return c
}

// Eval evaluates the curve at normalised input x in [0,1], interpolating
// between the two nearest table entries.
func (c *Curve) Eval(x float64) float64 {
	if x <= 0 {
		return c.points[0]
	}

	if x >= 1 {
		return c.points[CurvePoints-1]
	}

	pos := x * float64(CurvePoints-1)
	i0 := int(pos)
	i1 := i0 + 1

	if i1 > CurvePoints-1 {
		i1 = CurvePoints - 1
	}

	frac := pos - float64(i0)

	return c.points[i0] + frac*(c.points[i1]-c.points[i0])
}
