package main

import "math"

// Vec3 is a 3D vector. All methods return new values.
type Vec3 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	Z float64 `msgpack:"z" json:"z"`
}

// V3 builds a vector
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector, or the zero vector when v has no length
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// DistanceTo returns the Euclidean distance between v and o
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Euler is an orientation in radians. Rotations compose in X, Y, Z order,
// so a vector is rotated about Z first, then Y, then X.
type Euler struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	Z float64 `msgpack:"z" json:"z"`
}

// Add returns e with each angle offset by d
func (e Euler) Add(d Euler) Euler {
	return Euler{e.X + d.X, e.Y + d.Y, e.Z + d.Z}
}

// Rotate applies the orientation to v
func (e Euler) Rotate(v Vec3) Vec3 {
	cz, sz := math.Cos(e.Z), math.Sin(e.Z)
	x := v.X*cz - v.Y*sz
	y := v.X*sz + v.Y*cz
	z := v.Z

	cy, sy := math.Cos(e.Y), math.Sin(e.Y)
	x, z = x*cy+z*sy, -x*sy+z*cy

	cx, sx := math.Cos(e.X), math.Sin(e.X)
	y, z = y*cx-z*sx, y*sx+z*cx

	return Vec3{x, y, z}
}

// LookAt returns the orientation that turns an object's local +Z axis
// from `from` toward `to`, keeping +Y as up.
func LookAt(from, to Vec3) Euler {
	z := to.Sub(from)
	if z.Length() == 0 {
		z = Vec3{0, 0, 1}
	}
	z = z.Normalize()

	up := Vec3{0, 1, 0}
	x := up.Cross(z)
	if x.Length() == 0 {
		// looking straight up or down
		z.Z += 0.0001
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	// rotation matrix columns are x, y, z; decompose in XYZ order
	m11, m12, m13 := x.X, y.X, z.X
	m22, m23 := y.Y, z.Y
	m32, m33 := y.Z, z.Z

	var e Euler
	e.Y = math.Asin(Clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
	}
	return e
}
