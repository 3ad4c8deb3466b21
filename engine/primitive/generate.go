package primitive

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// Generate builds the geometry for a primitive without touching any cache or GPU.
//
// Parameters:
//   - t: the primitive type
//   - params: the caller's parameters, possibly partial
//
// Returns:
//   - model.MeshData: counter-clockwise triangle geometry centred on the origin
//   - error: common.ErrUnsupportedPrimitive or common.ErrInvalidParameter
func Generate(t Type, params Params) (model.MeshData, error) {
	p, err := Resolve(t, params)
	if err != nil {
		return model.MeshData{}, err
	}
	return generate(t, p), nil
}

func generate(t Type, p Params) model.MeshData {
	r := float32(p["radius"])
	l := float32(p["length"])
	segs := int(p["segments"])
	rings := int(p["rings"])
	withCaps := p["caps"] != 0

	switch t {
	case TypeSphere:
		return lathe(sphereProfile(r, rings), segs)
	case TypeCube:
		return cube(float32(p["size"]))
	case TypePlane:
		return plane(float32(p["size"]))
	case TypeCapsule:
		return lathe(capsuleProfile(r, l, rings), segs)
	case TypeCone:
		m := lathe(coneProfile(r, l, rings), segs)
		if withCaps {
			m = merge(m, lathe(bottomCap(r, -l/2), segs))
		}
		return m
	case TypeCylinder:
		m := lathe(cylinderProfile(r, l, rings), segs)
		if withCaps {
			m = merge(m, lathe(topCap(r, l/2), segs), lathe(bottomCap(r, -l/2), segs))
		}
		return m
	case TypeCircle:
		return lathe(topCap(r, 0), segs)
	}
	return model.MeshData{}
}

// ring is one row of a surface of revolution around the Y axis.
// Rows are ordered so that walking from one to the next moves across the outside of the surface
// with the outward normal facing the viewer.
type ring struct {
	radius float32
	y      float32
	// nr and ny are the outward normal in the (radial, y) plane.
	nr, ny float32
	v      float32
}

// lathe revolves a profile around the Y axis. The seam column is duplicated so UVs wrap cleanly.
func lathe(profile []ring, segments int) model.MeshData {
	cols := segments + 1
	m := model.MeshData{
		Vertices: make([]model.Vertex, 0, len(profile)*cols),
		Indices:  make([]uint32, 0, (len(profile)-1)*segments*6),
	}

	for _, rg := range profile {
		for j := 0; j < cols; j++ {
			u := float32(j) / float32(segments)
			theta := u * 2 * math32.Pi
			sin, cos := math32.Sincos(theta)
			m.Vertices = append(m.Vertices, model.Vertex{
				Position: [3]float32{rg.radius * sin, rg.y, rg.radius * cos},
				Normal:   [3]float32{rg.nr * sin, rg.ny, rg.nr * cos},
				TexCoord: [2]float32{u, rg.v},
				Tangent:  [4]float32{cos, 0, -sin, 1},
			})
		}
	}

	for i := 0; i+1 < len(profile); i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i*cols + j)
			b := a + 1
			c := a + uint32(cols)
			d := c + 1
			if profile[i+1].radius != 0 {
				m.Indices = append(m.Indices, a, c, d)
			}
			if profile[i].radius != 0 {
				m.Indices = append(m.Indices, a, d, b)
			}
		}
	}
	return m
}

func sphereProfile(r float32, rings int) []ring {
	out := make([]ring, 0, rings+1)
	for i := 0; i <= rings; i++ {
		v := float32(i) / float32(rings)
		sin, cos := math32.Sincos(v * math32.Pi)
		out = append(out, ring{radius: r * sin, y: r * cos, nr: sin, ny: cos, v: v})
	}
	return out
}

// capsuleProfile joins two hemispheres of the given radius whose centres are length apart.
func capsuleProfile(r, length float32, rings int) []ring {
	out := make([]ring, 0, 2*rings+2)
	half := length / 2
	for i := 0; i <= rings; i++ {
		sin, cos := math32.Sincos(float32(i) / float32(rings) * math32.Pi / 2)
		out = append(out, ring{radius: r * sin, y: half + r*cos, nr: sin, ny: cos})
	}
	for i := 0; i <= rings; i++ {
		sin, cos := math32.Sincos(math32.Pi/2 + float32(i)/float32(rings)*math32.Pi/2)
		out = append(out, ring{radius: r * sin, y: -half + r*cos, nr: sin, ny: cos})
	}
	arcLengthV(out)
	return out
}

func cylinderProfile(r, length float32, rings int) []ring {
	out := make([]ring, 0, rings+1)
	for i := 0; i <= rings; i++ {
		v := float32(i) / float32(rings)
		out = append(out, ring{radius: r, y: length/2 - length*v, nr: 1, v: v})
	}
	return out
}

// coneProfile runs from the apex at +length/2 down to the base rim at -length/2.
func coneProfile(r, length float32, rings int) []ring {
	slant := math32.Hypot(r, length)
	nr, ny := length/slant, r/slant
	if slant == 0 {
		nr, ny = 1, 0
	}
	out := make([]ring, 0, rings+1)
	for i := 0; i <= rings; i++ {
		v := float32(i) / float32(rings)
		out = append(out, ring{radius: r * v, y: length/2 - length*v, nr: nr, ny: ny, v: v})
	}
	return out
}

func topCap(r, y float32) []ring {
	return []ring{
		{radius: 0, y: y, ny: 1, v: 0},
		{radius: r, y: y, ny: 1, v: 1},
	}
}

func bottomCap(r, y float32) []ring {
	return []ring{
		{radius: r, y: y, ny: -1, v: 0},
		{radius: 0, y: y, ny: -1, v: 1},
	}
}

// arcLengthV assigns v along the profile in proportion to the distance travelled.
func arcLengthV(profile []ring) {
	total := float32(0)
	dist := make([]float32, len(profile))
	for i := 1; i < len(profile); i++ {
		total += math32.Hypot(profile[i].radius-profile[i-1].radius, profile[i].y-profile[i-1].y)
		dist[i] = total
	}
	if total == 0 {
		return
	}
	for i := range profile {
		profile[i].v = dist[i] / total
	}
}

func plane(size float32) model.MeshData {
	h := size / 2
	n := [3]float32{0, 1, 0}
	t := [4]float32{1, 0, 0, 1}
	return model.MeshData{
		Vertices: []model.Vertex{
			{Position: [3]float32{-h, 0, -h}, Normal: n, TexCoord: [2]float32{0, 0}, Tangent: t},
			{Position: [3]float32{h, 0, -h}, Normal: n, TexCoord: [2]float32{1, 0}, Tangent: t},
			{Position: [3]float32{-h, 0, h}, Normal: n, TexCoord: [2]float32{0, 1}, Tangent: t},
			{Position: [3]float32{h, 0, h}, Normal: n, TexCoord: [2]float32{1, 1}, Tangent: t},
		},
		Indices: []uint32{0, 2, 3, 0, 3, 1},
	}
}

// cubeFaces lists each face as normal, u axis and v axis with u x v = normal.
var cubeFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

func cube(size float32) model.MeshData {
	h := size / 2
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	m := model.MeshData{
		Vertices: make([]model.Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(m.Vertices))
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(h)
			m.Vertices = append(m.Vertices, model.Vertex{
				Position: p,
				Normal:   n,
				TexCoord: [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
				Tangent:  [4]float32{u[0], u[1], u[2], 1},
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

func merge(meshes ...model.MeshData) model.MeshData {
	var out model.MeshData
	for _, m := range meshes {
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}
