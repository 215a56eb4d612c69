package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
)

// FrustumColor is the tint of camera frustum wireframes. The alpha is applied
// by the frustum shader through blending.
var FrustumColor = mgl32.Vec4{105.0 / 255.0, 14.0 / 255.0, 232.0 / 255.0, 0.05}

type cubeFace struct {
	normal  mgl32.Vec3
	color   mgl32.Vec3
	corners [4]mgl32.Vec3
}

// -Y is up, matching the Vulkan clip space the camera projects into.
var cubeFaces = [6]cubeFace{
	{ // left
		normal: mgl32.Vec3{-1, 0, 0}, color: mgl32.Vec3{.9, .9, .9},
		corners: [4]mgl32.Vec3{{-.5, -.5, -.5}, {-.5, .5, .5}, {-.5, -.5, .5}, {-.5, .5, -.5}},
	},
	{ // right
		normal: mgl32.Vec3{1, 0, 0}, color: mgl32.Vec3{.8, .8, .1},
		corners: [4]mgl32.Vec3{{.5, -.5, -.5}, {.5, .5, .5}, {.5, -.5, .5}, {.5, .5, -.5}},
	},
	{ // top
		normal: mgl32.Vec3{0, -1, 0}, color: mgl32.Vec3{.9, .6, .1},
		corners: [4]mgl32.Vec3{{-.5, -.5, -.5}, {.5, -.5, .5}, {-.5, -.5, .5}, {.5, -.5, -.5}},
	},
	{ // bottom
		normal: mgl32.Vec3{0, 1, 0}, color: mgl32.Vec3{.8, .1, .1},
		corners: [4]mgl32.Vec3{{-.5, .5, -.5}, {.5, .5, .5}, {-.5, .5, .5}, {.5, .5, -.5}},
	},
	{ // nose
		normal: mgl32.Vec3{0, 0, 1}, color: mgl32.Vec3{.1, .1, .8},
		corners: [4]mgl32.Vec3{{-.5, -.5, .5}, {.5, .5, .5}, {-.5, .5, .5}, {.5, -.5, .5}},
	},
	{ // tail
		normal: mgl32.Vec3{0, 0, -1}, color: mgl32.Vec3{.1, .8, .1},
		corners: [4]mgl32.Vec3{{-.5, -.5, -.5}, {.5, .5, -.5}, {-.5, .5, -.5}, {.5, -.5, -.5}},
	},
}

// CubeMesh is a unit cube centered on offset with one flat color per face.
func CubeMesh(offset mgl32.Vec3) MeshData {
	data := MeshData{
		Vertices: make([]metadata.Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for f, face := range cubeFaces {
		for _, c := range face.corners {
			data.Vertices = append(data.Vertices, metadata.Vertex{
				Position: c.Add(offset),
				Color:    face.color,
				Normal:   face.normal,
			})
		}
		base := uint32(f * 4)
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+3, base+1)
	}
	return data
}

// QuadMesh is a flat square of the given size in the XZ plane, facing up.
func QuadMesh(size float32, color mgl32.Vec3) MeshData {
	h := size / 2
	up := mgl32.Vec3{0, -1, 0}
	return MeshData{
		Vertices: []metadata.Vertex{
			{Position: mgl32.Vec3{-h, 0, -h}, Color: color, Normal: up, UV: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{h, 0, -h}, Color: color, Normal: up, UV: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{h, 0, h}, Color: color, Normal: up, UV: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{-h, 0, h}, Color: color, Normal: up, UV: mgl32.Vec2{0, 1}},
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2},
	}
}

// FrustumMesh is the line list outline of a view frustum looking down +Z.
// Vertices 0-3 are the near plane, 4-7 the far plane, in the order
// (+x,+y) (-x,+y) (+x,-y) (-x,-y).
func FrustumMesh(fovy, aspect, near, far float32) MeshData {
	s := math32.Sin(fovy)
	nearY, farY := s*near, s*far
	nearX, farX := aspect*nearY, aspect*farY
	color := FrustumColor.Vec3()

	corners := [8]mgl32.Vec3{
		{nearX, nearY, near}, {-nearX, nearY, near}, {nearX, -nearY, near}, {-nearX, -nearY, near},
		{farX, farY, far}, {-farX, farY, far}, {farX, -farY, far}, {-farX, -farY, far},
	}
	data := MeshData{Vertices: make([]metadata.Vertex, 0, len(corners))}
	for _, c := range corners {
		data.Vertices = append(data.Vertices, metadata.Vertex{Position: c, Color: color})
	}
	data.Indices = []uint32{
		// near
		0, 1, 1, 3, 3, 2, 2, 0,
		// far
		4, 5, 5, 7, 7, 6, 6, 4,
		// sides
		0, 4, 1, 5, 2, 6, 3, 7,
	}
	return data
}
