package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SimplePushConstantData is the per draw block pushed by the mesh and frustum
// systems. At 128 bytes it fits the minimum push constant size every device
// guarantees.
type SimplePushConstantData struct {
	ModelMatrix mgl32.Mat4
	// Only the upper 3x3 is meaningful; a mat4 keeps std430 alignment trivial.
	NormalMatrix mgl32.Mat4
}

const SimplePushConstantDataSize = uint32(unsafe.Sizeof(SimplePushConstantData{}))

func (p *SimplePushConstantData) Pointer() unsafe.Pointer {
	return unsafe.Pointer(p)
}
