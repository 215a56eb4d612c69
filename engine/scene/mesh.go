package scene

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
)

// MeshData is the host side geometry a Mesh is uploaded from.
type MeshData struct {
	Vertices []metadata.Vertex
	Indices  []uint32
}

// Mesh is GPU geometry shared by every entity that draws it. It is immutable
// after upload and destroyed when the last reference is released.
type Mesh struct {
	ID   uuid.UUID
	Name string

	VertexCount uint32
	IndexCount  uint32

	vertexBuffer *vulkan.VulkanBuffer
	indexBuffer  *vulkan.VulkanBuffer
	refs         int
	device       vulkan.Device
}

// NewMesh uploads data into device local buffers. The returned mesh holds one
// reference owned by the caller.
func NewMesh(device vulkan.Device, name string, data MeshData) (*Mesh, error) {
	if len(data.Vertices) < 3 {
		return nil, errors.Newf("mesh %q needs at least 3 vertices, got %d", name, len(data.Vertices))
	}
	mesh := &Mesh{
		ID:          uuid.New(),
		Name:        name,
		VertexCount: uint32(len(data.Vertices)),
		IndexCount:  uint32(len(data.Indices)),
		refs:        1,
		device:      device,
	}

	vertexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&data.Vertices[0])), len(data.Vertices)*int(metadata.VertexSize))
	vb, err := vulkan.NewDeviceLocalBuffer(device, vertexBytes, vk.DeviceSize(metadata.VertexSize), mesh.VertexCount,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upload vertices of mesh %q", name)
	}
	mesh.vertexBuffer = vb

	if mesh.IndexCount > 0 {
		indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&data.Indices[0])), len(data.Indices)*4)
		ib, err := vulkan.NewDeviceLocalBuffer(device, indexBytes, 4, mesh.IndexCount,
			vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			mesh.destroy()
			return nil, errors.Wrapf(err, "failed to upload indices of mesh %q", name)
		}
		mesh.indexBuffer = ib
	}

	core.LogDebug("Mesh %q uploaded: %d vertices, %d indices.", name, mesh.VertexCount, mesh.IndexCount)
	return mesh, nil
}

// Acquire takes another reference and returns m for chaining.
func (m *Mesh) Acquire() *Mesh {
	m.refs++
	return m
}

// Deferrer postpones a release until no frame in flight can read the
// resources it frees. vulkan.VulkanRenderer implements it.
type Deferrer interface {
	Defer(release func())
}

// Release drops a reference, destroying the GPU buffers on the last one.
// The device must not be using them anymore.
func (m *Mesh) Release() {
	m.ReleaseTo(nil)
}

// ReleaseTo drops a reference like Release but hands the destruction of the
// buffers to d. A nil d destroys them at once.
func (m *Mesh) ReleaseTo(d Deferrer) {
	if m.refs <= 0 {
		core.LogWarn("Mesh %q released more times than acquired", m.Name)
		return
	}
	m.refs--
	if m.refs > 0 {
		return
	}
	if d == nil {
		m.destroy()
		return
	}
	d.Defer(m.destroy)
}

func (m *Mesh) RefCount() int {
	return m.refs
}

func (m *Mesh) HasIndexBuffer() bool {
	return m.indexBuffer != nil
}

func (m *Mesh) destroy() {
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
	core.LogDebug("Mesh %q destroyed.", m.Name)
}

func (m *Mesh) Bind(cb vk.CommandBuffer) {
	m.device.CmdBindVertexBuffers(cb, []vk.Buffer{m.vertexBuffer.Handle}, []vk.DeviceSize{0})
	if m.indexBuffer != nil {
		m.device.CmdBindIndexBuffer(cb, m.indexBuffer.Handle)
	}
}

func (m *Mesh) Draw(cb vk.CommandBuffer) {
	if m.indexBuffer != nil {
		m.device.CmdDrawIndexed(cb, m.IndexCount, 1)
		return
	}
	m.device.CmdDraw(cb, m.VertexCount, 1)
}
