package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanDescriptorSetLayout struct {
	Handle   vk.DescriptorSetLayout
	Bindings map[uint32]vk.DescriptorSetLayoutBinding
	device   Device
}

type DescriptorSetLayoutBuilder struct {
	device   Device
	bindings map[uint32]vk.DescriptorSetLayoutBinding
	order    []uint32
}

func NewDescriptorSetLayoutBuilder(device Device) *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{
		device:   device,
		bindings: make(map[uint32]vk.DescriptorSetLayoutBinding),
	}
}

// AddBinding panics on a duplicate binding number; layouts are assembled
// from constants.
func (b *DescriptorSetLayoutBuilder) AddBinding(binding uint32, descriptorType vk.DescriptorType, stages vk.ShaderStageFlags, count uint32) *DescriptorSetLayoutBuilder {
	if _, ok := b.bindings[binding]; ok {
		panic(errors.AssertionFailedf("descriptor binding %d already in use", binding))
	}
	b.bindings[binding] = vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: count,
		StageFlags:      stages,
	}
	b.order = append(b.order, binding)
	return b
}

func (b *DescriptorSetLayoutBuilder) Build() (*VulkanDescriptorSetLayout, error) {
	list := make([]vk.DescriptorSetLayoutBinding, 0, len(b.order))
	for _, n := range b.order {
		list = append(list, b.bindings[n])
	}
	handle, err := b.device.CreateDescriptorSetLayout(list)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create descriptor set layout")
	}
	return &VulkanDescriptorSetLayout{
		Handle:   handle,
		Bindings: b.bindings,
		device:   b.device,
	}, nil
}

func (l *VulkanDescriptorSetLayout) Destroy() {
	if l.Handle != nil {
		l.device.DestroyDescriptorSetLayout(l.Handle)
		l.Handle = nil
	}
}

type VulkanDescriptorPool struct {
	Handle vk.DescriptorPool
	device Device
}

type DescriptorPoolBuilder struct {
	device  Device
	sizes   []vk.DescriptorPoolSize
	maxSets uint32
	flags   vk.DescriptorPoolCreateFlags
}

func NewDescriptorPoolBuilder(device Device) *DescriptorPoolBuilder {
	return &DescriptorPoolBuilder{device: device, maxSets: 1000}
}

func (b *DescriptorPoolBuilder) AddPoolSize(descriptorType vk.DescriptorType, count uint32) *DescriptorPoolBuilder {
	b.sizes = append(b.sizes, vk.DescriptorPoolSize{Type: descriptorType, DescriptorCount: count})
	return b
}

func (b *DescriptorPoolBuilder) SetMaxSets(count uint32) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

func (b *DescriptorPoolBuilder) SetPoolFlags(flags vk.DescriptorPoolCreateFlags) *DescriptorPoolBuilder {
	b.flags = flags
	return b
}

func (b *DescriptorPoolBuilder) Build() (*VulkanDescriptorPool, error) {
	handle, err := b.device.CreateDescriptorPool(b.maxSets, b.sizes, b.flags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create descriptor pool")
	}
	return &VulkanDescriptorPool{Handle: handle, device: b.device}, nil
}

func (p *VulkanDescriptorPool) Allocate(layout *VulkanDescriptorSetLayout) (vk.DescriptorSet, error) {
	set, err := p.device.AllocateDescriptorSet(p.Handle, layout.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate descriptor set")
	}
	return set, nil
}

func (p *VulkanDescriptorPool) Destroy() {
	if p.Handle != nil {
		p.device.DestroyDescriptorPool(p.Handle)
		p.Handle = nil
	}
}

// DescriptorWriter collects writes against one layout and flushes them into
// a freshly allocated set.
type DescriptorWriter struct {
	layout *VulkanDescriptorSetLayout
	pool   *VulkanDescriptorPool
	writes []vk.WriteDescriptorSet
	err    error
}

func NewDescriptorWriter(layout *VulkanDescriptorSetLayout, pool *VulkanDescriptorPool) *DescriptorWriter {
	return &DescriptorWriter{layout: layout, pool: pool}
}

func (w *DescriptorWriter) WriteBuffer(binding uint32, info vk.DescriptorBufferInfo) *DescriptorWriter {
	desc, ok := w.layout.Bindings[binding]
	if !ok {
		w.err = errors.AssertionFailedf("layout does not contain binding %d", binding)
		return w
	}
	if desc.DescriptorCount != 1 {
		w.err = errors.AssertionFailedf("binding %d expects %d descriptors", binding, desc.DescriptorCount)
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  desc.DescriptorType,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
	return w
}

func (w *DescriptorWriter) Build() (vk.DescriptorSet, error) {
	if w.err != nil {
		return nil, w.err
	}
	set, err := w.pool.Allocate(w.layout)
	if err != nil {
		return nil, err
	}
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	w.pool.device.UpdateDescriptorSets(w.writes)
	return set, nil
}
