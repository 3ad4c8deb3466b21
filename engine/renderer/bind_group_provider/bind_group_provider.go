package bind_group_provider

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// Allocator creates and fills the GPU objects a provider owns. The wgpu backend implements it
// over its device and queue.
type Allocator interface {
	// CreateUniformBuffer allocates a uniform buffer that can be written to.
	CreateUniformBuffer(label string, size uint64) (*wgpu.Buffer, error)

	// CreateBindGroup binds whole buffers to a layout, keyed by binding index.
	CreateBindGroup(label string, layout *wgpu.BindGroupLayout, buffers map[int]*wgpu.Buffer) (*wgpu.BindGroup, error)

	// WriteBuffer queues a write of data into buf at offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// layout is the layout the bind group is created against. It is owned by the caller.
	layout *wgpu.BindGroupLayout

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// bindGroup is the bind group over the current buffers, or nil before the first Write.
	bindGroup *wgpu.BindGroup
	// buffers holds the uniform buffers, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// sizes holds the allocated size of every buffer in buffers.
	sizes map[int]uint64
	// bindings lists the binding indices the bind group needs a buffer for.
	bindings []int
	// stale is set until the bind group exists and whenever a buffer was replaced.
	stale bool
}

// BindGroupProvider owns a bind group made of uniform buffers that are rewritten every frame.
// Buffers persist across frames and are reallocated only when a write outgrows them, at which
// point the bind group is recreated.
//
// Usage pattern:
//  1. The backend creates a provider for a layout and the bindings it declares
//  2. Each frame the backend calls Write with the uniform data of every binding
//  3. Draw calls bind BindGroup()
type BindGroupProvider interface {
	// Release releases the buffers and the bind group. The layout is left alone.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group over the current buffers.
	// Returns nil until the first successful Write.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer bound at a binding index, or nil if none was allocated.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Size returns the allocated size of the buffer at a binding index.
	Size(binding int) uint64

	// Write grows any buffer too small for its write, writes the data, and recreates the bind
	// group if a buffer was replaced. Every binding must have been allocated once the writes are
	// done.
	//
	// Parameters:
	//   - alloc: the allocator GPU objects come from
	//   - writes: the writes to perform
	//
	// Returns:
	//   - error: error if allocation fails or a binding is unknown or still unallocated
	Write(alloc Allocator, writes []BufferWrite) error
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for the uniform bindings of a layout. No GPU objects
// are created until the first Write.
//
// Parameters:
//   - label: debug label for the buffers and the bind group
//   - layout: the layout the bind group is created against
//   - options: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, layout *wgpu.BindGroupLayout, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		layout:  layout,
		buffers: make(map[int]*wgpu.Buffer),
		sizes:   make(map[int]uint64),
		stale:   true,
	}
	for _, opt := range options {
		opt(p)
	}
	if len(p.bindings) == 0 {
		panic("bind_group_provider: NewBindGroupProvider requires at least one binding")
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Size(binding int) uint64 {
	return p.sizes[binding]
}

func (p *bindGroupProvider) Write(alloc Allocator, writes []BufferWrite) error {
	for _, w := range writes {
		if !slices.Contains(p.bindings, w.Binding) {
			return fmt.Errorf("%s: binding %d is not part of the bind group", p.label, w.Binding)
		}
		if err := p.reserve(alloc, w.Binding, w.end()); err != nil {
			return err
		}
	}
	for _, binding := range p.bindings {
		if _, ok := p.sizes[binding]; !ok {
			return fmt.Errorf("%s: binding %d has never been written", p.label, binding)
		}
	}

	for _, w := range writes {
		alloc.WriteBuffer(p.buffers[w.Binding], w.Offset, w.Data)
	}

	if p.stale {
		bg, err := alloc.CreateBindGroup(p.label, p.layout, maps.Clone(p.buffers))
		if err != nil {
			return fmt.Errorf("%s: failed to create bind group: %w", p.label, err)
		}
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		p.bindGroup = bg
		p.stale = false
	}
	return nil
}

// reserve makes sure the buffer at binding holds at least need bytes.
func (p *bindGroupProvider) reserve(alloc Allocator, binding int, need uint64) error {
	have, ok := p.sizes[binding]
	if ok && have >= need {
		return nil
	}
	size := growSize(have, need)
	buf, err := alloc.CreateUniformBuffer(fmt.Sprintf("%s binding %d", p.label, binding), size)
	if err != nil {
		return fmt.Errorf("%s: failed to allocate %d bytes for binding %d: %w", p.label, size, binding, err)
	}
	if old := p.buffers[binding]; old != nil {
		old.Release()
	}
	p.buffers[binding] = buf
	p.sizes[binding] = size
	p.stale = true
	return nil
}

// bufferAlignment is the granularity uniform buffers are allocated in.
const bufferAlignment = 256

// growSize returns the size to reallocate a buffer of size have to so that it holds need bytes.
// Sizes at least double so that a slowly growing light list does not reallocate every frame.
func growSize(have, need uint64) uint64 {
	size := max(need, have*2, bufferAlignment)
	return (size + bufferAlignment - 1) / bufferAlignment * bufferAlignment
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.sizes)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.stale = true
}
