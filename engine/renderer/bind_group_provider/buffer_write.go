package bind_group_provider

// BufferWrite describes a single GPU buffer write targeting a binding of a BindGroupProvider
// at a given byte offset.
type BufferWrite struct {
	Binding int
	Offset  uint64
	Data    []byte
}

// end returns the first byte past the write.
func (w BufferWrite) end() uint64 {
	return w.Offset + uint64(len(w.Data))
}
