package bind_group_provider

import "slices"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindings declares the binding indices of the layout, each backed by its own uniform buffer.
//
// Parameters:
//   - bindings: the binding indices
//
// Returns:
//   - BindGroupProviderOption: a function that adds the bindings to this provider
func WithBindings(bindings ...int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		for _, b := range bindings {
			if !slices.Contains(p.bindings, b) {
				p.bindings = append(p.bindings, b)
			}
		}
	}
}
