package incr

// NodeOption is a functional option for node construction.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	name string
}

// Named labels a node for logs, events, and graph snapshots. Labels have
// no semantic effect.
func Named(name string) NodeOption {
	return func(o *nodeOptions) {
		o.name = name
	}
}

// applyNodeOptions applies the given options and returns the result.
func applyNodeOptions(opts []NodeOption) nodeOptions {
	var options nodeOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
