package reactive

// Option configures a cell, derived value or effect.
type Option func(*options)

type options struct {
	name string
}

// Named labels a reactive value. The name shows up in logs, cycle errors and
// observer events.
func Named(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
