package params

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a parameter builder. The identifier defaults to the
// address's symbolic name.
func New(addr Address, name string) *Builder {
	return &Builder{
		param: &Parameter{
			Address:    addr,
			Name:       name,
			Identifier: addr.String(),
			Min:        0,
			Max:        1,
			Flags:      CanAutomate,
		},
	}
}

// Identifier sets the stable key used for state persistence
func (b *Builder) Identifier(id string) *Builder {
	b.param.Identifier = id
	return b
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	b.param.Default = b.param.Normalize(value)
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps sets the number of discrete steps
func (b *Builder) Steps(count int32) *Builder {
	b.param.Steps = count
	return b
}

// Toggle makes a two-state parameter
func (b *Builder) Toggle() *Builder {
	b.param.Min = 0
	b.param.Max = 1
	b.param.Steps = 1
	b.param.Default = 0
	return b
}

// Momentary makes a toggle that springs back and is never persisted
func (b *Builder) Momentary() *Builder {
	b.Toggle()
	b.param.Flags |= IsMomentary
	return b
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags |= IsReadOnly
	b.param.Flags &^= CanAutomate
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter set to its default
func (b *Builder) Build() *Parameter {
	b.param.SetValue(b.param.Default)
	return b.param
}
