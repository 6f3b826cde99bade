package params

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsMomentary uint32 = 1 << 2 // trigger-style, not persisted
)

// Parameter is a single host-visible plugin parameter
type Parameter struct {
	Address    Address
	Name       string
	Identifier string
	Unit       string
	Min        float64
	Max        float64
	Default    float64 // normalized
	Steps      int32
	Flags      uint32

	// normalized value as float64 bits, read lock-free from the render path
	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Value returns the current normalized value (0-1)
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to 0-1
func (p *Parameter) SetValue(norm float64) {
	if norm < 0 || math.IsNaN(norm) {
		norm = 0
	} else if norm > 1 {
		norm = 1
	}
	if p.Steps > 0 {
		norm = math.Round(norm*float64(p.Steps)) / float64(p.Steps)
	}
	p.value.Store(math.Float64bits(norm))
}

// PlainValue returns the value in the parameter's own range
func (p *Parameter) PlainValue() float64 {
	return p.Denormalize(p.Value())
}

// SetPlainValue sets the value from the parameter's own range
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Normalize converts a plain value to 0-1
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	n := (plain - p.Min) / (p.Max - p.Min)
	return math.Max(0, math.Min(1, n))
}

// Denormalize converts 0-1 to a plain value
func (p *Parameter) Denormalize(norm float64) float64 {
	if p.Steps > 0 {
		step := (p.Max - p.Min) / float64(p.Steps)
		return p.Min + math.Round(norm*float64(p.Steps))*step
	}
	return p.Min + norm*(p.Max-p.Min)
}

// Format renders a normalized value for display
func (p *Parameter) Format(norm float64) string {
	plain := p.Denormalize(norm)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.Steps > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// Parse converts display text to a normalized value
func (p *Parameter) Parse(s string) (float64, error) {
	var (
		plain float64
		err   error
	)
	if p.parseFunc != nil {
		plain, err = p.parseFunc(s)
	} else {
		plain, err = strconv.ParseFloat(s, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", p.Identifier, err)
	}
	return p.Normalize(plain), nil
}

// Momentary reports whether the parameter is a trigger
func (p *Parameter) Momentary() bool {
	return p.Flags&IsMomentary != 0
}
