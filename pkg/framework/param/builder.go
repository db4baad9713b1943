package param

import "fmt"

// Builder provides a fluent API for constructing parameters.
type Builder struct {
	param *Parameter
}

// New starts building a parameter with the given ID and name.
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:        id,
			Name:      name,
			ShortName: name,
			Min:       0,
			Max:       1,
		},
	}
}

// Range sets the plain value range.
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default plain value.
func (b *Builder) Default(plain float64) *Builder {
	b.param.DefaultValue = b.param.Normalize(plain)
	return b
}

// Unit sets the display unit string.
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// ShortName sets an abbreviated name for constrained surfaces.
func (b *Builder) ShortName(name string) *Builder {
	b.param.ShortName = name
	return b
}

// Steps makes the parameter discrete with the given step count.
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Bipolar marks the parameter as centered at zero for display purposes.
func (b *Builder) Bipolar() *Builder {
	b.param.Bipolar = true
	return b
}

// Formatter sets custom display formatting.
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.SetFormatter(format, parse)
	return b
}

// Build finalizes the parameter, initialized to its default value.
func (b *Builder) Build() *Parameter {
	b.param.SetValue(b.param.DefaultValue)
	return b.param
}

// Common formatters.

// FormatHz formats a frequency, switching to kHz above 1000.
func FormatHz(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2f kHz", v/1000)
	}
	return fmt.Sprintf("%.1f Hz", v)
}

// FormatDB formats a decibel value.
func FormatDB(v float64) string {
	return fmt.Sprintf("%+.1f dB", v)
}

// FormatMs formats a millisecond time.
func FormatMs(v float64) string {
	return fmt.Sprintf("%.1f ms", v)
}

// FormatSemitones formats a pitch offset in semitones.
func FormatSemitones(v float64) string {
	return fmt.Sprintf("%+.1f st", v)
}

// FormatPercent formats a 0-1 value as a percentage.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.0f %%", v*100)
}
