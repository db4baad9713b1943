// Package process defines the render-context view of one audio block.
package process

// Transport carries the host timeline state for the current block.
type Transport struct {
	Tempo     float64 // beats per minute
	SamplePos int64   // absolute sample position of the block start
	Playing   bool
}

// Context provides everything a processor needs for one block. It is
// allocated once at setup and reused every block; nothing here may
// allocate in the render path.
type Context struct {
	Input  [][]float32 // input buffers [channel][sample]
	Output [][]float32 // output buffers [channel][sample]

	SampleRate float64
	Transport  Transport

	numSamples int
	work       [][]float32
}

// New creates a context with preallocated work buffers.
func New(maxBlockSize, workBuffers int, sampleRate float64) *Context {
	ctx := &Context{
		SampleRate: sampleRate,
		work:       make([][]float32, workBuffers),
	}
	for i := range ctx.work {
		ctx.work[i] = make([]float32, maxBlockSize)
	}
	return ctx
}

// Bind points the context at the block's buffers. Called once per block
// before processing.
func (c *Context) Bind(input, output [][]float32, numSamples int) {
	c.Input = input
	c.Output = output
	c.numSamples = numSamples
}

// NumSamples returns the block length in samples.
func (c *Context) NumSamples() int {
	return c.numSamples
}

// WorkBuffer returns preallocated scratch space index i, sliced to the
// block length.
func (c *Context) WorkBuffer(i int) []float32 {
	return c.work[i][:c.numSamples]
}

// Clear zeroes all output channels.
func (c *Context) Clear() {
	for ch := range c.Output {
		buf := c.Output[ch][:c.numSamples]
		for i := range buf {
			buf[i] = 0
		}
	}
}

// PassThrough copies input to output unmodified.
func (c *Context) PassThrough() {
	for ch := range c.Output {
		if ch < len(c.Input) {
			copy(c.Output[ch][:c.numSamples], c.Input[ch][:c.numSamples])
		}
	}
}

// SamplesPerBeat returns the number of samples in one beat at the
// transport tempo, or 0 when the tempo is unset.
func (c *Context) SamplesPerBeat() float64 {
	if c.Transport.Tempo <= 0 {
		return 0
	}
	return c.SampleRate * 60.0 / c.Transport.Tempo
}
