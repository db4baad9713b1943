// Command grainloom is the standalone player: it loads samples onto
// tracks, starts playback, and streams the engine to the default audio
// device.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ebitengine/oto/v3"

	"github.com/grainloom/grainloom/pkg/decode"
	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/engine"
	"github.com/grainloom/grainloom/pkg/engine/track"
	"github.com/grainloom/grainloom/pkg/framework/command"
	"github.com/grainloom/grainloom/pkg/framework/debug"
	"github.com/grainloom/grainloom/pkg/project"
)

func main() {
	sampleRate := flag.Int("rate", int(dsp.SampleRate48k), "output sample rate")
	blockSize := flag.Int("block", dsp.DefaultBlockSize, "render block size in samples")
	tempo := flag.Float64("tempo", 120, "transport tempo in BPM")
	wet := flag.Float64("wet", 0.5, "mosaic wet mix (0-1)")
	metro := flag.Bool("metronome", false, "enable the metronome click")
	snapshot := flag.String("snapshot", "", "project snapshot to restore before playback")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *verbose {
		debug.SetLevel(debug.LevelDebug)
	}

	if flag.NArg() == 0 && *snapshot == "" {
		fmt.Fprintln(os.Stderr, "usage: grainloom [flags] sample1 [sample2 ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if flag.NArg() > engine.NumTracks {
		fmt.Fprintf(os.Stderr, "at most %d samples (one per track)\n", engine.NumTracks)
		os.Exit(2)
	}

	eng := engine.New(dsp.Stereo, float64(*sampleRate), *blockSize)
	if p, ok := eng.Params.Get(engine.ParamTempo); ok {
		p.SetPlainValue(*tempo)
	}
	if p, ok := eng.Params.Get(engine.ParamMetronome); ok && *metro {
		p.SetValue(1)
	}

	if *snapshot != "" {
		if err := restoreSnapshot(eng, *snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	capacity := int(track.RecordMaxSeconds * float64(*sampleRate))
	for i, path := range flag.Args() {
		clip, err := decode.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", path, err)
			os.Exit(1)
		}
		clip = decode.Resample(clip, *sampleRate)
		ring := decode.ToRing(clip, dsp.Stereo, capacity)
		eng.Push(command.Command{Kind: command.LoadRing, Track: i, Ring: ring})
		eng.Push(command.Command{Kind: command.TapePlay, Track: i})
		if p, ok := eng.Tracks[i].Params.Get(track.ParamWet); ok {
			p.SetPlainValue(*wet)
		}
		fmt.Printf("track %d: %s (%d frames)\n", i, path, clip.Frames())
	}

	op := &oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: dsp.Stereo,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio: %v\n", err)
		os.Exit(1)
	}
	<-ready

	stream := newEngineStream(eng, *blockSize)
	player := ctx.NewPlayer(stream)
	player.Play()
	fmt.Println("playing, ctrl-c to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	_ = player.Close()
}

func restoreSnapshot(eng *engine.Engine, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap project.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	project.Apply(eng, &snap)
	return nil
}

// engineStream adapts the engine render loop to oto's pull model. Read
// is the render context.
type engineStream struct {
	eng   *engine.Engine
	block int
	out   [][]float32
	buf   []byte
	tail  []byte // bytes rendered but not yet consumed
}

func newEngineStream(eng *engine.Engine, block int) *engineStream {
	return &engineStream{
		eng:   eng,
		block: block,
		out:   [][]float32{make([]float32, block), make([]float32, block)},
		buf:   make([]byte, block*dsp.Stereo*4),
	}
}

func (s *engineStream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.tail) == 0 {
			s.eng.Process(nil, s.out, s.block)
			s.tail = s.interleave()
		}
		c := copy(p[n:], s.tail)
		s.tail = s.tail[c:]
		n += c
	}
	return n, nil
}

// interleave packs the planar block into little-endian float32 bytes.
// The buffer is reused; the previous tail must be fully consumed first.
func (s *engineStream) interleave() []byte {
	for i := 0; i < s.block; i++ {
		binary.LittleEndian.PutUint32(s.buf[i*8:], math.Float32bits(s.out[0][i]))
		binary.LittleEndian.PutUint32(s.buf[i*8+4:], math.Float32bits(s.out[1][i]))
	}
	return s.buf
}
