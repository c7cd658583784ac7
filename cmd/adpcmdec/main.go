// This tool decodes a headerless 4-bit ADPCM stream into PCM and writes it as
// a wav, aiff or raw little-endian file.
package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/adpcm"
	"github.com/cwbudde/adpcm/internal/config"
	"github.com/cwbudde/adpcm/internal/logger"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const version = "v1.0.0"

const bufferSize = 4096

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("adpcmdec failed")
	}
}

type sampleSink interface {
	Write(buf *audio.IntBuffer) error
	Close() error
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("adpcmdec", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)

	configFile := flagSet.StringP("config", "c", "", "YAML configuration file")
	input := flagSet.StringP("input", "i", "-", "ADPCM input file (- for stdin)")
	output := flagSet.StringP("output", "o", "", "file to write to (- for stdout, raw only)")
	format := flagSet.StringP("format", "f", config.FormatWAV, "output format (wav, aiff, raw)")
	rate := flagSet.IntP("rate", "r", config.DefaultSampleRate, "sample rate in hertz of the decoded stream")
	nibbles := flagSet.Bool("nibbles", false, "input holds one code per byte instead of two")
	logLevel := flagSet.String("log-level", "", "log level (debug, info, warn, error), defaults to $LOG_LEVEL or info")
	showVersion := flagSet.BoolP("version", "v", false, "print version and exit")

	err := flagSet.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}

	if err != nil {
		return err
	}

	if *showVersion {
		_, err := fmt.Fprintf(stdout, "adpcmdec %s\n", version)
		return err
	}

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			return err
		}
	}

	if flagSet.Changed("input") {
		cfg.Input.Path = *input
	}

	if flagSet.Changed("output") {
		cfg.Output.Path = *output
	}

	if flagSet.Changed("format") {
		cfg.Output.Format = *format
	}

	if flagSet.Changed("rate") {
		cfg.Input.SampleRate = *rate
	}

	if flagSet.Changed("nibbles") {
		cfg.Input.Nibbles = *nibbles
	}

	if flagSet.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(stderr, cfg.Logging.Level)

	src, closeSrc, err := openInput(cfg.Input.Path, stdin)
	if err != nil {
		return err
	}
	defer closeSrc()

	sink, closeDst, err := openSink(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeDst()

	log.Info().
		Str("input", cfg.Input.Path).
		Str("output", cfg.Output.Path).
		Str("format", cfg.Output.Format).
		Int("rate", cfg.Input.SampleRate).
		Msg("decoding ADPCM stream")

	reader := adpcm.NewReader(src, cfg.Input.SampleRate)
	reader.Nibbles = cfg.Input.Nibbles

	err = decodeInto(reader, sink)
	if err != nil {
		return err
	}

	err = sink.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	state := reader.State()
	log.Info().
		Int("samples", reader.SamplesRead()).
		Dur("duration", reader.Duration()).
		Int("predictor", state.Predictor).
		Int("step_index", state.StepIndex).
		Msg("decoding done")

	return nil
}

func decodeInto(reader *adpcm.Reader, sink sampleSink) error {
	buf := &audio.IntBuffer{Data: make([]int, bufferSize), Format: reader.Format()}

	for {
		n, err := reader.PCMBuffer(buf)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to decode: %w", err)
		}

		log.Debug().Int("samples", n).Msg("decoded chunk")

		chunk := &audio.IntBuffer{
			Data:           buf.Data[:n],
			Format:         buf.Format,
			SourceBitDepth: buf.SourceBitDepth,
		}

		err = sink.Write(chunk)
		if err != nil {
			return fmt.Errorf("failed to write samples: %w", err)
		}
	}
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return stdin, func() {}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}

	return file, func() { file.Close() }, nil
}

func openSink(cfg *config.Config, stdout io.Writer) (sampleSink, func(), error) {
	path := cfg.Output.Path
	if cfg.Output.Format == config.FormatRaw && (path == "" || path == "-") {
		return &rawSink{w: stdout}, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating %s: %w", path, err)
	}

	closeFile := func() { file.Close() }

	switch cfg.Output.Format {
	case config.FormatAIFF:
		return aiff.NewEncoder(file, cfg.Input.SampleRate, 16, 1), closeFile, nil
	case config.FormatRaw:
		return &rawSink{w: file}, closeFile, nil
	default:
		return adpcm.NewEncoder(file, cfg.Input.SampleRate), closeFile, nil
	}
}

// rawSink writes headerless 16-bit little-endian samples.
type rawSink struct {
	w io.Writer
}

func (s *rawSink) Write(buf *audio.IntBuffer) error {
	out := make([]byte, 2*len(buf.Data))
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}

	_, err := s.w.Write(out)

	return err
}

func (s *rawSink) Close() error {
	return nil
}
