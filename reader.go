package adpcm

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
)

const readChunkSamples = 4096

// Reader decodes an ADPCM stream from an io.Reader. By default every input
// byte holds two codes, low nibble first. The decoder state is kept between
// calls so the stream can be consumed in buffers of any size.
type Reader struct {
	r io.Reader

	SampleRate int
	// Nibbles marks input that already holds one code per byte.
	Nibbles bool

	state      State
	pending    byte
	hasPending bool
	raw        []byte
	codes      []byte
	read       int
	err        error
}

// NewReader creates a reader decoding the ADPCM stream in r.
func NewReader(r io.Reader, sampleRate int) *Reader {
	return &Reader{
		r:          r,
		SampleRate: sampleRate,
	}
}

// State returns the decoder state after the last decoded sample.
func (r *Reader) State() State {
	return r.state
}

// SamplesRead returns the number of samples decoded so far.
func (r *Reader) SamplesRead() int {
	return r.read
}

// Duration returns the playback time of the samples decoded so far.
func (r *Reader) Duration() time.Duration {
	return Duration(r.read, r.SampleRate)
}

// Format returns the audio format of the decoded content.
func (r *Reader) Format() *audio.Format {
	return monoFormat(r.SampleRate)
}

// PCMBuffer decodes up to len(buf.Data) samples into buf and returns the
// number of samples written. It returns io.EOF once the input is exhausted.
func (r *Reader) PCMBuffer(buf *audio.IntBuffer) (int, error) {
	if buf == nil || len(buf.Data) == 0 {
		return 0, nil
	}

	if r.err != nil {
		return 0, r.err
	}

	want := len(buf.Data)

	codes, readErr := r.nextCodes(want)
	if len(codes) == 0 {
		if readErr == nil {
			readErr = io.EOF
		}

		r.err = readErr

		return 0, readErr
	}

	pending, hasPending := byte(0), false
	if len(codes) > want {
		pending, hasPending = codes[want], true
		codes = codes[:want]
	}

	samples, next, err := DecodeFrom(r.state, codes)
	if err != nil {
		r.err = fmt.Errorf("sample %d: %w", r.read, err)
		return 0, r.err
	}

	r.state = next
	r.pending, r.hasPending = pending, hasPending
	r.read += len(samples)

	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	buf.Format = r.Format()
	buf.SourceBitDepth = sampleBitDepth

	// a short read is reported on the next call
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		r.err = readErr
	}

	return len(samples), nil
}

// FullPCMBuffer decodes the remainder of the stream into a single buffer.
func (r *Reader) FullPCMBuffer() (*audio.IntBuffer, error) {
	chunk := &audio.IntBuffer{Data: make([]int, readChunkSamples)}
	out := &audio.IntBuffer{
		Data:           make([]int, 0, readChunkSamples),
		Format:         r.Format(),
		SourceBitDepth: sampleBitDepth,
	}

	for {
		n, err := r.PCMBuffer(chunk)
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return nil, err
		}

		out.Data = append(out.Data, chunk.Data[:n]...)
	}
}

// ReadSamples decodes the remainder of the stream into int16 samples.
func (r *Reader) ReadSamples() ([]int16, error) {
	buf, err := r.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	return samples, nil
}

// nextCodes returns at least want codes when the input allows it, one more
// when a packed byte had to be split across calls. The returned error is
// io.EOF when the input ended, or the read failure.
func (r *Reader) nextCodes(want int) ([]byte, error) {
	r.codes = r.codes[:0]
	if r.hasPending {
		r.codes = append(r.codes, r.pending)
		r.hasPending = false
	}

	missing := want - len(r.codes)
	if missing <= 0 {
		return r.codes, nil
	}

	need := missing
	if !r.Nibbles {
		need = (missing + 1) / 2
	}

	if cap(r.raw) < need {
		r.raw = make([]byte, need)
	}

	n, err := io.ReadFull(r.r, r.raw[:need])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}

	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("failed to read ADPCM data: %w", err)
	}

	if r.Nibbles {
		r.codes = append(r.codes, r.raw[:n]...)
	} else {
		r.codes = AppendNibbles(r.codes, r.raw[:n])
	}

	return r.codes, err
}
