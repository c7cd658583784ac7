package adpcm

import (
	"errors"
	"fmt"
)

const (
	minSample = -32768
	maxSample = 32767
)

var (
	// ErrInvalidCode is returned when a code outside [0, 15] is decoded.
	ErrInvalidCode = errors.New("invalid ADPCM code")
	// ErrInvalidState is returned when a decoder is preset with a state whose
	// predictor or step index is out of range.
	ErrInvalidState = errors.New("invalid decoder state")
)

// State is the decoder state carried from one code to the next.
// The zero value is the initial state of a stream.
type State struct {
	// Predictor is the last decoded sample, within the int16 range.
	Predictor int
	// StepIndex points into the step size table, within
	// [MinStepIndex, MaxStepIndex].
	StepIndex int
}

// Valid reports whether both fields are within their ranges.
func (s State) Valid() bool {
	return s.Predictor >= minSample && s.Predictor <= maxSample &&
		s.StepIndex >= MinStepIndex && s.StepIndex <= MaxStepIndex
}

// Next decodes a single code and returns the successor state together with
// the emitted sample. The receiver is not modified.
func (s State) Next(code byte) (State, int16, error) {
	if code > MaxCode {
		return s, 0, fmt.Errorf("%w: %d", ErrInvalidCode, code)
	}

	step := stepSizeTable[s.StepIndex]

	diff := step >> 3
	if code&4 != 0 {
		diff += step
	}

	if code&2 != 0 {
		diff += step >> 1
	}

	if code&1 != 0 {
		diff += step >> 2
	}

	if code&8 != 0 {
		s.Predictor -= diff
	} else {
		s.Predictor += diff
	}

	s.Predictor = clamp(s.Predictor, minSample, maxSample)
	s.StepIndex = clamp(s.StepIndex+indexAdjustTable[code], MinStepIndex, MaxStepIndex)

	return s, int16(s.Predictor), nil
}

// Decode decodes codes, one code per byte, starting from the initial state.
// The returned slice has the same length as codes. Decoding stops at the
// first invalid code and no samples are returned in that case.
func Decode(codes []byte) ([]int16, error) {
	samples, _, err := DecodeFrom(State{}, codes)
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// DecodeFrom decodes codes starting from state s and returns the samples and
// the state after the last code. Feeding consecutive chunks of a stream
// through DecodeFrom, passing the returned state along, yields the same
// samples as decoding the whole stream at once.
// On error the returned state is s.
func DecodeFrom(s State, codes []byte) ([]int16, State, error) {
	if !s.Valid() {
		return nil, s, fmt.Errorf("%w: predictor %d, step index %d", ErrInvalidState, s.Predictor, s.StepIndex)
	}

	samples := make([]int16, len(codes))
	cur := s

	for i, code := range codes {
		next, sample, err := cur.Next(code)
		if err != nil {
			return nil, s, fmt.Errorf("code %d: %w", i, err)
		}

		samples[i] = sample
		cur = next
	}

	return samples, cur, nil
}

// Decoder decodes a stream of codes delivered in chunks.
type Decoder struct {
	state State
}

// NewDecoder creates a decoder in the initial state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes the next chunk of codes. The decoder state only advances
// when the whole chunk decoded successfully.
func (d *Decoder) Decode(codes []byte) ([]int16, error) {
	samples, next, err := DecodeFrom(d.state, codes)
	if err != nil {
		return nil, err
	}

	d.state = next

	return samples, nil
}

// State returns the current decoder state.
func (d *Decoder) State() State {
	return d.state
}

// Preset sets the decoder state, e.g. from a block header.
func (d *Decoder) Preset(s State) error {
	if !s.Valid() {
		return fmt.Errorf("%w: predictor %d, step index %d", ErrInvalidState, s.Predictor, s.StepIndex)
	}

	d.state = s

	return nil
}

// Reset puts the decoder back into the initial state.
func (d *Decoder) Reset() {
	d.state = State{}
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}
