package adpcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

const (
	wavFormatPCM    = 1
	fmtChunkSize    = 16
	sizePlaceholder = uint32(4294967295)
)

var (
	errNilBuffer           = errors.New("can't add a nil buffer")
	errNilEncoder          = errors.New("can't write a nil encoder")
	errNilWriter           = errors.New("can't write to a nil writer")
	errUnsupportedChannels = errors.New("only mono buffers are supported")
)

// Encoder writes decoded samples into a 16-bit mono PCM wav container.
type Encoder struct {
	w   io.WriteSeeker
	buf *bytes.Buffer

	SampleRate int

	WrittenBytes    int
	frames          int
	pcmChunkSizePos int
	wroteHeader     bool
}

// NewEncoder creates an encoder writing a wav file to w.
// Close must be called once all samples were written.
func NewEncoder(w io.WriteSeeker, sampleRate int) *Encoder {
	return &Encoder{
		w:          w,
		buf:        bytes.NewBuffer(make([]byte, 0, readChunkSamples*2)),
		SampleRate: sampleRate,
	}
}

// Frames returns the number of samples written so far.
func (e *Encoder) Frames() int {
	return e.frames
}

// AddLE serializes and adds the passed value using little endian.
func (e *Encoder) AddLE(src any) error {
	e.WrittenBytes += binary.Size(src)

	err := binary.Write(e.w, binary.LittleEndian, src)
	if err != nil {
		return fmt.Errorf("failed to write little endian: %w", err)
	}

	return nil
}

// WriteSamples appends decoded samples.
func (e *Encoder) WriteSamples(samples []int16) error {
	err := e.startData()
	if err != nil {
		return err
	}

	for _, s := range samples {
		err := binary.Write(e.buf, binary.LittleEndian, s)
		if err != nil {
			return fmt.Errorf("failed to write 16-bit sample: %w", err)
		}
	}

	e.frames += len(samples)

	return e.flush()
}

// Write appends the samples of a mono int buffer. Values outside the int16
// range are clamped.
func (e *Encoder) Write(buf *audio.IntBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if buf.Format != nil && buf.Format.NumChannels > 1 {
		return fmt.Errorf("%w: %d channels", errUnsupportedChannels, buf.Format.NumChannels)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(clamp(v, minSample, maxSample))
	}

	return e.WriteSamples(samples)
}

// WriteFloat32 appends the samples of a normalized mono float buffer.
func (e *Encoder) WriteFloat32(buf *audio.Float32Buffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if buf.Format != nil && buf.Format.NumChannels > 1 {
		return fmt.Errorf("%w: %d channels", errUnsupportedChannels, buf.Format.NumChannels)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32ToPCMInt16(v)
	}

	return e.WriteSamples(samples)
}

func (e *Encoder) writeHeader() error {
	if e == nil {
		return errNilEncoder
	}

	if e.w == nil {
		return errNilWriter
	}

	e.wroteHeader = true

	err := e.AddLE(riff.RiffID)
	if err != nil {
		return err
	}

	// file size, patched in Close
	err = e.AddLE(sizePlaceholder)
	if err != nil {
		return err
	}

	err = e.AddLE(riff.WavFormatID)
	if err != nil {
		return err
	}

	err = e.AddLE(riff.FmtID)
	if err != nil {
		return err
	}

	return e.writeFmtChunk()
}

func (e *Encoder) writeFmtChunk() error {
	blockAlign := sampleBitDepth / 8

	err := e.AddLE(uint32(fmtChunkSize))
	if err != nil {
		return err
	}

	err = e.AddLE(uint16(wavFormatPCM))
	if err != nil {
		return fmt.Errorf("error encoding the audio format - %w", err)
	}

	err = e.AddLE(uint16(1))
	if err != nil {
		return fmt.Errorf("error encoding the number of channels - %w", err)
	}

	err = e.AddLE(uint32(e.SampleRate))
	if err != nil {
		return fmt.Errorf("error encoding the sample rate - %w", err)
	}

	err = e.AddLE(uint32(e.SampleRate * blockAlign))
	if err != nil {
		return fmt.Errorf("error encoding the avg bytes per sec - %w", err)
	}

	err = e.AddLE(uint16(blockAlign))
	if err != nil {
		return err
	}

	err = e.AddLE(uint16(sampleBitDepth))
	if err != nil {
		return fmt.Errorf("error encoding bits per sample - %w", err)
	}

	return nil
}

func (e *Encoder) startData() error {
	if e == nil {
		return errNilEncoder
	}

	if e.pcmChunkSizePos > 0 {
		return nil
	}

	if !e.wroteHeader {
		err := e.writeHeader()
		if err != nil {
			return err
		}
	}

	err := e.AddLE(riff.DataFormatID)
	if err != nil {
		return fmt.Errorf("error encoding sound header %w", err)
	}

	e.pcmChunkSizePos = e.WrittenBytes

	err = e.AddLE(sizePlaceholder)
	if err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	return nil
}

func (e *Encoder) flush() error {
	n, err := e.w.Write(e.buf.Bytes())
	e.WrittenBytes += n
	e.buf.Reset()

	if err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}

	return nil
}

// Close patches the chunk sizes in the header. The underlying writer is not
// closed. A file without any written samples still gets a valid header and
// an empty data chunk.
func (e *Encoder) Close() error {
	if e == nil || e.w == nil {
		return nil
	}

	err := e.startData()
	if err != nil {
		return err
	}

	if _, err := e.w.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to file size position: %w", err)
	}

	// AddLE counts the patch bytes as written, so compute sizes before.
	total := uint32(e.WrittenBytes - 8)
	dataSize := uint32(e.frames * sampleBitDepth / 8)

	err = e.AddLE(total)
	if err != nil {
		return fmt.Errorf("%w when writing the total written bytes", err)
	}

	if _, err := e.w.Seek(int64(e.pcmChunkSizePos), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to PCM chunk size position: %w", err)
	}

	err = e.AddLE(dataSize)
	if err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	e.WrittenBytes -= 8

	if _, err := e.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of file: %w", err)
	}

	if f, ok := e.w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}
