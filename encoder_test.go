package adpcm

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

type wavInfo struct {
	fmtChunk struct {
		FormatTag      uint16
		NumChannels    uint16
		SampleRate     uint32
		AvgBytesPerSec uint32
		BlockAlign     uint16
		BitsPerSample  uint16
	}
	riffSize uint32
	samples  []int16
}

func readWav(t *testing.T, path string) wavInfo {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var info wavInfo

	parser := riff.New(f)

	id, size, err := parser.IDnSize()
	if err != nil {
		t.Fatalf("read riff header: %v", err)
	}

	if id != riff.RiffID {
		t.Fatalf("id=%q, want RIFF", id)
	}

	info.riffSize = size

	var format [4]byte
	if err := binary.Read(f, binary.BigEndian, &format); err != nil {
		t.Fatalf("read format: %v", err)
	}

	if format != riff.WavFormatID {
		t.Fatalf("format=%q, want WAVE", format)
	}

	for {
		chunk, err := parser.NextChunk()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			t.Fatalf("next chunk: %v", err)
		}

		switch chunk.ID {
		case riff.FmtID:
			if err := chunk.ReadLE(&info.fmtChunk); err != nil {
				t.Fatalf("read fmt chunk: %v", err)
			}
		case riff.DataFormatID:
			info.samples = make([]int16, chunk.Size/2)
			if chunk.Size == 0 {
				break
			}

			if err := chunk.ReadLE(&info.samples); err != nil {
				t.Fatalf("read data chunk: %v", err)
			}
		}

		chunk.Drain()
	}

	return info
}

func TestEncoderWriteSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := DecodePacked(randomPacked(2, 301))
	if err != nil {
		t.Fatal(err)
	}

	enc := NewEncoder(f, 8000)

	if err := enc.WriteSamples(samples[:100]); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}

	if err := enc.Write(IntBuffer(samples[100:], 8000)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if enc.Frames() != len(samples) {
		t.Fatalf("Frames=%d, want %d", enc.Frames(), len(samples))
	}

	info := readWav(t, path)

	if info.fmtChunk.FormatTag != wavFormatPCM {
		t.Fatalf("format tag=%d, want 1", info.fmtChunk.FormatTag)
	}

	if info.fmtChunk.NumChannels != 1 || info.fmtChunk.SampleRate != 8000 || info.fmtChunk.BitsPerSample != 16 {
		t.Fatalf("unexpected fmt chunk %+v", info.fmtChunk)
	}

	if info.fmtChunk.AvgBytesPerSec != 16000 || info.fmtChunk.BlockAlign != 2 {
		t.Fatalf("unexpected byte rate %+v", info.fmtChunk)
	}

	if !slices.Equal(info.samples, samples) {
		t.Fatal("samples read back differ from written samples")
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if int64(info.riffSize) != fi.Size()-8 {
		t.Fatalf("riff size=%d, want %d", info.riffSize, fi.Size()-8)
	}
}

func TestEncoderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := NewEncoder(f, 8000)
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f.Close()

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if fi.Size() != 44 {
		t.Fatalf("size=%d, want 44", fi.Size())
	}

	info := readWav(t, path)
	if len(info.samples) != 0 {
		t.Fatalf("got %d samples, want 0", len(info.samples))
	}
}

func TestEncoderWriteFloat32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []int16{-32768, -11, 0, 533, 32767}

	enc := NewEncoder(f, 8000)
	if err := enc.WriteFloat32(Float32Buffer(want, 8000)); err != nil {
		t.Fatalf("WriteFloat32 failed: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	f.Close()

	got := readWav(t, path).samples

	// 32767 does not survive the float round trip exactly
	for i := range want {
		diff := int(got[i]) - int(want[i])
		if diff < -1 || diff > 1 {
			t.Fatalf("sample %d=%d, want %d", i, got[i], want[i])
		}
	}
}

func TestEncoderWriteFloat32OutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "range.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	buf := &audio.Float32Buffer{
		Data:   []float32{1e30, -1e30, float32(math.Inf(1)), float32(math.NaN())},
		Format: &audio.Format{NumChannels: 1, SampleRate: 8000},
	}

	enc := NewEncoder(f, 8000)
	if err := enc.WriteFloat32(buf); err != nil {
		t.Fatalf("WriteFloat32 failed: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	f.Close()

	got := readWav(t, path).samples
	want := []int16{32767, -32768, 32767, 0}

	if !slices.Equal(got, want) {
		t.Fatalf("samples=%v, want %v", got, want)
	}
}

func TestEncoderErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "err.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := NewEncoder(f, 8000)

	if err := enc.Write(nil); !errors.Is(err, errNilBuffer) {
		t.Fatalf("err=%v, want errNilBuffer", err)
	}

	if err := enc.WriteFloat32(nil); !errors.Is(err, errNilBuffer) {
		t.Fatalf("err=%v, want errNilBuffer", err)
	}

	stereo := &audio.IntBuffer{
		Data:   []int{1, 2},
		Format: &audio.Format{NumChannels: 2, SampleRate: 8000},
	}
	if err := enc.Write(stereo); !errors.Is(err, errUnsupportedChannels) {
		t.Fatalf("err=%v, want errUnsupportedChannels", err)
	}

	if err := NewEncoder(nil, 8000).WriteSamples([]int16{1}); !errors.Is(err, errNilWriter) {
		t.Fatalf("err=%v, want errNilWriter", err)
	}
}
