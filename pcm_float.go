package adpcm

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

const (
	sampleBitDepth = 16
	scalePCMInt16  = 32768.0
)

// IntBuffer wraps decoded samples in a mono go-audio int buffer.
func IntBuffer(samples []int16, sampleRate int) *audio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	return &audio.IntBuffer{
		Data:           data,
		Format:         monoFormat(sampleRate),
		SourceBitDepth: sampleBitDepth,
	}
}

// Float32Buffer wraps decoded samples in a mono go-audio float buffer with
// values normalized to [-1, 1).
func Float32Buffer(samples []int16, sampleRate int) *audio.Float32Buffer {
	data := make([]float32, len(samples))
	for i, s := range samples {
		data[i] = normalizePCMInt16(s)
	}

	return &audio.Float32Buffer{
		Data:           data,
		Format:         monoFormat(sampleRate),
		SourceBitDepth: sampleBitDepth,
	}
}

// Duration returns the playback time of numSamples mono samples.
func Duration(numSamples, sampleRate int) time.Duration {
	if sampleRate <= 0 || numSamples <= 0 {
		return 0
	}

	return time.Duration(numSamples) * time.Second / time.Duration(sampleRate)
}

func monoFormat(sampleRate int) *audio.Format {
	return &audio.Format{
		NumChannels: 1,
		SampleRate:  sampleRate,
	}
}

func normalizePCMInt16(sample int16) float32 {
	return float32(float64(sample) / scalePCMInt16)
}

func clampFloat32(value, min, max float32) float32 {
	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

func float32ToPCMInt16(value float32) int16 {
	if math.IsNaN(float64(value)) {
		return 0
	}

	value = clampFloat32(value, -1, 1)
	scaled := int(math.Round(float64(value) * scalePCMInt16))

	return int16(clamp(scaled, minSample, maxSample))
}
