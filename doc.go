// Package adpcm decodes 4-bit IMA-style ADPCM codes into 16-bit PCM.
//
// The decoder is a table-driven state machine: every code moves a predictor
// and a step index, and both are saturated after each step so a stream stays
// bit-exact with the reference decoder. Three entry points share the same
// core:
//
//   - Decode / DecodeFrom work on a slice of codes (one code per byte).
//   - Decoder keeps the state between calls for chunked input.
//   - Reader decodes packed bytes (two codes per byte, low nibble first)
//     from an io.Reader into go-audio buffers.
//
// Decoded samples can be written to a WAV file with Encoder.
package adpcm
