package adpcm

import (
	"slices"
	"testing"
)

func TestSplitNibbles(t *testing.T) {
	tests := []struct {
		name   string
		packed []byte
		want   []byte
	}{
		{"empty", nil, []byte{}},
		{"low first", []byte{0x12}, []byte{0x2, 0x1}},
		{"several", []byte{0x07, 0xF0, 0xAB}, []byte{0x7, 0x0, 0x0, 0xF, 0xB, 0xA}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitNibbles(tt.packed)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("SplitNibbles(%x)=%v, want %v", tt.packed, got, tt.want)
			}

			if len(got) != 2*len(tt.packed) {
				t.Fatalf("len=%d, want %d", len(got), 2*len(tt.packed))
			}
		})
	}
}

func TestAppendNibbles(t *testing.T) {
	got := AppendNibbles([]byte{9}, []byte{0x34})
	want := []byte{9, 4, 3}

	if !slices.Equal(got, want) {
		t.Fatalf("AppendNibbles=%v, want %v", got, want)
	}
}

func TestDecodePacked(t *testing.T) {
	got, err := DecodePacked([]byte{0x07, 0x77, 0x3F, 0x8A})
	if err != nil {
		t.Fatalf("DecodePacked failed: %v", err)
	}

	want := []int16{11, 13, 38, 94, -29, 94, 13, -1}
	if !slices.Equal(got, want) {
		t.Fatalf("DecodePacked=%v, want %v", got, want)
	}
}

func TestDecodePackedAllBytes(t *testing.T) {
	packed := make([]byte, 256)
	for i := range packed {
		packed[i] = byte(i)
	}

	got, err := DecodePacked(packed)
	if err != nil {
		t.Fatalf("every byte value must decode, got %v", err)
	}

	if len(got) != 512 {
		t.Fatalf("len=%d, want 512", len(got))
	}
}
