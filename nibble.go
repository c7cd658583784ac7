package adpcm

// SplitNibbles splits packed bytes into codes, low nibble first.
// The result is twice as long as packed.
func SplitNibbles(packed []byte) []byte {
	return AppendNibbles(make([]byte, 0, len(packed)*2), packed)
}

// AppendNibbles appends the codes of packed to dst and returns the extended
// slice.
func AppendNibbles(dst, packed []byte) []byte {
	for _, b := range packed {
		dst = append(dst, b&0x0F, (b>>4)&0x0F)
	}

	return dst
}

// DecodePacked decodes packed bytes holding two codes each.
func DecodePacked(packed []byte) ([]int16, error) {
	return Decode(SplitNibbles(packed))
}
