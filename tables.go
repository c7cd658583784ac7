package adpcm

import (
	"errors"
	"fmt"
)

const (
	// MinStepIndex is the lowest valid step index.
	MinStepIndex = 0
	// MaxStepIndex is the highest valid step index.
	MaxStepIndex = len(stepSizeTable) - 1
	// MaxCode is the highest valid 4-bit code.
	MaxCode = 0x0F
)

// ErrStepIndexOutOfRange is returned when a step index outside
// [MinStepIndex, MaxStepIndex] is looked up.
var ErrStepIndexOutOfRange = errors.New("step index out of range")

// Quantizer step sizes, indexed by step index.
var stepSizeTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// Step index deltas, indexed by code. The sign bit is ignored.
var indexAdjustTable = [16]int{
	-1, -1, -1, -1, // 0-3, shrink the step
	2, 4, 6, 8, // 4-7, grow the step
	-1, -1, -1, -1,
	2, 4, 6, 8,
}

// StepSize returns the quantizer step size for a step index.
func StepSize(index int) (int, error) {
	if index < MinStepIndex || index > MaxStepIndex {
		return 0, fmt.Errorf("%w: %d", ErrStepIndexOutOfRange, index)
	}

	return stepSizeTable[index], nil
}

// IndexAdjust returns the step index delta applied after decoding code.
func IndexAdjust(code byte) (int, error) {
	if code > MaxCode {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCode, code)
	}

	return indexAdjustTable[code], nil
}
