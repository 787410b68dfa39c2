// Package lsb hides bits in the least-significant bit of a flat sequence of
// amplitude units and reads them back.
//
// A bitstream is the payload bits, most significant bit first, followed by
// the 16-bit Sentinel. Extraction stops at the first sentinel it sees.
package lsb

import (
	"errors"
	"fmt"
)

// Sentinel terminates every embedded bitstream.
var Sentinel = [16]uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}

var (
	// ErrCapacityExceeded is returned when a bitstream has more bits than
	// the carrier has units.
	ErrCapacityExceeded = errors.New("carrier capacity exceeded")
	// ErrTerminatorNotFound is returned when no sentinel appears before the
	// carrier runs out.
	ErrTerminatorNotFound = errors.New("terminator not found")
	// ErrSentinelCollision is returned by Hide when the payload itself
	// contains the sentinel pattern.
	ErrSentinelCollision = errors.New("payload contains the terminator pattern")
	// ErrMisaligned is returned when extracted bits do not form whole bytes.
	ErrMisaligned = errors.New("extracted bits are not byte aligned")
)

// CapacityError carries the sizes behind ErrCapacityExceeded.
type CapacityError struct {
	Needed    int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("carrier capacity exceeded: need %d units, have %d", e.Needed, e.Available)
}

// Is implements errors.Is for sentinel error matching.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// Bits expands data into bits, most significant first. This is the same
// order as expanding the lowercase hex encoding nibble by nibble.
func Bits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// Bitstream returns Bits(data) followed by the Sentinel.
func Bitstream(data []byte) []uint8 {
	return append(Bits(data), Sentinel[:]...)
}

// Bytes packs bits back into bytes. len(bits) must be a multiple of 8.
func Bytes(bits []uint8) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bits", ErrMisaligned, len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i, bit := range bits {
		out[i/8] = out[i/8]<<1 | bit&1
	}
	return out, nil
}

// ContainsSentinel reports whether bits contain the sentinel at any offset.
func ContainsSentinel(bits []uint8) bool {
	run := 0
	for _, bit := range bits {
		if bit == 1 {
			run++
			continue
		}
		if run >= len(Sentinel)-1 {
			return true
		}
		run = 0
	}
	return false
}

// Embed writes bits into the LSBs of a copy of units.
func Embed(units []int, bits []uint8) ([]int, error) {
	if len(bits) > len(units) {
		return nil, &CapacityError{Needed: len(bits), Available: len(units)}
	}

	out := make([]int, len(units))
	copy(out, units)
	for i, bit := range bits {
		out[i] = out[i]&^1 | int(bit&1)
	}
	return out, nil
}

// Extract reads LSBs until the trailing 16 bits equal the sentinel and
// returns the bits before it.
func Extract(units []int) ([]uint8, error) {
	bits := make([]uint8, 0, 1024)
	for _, u := range units {
		bits = append(bits, uint8(u&1))
		if n := len(bits); n >= len(Sentinel) && isSentinel(bits[n-len(Sentinel):]) {
			return bits[:n-len(Sentinel)], nil
		}
	}
	return nil, ErrTerminatorNotFound
}

func isSentinel(bits []uint8) bool {
	for i, b := range Sentinel {
		if bits[i] != b {
			return false
		}
	}
	return true
}

// Hide embeds payload followed by the sentinel. Payloads whose own bits
// contain the sentinel are refused since Extract would stop inside them.
func Hide(units []int, payload []byte) ([]int, error) {
	bits := Bits(payload)
	if ContainsSentinel(bits) {
		return nil, ErrSentinelCollision
	}
	return Embed(units, append(bits, Sentinel[:]...))
}

// Reveal extracts a payload embedded by Hide.
func Reveal(units []int) ([]byte, error) {
	bits, err := Extract(units)
	if err != nil {
		return nil, err
	}
	return Bytes(bits)
}
