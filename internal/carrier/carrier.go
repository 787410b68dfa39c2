package carrier

import (
	"errors"
	"io"

	"github.com/illarion/varicrypt/internal/lsb"
)

var (
	// ErrAcquisitionFailed is returned when no carrier image could be
	// fetched or generated.
	ErrAcquisitionFailed = errors.New("carrier acquisition failed")
	// ErrNotPCM is returned for audio that is not an uncompressed PCM WAV
	// when no transcoder is available.
	ErrNotPCM = errors.New("audio is not PCM WAV")
	// ErrTranscode is returned when the external transcoder fails.
	ErrTranscode = errors.New("audio transcoding failed")
	// ErrUnitCount is returned when Rebuild receives the wrong number of units.
	ErrUnitCount = errors.New("unit count does not match carrier")
)

// BitCarrier is a medium viewed as a flat sequence of amplitude units.
type BitCarrier interface {
	// Units returns a copy of the amplitude units in embedding order.
	Units() []int
	// Rebuild replaces the medium's units. len(units) must equal len(Units()).
	Rebuild(units []int) error
	// Encode serialises the medium in its lossless output format.
	Encode(w io.Writer) error
}

// Needed returns the number of units required to hide payload.
func Needed(payload []byte) int {
	return len(payload)*8 + len(lsb.Sentinel)
}

// Hide embeds payload into c.
func Hide(c BitCarrier, payload []byte) error {
	units, err := lsb.Hide(c.Units(), payload)
	if err != nil {
		return err
	}
	return c.Rebuild(units)
}

// Reveal extracts a payload hidden by Hide.
func Reveal(c BitCarrier) ([]byte, error) {
	return lsb.Reveal(c.Units())
}
