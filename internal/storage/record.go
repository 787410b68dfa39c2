package storage

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is the stored value of one message.
type Record struct {
	Payload []byte    `cbor:"1,keyasint"`
	Created time.Time `cbor:"2,keyasint"`
	Expires time.Time `cbor:"3,keyasint"` // zero means never
}

// plainRecord has Record's fields without its methods, so the codec does
// not call back into MarshalBinary.
type plainRecord Record

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano

	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("storage: cbor encoder: %v", err))
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("storage: cbor decoder: %v", err))
	}
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.Expires.IsZero() && !now.Before(r.Expires)
}

// MarshalBinary encodes the record as deterministic CBOR.
func (r Record) MarshalBinary() ([]byte, error) {
	data, err := encMode.Marshal(plainRecord(r))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a record written by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if err := decMode.Unmarshal(data, (*plainRecord)(r)); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
