package core

import (
	"errors"

	"github.com/illarion/varicrypt/internal/carrier"
	"github.com/illarion/varicrypt/internal/crypto"
	"github.com/illarion/varicrypt/internal/lsb"
	"github.com/illarion/varicrypt/internal/storage"
	"github.com/illarion/varicrypt/internal/symbols"
)

// Failure kinds surfaced by the pipelines, checkable with errors.Is.
var (
	ErrIntegrity          = crypto.ErrIntegrity
	ErrMalformedEnvelope  = crypto.ErrMalformedEnvelope
	ErrUnknownSymbol      = symbols.ErrUnknownSymbol
	ErrCapacityExceeded   = lsb.ErrCapacityExceeded
	ErrTerminatorNotFound = lsb.ErrTerminatorNotFound
	ErrAcquisitionFailed  = carrier.ErrAcquisitionFailed
	ErrNotFound           = storage.ErrNotFound
)

// Kind names
const (
	KindIntegrityFailure         = "IntegrityFailure"
	KindMalformedEnvelope        = "MalformedEnvelope"
	KindUnknownSymbol            = "UnknownSymbol"
	KindCapacityExceeded         = "CapacityExceeded"
	KindTerminatorNotFound       = "TerminatorNotFound"
	KindCarrierAcquisitionFailed = "CarrierAcquisitionFailed"
	KindMessageTooLong           = "MessageTooLong"
	KindNotFound                 = "NotFound"
	KindUnsupportedAudio         = "UnsupportedAudio"
	KindUnknown                  = "Unknown"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrIntegrity, KindIntegrityFailure},
	{ErrUnknownSymbol, KindUnknownSymbol},
	{ErrMalformedEnvelope, KindMalformedEnvelope},
	{ErrCapacityExceeded, KindCapacityExceeded},
	{ErrTerminatorNotFound, KindTerminatorNotFound},
	{ErrAcquisitionFailed, KindCarrierAcquisitionFailed},
	{ErrMessageTooLong, KindMessageTooLong},
	{ErrNotFound, KindNotFound},
	{carrier.ErrNotPCM, KindUnsupportedAudio},
	{carrier.ErrTranscode, KindUnsupportedAudio},
}

// Kind returns the failure kind of err, "" for nil and KindUnknown for
// errors outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindUnknown
}
