package parser

import (
	"github.com/pkg/errors"
)

var (
	// Structural failures. These abort OpenVolume.
	ErrInvalidVolumeHeader     = errors.New("InvalidVolumeHeader")
	ErrMftDataAttributeMissing = errors.New("MftDataAttributeMissing")

	// Per entry failures. These only affect a single Decode() call.
	ErrBadEntrySignature = errors.New("BadEntrySignature")
	ErrEntryTruncated    = errors.New("EntryTruncated")
	ErrIndexOutOfRange   = errors.New("IndexOutOfRange")

	// The volume was closed and its buffer released.
	ErrVolumeClosed = errors.New("VolumeClosed")

	// Not really an error: the index is valid but the slot is empty.
	ErrEntryUnused = errors.New("EntryUnused")

	// Per attribute failures.
	ErrAttributeSizeInvalid       = errors.New("AttributeSizeInvalid")
	ErrTruncatedRunList           = errors.New("TruncatedRunList")
	ErrInvalidRunList             = errors.New("InvalidRunList")
	ErrUnsupportedNonResidentName = errors.New("UnsupportedNonResidentName")
)

// Outcome separates the four results a caller of Decode() must be able
// to tell apart.
type Outcome int

const (
	OutcomeDecoded Outcome = iota
	OutcomeUnused
	OutcomeNoSuchIndex
	OutcomeCorrupt
)

func (self Outcome) String() string {
	switch self {
	case OutcomeDecoded:
		return "Decoded"
	case OutcomeUnused:
		return "Unused"
	case OutcomeNoSuchIndex:
		return "NoSuchIndex"
	case OutcomeCorrupt:
		return "Corrupt"
	}
	return "Unknown"
}

func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeDecoded
	case errors.Is(err, ErrEntryUnused):
		return OutcomeUnused
	case errors.Is(err, ErrIndexOutOfRange):
		return OutcomeNoSuchIndex
	default:
		return OutcomeCorrupt
	}
}
