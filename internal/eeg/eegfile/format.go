// Package eegfile reads and writes the .eegr container, a little-endian
// binary format for multichannel biosignal recordings.
//
// File layout:
//
//	offset  size  field
//	0       64    file header
//	64      64*N  channel table (N = channel count)
//	...           sections until EOF
//
// File header (64 bytes):
//
//	offset  size  field
//	0       4     magic "EEGR"
//	4       2     format version (uint16, currently 1)
//	6       2     flags (bit 0: block index section present)
//	8       4     header size (uint32, 64)
//	12      16    file UUID
//	28      8     created-at, unix nanoseconds (int64)
//	36      8     sampling rate in Hz (float64)
//	44      4     channel count (uint32)
//	48      8     samples per channel (uint64)
//	56      4     data block size in samples (uint32)
//	60      4     reserved
//
// Channel record (64 bytes): name (24 bytes, NUL padded), kind (uint8),
// unit code (uint8), coordinate frame (uint8), flags (uint8, bit 0:
// position present), X/Y/Z head-frame position in meters (3 float64),
// calibration factor (float64), 4 reserved bytes.
//
// Each section starts with a 12-byte header: type (uint16), 2 reserved
// bytes, payload length (uint64). The data section holds consecutive
// blocks: a 12-byte block header (first sample uint64, sample count
// uint32) followed by sample-major interleaved float32 frames. The bads
// section holds a uint32 count plus that many uint32 channel indices. The
// index section holds a uint32 count plus 20-byte entries (first sample
// uint64, sample count uint32, absolute offset of the block header
// uint64). Unknown section types are skipped.
package eegfile

import (
	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/units"
)

const (
	// MAGIC identifies an .eegr container.
	MAGIC = "EEGR"

	// FORMAT_VERSION is the container version this package reads and writes.
	FORMAT_VERSION = 1

	FILE_HEADER_SIZE    = 64
	CHANNEL_RECORD_SIZE = 64
	SECTION_HEADER_SIZE = 12
	BLOCK_HEADER_SIZE   = 12
	INDEX_ENTRY_SIZE    = 20
	CHANNEL_NAME_SIZE   = 24
	SAMPLE_SIZE         = 4 // float32

	// DEFAULT_BLOCK_SAMPLES is the data block length the writer uses.
	DEFAULT_BLOCK_SAMPLES = 4096

	// MAX_CHANNELS bounds the declared channel count during validation.
	MAX_CHANNELS = 4096

	// FILE_EXTENSION is the conventional container suffix.
	FILE_EXTENSION = ".eegr"
)

// Section types.
const (
	SECTION_DATA  uint16 = 0x0001
	SECTION_BADS  uint16 = 0x0002
	SECTION_INDEX uint16 = 0x0003
)

// Header flags.
const (
	HDR_FLAG_HAS_INDEX uint16 = 0x0001
)

// Channel record flags.
const (
	CH_FLAG_HAS_POSITION uint8 = 0x01
)

// Coordinate frame codes.
const (
	COORD_FRAME_NONE uint8 = 0
	COORD_FRAME_HEAD uint8 = 1
)

// Unit codes.
const (
	UNIT_RAW        uint8 = 0
	UNIT_VOLTS      uint8 = 1
	UNIT_MILLIVOLTS uint8 = 2
	UNIT_MICROVOLTS uint8 = 3
)

// fileHeader is the 64-byte container header. Field order and widths match
// the on-disk layout; blank fields are reserved padding.
type fileHeader struct {
	Magic        [4]byte
	Version      uint16
	Flags        uint16
	HeaderSize   uint32
	FileID       [16]byte
	CreatedNanos int64
	SampleRate   float64
	NumChannels  uint32
	NumSamples   uint64
	BlockSamples uint32
	_            [4]byte
}

// channelRecord is one 64-byte channel table entry.
type channelRecord struct {
	Name        [CHANNEL_NAME_SIZE]byte
	Kind        uint8
	Unit        uint8
	CoordFrame  uint8
	Flags       uint8
	PosX        float64
	PosY        float64
	PosZ        float64
	Calibration float64
	_           [4]byte
}

// sectionHeader precedes every section payload.
type sectionHeader struct {
	Type   uint16
	_      [2]byte
	Length uint64
}

// blockHeader precedes every data block.
type blockHeader struct {
	FirstSample uint64
	NumSamples  uint32
}

// indexEntry locates one data block for windowed reads.
type indexEntry struct {
	FirstSample uint64
	NumSamples  uint32
	Offset      uint64
}

// unitCode maps a unit identifier to its on-disk code.
func unitCode(unit string) (uint8, bool) {
	switch unit {
	case units.Raw, "":
		return UNIT_RAW, true
	case units.Volts:
		return UNIT_VOLTS, true
	case units.MilliVolts:
		return UNIT_MILLIVOLTS, true
	case units.MicroVolts:
		return UNIT_MICROVOLTS, true
	default:
		return 0, false
	}
}

// unitString maps an on-disk unit code to its identifier. Unknown codes
// decode as raw.
func unitString(code uint8) string {
	switch code {
	case UNIT_VOLTS:
		return units.Volts
	case UNIT_MILLIVOLTS:
		return units.MilliVolts
	case UNIT_MICROVOLTS:
		return units.MicroVolts
	default:
		return units.Raw
	}
}

// kindCode maps a channel kind to its on-disk code.
func kindCode(kind eeg.ChannelKind) uint8 { return uint8(kind) }

// kindFromCode maps an on-disk kind code to a ChannelKind. Codes this
// version does not know decode as KindUnknown.
func kindFromCode(code uint8) eeg.ChannelKind {
	k := eeg.ChannelKind(code)
	if k > eeg.KindMisc {
		return eeg.KindUnknown
	}
	return k
}

// sectionName returns a printable name for a section type.
func sectionName(t uint16) string {
	switch t {
	case SECTION_DATA:
		return "data"
	case SECTION_BADS:
		return "bads"
	case SECTION_INDEX:
		return "index"
	default:
		return "unknown"
	}
}
