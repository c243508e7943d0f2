package interp

import "encoding/binary"

// Layout offset/size constants for the state images spec §6 requires to
// be produced bit-exact. These are not enforced by the core — a driver
// (or a KAT test) builds byte slices at these offsets and hands them to
// Machine.WriteBytes/ReadBytes around a run.

// AES key schedule: a 4-byte header (rounds_u16, schedule_bytes_u16,
// both little-endian) followed by the expanded key itself.
const (
	AESScheduleHeaderRoundsOffset = 0
	AESScheduleHeaderBytesOffset  = 2
	AESScheduleHeaderSize         = 4
	AESScheduleKeyOffset          = AESScheduleHeaderSize
)

// AESScheduleSize returns the total byte size of an AES key schedule
// image (header + expanded key) for the given key size in bytes (16, 24,
// or 32).
func AESScheduleSize(keyBytes int) int {
	switch keyBytes {
	case 16:
		return AESScheduleHeaderSize + 176
	case 24:
		return AESScheduleHeaderSize + 208
	case 32:
		return AESScheduleHeaderSize + 240
	default:
		return 0
	}
}

// AESRoundsForKeySize returns the standard round count for a given key
// size in bytes.
func AESRoundsForKeySize(keyBytes int) int {
	switch keyBytes {
	case 16:
		return 10
	case 24:
		return 12
	case 32:
		return 14
	default:
		return 0
	}
}

// EncodeAESScheduleHeader writes the rounds/schedule-bytes header into
// the first AESScheduleHeaderSize bytes of buf.
func EncodeAESScheduleHeader(buf []byte, rounds, scheduleBytes int) {
	binary.LittleEndian.PutUint16(buf[AESScheduleHeaderRoundsOffset:], uint16(rounds))
	binary.LittleEndian.PutUint16(buf[AESScheduleHeaderBytesOffset:], uint16(scheduleBytes))
}

// DecodeAESScheduleHeader reads the rounds/schedule-bytes header back out
// of buf.
func DecodeAESScheduleHeader(buf []byte) (rounds, scheduleBytes int) {
	rounds = int(binary.LittleEndian.Uint16(buf[AESScheduleHeaderRoundsOffset:]))
	scheduleBytes = int(binary.LittleEndian.Uint16(buf[AESScheduleHeaderBytesOffset:]))
	return
}

// SHA-256 state: 32 bytes of h[0..7] (little-endian u32 each) followed by
// a 64-byte input block.
const (
	SHA256StateHOffset     = 0
	SHA256StateHSize       = 32
	SHA256StateBlockOffset = SHA256StateHSize
	SHA256StateBlockSize   = 64
	SHA256StateSize        = SHA256StateHSize + SHA256StateBlockSize
)

// EncodeSHA256H writes eight little-endian u32 hash words starting at
// offset SHA256StateHOffset.
func EncodeSHA256H(buf []byte, h [8]uint32) {
	for i, w := range h {
		binary.LittleEndian.PutUint32(buf[SHA256StateHOffset+4*i:], w)
	}
}

// DecodeSHA256H reads the eight little-endian u32 hash words back out.
func DecodeSHA256H(buf []byte) (h [8]uint32) {
	for i := range h {
		h[i] = binary.LittleEndian.Uint32(buf[SHA256StateHOffset+4*i:])
	}
	return
}

// ASCON state: 5 lanes of 64 bits, each encoded big-endian, for a total
// of 40 bytes.
const (
	AsconStateLanes = 5
	AsconStateSize  = AsconStateLanes * 8
)

// EncodeAsconState writes five big-endian u64 lanes.
func EncodeAsconState(buf []byte, lanes [AsconStateLanes]uint64) {
	for i, l := range lanes {
		binary.BigEndian.PutUint64(buf[8*i:], l)
	}
}

// DecodeAsconState reads five big-endian u64 lanes back out.
func DecodeAsconState(buf []byte) (lanes [AsconStateLanes]uint64) {
	for i := range lanes {
		lanes[i] = binary.BigEndian.Uint64(buf[8*i:])
	}
	return
}

// AsconMaskedStateSize returns the byte size of a masked ASCON state: 5
// lanes, each maxShares*8 bytes big-endian. Preserved randomness is
// carried in a separate buffer, not accounted for here.
func AsconMaskedStateSize(maxShares int) int {
	return AsconStateLanes * maxShares * 8
}

// EncodeAsconMaskedLane writes one lane's shares, each an 8-byte
// big-endian word, at lane index idx.
func EncodeAsconMaskedLane(buf []byte, maxShares, idx int, shares []uint64) {
	base := idx * maxShares * 8
	for i, s := range shares {
		binary.BigEndian.PutUint64(buf[base+8*i:], s)
	}
}

// DecodeAsconMaskedLane reads one lane's shares back out.
func DecodeAsconMaskedLane(buf []byte, maxShares, idx int) []uint64 {
	base := idx * maxShares * 8
	shares := make([]uint64, maxShares)
	for i := range shares {
		shares[i] = binary.BigEndian.Uint64(buf[base+8*i:])
	}
	return shares
}

// TinyJAMBU state: a 16-byte permutation state followed by an inverted
// key whose length matches the key size (16, 24, or 32 bytes).
const (
	TinyJAMBUStateOffset = 0
	TinyJAMBUStateSize   = 16
	TinyJAMBUKeyOffset   = TinyJAMBUStateSize
)

// TinyJAMBUImageSize returns the total byte size of a TinyJAMBU state
// image (state + inverted key) for the given key size in bytes.
func TinyJAMBUImageSize(keyBytes int) int {
	return TinyJAMBUStateSize + keyBytes
}

// InvertKeyBytes returns the bitwise complement of key, the form
// TinyJAMBU's state image carries (spec §6: "an inverted key").
func InvertKeyBytes(key []byte) []byte {
	out := make([]byte, len(key))
	for i, b := range key {
		out[i] = ^b
	}
	return out
}

// Keccak-p byte widths, laid out little-endian.
const (
	KeccakP200Size  = 25
	KeccakP400Size  = 50
	KeccakP1600Size = 200
)

// Xoodoo state: 48 bytes, little-endian.
const XoodooStateSize = 48
