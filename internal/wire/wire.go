// Package wire holds the big-endian integer helpers shared by every
// frame codec in rsocket. It has no dependency on the connection
// engine so it can be imported from rsocket, rsocket/metadata and
// rsocket/routing alike.
package wire

import "unsafe"

// Uint24ToBytes writes the low 24 bits of n into b in big-endian order.
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2]
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a big-endian 24 bit integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes n into b in big-endian order.
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian 32 bit integer from b.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint24 appends the low 24 bits of n to dst in big-endian order.
func AppendUint24(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint16 appends n to dst in big-endian order.
func AppendUint16(dst []byte, n uint16) []byte {
	return append(dst, byte(n>>8), byte(n))
}

// BytesToUint16 reads a big-endian 16 bit integer from b.
func BytesToUint16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

// Resize grows b, reusing spare capacity, so that len(b) == neededLen.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// B2S converts a byte slice to a string without allocating.
//
// The returned string aliases b; it must not be used after b is mutated
// or returned to a pool.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without allocating.
//
// The returned slice must never be mutated.
func S2B(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
