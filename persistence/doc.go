// Package persistence provides binary serialization for trained models and
// cluster stores.
//
// Every artifact starts with a fixed 40-byte little-endian header:
//
//	Magic       uint32  "KCL1"
//	Version     uint16
//	Kind        uint8   1=Model, 2=Clusters
//	Compression uint8   0=None, 1=LZ4, 2=ZSTD
//	RawLen      uint64  payload size before compression
//	PayloadLen  uint64  payload size as stored
//	Checksum    uint64  xxhash64 of the uncompressed payload
//	Reserved    [8]byte
//
// The payload follows the header. Floats are stored as IEEE-754 bits, so a
// decode reproduces the encoded values exactly. There is no compatibility
// guarantee across format versions; an unknown version fails to decode.
package persistence
