// Package fingerprint derives the deduplication digest from the five
// registration-time identity fields.
//
// The encoding is canonical and unambiguous: each field is emitted as a
// 4-byte big-endian length prefix followed by its raw bytes, with the birth
// date fixed at 8 bytes. Two distinct field tuples therefore cannot produce
// the same input stream, so collisions require a SHA3-256 collision.
package fingerprint

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"

	"herdbook/internal/registry/models"
)

// Compute returns the identity digest for a registration. Location
// participates as the registration-time value; later location updates do not
// change an existing record's fingerprint.
func Compute(breed, species, gender string, birthDate int64, location string) models.Fingerprint {
	h := sha3.New256()
	writeField(h, breed)
	writeField(h, species)
	writeField(h, gender)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(birthDate))
	h.Write(buf[:])

	writeField(h, location)

	var fp models.Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

func writeField(h hash.Hash, field string) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(field)))
	h.Write(prefix[:])
	h.Write([]byte(field))
}
