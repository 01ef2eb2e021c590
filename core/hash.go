package core

import (
	"crypto/sha1" //nolint:gosec // package id is a content fingerprint, not a security boundary
	"encoding/hex"
)

// PackageID computes the SHA-1 package id over the canonical serialisation
// settings.Dump() + "\n" + options.Dump() +
// "\n" + requires.Dump(), where each subdump is already sorted/ordered. Two
// nodes with identical reduced triples collide intentionally — this is the
// binary cache key.
func PackageID(settingsDump, optionsDump, requiresDump string) string {
	h := sha1.New()
	h.Write([]byte(settingsDump))
	h.Write([]byte("\n"))
	h.Write([]byte(optionsDump))
	h.Write([]byte("\n"))
	h.Write([]byte(requiresDump))
	return hex.EncodeToString(h.Sum(nil))
}
