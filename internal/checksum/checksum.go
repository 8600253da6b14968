// Package checksum implements the algo/hex checksum syntax used by source
// handlers (spec §4.4) and the canonical H(prior || canonical(record))
// hash chain used for overlay layers and state digests (spec §3, §4.6).
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// Digest is a parsed "algo/hex" checksum value.
type Digest struct {
	Algo string
	Hex  string
}

// Parse splits a checksum string of the form "algo/hex" into its parts.
func Parse(s string) (Digest, error) {
	algo, hexDigest, ok := strings.Cut(s, "/")
	if !ok {
		return Digest{}, fmt.Errorf("malformed checksum %q: expected algo/hex", s)
	}
	algo = strings.ToLower(algo)
	if _, err := newHash(algo); err != nil {
		return Digest{}, err
	}
	if _, err := hex.DecodeString(hexDigest); err != nil {
		return Digest{}, fmt.Errorf("malformed checksum %q: %w", s, err)
	}
	return Digest{Algo: algo, Hex: strings.ToLower(hexDigest)}, nil
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha384":
		return sha512.New384(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algo)
	}
}

// Verify computes the digest of data using d's algorithm and compares it
// against d's expected hex value.
func (d Digest) Verify(data []byte) error {
	h, err := newHash(d.Algo)
	if err != nil {
		return err
	}
	h.Write(data)
	got := hex.EncodeToString(h.Sum(nil))
	if got != d.Hex {
		return fmt.Errorf("checksum mismatch: expected %s/%s, got %s/%s", d.Algo, d.Hex, d.Algo, got)
	}
	return nil
}

func (d Digest) String() string { return d.Algo + "/" + d.Hex }

// Canonical renders a map of string fields into a stable, deterministic
// byte form suitable for hashing: keys sorted, "key=value\n" per line.
// Used for part-properties digests and overlay layer records.
func Canonical(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Chain computes H(priorHash || canonical(record)) with sha256, matching
// spec §3's overlay layer hash definition. priorHash may be empty for the
// base-layer seed.
func Chain(priorHash string, record map[string]string) string {
	h := sha256.New()
	h.Write([]byte(priorHash))
	h.Write(Canonical(record))
	return hex.EncodeToString(h.Sum(nil))
}

// BaseSeed derives the base-layer hash chain seed from a base image
// identity string.
func BaseSeed(baseImageIdentity string) string {
	h := sha256.New()
	h.Write([]byte("craft-parts-overlay-base/"))
	h.Write([]byte(baseImageIdentity))
	return hex.EncodeToString(h.Sum(nil))
}

// Digest256 returns the hex sha256 digest of a canonical record, used for
// part-properties and project-options digests in state files.
func Digest256(record map[string]string) string {
	h := sha256.Sum256(Canonical(record))
	return hex.EncodeToString(h[:])
}
