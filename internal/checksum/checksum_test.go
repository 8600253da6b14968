package checksum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/checksum"
)

func TestParseAndVerify(t *testing.T) {
	d, err := checksum.Parse("sha256/2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	require.NoError(t, err)
	assert.Equal(t, "sha256", d.Algo)

	require.NoError(t, d.Verify([]byte("hello")))
	assert.Error(t, d.Verify([]byte("goodbye")))
}

func TestParseRejectsMalformedAndUnknownAlgo(t *testing.T) {
	_, err := checksum.Parse("no-slash-here")
	assert.Error(t, err)

	_, err = checksum.Parse("crc32/deadbeef")
	assert.Error(t, err)

	_, err = checksum.Parse("sha256/not-hex")
	assert.Error(t, err)
}

func TestParseLowercasesAlgoAndHex(t *testing.T) {
	d, err := checksum.Parse("SHA256/2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824")
	require.NoError(t, err)
	assert.Equal(t, "sha256", d.Algo)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", d.Hex)
}

func TestCanonicalIsOrderIndependent(t *testing.T) {
	a := checksum.Canonical(map[string]string{"b": "2", "a": "1"})
	b := checksum.Canonical(map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
}

func TestChainDependsOnPriorHash(t *testing.T) {
	record := map[string]string{"part": "foo"}
	h1 := checksum.Chain("", record)
	h2 := checksum.Chain("some-prior-hash", record)
	assert.NotEqual(t, h1, h2)

	// Deterministic: same inputs, same chain.
	assert.Equal(t, h1, checksum.Chain("", record))
}

func TestDigest256Deterministic(t *testing.T) {
	record := map[string]string{"x": "1"}
	assert.Equal(t, checksum.Digest256(record), checksum.Digest256(record))
	assert.NotEqual(t, checksum.Digest256(record), checksum.Digest256(map[string]string{"x": "2"}))
}
