package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := NewSealer([]byte("master-secret"))
	require.NoError(t, err)

	sealed, err := sealer.Seal("svc", "token", []byte("abc123"))
	require.NoError(t, err)
	assert.NotEqual(t, []byte("abc123"), sealed)

	opened, err := sealer.Open("svc", "token", sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc123"), opened)
}

func TestSealerBindsKey(t *testing.T) {
	sealer, err := NewSealer([]byte("master-secret"))
	require.NoError(t, err)

	sealed, err := sealer.Seal("svc", "token", []byte("abc123"))
	require.NoError(t, err)

	_, err = sealer.Open("svc", "other-account", sealed)
	assert.Error(t, err, "a blob moved between keys must not open")
}

func TestSealerRejectsTampering(t *testing.T) {
	sealer, err := NewSealer([]byte("master-secret"))
	require.NoError(t, err)

	sealed, err := sealer.Seal("svc", "token", []byte("abc123"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = sealer.Open("svc", "token", sealed)
	assert.Error(t, err)
}

func TestSealerRejectsShortInput(t *testing.T) {
	sealer, err := NewSealer([]byte("master-secret"))
	require.NoError(t, err)

	_, err = sealer.Open("svc", "token", []byte("short"))
	assert.Error(t, err)
}

func TestSealerRequiresSecret(t *testing.T) {
	_, err := NewSealer(nil)
	assert.Error(t, err)
}
