package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caregate/pkg/domain-errors"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestDecodeExpiry(t *testing.T) {
	codec := NewCodec()

	t.Run("returns exp from a valid token", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		tok := signedToken(t, jwt.MapClaims{"exp": exp.Unix(), "sub": "user-1"})

		got, err := codec.DecodeExpiry(tok)
		require.NoError(t, err)
		assert.True(t, got.Equal(exp), "expected %v, got %v", exp, got)
	})

	t.Run("signature is not checked", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		tok := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})
		// Corrupt the signature segment only; the claims stay readable.
		tampered := tok[:len(tok)-4] + "AAAA"

		got, err := codec.DecodeExpiry(tampered)
		require.NoError(t, err)
		assert.True(t, got.Equal(exp))
	})

	t.Run("malformed token yields decode_error", func(t *testing.T) {
		for _, tok := range []string{"", "garbage", "only.two", "a b c"} {
			_, err := codec.DecodeExpiry(tok)
			require.Error(t, err, tok)
			assert.True(t, dErrors.Is(err, dErrors.CodeDecode), tok)
		}
	})

	t.Run("missing exp claim yields decode_error", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"sub": "user-1"})

		_, err := codec.DecodeExpiry(tok)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeDecode))
	})

	t.Run("non-numeric exp claim yields decode_error", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"exp": "tomorrow"})

		_, err := codec.DecodeExpiry(tok)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeDecode))
	})
}
