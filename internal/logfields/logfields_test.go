package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpers_UseCanonicalKeys(t *testing.T) {
	require.Equal(t, KeyFingerprint, Fingerprint("abcd1234").Key)
	require.Equal(t, "abcd1234", Fingerprint("abcd1234").Value.String())
	require.Equal(t, int64(3), Keys(3).Value.Int64())
	require.Equal(t, KeyHook, Hook("generate:before").Key)
}

func TestError_NilIsEmpty(t *testing.T) {
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
