package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-service/pkg/xerrors"
)

func TestNext(t *testing.T) {
	cases := []struct {
		name string
		last string
		want string
	}{
		{"plain increment", "KA-0001", "KA-0002"},
		{"carry within width", "KA-0099", "KA-0100"},
		{"width grows past padding", "RA-9999", "RA-10000"},
		{"no prefix", "0009", "0010"},
		{"digit inside prefix untouched", "K2-0041", "K2-0042"},
		{"single digit", "PA-9", "PA-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.last)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextRejectsMalformedNumbers(t *testing.T) {
	for _, last := range []string{"", "KA-", "invoice", "KA-0001X"} {
		_, err := Next(last)
		assert.ErrorIs(t, err, xerrors.ErrInvalidNumberFormat, "input %q", last)
	}
}

func TestNextIsDeterministic(t *testing.T) {
	a, err := Next("KA-0500")
	require.NoError(t, err)
	b, err := Next("KA-0500")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
