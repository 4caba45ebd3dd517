package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringArrayValueAndScan(t *testing.T) {
	in := StringArray{"individual.verification.document", `external_account "bank"`, "tos_acceptance.date"}

	v, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(v))
	require.Equal(t, in, out)
}

func TestStringArrayScanPostgresLiteral(t *testing.T) {
	var out StringArray
	require.NoError(t, out.Scan([]byte("{business_profile.url,external_account}")))
	require.Equal(t, StringArray{"business_profile.url", "external_account"}, out)
}

func TestStringArrayEmpty(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	require.Equal(t, "{}", v)

	var out StringArray
	require.NoError(t, out.Scan(nil))
	require.Empty(t, out)
	require.NoError(t, out.Scan("{}"))
	require.Empty(t, out)
	require.Error(t, out.Scan("not-an-array"))
}
