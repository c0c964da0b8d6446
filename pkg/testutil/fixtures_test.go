package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravodoc/pravodoc-backend/internal/passport/assembler"
	"github.com/pravodoc/pravodoc-backend/pkg/testutil"
)

func TestPassportLines_RecognizedBack(t *testing.T) {
	fixtures := testutil.NewFixtureFactory()

	for i := 0; i < 20; i++ {
		want := fixtures.Passport()
		got, diag, err := assembler.Assemble(testutil.PassportLines(want))
		require.NoError(t, err)
		require.NotNil(t, got, "missing: %v", diag.MissingFields)
		assert.Equal(t, want, *got)
	}
}
