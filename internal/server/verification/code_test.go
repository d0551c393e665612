package verification

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, codeMin)
		assert.LessOrEqual(t, n, codeMax)
	}
}

func TestCodesEqual(t *testing.T) {
	assert.True(t, codesEqual("123456", "123456"))
	assert.False(t, codesEqual("123456", "123457"))
	assert.False(t, codesEqual("123456", ""))
	assert.False(t, codesEqual("123456", "1234567"))
}
