package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSPAYD(t *testing.T) {
	amount := decimal.NewFromInt(500)

	got := BuildSPAYD("123456/0100", &amount, "Trip payment", "42", "7")
	assert.Equal(t, "SPD*1.0*ACC:123456/0100*CC:CZK*AM:500*MSG:Trip payment*X-VS:42*X-SS:7", got)
}

func TestBuildSPAYDOmitsEmptyFields(t *testing.T) {
	got := BuildSPAYD("CZ6508000000192000145399", nil, "", "", "")
	assert.Equal(t, "SPD*1.0*ACC:CZ6508000000192000145399*CC:CZK", got)
}

func TestBuildSPAYDFieldOrder(t *testing.T) {
	amount := decimal.NewFromFloat(250.50)
	got := BuildSPAYD("123456/0100", &amount, "Theatre", "99", "")

	fields := strings.Split(got, "*")
	require.True(t, len(fields) >= 2)
	assert.Equal(t, "SPD", fields[0])
	assert.Equal(t, "1.0", fields[1])

	acc := strings.Index(got, "ACC:")
	cc := strings.Index(got, "CC:CZK")
	am := strings.Index(got, "AM:")
	vs := strings.Index(got, "X-VS:")
	require.True(t, acc > 0 && cc > 0 && am > 0 && vs > 0)
	assert.Less(t, acc, cc)
	assert.Less(t, cc, am)
	assert.Less(t, am, vs)
	assert.Contains(t, got, "AM:250.5")
}

func TestBuildSPAYDTruncatesMessage(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := BuildSPAYD("123456/0100", nil, long, "", "")

	start := strings.Index(got, "MSG:")
	require.GreaterOrEqual(t, start, 0)
	msg := got[start+len("MSG:"):]
	if i := strings.Index(msg, "*"); i >= 0 {
		msg = msg[:i]
	}
	assert.Len(t, msg, 60)
}

func TestBuildSPAYDTruncatesMessageByRunes(t *testing.T) {
	// The 60th character is multi-byte; slicing bytes would cut it in half.
	long := strings.Repeat("x", 59) + "ěěěě"
	got := BuildSPAYD("123456/0100", nil, long, "", "")

	require.True(t, utf8.ValidString(got))

	start := strings.Index(got, "MSG:")
	require.GreaterOrEqual(t, start, 0)
	msg := got[start+len("MSG:"):]
	if i := strings.Index(msg, "*"); i >= 0 {
		msg = msg[:i]
	}
	assert.Equal(t, 60, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasSuffix(msg, "ě"))
}

func TestGenerateSPAYDQR(t *testing.T) {
	assert.Empty(t, GenerateSPAYDQR("", nil, "", "", ""))

	amount := decimal.NewFromInt(500)
	encoded := GenerateSPAYDQR("123456/0100", &amount, "Trip", "42", "")
	assert.NotEmpty(t, encoded)
}
