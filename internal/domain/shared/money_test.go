package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"50", "50.00"},
		{"50.5", "50.50"},
		{"0.01", "0.01"},
		{"  80.00  ", "80.00"},
		{"1234567.89", "1234567.89"},
	}

	for _, tc := range cases {
		m, err := ParseAmount(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, m.String(), "input %q", tc.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	cases := []string{
		"",
		"abc",
		"0",
		"0.00",
		"-5",
		"-0.01",
		"10.001",
		"1e2x",
	}

	for _, in := range cases {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", in)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("100.00")
	b := MustMoney("49.99")

	assert.Equal(t, "149.99", a.Add(b).String())
	assert.Equal(t, "50.01", a.Sub(b).String())
	assert.True(t, b.LessThan(a))
	assert.False(t, a.LessThan(b))
	assert.True(t, a.Sub(a).IsZero())
	assert.True(t, b.Sub(a).IsNegative())
}

func TestMoney_EqualIgnoresRepresentation(t *testing.T) {
	assert.True(t, MustMoney("80").Equal(MustMoney("80.00")))
	assert.True(t, MustMoney("0.1").Add(MustMoney("0.2")).Equal(MustMoney("0.3")))
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(MustMoney("42.50"))
	require.NoError(t, err)
	assert.Equal(t, `"42.50"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"19.90"`), &m))
	assert.Equal(t, "19.90", m.String())

	// Numbers are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`25`), &m))
	assert.Equal(t, "25.00", m.String())
}

func TestPrincipal_IsValid(t *testing.T) {
	assert.True(t, Principal{UserID: 1, Role: RoleStudent, LinkedEntityID: 7}.IsValid())
	assert.True(t, Principal{UserID: 2, Role: RoleAdmin}.IsValid())
	assert.False(t, Principal{UserID: 0, Role: RoleAdmin}.IsValid())
	assert.False(t, Principal{UserID: 1, Role: Role("superuser")}.IsValid())
}
