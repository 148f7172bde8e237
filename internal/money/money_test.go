package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFromStringRoundsHalfEven(t *testing.T) {
	cases := map[string]string{
		"0.125":  "0.12",
		"0.135":  "0.14",
		"1.005":  "1.00",
		"2.675":  "2.68",
		"-0.125": "-0.12",
		"10":     "10.00",
		"":       "0.00",
		"  7.1 ": "7.10",
	}
	for in, want := range cases {
		got, err := FromString(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.String(), in)
	}
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := FromString("twelve")
	require.Error(t, err)
}

func TestApplyRate(t *testing.T) {
	price := MustParse("100.00")
	vat := RateFromPercent(decimal.RequireFromString("14"))
	require.Equal(t, "114.00", price.ApplyRate(vat).String())
	require.Equal(t, "100.00", price.ApplyRate(ZeroRate).String())

	// 10.05 * 1.15 = 11.5575 -> 11.56
	require.Equal(t, "11.56", MustParse("10.05").ApplyRate(NewRate(decimal.RequireFromString("0.15"))).String())
	// 0.05 * 1.5 = 0.075 -> 0.08 (half-even rounds to the even hundredth)
	require.Equal(t, "0.08", MustParse("0.05").ApplyRate(NewRate(decimal.RequireFromString("0.5"))).String())
	// 0.25 * 0.5 = 0.125 -> 0.12
	require.Equal(t, "0.12", MustParse("0.25").Portion(NewRate(decimal.RequireFromString("0.5"))).String())
}

func TestSumAndSub(t *testing.T) {
	total := Sum(MustParse("0.10"), MustParse("0.20"), MustParse("0.30"))
	require.True(t, total.Equal(MustParse("0.60")))
	require.Equal(t, "0.40", total.Sub(MustParse("0.20")).String())
	require.True(t, Sum().IsZero())
	require.Equal(t, 1, total.Cmp(Zero))
	require.True(t, Zero.Sub(total).IsNegative())
}

func TestFromCents(t *testing.T) {
	require.Equal(t, "12.34", FromCents(1234).String())
	require.Equal(t, "-0.05", FromCents(-5).String())
}

func TestOrZero(t *testing.T) {
	require.True(t, OrZero(nil).IsZero())
	m := MustParse("3.50")
	require.True(t, OrZero(&m).Equal(m))
}

func TestJSONRoundTripUsesStrings(t *testing.T) {
	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: MustParse("9.9")})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":"9.90"}`, string(data))

	var out struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.255","b":4.5,"c":null}`), &out))
	require.Equal(t, "1.26", out.A.String())
	require.Equal(t, "4.50", out.B.String())
	require.True(t, out.C.IsZero())
}

func TestScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("15.555"))
	require.Equal(t, "15.56", m.String())
	require.NoError(t, m.Scan(nil))
	require.True(t, m.IsZero())
	v, err := MustParse("2").Value()
	require.NoError(t, err)
	require.Equal(t, "2.00", v)
}

func TestPercent(t *testing.T) {
	p, err := ParsePercent("12.5%")
	require.NoError(t, err)
	require.Equal(t, "12.50", p.String())
	require.Equal(t, "0.125", p.Rate().String())

	blank, err := ParsePercent(" ")
	require.NoError(t, err)
	require.True(t, blank.IsZero())
	require.Equal(t, "0.00", ZeroPercent.String())

	_, err = ParsePercent("abc")
	require.Error(t, err)
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("0.14")
	require.NoError(t, err)
	require.Equal(t, "14.00", r.Percent().String())
	r, err = ParseRate("")
	require.NoError(t, err)
	require.False(t, r.IsNegative())
	require.True(t, r.Decimal().IsZero())
}
