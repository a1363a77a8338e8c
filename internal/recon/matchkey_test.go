package recon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"givingreport/internal/domain"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Key
		wantErr error
	}{
		{
			name: "plain key",
			in:   "Smith-John-20190315-500.00-WF",
			want: Key{Last: "Smith", First: "John", Date: "20190315", Cents: 50000, Abbrev: "WF"},
		},
		{
			name: "currency formatting in amount",
			in:   "Smith-John-20190315-$1,250.00-GD",
			want: Key{Last: "Smith", First: "John", Date: "20190315", Cents: 125000, Abbrev: "GD"},
		},
		{
			name: "hyphenated last name splits on last hyphen",
			in:   "Smith-Jones-Mary-20200101-75.50-A",
			want: Key{Last: "Smith-Jones", First: "Mary", Date: "20200101", Cents: 7550, Abbrev: "A"},
		},
		{
			name: "suffix parses from the right end",
			in:   "Smith-John-20180101-20190315-500.00-WF",
			want: Key{Last: "Smith-John", First: "20180101", Date: "20190315", Cents: 50000, Abbrev: "WF"},
		},
		{
			name: "apostrophes pass through",
			in:   "O'Brien-Lee-20211224-2,000.00-ST",
			want: Key{Last: "O'Brien", First: "Lee", Date: "20211224", Cents: 200000, Abbrev: "ST"},
		},
		{
			name:    "unknown grammar",
			in:      "BadFormat",
			wantErr: domain.ErrBadMatchKey,
		},
		{
			name:    "missing decimal places",
			in:      "Smith-John-20190315-500-WF",
			wantErr: domain.ErrBadMatchKey,
		},
		{
			name:    "unknown category code",
			in:      "Smith-John-20190315-500.00-XX",
			wantErr: domain.ErrUnknownCategory,
		},
		{
			name:    "no first/last separator",
			in:      "Cher-20190315-500.00-WF",
			wantErr: domain.ErrBadMatchKey,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseKey(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestKeyForRoundTrip(t *testing.T) {
	d := &domain.Donation{
		Date:     time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString("1250.00"),
		First:    "John",
		Last:     "Smith",
		Category: domain.CategoryGeneralDonation,
	}
	key, ok := KeyFor(d)
	require.True(t, ok)
	require.Equal(t, "Smith-John-20190315-1,250.00-GD", key.String())

	parsed, err := ParseKey(key.String())
	require.NoError(t, err)
	require.Equal(t, key, parsed)
}

func TestKeyForUnrecharacterizableCategory(t *testing.T) {
	d := &domain.Donation{
		Date:     time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.NewFromInt(50),
		First:    "John",
		Last:     "Smith",
		Category: domain.Category("Building Fund"),
	}
	_, ok := KeyFor(d)
	require.False(t, ok)
}

func TestKeyYearAndAmount(t *testing.T) {
	key, err := ParseKey("Smith-John-20190315-$1,250.00-GD")
	require.NoError(t, err)
	require.Equal(t, 2019, key.Year())
	require.True(t, key.Amount().Equal(decimal.RequireFromString("1250.00")))
}
