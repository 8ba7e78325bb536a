package completion

import (
	"testing"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_CanonicalEnvelope(t *testing.T) {
	s := NewStore()
	s.SetCurrentWeekday(tour.Tuesday)
	s.SetCompleted(30, true)
	s.SetCompleted(4, true)
	s.SetCurrentWeekday(tour.Monday)
	s.SetCompleted(2, true)
	s.SetCompleted(1, true)
	s.SetCompleted(1, false)

	data, err := Encode(s)
	require.NoError(t, err)

	assert.JSONEq(t, `{"version":3,"current_weekday":"monday","completed":{"monday":[2],"tuesday":[4,30]}}`, string(data))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := NewStore()
	for i, day := range []tour.Weekday{tour.Monday, tour.Wednesday, tour.Saturday} {
		s.SetCurrentWeekday(day)
		for id := int64(1); id <= int64(i+2); id++ {
			s.SetCompleted(id*10, true)
		}
	}

	data, err := Encode(s)
	require.NoError(t, err)
	decoded, format := Decode(data, tour.Friday)

	assert.Equal(t, FormatEnvelope, format)
	for _, v := range tour.WeekdayValues {
		day := tour.Weekday(v)
		assert.Equal(t, s.CompletedIDs(day), decoded.CompletedIDs(day), "weekday %s", day)
	}
	cursor, _ := decoded.CurrentWeekday()
	assert.Equal(t, tour.Saturday, cursor)

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDecode_Variants(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		active  tour.Weekday
		format  Format
		want    map[tour.Weekday][]int64
		cursor  tour.Weekday
	}{
		{
			name:    "envelope",
			payload: `{"version":3,"current_weekday":"friday","completed":{"friday":[5,3]}}`,
			active:  tour.Monday,
			format:  FormatEnvelope,
			want:    map[tour.Weekday][]int64{tour.Friday: {3, 5}},
			cursor:  tour.Friday,
		},
		{
			name:    "envelope without cursor uses active",
			payload: `{"version":2,"completed":{"monday":[1]}}`,
			active:  tour.Sunday,
			format:  FormatEnvelope,
			want:    map[tour.Weekday][]int64{tour.Monday: {1}},
			cursor:  tour.Sunday,
		},
		{
			name:    "bare weekday map",
			payload: `{"monday":[1,2],"tuesday":[3]}`,
			active:  tour.Tuesday,
			format:  FormatWeekdayMap,
			want:    map[tour.Weekday][]int64{tour.Monday: {1, 2}, tour.Tuesday: {3}},
			cursor:  tour.Tuesday,
		},
		{
			name:    "legacy nested map is discarded",
			payload: `{"12":{"monday":[1,2]},"13":{"tuesday":[9]}}`,
			active:  tour.Monday,
			format:  FormatLegacyNested,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "flat array migrates into active weekday",
			payload: `[4, 8, 4]`,
			active:  tour.Thursday,
			format:  FormatFlatArray,
			want:    map[tour.Weekday][]int64{tour.Thursday: {4, 8}},
			cursor:  tour.Thursday,
		},
		{
			name:    "flat array without active weekday",
			payload: `[4]`,
			format:  FormatFlatArray,
			want:    map[tour.Weekday][]int64{},
		},
		{
			name:    "corrupt json",
			payload: `{"monday":[1,`,
			active:  tour.Monday,
			format:  FormatUnknown,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "unknown weekday key",
			payload: `{"someday":[1]}`,
			active:  tour.Monday,
			format:  FormatUnknown,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "array of strings",
			payload: `["a","b"]`,
			active:  tour.Monday,
			format:  FormatUnknown,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "scalar",
			payload: `42`,
			active:  tour.Monday,
			format:  FormatUnknown,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "null",
			payload: `null`,
			active:  tour.Monday,
			format:  FormatEmpty,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
		{
			name:    "blank",
			payload: "  ",
			active:  tour.Monday,
			format:  FormatEmpty,
			want:    map[tour.Weekday][]int64{},
			cursor:  tour.Monday,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, format := Decode([]byte(tc.payload), tc.active)

			require.NotNil(t, s)
			assert.Equal(t, tc.format, format)
			for _, v := range tour.WeekdayValues {
				day := tour.Weekday(v)
				want := tc.want[day]
				if want == nil {
					want = []int64{}
				}
				assert.Equal(t, want, s.CompletedIDs(day), "weekday %s", day)
			}
			cursor, _ := s.CurrentWeekday()
			assert.Equal(t, tc.cursor, cursor)
		})
	}
}
