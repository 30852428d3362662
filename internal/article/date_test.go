package article

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"january", "Янв 5, 2021", time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC)},
		{"december", "Дек 31, 2020", time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{"may", "Май 9, 2019", time.Date(2019, time.May, 9, 0, 0, 0, 0, time.UTC)},
		{"decomposed short i", "Ма\u0438\u0306 9, 2019", time.Date(2019, time.May, 9, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  Окт   12,  2022 ", time.Date(2022, time.October, 12, 0, 0, 0, 0, time.UTC)},
		{"no comma", "Фев 28 2021", time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"leap day", "Фев 29, 2020", time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeDate(tc.raw)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
			assert.Zero(t, got.Hour()+got.Minute()+got.Second()+got.Nanosecond())
		})
	}
}

func TestNormalizeDateUnknownMonth(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"Jan 5, 2021", "янв 5, 2021", "Январь 5, 2021"} {
		_, err := NormalizeDate(raw)
		require.ErrorIs(t, err, ErrUnknownMonth, raw)
		require.ErrorIs(t, err, ErrDateParse, raw)
	}
}

func TestNormalizeDateMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"Янв 5,",
		"Янв 5, 2021 10:00",
		"Янв x, 2021",
		"Янв 5, 20x1",
		"Фев 30, 2021",
		"Фев 29, 2021",
		"Янв 0, 2021",
	} {
		_, err := NormalizeDate(raw)
		require.ErrorIs(t, err, ErrDateParse, raw)
		assert.NotErrorIs(t, err, ErrUnknownMonth, raw)
	}
}

func TestNormalizeDateIsPure(t *testing.T) {
	t.Parallel()

	first, err := NormalizeDate("Июл 14, 2021")
	require.NoError(t, err)
	second, err := NormalizeDate("Июл 14, 2021")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
