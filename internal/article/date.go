package article

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrDateParse reports a date string that cannot be normalized.
	ErrDateParse = errors.New("date parse error")
	// ErrUnknownMonth reports a month abbreviation missing from the month
	// table. Errors carrying it also match ErrDateParse.
	ErrUnknownMonth = errors.New("unknown month")
)

// months maps the site's Russian month abbreviations to calendar months.
var months = map[string]time.Month{
	"Янв": time.January,
	"Фев": time.February,
	"Мар": time.March,
	"Апр": time.April,
	"Май": time.May,
	"Июн": time.June,
	"Июл": time.July,
	"Авг": time.August,
	"Сен": time.September,
	"Окт": time.October,
	"Ноя": time.November,
	"Дек": time.December,
}

// NormalizeDate converts strings like "Янв 5, 2021" into a calendar date at
// midnight UTC.
func NormalizeDate(raw string) (time.Time, error) {
	fields := strings.Fields(norm.NFC.String(raw))
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q: want 3 tokens, got %d", ErrDateParse, raw, len(fields))
	}
	monthToken, dayToken, yearToken := fields[0], fields[1], fields[2]

	month, ok := months[monthToken]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %w: %q", ErrDateParse, ErrUnknownMonth, monthToken)
	}

	if last, size := utf8.DecodeLastRuneInString(dayToken); unicode.IsPunct(last) {
		dayToken = dayToken[:len(dayToken)-size]
	}
	day, err := strconv.Atoi(dayToken)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: bad day: %w", ErrDateParse, raw, err)
	}
	year, err := strconv.Atoi(yearToken)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: bad year: %w", ErrDateParse, raw, err)
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Фев 30 -> Mar 2); reject instead.
	if date.Day() != day || date.Month() != month || date.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q: no such date", ErrDateParse, raw)
	}
	return date, nil
}
