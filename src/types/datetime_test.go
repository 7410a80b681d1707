package types

import "testing"

func TestDateRoundtrip(t *testing.T) {
	tt := []string{"1970-01-01", "2026-07-30", "1999-12-31", "1969-12-31"}
	for _, s := range tt {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := d.String(); got != s {
			t.Errorf("ParseDate(%q).String() = %q", s, got)
		}
	}
}

func TestDateEpoch(t *testing.T) {
	d, err := ParseDate("1970-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Errorf("expected epoch date to be 0, got %d", d)
	}
}

func TestTimeRoundtrip(t *testing.T) {
	tt := []string{"00:00:00", "23:59:59", "12:30:00.500000"}
	for _, s := range tt {
		tm, err := ParseTime(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := tm.String(); got != s {
			t.Errorf("ParseTime(%q).String() = %q", s, got)
		}
	}
}

func TestTimestampRoundtrip(t *testing.T) {
	ts, err := ParseTimestamp("2026-07-30 12:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ts.String(), "2026-07-30 12:00:00"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDatesComparisons(t *testing.T) {
	a, _ := ParseDate("2020-01-01")
	b, _ := ParseDate("2021-01-01")
	if !DatesLessThan(a, b) || DatesGreaterThan(a, b) || DatesEqual(a, b) {
		t.Error("unexpected date comparison result")
	}
}

func TestAddIntervalMonthsDaysMicros(t *testing.T) {
	ts, err := ParseTimestamp("2026-01-31 00:00:00")
	if err != nil {
		t.Fatal(err)
	}
	got := ts.AddInterval(Interval{Months: 1})
	if got.String() != "2026-03-03 00:00:00" {
		// time.Time.AddDate normalizes Jan 31 + 1 month into the overflowed March date
		t.Errorf("AddInterval(1 month) on Jan 31 = %s", got.String())
	}
}

func TestAddIntervalToDate(t *testing.T) {
	d, err := ParseDate("2026-07-30")
	if err != nil {
		t.Fatal(err)
	}
	got := d.AddInterval(Interval{Days: 2})
	if want, _ := ParseDate("2026-08-01"); got != want {
		t.Errorf("AddInterval(2 days) = %s, want %s", got, want)
	}
}
