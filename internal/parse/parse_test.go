package parse

import (
	"testing"
	"time"
)

func TestTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			"ISO with Z",
			"2026-01-15T10:11:35.724Z",
			time.Date(2026, time.January, 15, 10, 11, 35, 724000000, time.UTC),
		},
		{
			"ISO with offset",
			"2026-01-15T10:11:35+05:30",
			time.Date(2026, time.January, 15, 10, 11, 35, 0, time.FixedZone("", 5*3600+1800)),
		},
		{
			"day month year am",
			"15 Jan 2026, 10:41 am",
			time.Date(2026, time.January, 15, 10, 41, 0, 0, time.Local),
		},
		{
			"day month year pm",
			"15 Jan 2026, 3:38 pm",
			time.Date(2026, time.January, 15, 15, 38, 0, 0, time.Local),
		},
		{
			"midnight am",
			"1 Feb 2026, 12:05 am",
			time.Date(2026, time.February, 1, 0, 5, 0, 0, time.Local),
		},
		{
			"noon pm",
			"1 Feb 2026, 12:05 pm",
			time.Date(2026, time.February, 1, 12, 5, 0, 0, time.Local),
		},
		{
			"24h with seconds no meridiem",
			"15 Jan 2026 22:41:07",
			time.Date(2026, time.January, 15, 22, 41, 7, 0, time.Local),
		},
		{
			"case-insensitive month",
			"15 JAN 2026, 10:41 AM",
			time.Date(2026, time.January, 15, 10, 41, 0, 0, time.Local),
		},
		{
			"slash date four-digit year",
			"1/15/2026",
			time.Date(2026, time.January, 15, 0, 0, 0, 0, time.Local),
		},
		{
			"slash date two-digit year",
			"3/7/26",
			time.Date(2026, time.March, 7, 0, 0, 0, 0, time.Local),
		},
		{
			"generic date-time",
			"2026-01-15 09:30:00",
			time.Date(2026, time.January, 15, 9, 30, 0, 0, time.Local),
		},
		{
			"generic date only",
			"2026-01-15",
			time.Date(2026, time.January, 15, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Timestamp(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Timestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimestampUnparseable(t *testing.T) {
	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	for _, in := range []string{"", "   ", "not a date", "99/99/garbage", "later"} {
		got := timestampOr(in, clock)
		if !got.Equal(now) {
			t.Errorf("timestampOr(%q) = %v, want fallback %v", in, got, now)
		}
	}
}

func TestTimestampDeterministic(t *testing.T) {
	const in = "15 Jan 2026, 3:38 pm"
	a := Timestamp(in)
	b := Timestamp(in)
	if !a.Equal(b) {
		t.Errorf("Timestamp(%q) not deterministic: %v vs %v", in, a, b)
	}
}

func TestFirstInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"8 questions", 8},
		{"75/100", 75},
		{"score: 42 points", 42},
		{"100", 100},
		{"", 0},
		{"no digits here", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := FirstInt(tt.in); got != tt.want {
			t.Errorf("FirstInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEvaluation(t *testing.T) {
	ev := Evaluation(`{"marks":[5,3],"feedback":["good","short"],"totalMarks":8,"maxTotalMarks":10,"percentage":80,"overallFeedback":"solid"}`)
	if ev == nil {
		t.Fatal("expected evaluation, got nil")
	}
	if ev.TotalMarks != 8 || ev.Percentage != 80 {
		t.Errorf("unexpected evaluation: %+v", ev)
	}
	if len(ev.Marks) != 2 || ev.Marks[1] != 3 {
		t.Errorf("unexpected marks: %v", ev.Marks)
	}

	for _, in := range []string{"", "  ", "{not json", "[1,2", "null garbage"} {
		if got := Evaluation(in); got != nil {
			t.Errorf("Evaluation(%q) = %+v, want nil", in, got)
		}
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"comma list", "Thermodynamics, Optics", []string{"Thermodynamics", "Optics"}},
		{"json array", `["Thermodynamics","Optics"]`, []string{"Thermodynamics", "Optics"}},
		{"single", "Optics", []string{"Optics"}},
		{"empty", "", nil},
		{"broken json falls back to comma split", `["Optics"`, []string{`["Optics"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Topics(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Topics(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Topics(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}
