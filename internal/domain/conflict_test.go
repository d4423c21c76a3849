package domain

import "testing"

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error: %v", s, err)
	}
	return tod
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		aStart, aEnd   string
		bStart, bEnd   string
		want           bool
	}{
		{name: "identical intervals", aStart: "10:00", aEnd: "10:30", bStart: "10:00", bEnd: "10:30", want: true},
		{name: "partial overlap at tail", aStart: "10:00", aEnd: "11:00", bStart: "10:30", bEnd: "11:30", want: true},
		{name: "partial overlap at head", aStart: "10:30", aEnd: "11:30", bStart: "10:00", bEnd: "11:00", want: true},
		{name: "a contains b", aStart: "09:00", aEnd: "12:00", bStart: "10:00", bEnd: "10:30", want: true},
		{name: "b contains a", aStart: "10:00", aEnd: "10:30", bStart: "09:00", bEnd: "12:00", want: true},
		{name: "touching endpoints do not conflict", aStart: "10:00", aEnd: "10:30", bStart: "10:30", bEnd: "11:00", want: false},
		{name: "touching the other way", aStart: "10:30", aEnd: "11:00", bStart: "10:00", bEnd: "10:30", want: false},
		{name: "disjoint", aStart: "08:00", aEnd: "09:00", bStart: "14:00", bEnd: "15:00", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aStart, aEnd := mustTime(t, tt.aStart), mustTime(t, tt.aEnd)
			bStart, bEnd := mustTime(t, tt.bStart), mustTime(t, tt.bEnd)

			if got := Overlaps(aStart, aEnd, bStart, bEnd); got != tt.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v", tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
			// The predicate is symmetric.
			if got := Overlaps(bStart, bEnd, aStart, aEnd); got != tt.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v", tt.bStart, tt.bEnd, tt.aStart, tt.aEnd, got, tt.want)
			}
		})
	}
}

func TestHasConflict(t *testing.T) {
	day := []Booking{
		{ID: 1, StartTime: mustTime(t, "09:00"), EndTime: mustTime(t, "09:30"), Status: StatusApproved},
		{ID: 2, StartTime: mustTime(t, "10:00"), EndTime: mustTime(t, "10:30"), Status: StatusPending},
	}

	t.Run("pending bookings block the slot", func(t *testing.T) {
		if !HasConflict(day, mustTime(t, "10:00"), mustTime(t, "10:30"), 0) {
			t.Fatalf("expected conflict with pending booking")
		}
	})

	t.Run("approved bookings block the slot", func(t *testing.T) {
		if !HasConflict(day, mustTime(t, "09:15"), mustTime(t, "09:45"), 0) {
			t.Fatalf("expected conflict with approved booking")
		}
	})

	t.Run("free slot between bookings", func(t *testing.T) {
		if HasConflict(day, mustTime(t, "09:30"), mustTime(t, "10:00"), 0) {
			t.Fatalf("unexpected conflict for slot touching both neighbours")
		}
	})

	t.Run("exclude id skips own row", func(t *testing.T) {
		if HasConflict(day, mustTime(t, "10:00"), mustTime(t, "10:30"), 2) {
			t.Fatalf("booking must not conflict with itself on update")
		}
		if !HasConflict(day, mustTime(t, "09:00"), mustTime(t, "10:30"), 2) {
			t.Fatalf("exclusion must not hide other conflicts")
		}
	})

	t.Run("empty day is free", func(t *testing.T) {
		if HasConflict(nil, mustTime(t, "08:00"), mustTime(t, "20:00"), 0) {
			t.Fatalf("unexpected conflict on empty day")
		}
	})
}
