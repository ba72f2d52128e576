package recurrence

import (
	"testing"
	"time"

	"lembra/internal/platform/braziltime"
)

func TestParseTermination(t *testing.T) {
	now := braziltime.Compose(2026, time.March, 10, 9, 0)

	t.Run("count pattern", func(t *testing.T) {
		got := ParseTermination("10 vezes", now)
		if got.Count != 10 || !got.EndDate.IsZero() {
			t.Fatalf("expected count 10, got %#v", got)
		}
	})

	t.Run("count capped at 100", func(t *testing.T) {
		got := ParseTermination("500 vezes", now)
		if got.Count != MaxCount {
			t.Fatalf("expected cap %d, got %d", MaxCount, got.Count)
		}
	})

	t.Run("months", func(t *testing.T) {
		got := ParseTermination("3 meses", now)
		want := now.AddDate(0, 3, 0)
		if got.Count != 0 || !got.EndDate.Equal(want) {
			t.Fatalf("expected end %s, got %#v", want, got)
		}
	})

	t.Run("weeks", func(t *testing.T) {
		got := ParseTermination("2 semanas", now)
		if !got.EndDate.Equal(now.AddDate(0, 0, 14)) {
			t.Fatalf("expected now+14d, got %s", got.EndDate)
		}
	})

	t.Run("days", func(t *testing.T) {
		got := ParseTermination("15 dias", now)
		if !got.EndDate.Equal(now.AddDate(0, 0, 15)) {
			t.Fatalf("expected now+15d, got %s", got.EndDate)
		}
	})

	t.Run("named month snaps to its end", func(t *testing.T) {
		got := ParseTermination("até dezembro", now)
		want := braziltime.Compose(2026, time.December, 31, 23, 59)
		if !got.EndDate.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got.EndDate)
		}
	})

	t.Run("past month rolls to next year", func(t *testing.T) {
		got := ParseTermination("até janeiro", now)
		want := braziltime.Compose(2027, time.January, 31, 23, 59)
		if !got.EndDate.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got.EndDate)
		}
	})

	t.Run("default window", func(t *testing.T) {
		got := ParseTermination("", now)
		if !got.EndDate.Equal(now.AddDate(0, 3, 0)) {
			t.Fatalf("expected 3-month default, got %#v", got)
		}
	})
}
