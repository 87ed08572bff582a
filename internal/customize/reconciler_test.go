package customize

import (
	"reflect"
	"strings"
	"testing"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

func TestReconcilerSelectOption(t *testing.T) {
	t.Run("builds one line per selected type in fixed order", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionColor, "black")
		rec.SelectOption(domain.OptionStyle, "casual")

		want := "스타일: 캐주얼\n색상: 검정"
		if got := rec.Text(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("is idempotent for repeated selection", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionStyle, "casual")
		first := rec.Text()
		rec.SelectOption(domain.OptionStyle, "casual")
		if got := rec.Text(); got != first {
			t.Fatalf("expected identical text after repeat, got %q then %q", first, got)
		}
		if strings.Count(rec.Text(), "스타일:") != 1 {
			t.Fatalf("expected a single style line, got %q", rec.Text())
		}
	})

	t.Run("replaces the previous label of the same type", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionStyle, "casual")
		rec.SelectOption(domain.OptionStyle, "formal")
		if got, want := rec.Text(), "스타일: 포멀"; got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("cleans up stale lines of the same type", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.ApplyText("스타일: 캐주얼\n스타일: 빈티지")
		rec.SelectOption(domain.OptionStyle, "formal")
		if got, want := rec.Text(), "스타일: 포멀"; got != want {
			t.Fatalf("expected stale lines removed, got %q", got)
		}
	})

	t.Run("pocket none suppresses its line", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionStyle, "casual")
		rec.SelectOption(domain.OptionPocket, "none")
		rec.SelectOption(domain.OptionColor, "black")

		want := "스타일: 캐주얼\n색상: 검정"
		if got := rec.Text(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("clearing removes exactly that line and keeps user lines in order", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.ApplyText("소매에 자수 추가\n밑단은 무지로")
		rec.SelectOption(domain.OptionStyle, "casual")
		rec.SelectOption(domain.OptionColor, "navy")
		rec.SelectOption(domain.OptionStyle, "")

		want := "소매에 자수 추가\n밑단은 무지로\n색상: 네이비"
		if got := rec.Text(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("ignores untracked option types", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionType("texture"), "soft")
		if got := rec.Text(); got != "" {
			t.Fatalf("expected untouched text, got %q", got)
		}
	})
}

func TestReconcilerApplyText(t *testing.T) {
	t.Run("recognised line sets the selection", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.ApplyText("핏: 루즈핏")
		if got := rec.Selection(domain.OptionFit); got != "loose" {
			t.Fatalf("expected fit loose, got %q", got)
		}
	})

	t.Run("deleting a line clears the selection", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionColor, "black")
		rec.ApplyText("")
		if got := rec.Selection(domain.OptionColor); got != "" {
			t.Fatalf("expected cleared color, got %q", got)
		}
	})

	t.Run("unknown label leaves no selection", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionStyle, "casual")
		rec.ApplyText("스타일: 멋지게")
		if got := rec.Selection(domain.OptionStyle); got != "" {
			t.Fatalf("expected style cleared for unknown label, got %q", got)
		}
		// The unrecognised line survives the next rebuild as a user line.
		rec.SelectOption(domain.OptionColor, "red")
		want := "스타일: 멋지게\n색상: 빨강"
		if got := rec.Text(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("round trip reproduces the same text", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentShortSleeve)
		rec.SelectOption(domain.OptionStyle, "street")
		rec.SelectOption(domain.OptionColor, "gray")
		rec.SelectOption(domain.OptionFit, "slim")
		text := rec.Text()

		other := NewReconciler(domain.GarmentShortSleeve)
		other.ApplyText(text)
		for _, typ := range domain.ReconcileOrder {
			other.SelectOption(typ, other.Selection(typ))
		}
		if got := other.Text(); got != text {
			t.Fatalf("round trip changed text: %q vs %q", text, got)
		}
		if !reflect.DeepEqual(other.Selections(), rec.Selections()) {
			t.Fatalf("round trip changed selections: %#v vs %#v", rec.Selections(), other.Selections())
		}
	})

	t.Run("bottoms use the pants fit catalog", func(t *testing.T) {
		rec := NewReconciler(domain.GarmentLongPants)
		rec.ApplyText("핏: 와이드핏")
		if got := rec.Selection(domain.OptionFit); got != "wide" {
			t.Fatalf("expected wide fit, got %q", got)
		}
	})
}
