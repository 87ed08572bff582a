package customize

import (
	"errors"
	"reflect"
	"testing"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

func mustAdvance(t *testing.T, w *Wizard) {
	t.Helper()
	if _, err := w.Advance(); err != nil {
		t.Fatalf("unexpected advance error: %v", err)
	}
}

func TestWizardStepValidation(t *testing.T) {
	t.Run("type step blocks without a garment", func(t *testing.T) {
		w := NewWizard()
		_, err := w.Advance()
		assertBlocked(t, err, StepType, MsgTypeRequired)
		if w.Step() != StepType {
			t.Fatalf("expected step unchanged, got %d", w.Step())
		}
	})

	t.Run("material step blocks without a fabric", func(t *testing.T) {
		w := NewWizard()
		w.SetClothType(domain.GarmentShortSleeve)
		mustAdvance(t, w)
		_, err := w.Advance()
		assertBlocked(t, err, StepMaterial, MsgMaterialRequired)
	})

	t.Run("detail step always passes", func(t *testing.T) {
		w := wizardAtStep(t, StepDetail)
		mustAdvance(t, w)
		if w.Step() != StepImage {
			t.Fatalf("expected image step, got %d", w.Step())
		}
	})

	t.Run("image step blocks when generation returned nothing", func(t *testing.T) {
		w := wizardAtStep(t, StepImage)
		w.SetGeneratedImages(nil)
		_, err := w.Advance()
		assertBlocked(t, err, StepImage, MsgImageRequired)
	})

	t.Run("image step blocks until one preview is selected", func(t *testing.T) {
		w := wizardAtStep(t, StepImage)
		w.SetGeneratedImages([]string{"https://img/0.png", "https://img/1.png"})
		_, err := w.Advance()
		assertBlocked(t, err, StepImage, MsgImageSelection)

		if err := w.SelectImage(1); err != nil {
			t.Fatalf("unexpected select error: %v", err)
		}
		mustAdvance(t, w)
		if w.Step() != StepSize {
			t.Fatalf("expected size step, got %d", w.Step())
		}
	})

	t.Run("size step blocks without size or table edits", func(t *testing.T) {
		w := wizardAtStep(t, StepSize)
		_, err := w.Advance()
		assertBlocked(t, err, StepSize, MsgSizeRequired)
	})

	t.Run("size table edits alone satisfy the size step", func(t *testing.T) {
		w := wizardAtStep(t, StepSize)
		w.SetSizeTableEdit(domain.MeasureChest, 52)
		completed, err := w.Advance()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !completed {
			t.Fatalf("expected wizard completion")
		}
		if w.Step() != StepSize {
			t.Fatalf("completion must not change the step, got %d", w.Step())
		}
	})
}

func TestWizardBack(t *testing.T) {
	w := wizardAtStep(t, StepDetail)
	w.Back()
	if w.Step() != StepMaterial {
		t.Fatalf("expected material step, got %d", w.Step())
	}
	w.Back()
	w.Back()
	if w.Step() != StepType {
		t.Fatalf("back must stop at the first step, got %d", w.Step())
	}
}

func TestWizardMaterials(t *testing.T) {
	t.Run("custom material is slugged, marked and selected", func(t *testing.T) {
		w := NewWizard()
		material, err := w.AddCustomMaterial("오가닉 코튼")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !material.IsCustom {
			t.Fatalf("expected custom marker")
		}
		if material.ID != "custom-오가닉-코튼" {
			t.Fatalf("unexpected slug id %q", material.ID)
		}
		selected, ok := w.SelectedMaterial()
		if !ok || selected.ID != material.ID {
			t.Fatalf("expected the new material selected, got %#v ok=%v", selected, ok)
		}
	})

	t.Run("duplicate names are not collapsed", func(t *testing.T) {
		w := NewWizard()
		if _, err := w.AddCustomMaterial("데님 워싱"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.AddCustomMaterial("데님 워싱"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(w.Materials()); got != len(domain.BuiltinMaterials)+2 {
			t.Fatalf("expected both duplicates kept, got %d materials", got)
		}
	})

	t.Run("blank names are rejected", func(t *testing.T) {
		w := NewWizard()
		if _, err := w.AddCustomMaterial("   "); err == nil {
			t.Fatalf("expected error for blank name")
		}
	})
}

func TestWizardPayload(t *testing.T) {
	t.Run("resolves labels and prefers the stored image", func(t *testing.T) {
		w := NewWizard()
		w.SetClothType(domain.GarmentShortSleeve)
		if err := w.SelectMaterial("cotton"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.SelectOption(domain.OptionStyle, "casual")
		w.SelectOption(domain.OptionColor, "black")
		w.SetGeneratedImages([]string{"https://ephemeral/0.png"})
		if err := w.SelectImage(0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.SetStoredImage("https://stored/preview.png", "previews/u1/p1.png")
		w.SetSize("M")

		payload := w.Payload()
		want := OrderPayload{
			ClothType:         "반팔 티셔츠",
			Material:          "면",
			Style:             "캐주얼",
			Color:             "검정",
			DetailDescription: "스타일: 캐주얼\n색상: 검정",
			Size:              "M",
			ImageURL:          "https://stored/preview.png",
			ImagePath:         "previews/u1/p1.png",
		}
		if !reflect.DeepEqual(payload, want) {
			t.Fatalf("unexpected payload:\n got %#v\nwant %#v", payload, want)
		}
	})

	t.Run("falls back to the selected generation url", func(t *testing.T) {
		w := NewWizard()
		w.SetGeneratedImages([]string{"https://ephemeral/0.png", "https://ephemeral/1.png"})
		if err := w.SelectImage(1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := w.Payload().ImageURL; got != "https://ephemeral/1.png" {
			t.Fatalf("expected ephemeral url, got %q", got)
		}
	})

	t.Run("size table edits beat custom measurements", func(t *testing.T) {
		w := NewWizard()
		w.SetSizeTableEdit(domain.MeasureChest, 53.5)
		w.SetSizeTableEdit(domain.MeasureLength, 70)
		w.SetCustomMeasurement("팔 길이", 61)

		got := w.Payload().Measurements
		want := map[string]float64{domain.MeasureChest: 53.5, domain.MeasureLength: 70}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected size-table measurements %v, got %v", want, got)
		}
	})

	t.Run("custom measurements apply when no table edits exist", func(t *testing.T) {
		w := NewWizard()
		w.SetCustomMeasurement("팔 길이", 61)
		got := w.Payload().Measurements
		if !reflect.DeepEqual(got, map[string]float64{"팔 길이": 61}) {
			t.Fatalf("expected custom measurements, got %v", got)
		}
	})
}

func TestWizardStaleGenerationResultsAreDropped(t *testing.T) {
	w := wizardAtStep(t, StepImage)

	first := w.BeginImageRequest()
	second := w.BeginImageRequest()

	if w.ApplyGeneratedImages(first, []string{"https://img/stale.png"}) {
		t.Fatalf("expected the superseded result to be refused")
	}
	if got := len(w.GeneratedImages()); got != 0 {
		t.Fatalf("expected no previews installed, got %d", got)
	}

	if !w.ApplyGeneratedImages(second, []string{"https://img/fresh-0.png", "https://img/fresh-1.png"}) {
		t.Fatalf("expected the latest result to apply")
	}
	if got := w.GeneratedImages(); len(got) != 2 || got[0] != "https://img/fresh-0.png" {
		t.Fatalf("unexpected previews %#v", got)
	}

	if w.ApplyGeneratedImages(first, []string{"https://img/zombie.png"}) {
		t.Fatalf("expected a replayed stale ticket to stay refused")
	}
}

func TestWizardSnapshotRoundTrip(t *testing.T) {
	w := NewWizard()
	w.SetClothType(domain.GarmentLongPants)
	if _, err := w.AddCustomMaterial("코듀로이"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.SelectOption(domain.OptionFit, "wide")
	w.SetDetailText(w.DetailText() + "\n카고 스타일로")
	w.SetGeneratedImages([]string{"https://img/0.png"})
	if err := w.SelectImage(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.SetSize("L")
	mustAdvance(t, w)
	mustAdvance(t, w)

	restored := NewWizard()
	restored.RestoreSnapshot(w.Snapshot())

	if restored.Step() != w.Step() {
		t.Fatalf("expected step %d, got %d", w.Step(), restored.Step())
	}
	if restored.ClothType() != domain.GarmentLongPants {
		t.Fatalf("expected garment preserved, got %q", restored.ClothType())
	}
	if got, want := restored.DetailText(), w.DetailText(); got != want {
		t.Fatalf("expected detail text %q, got %q", want, got)
	}
	if got := restored.OptionSelection(domain.OptionFit); got != "wide" {
		t.Fatalf("expected fit selection preserved, got %q", got)
	}
	material, ok := restored.SelectedMaterial()
	if !ok || material.Name != "코듀로이" || !material.IsCustom {
		t.Fatalf("expected custom material restored, got %#v ok=%v", material, ok)
	}
	if !reflect.DeepEqual(restored.GeneratedImages(), w.GeneratedImages()) {
		t.Fatalf("expected image urls preserved")
	}
	if !reflect.DeepEqual(restored.Payload(), w.Payload()) {
		t.Fatalf("expected identical payloads after restore")
	}
}

func wizardAtStep(t *testing.T, target Step) *Wizard {
	t.Helper()
	w := NewWizard()
	w.SetClothType(domain.GarmentShortSleeve)
	if target == StepType {
		return w
	}
	mustAdvance(t, w)
	if target == StepMaterial {
		return w
	}
	if err := w.SelectMaterial("cotton"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustAdvance(t, w)
	if target == StepDetail {
		return w
	}
	mustAdvance(t, w)
	if target == StepImage {
		return w
	}
	w.SetGeneratedImages([]string{"https://img/0.png"})
	if err := w.SelectImage(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustAdvance(t, w)
	return w
}

func assertBlocked(t *testing.T, err error, step Step, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var blocked *StepValidationError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected StepValidationError, got %T: %v", err, err)
	}
	if blocked.Step != step {
		t.Fatalf("expected step %d, got %d", step, blocked.Step)
	}
	if blocked.Message != message {
		t.Fatalf("expected message %q, got %q", message, blocked.Message)
	}
}
