package customize

import (
	"strings"
	"testing"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("includes every provided clause", func(t *testing.T) {
		prompt := BuildPrompt(PromptInput{
			ClothType: domain.GarmentShortSleeve,
			Material:  "cotton",
			Style:     "casual",
			Fit:       "regular",
			Pocket:    "chest",
			Detail:    "스타일: 캐주얼\n소매에 자수 추가",
		})

		for _, want := range []string{
			"short sleeve t-shirt",
			"made of cotton",
			"casual style",
			"regular fit",
			"with chest pocket",
			"소매에 자수 추가",
			promptSuffix,
		} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("expected prompt to contain %q, got %q", want, prompt)
			}
		}
		if strings.Contains(prompt, "\n") {
			t.Fatalf("expected newlines folded, got %q", prompt)
		}
	})

	t.Run("skips the pocket clause for none", func(t *testing.T) {
		prompt := BuildPrompt(PromptInput{
			ClothType: domain.GarmentHoodie,
			Pocket:    "none",
		})
		if strings.Contains(prompt, "pocket") {
			t.Fatalf("expected no pocket clause, got %q", prompt)
		}
	})

	t.Run("unknown garment falls back to the raw value", func(t *testing.T) {
		prompt := BuildPrompt(PromptInput{ClothType: domain.GarmentType("rain_coat")})
		if !strings.Contains(prompt, "rain coat") {
			t.Fatalf("expected raw garment phrase, got %q", prompt)
		}
	})

	t.Run("empty clauses are omitted", func(t *testing.T) {
		prompt := BuildPrompt(PromptInput{ClothType: domain.GarmentJacket})
		if strings.Contains(prompt, "made of") || strings.Contains(prompt, " style,") {
			t.Fatalf("expected no material or style clause, got %q", prompt)
		}
		if !strings.HasPrefix(prompt, promptPrefix) || !strings.HasSuffix(prompt, promptSuffix) {
			t.Fatalf("expected boilerplate retained, got %q", prompt)
		}
	})
}
