package customize

import (
	"strings"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

// PromptInput carries the selections folded into a generation prompt.
// Style, Fit and Pocket are catalog values; Material is the display name.
type PromptInput struct {
	ClothType domain.GarmentType
	Material  string
	Style     string
	Fit       string
	Pocket    string
	Detail    string
}

// garmentPromptNames translates garment categories into the English phrases
// the image model responds to best.
var garmentPromptNames = map[domain.GarmentType]string{
	domain.GarmentShortSleeve: "short sleeve t-shirt",
	domain.GarmentLongSleeve:  "long sleeve t-shirt",
	domain.GarmentSweatshirt:  "sweatshirt",
	domain.GarmentHoodie:      "hoodie",
	domain.GarmentJacket:      "jacket",
	domain.GarmentLongPants:   "long pants",
	domain.GarmentShortPants:  "shorts",
}

const (
	promptPrefix = "Professional product photography of a"
	promptSuffix = "clean white background, front view, studio lighting, high resolution, no human model"
)

// BuildPrompt assembles the text prompt for the image-generation
// collaborator: garment, material, style, fit, pocket (skipped for "none"),
// the free detail text, then the fixed boilerplate tokens.
func BuildPrompt(in PromptInput) string {
	garment := garmentPromptNames[in.ClothType]
	if garment == "" {
		garment = strings.ReplaceAll(string(in.ClothType), "_", " ")
	}

	parts := []string{promptPrefix + " " + garment}
	if material := strings.TrimSpace(in.Material); material != "" {
		parts = append(parts, "made of "+material)
	}
	if style := strings.TrimSpace(in.Style); style != "" {
		parts = append(parts, style+" style")
	}
	if fit := strings.TrimSpace(in.Fit); fit != "" {
		parts = append(parts, fit+" fit")
	}
	if pocket := strings.TrimSpace(in.Pocket); pocket != "" && pocket != "none" {
		parts = append(parts, "with "+strings.ReplaceAll(pocket, "_", " ")+" pocket")
	}
	if detail := strings.TrimSpace(in.Detail); detail != "" {
		parts = append(parts, strings.ReplaceAll(detail, "\n", ", "))
	}
	parts = append(parts, promptSuffix)
	return strings.Join(parts, ", ")
}
