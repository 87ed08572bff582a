package domain

import (
	"strings"
	"unicode"
)

// OptionType identifies one structured customization axis kept in sync with
// the free-text detail field.
type OptionType string

const (
	// OptionStyle selects the overall garment styling.
	OptionStyle OptionType = "style"
	// OptionPocket selects the pocket treatment.
	OptionPocket OptionType = "pocket"
	// OptionColor selects the base fabric color.
	OptionColor OptionType = "color"
	// OptionFit selects the silhouette.
	OptionFit OptionType = "fit"
)

// ReconcileOrder fixes the iteration order used when extracting option lines
// from user-edited text. The order decides which selector wins when a label
// collides across types, so it must stay stable.
var ReconcileOrder = []OptionType{OptionStyle, OptionPocket, OptionColor, OptionFit}

// OptionEntry is a single selectable catalog value with its storefront label.
// Hex is only populated for color entries.
type OptionEntry struct {
	Value string
	Label string
	Hex   string
}

// GarmentType is the top-level clothing category.
type GarmentType string

const (
	GarmentShortSleeve GarmentType = "short_sleeve"
	GarmentLongSleeve  GarmentType = "long_sleeve"
	GarmentSweatshirt  GarmentType = "sweatshirt"
	GarmentHoodie      GarmentType = "hoodie"
	GarmentJacket      GarmentType = "jacket"
	GarmentLongPants   GarmentType = "long_pants"
	GarmentShortPants  GarmentType = "short_pants"
)

// GarmentTypes lists every built-in garment category in display order.
var GarmentTypes = []OptionEntry{
	{Value: string(GarmentShortSleeve), Label: "반팔 티셔츠"},
	{Value: string(GarmentLongSleeve), Label: "긴팔 티셔츠"},
	{Value: string(GarmentSweatshirt), Label: "맨투맨"},
	{Value: string(GarmentHoodie), Label: "후드티"},
	{Value: string(GarmentJacket), Label: "자켓"},
	{Value: string(GarmentLongPants), Label: "긴바지"},
	{Value: string(GarmentShortPants), Label: "반바지"},
}

// IsBottoms reports whether the garment hangs from the waist, which switches
// the fit catalog and the measurement chart columns.
func (g GarmentType) IsBottoms() bool {
	switch g {
	case GarmentLongPants, GarmentShortPants:
		return true
	}
	return false
}

// Known reports whether the garment type is one of the built-in categories.
func (g GarmentType) Known() bool {
	for _, entry := range GarmentTypes {
		if entry.Value == string(g) {
			return true
		}
	}
	return false
}

// Label returns the storefront label for the garment type, falling back to
// the raw value for unknown categories.
func (g GarmentType) Label() string {
	for _, entry := range GarmentTypes {
		if entry.Value == string(g) {
			return entry.Label
		}
	}
	return string(g)
}

// Material is a fabric choice. Built-in materials ship with the catalog;
// custom materials are created ad hoc by the user during the wizard.
type Material struct {
	ID       string
	Name     string
	IsCustom bool
}

// BuiltinMaterials lists the fabrics offered by default.
var BuiltinMaterials = []Material{
	{ID: "cotton", Name: "면"},
	{ID: "linen", Name: "린넨"},
	{ID: "polyester", Name: "폴리에스터"},
	{ID: "denim", Name: "데님"},
	{ID: "wool", Name: "울"},
	{ID: "fleece", Name: "플리스"},
}

// NewCustomMaterial builds a user-added material with an id derived from a
// slugified form of the entered name. Names are not deduplicated against the
// existing catalog.
func NewCustomMaterial(name string) Material {
	name = strings.TrimSpace(name)
	return Material{
		ID:       "custom-" + slugify(name),
		Name:     name,
		IsCustom: true,
	}
}

func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "material"
	}
	return slug
}

// StyleOptions catalog.
var StyleOptions = []OptionEntry{
	{Value: "casual", Label: "캐주얼"},
	{Value: "formal", Label: "포멀"},
	{Value: "street", Label: "스트릿"},
	{Value: "minimal", Label: "미니멀"},
	{Value: "vintage", Label: "빈티지"},
}

// PocketOptions catalog. "none" suppresses the detail-text line entirely.
var PocketOptions = []OptionEntry{
	{Value: "none", Label: "없음"},
	{Value: "chest", Label: "가슴 포켓"},
	{Value: "side", Label: "사이드 포켓"},
	{Value: "hidden", Label: "히든 포켓"},
}

// ColorOptions catalog.
var ColorOptions = []OptionEntry{
	{Value: "black", Label: "검정", Hex: "#000000"},
	{Value: "white", Label: "흰색", Hex: "#FFFFFF"},
	{Value: "navy", Label: "네이비", Hex: "#000080"},
	{Value: "gray", Label: "회색", Hex: "#808080"},
	{Value: "beige", Label: "베이지", Hex: "#F5F5DC"},
	{Value: "red", Label: "빨강", Hex: "#FF0000"},
	{Value: "blue", Label: "파랑", Hex: "#0000FF"},
}

// FitOptions catalog for tops.
var FitOptions = []OptionEntry{
	{Value: "slim", Label: "슬림핏"},
	{Value: "regular", Label: "레귤러핏"},
	{Value: "loose", Label: "루즈핏"},
}

// BottomFitOptions catalog for pants.
var BottomFitOptions = []OptionEntry{
	{Value: "skinny", Label: "스키니핏"},
	{Value: "regular", Label: "레귤러핏"},
	{Value: "wide", Label: "와이드핏"},
}

// TextureOptions catalog for material feel.
var TextureOptions = []OptionEntry{
	{Value: "soft", Label: "부드러움"},
	{Value: "normal", Label: "보통"},
	{Value: "rough", Label: "거칠음"},
}

// ElasticityOptions catalog.
var ElasticityOptions = []OptionEntry{
	{Value: "high", Label: "높음"},
	{Value: "medium", Label: "중간"},
	{Value: "low", Label: "낮음"},
}

// TransparencyOptions catalog.
var TransparencyOptions = []OptionEntry{
	{Value: "opaque", Label: "비침 없음"},
	{Value: "slight", Label: "약간 비침"},
	{Value: "sheer", Label: "비침 있음"},
}

// ThicknessOptions catalog.
var ThicknessOptions = []OptionEntry{
	{Value: "thick", Label: "두꺼움"},
	{Value: "medium", Label: "보통"},
	{Value: "thin", Label: "얇음"},
}

// SeasonOptions catalog.
var SeasonOptions = []OptionEntry{
	{Value: "spring_fall", Label: "봄/가을"},
	{Value: "summer", Label: "여름"},
	{Value: "winter", Label: "겨울"},
	{Value: "all", Label: "사계절"},
}

// optionTypeLabels maps each tracked option type to the label prefix used for
// its line inside the detail text.
var optionTypeLabels = map[OptionType]string{
	OptionStyle:  "스타일",
	OptionPocket: "포켓",
	OptionColor:  "색상",
	OptionFit:    "핏",
}

// suppressedOptionValues are catalog values that behave as "no selection" for
// detail-text purposes: picking them removes the line instead of adding one.
var suppressedOptionValues = map[OptionType]string{
	OptionPocket: "none",
}

// TypeLabel returns the detail-text line prefix for a tracked option type.
func (t OptionType) TypeLabel() string {
	return optionTypeLabels[t]
}

// SuppressesLine reports whether the given value produces no detail-text line
// for this option type.
func (t OptionType) SuppressesLine(value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	return suppressedOptionValues[t] == value
}

// OptionsFor returns the catalog backing a tracked option type.
func OptionsFor(t OptionType) []OptionEntry {
	switch t {
	case OptionStyle:
		return StyleOptions
	case OptionPocket:
		return PocketOptions
	case OptionColor:
		return ColorOptions
	case OptionFit:
		return FitOptions
	}
	return nil
}

// LabelFor resolves a catalog value to its label.
func LabelFor(t OptionType, value string) (string, bool) {
	for _, entry := range OptionsFor(t) {
		if entry.Value == value {
			return entry.Label, true
		}
	}
	return "", false
}

// ValueForLabel resolves a label back to its catalog value.
func ValueForLabel(t OptionType, label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, entry := range OptionsFor(t) {
		if entry.Label == label {
			return entry.Value, true
		}
	}
	return "", false
}
