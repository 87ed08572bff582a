package domain

import "strings"

// Gender selects which size table applies. The storefront only distinguishes
// the two tables below; any marker that is not recognisably male resolves to
// the women table, matching long-standing recommendation behaviour.
type Gender string

const (
	// GenderMen selects the men size table.
	GenderMen Gender = "men"
	// GenderWomen selects the women size table.
	GenderWomen Gender = "women"
)

// NormalizeGender maps free-form gender markers onto a size table.
func NormalizeGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "men", "male", "m", "남성", "남자":
		return GenderMen
	}
	return GenderWomen
}

// SizeBand maps an inclusive height range in centimeters to a size label.
type SizeBand struct {
	MinHeight float64
	MaxHeight float64
	Label     string
}

// DefaultSize is returned when a height falls outside every band.
const DefaultSize = "M"

var menSizeBands = []SizeBand{
	{MinHeight: 160, MaxHeight: 164, Label: "XS"},
	{MinHeight: 165, MaxHeight: 169, Label: "S"},
	{MinHeight: 170, MaxHeight: 174, Label: "M"},
	{MinHeight: 175, MaxHeight: 179, Label: "L"},
	{MinHeight: 180, MaxHeight: 184, Label: "XL"},
	{MinHeight: 185, MaxHeight: 189, Label: "XXL"},
}

var womenSizeBands = []SizeBand{
	{MinHeight: 150, MaxHeight: 154, Label: "XS"},
	{MinHeight: 155, MaxHeight: 159, Label: "S"},
	{MinHeight: 160, MaxHeight: 164, Label: "M"},
	{MinHeight: 165, MaxHeight: 169, Label: "L"},
	{MinHeight: 170, MaxHeight: 174, Label: "XL"},
	{MinHeight: 175, MaxHeight: 179, Label: "XXL"},
}

// SizeBands returns the ordered band table for the gender.
func SizeBands(gender Gender) []SizeBand {
	if gender == GenderMen {
		return menSizeBands
	}
	return womenSizeBands
}

// ResolveSize returns the size label whose band contains the height, or
// DefaultSize when no band matches. Heights of zero or below never match a
// band and therefore also resolve to the default.
func ResolveSize(height float64, gender Gender) string {
	for _, band := range SizeBands(gender) {
		if height >= band.MinHeight && height <= band.MaxHeight {
			return band.Label
		}
	}
	return DefaultSize
}

// SizeLabels lists every label in band order for the gender.
func SizeLabels(gender Gender) []string {
	bands := SizeBands(gender)
	labels := make([]string, 0, len(bands))
	for _, band := range bands {
		labels = append(labels, band.Label)
	}
	return labels
}

// Measurement chart keys, in centimeters of flat garment measurement.
const (
	MeasureLength   = "총장"
	MeasureShoulder = "어깨너비"
	MeasureChest    = "가슴단면"
	MeasureSleeve   = "소매길이"
	MeasureWaist    = "허리단면"
	MeasureThigh    = "허벅지단면"
	MeasureHem      = "밑단단면"
)

// TopsMeasureKeys lists chart columns for garments worn on the upper body.
var TopsMeasureKeys = []string{MeasureLength, MeasureShoulder, MeasureChest, MeasureSleeve}

// BottomsMeasureKeys lists chart columns for pants.
var BottomsMeasureKeys = []string{MeasureLength, MeasureWaist, MeasureThigh, MeasureHem}

func tops(length, shoulder, chest, sleeve float64) map[string]float64 {
	return map[string]float64{
		MeasureLength:   length,
		MeasureShoulder: shoulder,
		MeasureChest:    chest,
		MeasureSleeve:   sleeve,
	}
}

func bottoms(length, waist, thigh, hem float64) map[string]float64 {
	return map[string]float64{
		MeasureLength: length,
		MeasureWaist:  waist,
		MeasureThigh:  thigh,
		MeasureHem:    hem,
	}
}

// sizeRow builds a chart keyed XS..XXL from a base row, growing every column
// by step per size. Flat garment charts in the source size guides grow close
// to linearly, so the grade rule is encoded once instead of per cell.
func sizeRow(base map[string]float64, step float64) map[string]map[string]float64 {
	labels := []string{"XS", "S", "M", "L", "XL", "XXL"}
	chart := make(map[string]map[string]float64, len(labels))
	for i, label := range labels {
		row := make(map[string]float64, len(base))
		for key, value := range base {
			row[key] = value + float64(i)*step
		}
		chart[label] = row
	}
	return chart
}

var measurementCharts = map[Gender]map[GarmentType]map[string]map[string]float64{
	GenderMen: {
		GarmentShortSleeve: sizeRow(tops(66, 42, 48, 19), 2),
		GarmentLongSleeve:  sizeRow(tops(66, 42, 48, 58), 2),
		GarmentSweatshirt:  sizeRow(tops(64, 44, 52, 58), 2),
		GarmentHoodie:      sizeRow(tops(65, 45, 54, 59), 2),
		GarmentJacket:      sizeRow(tops(67, 44, 53, 60), 2),
		GarmentLongPants:   sizeRow(bottoms(98, 36, 28, 18), 1.5),
		GarmentShortPants:  sizeRow(bottoms(50, 36, 29, 24), 1.5),
	},
	GenderWomen: {
		GarmentShortSleeve: sizeRow(tops(58, 37, 43, 16), 2),
		GarmentLongSleeve:  sizeRow(tops(58, 37, 43, 54), 2),
		GarmentSweatshirt:  sizeRow(tops(58, 40, 48, 54), 2),
		GarmentHoodie:      sizeRow(tops(60, 41, 50, 55), 2),
		GarmentJacket:      sizeRow(tops(60, 40, 49, 56), 2),
		GarmentLongPants:   sizeRow(bottoms(92, 31, 25, 16), 1.5),
		GarmentShortPants:  sizeRow(bottoms(34, 31, 26, 22), 1.5),
	},
}

// LookupMeasurements returns the flat measurement row for the given gender,
// garment category and size label. The second return is false on any miss so
// callers can supply a fallback display instead of failing.
func LookupMeasurements(gender Gender, garment GarmentType, size string) (map[string]float64, bool) {
	byGarment, ok := measurementCharts[gender]
	if !ok {
		return nil, false
	}
	chart, ok := byGarment[garment]
	if !ok {
		return nil, false
	}
	row, ok := chart[strings.TrimSpace(size)]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(row))
	for key, value := range row {
		out[key] = value
	}
	return out, true
}

// MeasureKeysFor returns the chart columns for the garment category.
func MeasureKeysFor(garment GarmentType) []string {
	if garment.IsBottoms() {
		return BottomsMeasureKeys
	}
	return TopsMeasureKeys
}
