package customize

import (
	"fmt"
	"strings"
	"sync"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

// Step indexes the ordered wizard screens.
type Step int

const (
	// StepType selects the garment category.
	StepType Step = iota + 1
	// StepMaterial selects the fabric.
	StepMaterial
	// StepDetail edits options and free-text details.
	StepDetail
	// StepImage generates and picks a preview image.
	StepImage
	// StepSize picks a size or enters measurements.
	StepSize
)

// stepCount is the number of wizard screens.
const stepCount = int(StepSize)

// Validation messages surfaced to the storefront, one per blocking case.
const (
	MsgTypeRequired     = "의류 종류를 선택해주세요"
	MsgMaterialRequired = "원단을 선택해주세요"
	MsgImageRequired    = "이미지를 생성해주세요"
	MsgImageSelection   = "이미지를 선택해주세요"
	MsgSizeRequired     = "사이즈를 선택해주세요"
)

// StepValidationError blocks advancement past a step and carries the
// user-facing message for the storefront to display inline.
type StepValidationError struct {
	Step    Step
	Message string
}

func (e *StepValidationError) Error() string {
	return fmt.Sprintf("customize: step %d blocked: %s", e.Step, e.Message)
}

// OrderPayload is the assembled submission handed to the order collaborator.
// Option fields carry display labels resolved through the catalogs.
type OrderPayload struct {
	ClothType         string
	Material          string
	Style             string
	PocketType        string
	Color             string
	DetailDescription string
	Size              string
	Measurements      map[string]float64
	ImageURL          string
	ImagePath         string
}

// Wizard owns the state of one customization session. Mutations are
// serialised internally; the session is single-user by construction but
// HTTP handlers may race on retries.
type Wizard struct {
	mu sync.Mutex

	step      Step
	clothType domain.GarmentType
	materials []domain.Material
	material  *domain.Material
	rec       *Reconciler

	imageURLs          []string
	selectedImageIndex int
	storedImageURL     string
	storedImagePath    string
	imageTicket        uint64

	size               string
	sizeTableEdits     map[string]float64
	customMeasurements map[string]float64
}

// NewWizard starts a session at the garment type step with the built-in
// material catalog.
func NewWizard() *Wizard {
	materials := make([]domain.Material, len(domain.BuiltinMaterials))
	copy(materials, domain.BuiltinMaterials)
	return &Wizard{
		step:               StepType,
		materials:          materials,
		rec:                NewReconciler(""),
		selectedImageIndex: -1,
		sizeTableEdits:     make(map[string]float64),
		customMeasurements: make(map[string]float64),
	}
}

// Step returns the current step index (1-based).
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Advance validates the current step and moves forward. On the final step a
// passing validation reports completed=true without mutating state; the
// caller assembles the payload and submits. A failed validation leaves the
// step unchanged and returns a *StepValidationError.
func (w *Wizard) Advance() (completed bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.validateStep(w.step); err != nil {
		return false, err
	}
	if int(w.step) >= stepCount {
		return true, nil
	}
	w.step++
	return false, nil
}

// Back moves to the previous step. There is no validation on the way back.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepType {
		w.step--
	}
}

func (w *Wizard) validateStep(step Step) error {
	switch step {
	case StepType:
		if w.clothType == "" {
			return &StepValidationError{Step: step, Message: MsgTypeRequired}
		}
	case StepMaterial:
		if w.material == nil {
			return &StepValidationError{Step: step, Message: MsgMaterialRequired}
		}
	case StepDetail:
		// Free-text details are always optional.
	case StepImage:
		if len(w.imageURLs) == 0 {
			return &StepValidationError{Step: step, Message: MsgImageRequired}
		}
		if w.selectedImageIndex < 0 {
			return &StepValidationError{Step: step, Message: MsgImageSelection}
		}
	case StepSize:
		if w.size == "" && len(w.sizeTableEdits) == 0 {
			return &StepValidationError{Step: step, Message: MsgSizeRequired}
		}
	}
	return nil
}

// SetClothType records the garment selection. Switching between a top and a
// bottom swaps the fit catalog, so the reconciler is rebuilt while keeping
// the current text and whatever selections still resolve.
func (w *Wizard) SetClothType(garment domain.GarmentType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if garment == w.clothType {
		return
	}
	w.clothType = garment
	rec := NewReconciler(garment)
	rec.Restore(w.rec.Text(), w.rec.Selections())
	w.rec = rec
}

// ClothType returns the selected garment category.
func (w *Wizard) ClothType() domain.GarmentType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clothType
}

// Materials lists the selectable fabrics, built-in plus any user-added.
func (w *Wizard) Materials() []domain.Material {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.Material, len(w.materials))
	copy(out, w.materials)
	return out
}

// SelectMaterial picks a fabric by id.
func (w *Wizard) SelectMaterial(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.materials {
		if w.materials[i].ID == id {
			selected := w.materials[i]
			w.material = &selected
			return nil
		}
	}
	return fmt.Errorf("customize: unknown material %q", id)
}

// AddCustomMaterial appends a user-entered fabric and selects it. Duplicate
// names are not collapsed.
func (w *Wizard) AddCustomMaterial(name string) (domain.Material, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Material{}, fmt.Errorf("customize: material name is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	material := domain.NewCustomMaterial(name)
	w.materials = append(w.materials, material)
	w.material = &material
	return material, nil
}

// SelectedMaterial returns the chosen fabric, if any.
func (w *Wizard) SelectedMaterial() (domain.Material, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.material == nil {
		return domain.Material{}, false
	}
	return *w.material, true
}

// SelectOption forwards a structured selection to the reconciler.
func (w *Wizard) SelectOption(t domain.OptionType, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rec.SelectOption(t, value)
}

// SetDetailText applies a manual edit of the free-text field.
func (w *Wizard) SetDetailText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rec.ApplyText(text)
}

// DetailText returns the current detail text.
func (w *Wizard) DetailText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rec.Text()
}

// OptionSelection returns the current catalog value for an option type.
func (w *Wizard) OptionSelection(t domain.OptionType) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rec.Selection(t)
}

// SetGeneratedImages replaces the preview set and resets the selection.
func (w *Wizard) SetGeneratedImages(urls []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.imageURLs = make([]string, len(urls))
	copy(w.imageURLs, urls)
	w.selectedImageIndex = -1
}

// BeginImageRequest issues a ticket for an in-flight generation call. A
// newer ticket supersedes every earlier one.
func (w *Wizard) BeginImageRequest() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.imageTicket++
	return w.imageTicket
}

// ApplyGeneratedImages installs a generation result when its ticket is still
// the most recent one. Stale results are dropped and the current preview set
// is left untouched.
func (w *Wizard) ApplyGeneratedImages(ticket uint64, urls []string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ticket != w.imageTicket {
		return false
	}
	w.imageURLs = make([]string, len(urls))
	copy(w.imageURLs, urls)
	w.selectedImageIndex = -1
	return true
}

// GeneratedImages returns the current preview URL set.
func (w *Wizard) GeneratedImages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.imageURLs))
	copy(out, w.imageURLs)
	return out
}

// SelectImage picks one preview by index.
func (w *Wizard) SelectImage(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.imageURLs) {
		return fmt.Errorf("customize: image index %d out of range", index)
	}
	w.selectedImageIndex = index
	return nil
}

// SetStoredImage records where the chosen preview was persisted. Stored
// URLs win over the ephemeral generation URLs at submission time.
func (w *Wizard) SetStoredImage(url, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.storedImageURL = strings.TrimSpace(url)
	w.storedImagePath = strings.TrimSpace(path)
}

// SetSize picks a size label.
func (w *Wizard) SetSize(label string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.size = strings.TrimSpace(label)
}

// SetSizeTableEdit records an explicit per-measurement override from the
// size table.
func (w *Wizard) SetSizeTableEdit(measure string, cm float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	measure = strings.TrimSpace(measure)
	if measure == "" {
		return
	}
	w.sizeTableEdits[measure] = cm
}

// SetCustomMeasurement records a free-form measurement keyed by label.
func (w *Wizard) SetCustomMeasurement(label string, cm float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	w.customMeasurements[label] = cm
}

// Payload assembles the submission from the current state. Measurements
// prefer explicit size-table edits, then custom measurements, then nil.
func (w *Wizard) Payload() OrderPayload {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload := OrderPayload{
		ClothType:         w.clothType.Label(),
		Style:             w.rec.SelectionLabel(domain.OptionStyle),
		PocketType:        w.rec.SelectionLabel(domain.OptionPocket),
		Color:             w.rec.SelectionLabel(domain.OptionColor),
		DetailDescription: w.rec.Text(),
		Size:              w.size,
		ImagePath:         w.storedImagePath,
	}
	if w.material != nil {
		payload.Material = w.material.Name
	}

	switch {
	case w.storedImageURL != "":
		payload.ImageURL = w.storedImageURL
	case w.selectedImageIndex >= 0 && w.selectedImageIndex < len(w.imageURLs):
		payload.ImageURL = w.imageURLs[w.selectedImageIndex]
	}

	switch {
	case len(w.sizeTableEdits) > 0:
		payload.Measurements = copyMeasurements(w.sizeTableEdits)
	case len(w.customMeasurements) > 0:
		payload.Measurements = copyMeasurements(w.customMeasurements)
	}
	return payload
}

// Snapshot captures the session for draft persistence.
func (w *Wizard) Snapshot() domain.CustomizationSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := domain.CustomizationSnapshot{
		Step:               int(w.step),
		ClothType:          w.clothType,
		DetailText:         w.rec.Text(),
		Selections:         w.rec.Selections(),
		ImageURLs:          append([]string(nil), w.imageURLs...),
		SelectedImageIndex: w.selectedImageIndex,
		StoredImageURL:     w.storedImageURL,
		StoredImagePath:    w.storedImagePath,
		Size:               w.size,
		SizeTableEdits:     copyMeasurements(w.sizeTableEdits),
		CustomMeasurements: copyMeasurements(w.customMeasurements),
	}
	if w.material != nil {
		snap.Material = *w.material
	}
	return snap
}

// RestoreSnapshot rehydrates a session from a saved draft.
func (w *Wizard) RestoreSnapshot(snap domain.CustomizationSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if snap.Step >= int(StepType) && snap.Step <= stepCount {
		w.step = Step(snap.Step)
	}
	w.clothType = snap.ClothType
	w.rec = NewReconciler(snap.ClothType)
	w.rec.Restore(snap.DetailText, snap.Selections)

	if snap.Material.ID != "" {
		material := snap.Material
		if material.IsCustom {
			w.materials = append(w.materials, material)
		}
		w.material = &material
	}

	w.imageURLs = append([]string(nil), snap.ImageURLs...)
	w.selectedImageIndex = snap.SelectedImageIndex
	if w.selectedImageIndex >= len(w.imageURLs) {
		w.selectedImageIndex = -1
	}
	w.storedImageURL = snap.StoredImageURL
	w.storedImagePath = snap.StoredImagePath

	w.size = snap.Size
	w.sizeTableEdits = copyMeasurements(snap.SizeTableEdits)
	if w.sizeTableEdits == nil {
		w.sizeTableEdits = make(map[string]float64)
	}
	w.customMeasurements = copyMeasurements(snap.CustomMeasurements)
	if w.customMeasurements == nil {
		w.customMeasurements = make(map[string]float64)
	}
}

func copyMeasurements(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
