package customize

import (
	"strings"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

// Reconciler keeps the free-text "additional details" buffer and the
// structured option selections consistent in both directions: picking an
// option rewrites its line in the text, and editing the text updates the
// matching selectors.
type Reconciler struct {
	catalogs   map[domain.OptionType][]domain.OptionEntry
	selections map[domain.OptionType]string
	text       string
}

// NewReconciler builds a reconciler whose fit catalog matches the garment
// category (pants swap in the bottom fit options).
func NewReconciler(garment domain.GarmentType) *Reconciler {
	catalogs := map[domain.OptionType][]domain.OptionEntry{
		domain.OptionStyle:  domain.StyleOptions,
		domain.OptionPocket: domain.PocketOptions,
		domain.OptionColor:  domain.ColorOptions,
		domain.OptionFit:    domain.FitOptions,
	}
	if garment.IsBottoms() {
		catalogs[domain.OptionFit] = domain.BottomFitOptions
	}
	return &Reconciler{
		catalogs:   catalogs,
		selections: make(map[domain.OptionType]string),
	}
}

// Text returns the current detail text.
func (r *Reconciler) Text() string {
	return r.text
}

// Selection returns the currently selected catalog value for the type, or
// the empty string when nothing is selected.
func (r *Reconciler) Selection(t domain.OptionType) string {
	return r.selections[t]
}

// Selections returns a copy of every current selection.
func (r *Reconciler) Selections() map[domain.OptionType]string {
	out := make(map[domain.OptionType]string, len(r.selections))
	for t, v := range r.selections {
		out[t] = v
	}
	return out
}

// SelectionLabel resolves the current selection of the type to its label,
// returning the empty string when nothing (or a line-suppressing value) is
// selected.
func (r *Reconciler) SelectionLabel(t domain.OptionType) string {
	value := r.selections[t]
	if value == "" {
		return ""
	}
	if label, ok := r.labelFor(t, value); ok {
		return label
	}
	return ""
}

// SelectOption records the selection and rebuilds the text buffer: lines the
// user typed keep their relative order, every recognised option line is
// regenerated from the current selections, stale and duplicate option lines
// are dropped. An empty value (or a value the type suppresses, e.g. pocket
// "none") removes the line for that type.
func (r *Reconciler) SelectOption(t domain.OptionType, value string) {
	if _, tracked := r.catalogs[t]; !tracked {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(r.selections, t)
	} else {
		r.selections[t] = value
	}
	r.rebuildText()
}

// ApplyText replaces the buffer with user-edited text and re-derives the
// selections from it. A recognisable "<TypeLabel>: <KnownLabel>" line sets
// that type's selection; a missing line clears it. Types are scanned in the
// fixed reconcile order, which decides the winner when a label collides
// across types.
func (r *Reconciler) ApplyText(newText string) {
	r.text = newText
	lines := strings.Split(newText, "\n")
	for _, t := range domain.ReconcileOrder {
		value, found := r.extractSelection(t, lines)
		switch {
		case found && value != r.selections[t]:
			r.selections[t] = value
		case !found && r.selections[t] != "":
			delete(r.selections, t)
		}
	}
}

func (r *Reconciler) extractSelection(t domain.OptionType, lines []string) (string, bool) {
	prefix := t.TypeLabel() + ":"
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		label := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		if value, ok := r.valueForLabel(t, label); ok {
			return value, true
		}
	}
	return "", false
}

func (r *Reconciler) rebuildText() {
	var out []string
	for _, line := range strings.Split(r.text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || r.isOptionLine(trimmed) {
			continue
		}
		out = append(out, line)
	}
	for _, t := range domain.ReconcileOrder {
		value := r.selections[t]
		if t.SuppressesLine(value) {
			continue
		}
		label, ok := r.labelFor(t, value)
		if !ok {
			continue
		}
		out = append(out, t.TypeLabel()+": "+label)
	}
	r.text = strings.Join(out, "\n")
}

// isOptionLine reports whether the trimmed line is a recognised option line
// of any tracked type: the type's label prefix followed by one of its known
// option labels. Anything else is user-authored and preserved verbatim.
func (r *Reconciler) isOptionLine(trimmed string) bool {
	for _, t := range domain.ReconcileOrder {
		prefix := t.TypeLabel() + ":"
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		label := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		if _, ok := r.valueForLabel(t, label); ok {
			return true
		}
	}
	return false
}

func (r *Reconciler) labelFor(t domain.OptionType, value string) (string, bool) {
	for _, entry := range r.catalogs[t] {
		if entry.Value == value {
			return entry.Label, true
		}
	}
	return "", false
}

func (r *Reconciler) valueForLabel(t domain.OptionType, label string) (string, bool) {
	for _, entry := range r.catalogs[t] {
		if entry.Label == label {
			return entry.Value, true
		}
	}
	return "", false
}

// Restore reloads previously saved state, used when resuming a draft.
func (r *Reconciler) Restore(text string, selections map[domain.OptionType]string) {
	r.text = text
	r.selections = make(map[domain.OptionType]string, len(selections))
	for t, v := range selections {
		if _, tracked := r.catalogs[t]; !tracked {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			r.selections[t] = v
		}
	}
}
