package domain

// Confidence grades how an extracted value was found.
type Confidence string

const (
	// ConfidenceHigh: value anchored on its printed label or a strict pattern.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium: value found by a structural pattern without a label.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow: value found by a loose heuristic or external model.
	ConfidenceLow Confidence = "low"
)

// Diagnostics reports what a recognition pass found. Both field lists are
// duplicate-free and keep insertion order.
type Diagnostics struct {
	RecognizedFields []string              `json:"recognized_fields"`
	MissingFields    []string              `json:"missing_fields"`
	Warnings         []string              `json:"warnings,omitempty"`
	Confidence       map[string]Confidence `json:"confidence,omitempty"`
	RawText          string                `json:"-"`
}

// MarkRecognized records label as found with the given confidence.
func (d *Diagnostics) MarkRecognized(label string, c Confidence) {
	d.RecognizedFields = appendUnique(d.RecognizedFields, label)
	if d.Confidence == nil {
		d.Confidence = make(map[string]Confidence)
	}
	d.Confidence[label] = c
}

// MarkMissing records label as not found. Only mandatory labels are kept.
func (d *Diagnostics) MarkMissing(label string) {
	if !IsMandatory(label) {
		return
	}
	d.MissingFields = appendUnique(d.MissingFields, label)
}

// Warn appends a human readable warning.
func (d *Diagnostics) Warn(msg string) {
	if msg == "" {
		return
	}
	d.Warnings = appendUnique(d.Warnings, msg)
}

// Complete reports whether every mandatory field was recognized.
func (d Diagnostics) Complete() bool {
	return len(d.MissingFields) == 0 && len(d.RecognizedFields) > 0
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
