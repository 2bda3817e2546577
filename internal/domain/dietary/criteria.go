package dietary

import "strings"

// UnfilteredSentinel is the cooking method selection meaning "any method"
const UnfilteredSentinel = "unfiltered"

// diseaseSentinels are disease values that mean the user has no real disease
var diseaseSentinels = map[string]struct{}{
	"":        {},
	"none":    {},
	"normal":  {},
	"healthy": {},
}

// UserProfile holds the biometrics and health conditions of a user
type UserProfile struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"name,omitempty"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender,omitempty"`
	WeightKg  float64  `json:"weight_kg"`
	HeightCm  float64  `json:"height_cm"`
	Diseases  []string `json:"diseases,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
}

// RealDiseases returns the profile diseases without "none"/"normal" sentinels
func (p UserProfile) RealDiseases() []string {
	return RealDiseases(p.Diseases)
}

func (p UserProfile) clone() UserProfile {
	p.Diseases = cloneStrings(p.Diseases)
	p.Allergies = cloneStrings(p.Allergies)
	return p
}

// RealDiseases filters sentinel values out of a disease list, keeping order
// and dropping duplicates.
func RealDiseases(diseases []string) []string {
	out := make([]string, 0, len(diseases))
	seen := make(map[string]struct{}, len(diseases))
	for _, d := range diseases {
		key := NormalizeName(d)
		if _, sentinel := diseaseSentinels[key]; sentinel {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(d))
	}
	return out
}

// CookingSelection is the user's cooking method choice. Unfiltered means the
// user accepted any method, which disables the cooking family entirely.
type CookingSelection struct {
	Methods    []string `json:"methods,omitempty"`
	Unfiltered bool     `json:"unfiltered,omitempty"`
}

// NewCookingSelection builds a selection from raw input, recognising the
// unfiltered sentinel.
func NewCookingSelection(raw []string) CookingSelection {
	var sel CookingSelection
	for _, m := range OrderedSet(raw) {
		if NormalizeName(m) == UnfilteredSentinel {
			sel.Unfiltered = true
			continue
		}
		sel.Methods = append(sel.Methods, m)
	}
	if sel.Unfiltered {
		sel.Methods = nil
	}
	return sel
}

// Present reports whether the user has made a cooking method choice
func (s CookingSelection) Present() bool {
	return s.Unfiltered || len(s.Methods) > 0
}

func (s CookingSelection) clone() CookingSelection {
	s.Methods = cloneStrings(s.Methods)
	return s
}

// CriteriaSet is the resolved set of criteria candidates are selected by.
// It is derived from the workflow state each turn and never persisted.
type CriteriaSet struct {
	Diseases       []string
	BMICategory    string
	CookingMethods []string
	Ingredients    []string
	Allergies      []string
}

// HasDiseases reports whether the disease family is active
func (c CriteriaSet) HasDiseases() bool { return len(c.Diseases) > 0 }

// HasBMI reports whether the BMI family is active
func (c CriteriaSet) HasBMI() bool { return c.BMICategory != "" }

// HasCookingMethods reports whether the cooking method family is active
func (c CriteriaSet) HasCookingMethods() bool { return len(c.CookingMethods) > 0 }

// OrderedSet trims, drops empty values and removes case-insensitive
// duplicates while keeping first-seen order.
func OrderedSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := NormalizeName(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
