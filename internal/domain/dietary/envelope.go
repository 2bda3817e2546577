package dietary

import "time"

// ResultStatus is the status of a turn's result envelope
type ResultStatus string

const (
	StatusAwaitingSelections ResultStatus = "awaiting_selections"
	StatusSuccess            ResultStatus = "success"
	StatusRejected           ResultStatus = "rejected"
	StatusError              ResultStatus = "error"
)

// FoodView is a dish as presented to the user
type FoodView struct {
	DishID      string     `json:"dish_id"`
	DishName    string     `json:"dish_name"`
	Description string     `json:"description,omitempty"`
	CookMethod  string     `json:"cook_method,omitempty"`
	DietName    string     `json:"diet_name,omitempty"`
	Nutrition   Nutrition  `json:"nutrition"`
	Source      SourceKind `json:"source"`
}

// UserInfoSummary summarises what was resolved about the user
type UserInfoSummary struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name,omitempty"`
	Age         int      `json:"age,omitempty"`
	BMI         float64  `json:"bmi,omitempty"`
	BMICategory string   `json:"bmi_category,omitempty"`
	BMIEstimate bool     `json:"bmi_estimate,omitempty"`
	Diseases    []string `json:"diseases,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
}

// SelectionPrompts are the options offered to the user before querying
type SelectionPrompts struct {
	IngredientOptions    []string `json:"ingredient_options"`
	CookingMethodOptions []string `json:"cooking_method_options"`
	DietRecommendations  []string `json:"diet_recommendations,omitempty"`
	Context              string   `json:"context,omitempty"`
	AnalysisTrail        []string `json:"analysis_trail"`
}

// ResultEnvelope is the terminal output of a turn. It is built once and
// not modified afterwards.
type ResultEnvelope struct {
	Status    ResultStatus      `json:"status"`
	Message   string            `json:"message"`
	Foods     []FoodView        `json:"foods"`
	UserInfo  *UserInfoSummary  `json:"user_info,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Options   *SelectionPrompts `json:"options,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
	Error     *ErrorDescriptor  `json:"error,omitempty"`
}

// NewFoodView converts a candidate to its presented form
func NewFoodView(c FoodCandidate) FoodView {
	return FoodView{
		DishID:      c.DishID,
		DishName:    c.DishName,
		Description: c.Description,
		CookMethod:  c.CookMethod,
		DietName:    c.DietName,
		Nutrition:   c.Nutrition,
		Source:      c.Source,
	}
}

// SummarizeUser builds the user info summary from the resolved state
func SummarizeUser(s WorkflowState) *UserInfoSummary {
	summary := &UserInfoSummary{UserID: s.UserID}
	if s.Profile != nil {
		summary.Name = s.Profile.Name
		summary.Age = s.Profile.Age
		summary.Diseases = s.Profile.RealDiseases()
		summary.Allergies = OrderedSet(s.Profile.Allergies)
	}
	if s.BMI != nil {
		summary.BMI = s.BMI.Value
		summary.BMICategory = s.BMI.Category
		summary.BMIEstimate = s.BMI.Estimate
	}
	return summary
}

func (e ResultEnvelope) clone() ResultEnvelope {
	if e.Foods != nil {
		foods := make([]FoodView, len(e.Foods))
		copy(foods, e.Foods)
		e.Foods = foods
	}
	if e.UserInfo != nil {
		u := *e.UserInfo
		u.Diseases = cloneStrings(u.Diseases)
		u.Allergies = cloneStrings(u.Allergies)
		e.UserInfo = &u
	}
	if e.Options != nil {
		o := *e.Options
		o.IngredientOptions = cloneStrings(o.IngredientOptions)
		o.CookingMethodOptions = cloneStrings(o.CookingMethodOptions)
		o.DietRecommendations = cloneStrings(o.DietRecommendations)
		o.AnalysisTrail = cloneStrings(o.AnalysisTrail)
		e.Options = &o
	}
	e.Warnings = cloneStrings(e.Warnings)
	if e.Error != nil {
		d := *e.Error
		e.Error = &d
	}
	return e
}
