package dietary

import "time"

// TopicClassification is the outcome of the topic classifier
type TopicClassification string

const (
	TopicUnknown    TopicClassification = ""
	TopicRelevant   TopicClassification = "relevant"
	TopicIrrelevant TopicClassification = "irrelevant"
)

// ErrorDescriptor records a failure on the state. Nodes populate it instead
// of returning errors; the orchestrator routes on its presence.
type ErrorDescriptor struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    Step   `json:"step"`
}

// AggregationTier names the fallback ladder tier that produced the result
type AggregationTier string

const (
	TierAll            AggregationTier = "bmi_cooking_disease"
	TierBMICooking     AggregationTier = "bmi_cooking"
	TierBMIDisease     AggregationTier = "bmi_disease"
	TierCookingDisease AggregationTier = "cooking_disease"
	TierBMI            AggregationTier = "bmi"
	TierCooking        AggregationTier = "cooking_method"
	TierDisease        AggregationTier = "disease"
	TierPopular        AggregationTier = "popular"
	TierNone           AggregationTier = "none"
)

// AggregationStatus distinguishes "nothing new" from a usable result
type AggregationStatus string

const (
	AggregationOK         AggregationStatus = "ok"
	AggregationNothingNew AggregationStatus = "nothing_new"
)

// AggregationOutcome describes how the final candidate list was built
type AggregationOutcome struct {
	Tier   AggregationTier   `json:"tier"`
	Status AggregationStatus `json:"status"`
	Count  int               `json:"count"`
}

// RerankStatus is the outcome of the reranking step
type RerankStatus string

const (
	RerankSuccess      RerankStatus = "success"
	RerankExplanation  RerankStatus = "explanation"
	RerankNoCandidates RerankStatus = "no_candidates"
	RerankError        RerankStatus = "error"
)

// RerankOutcome records the reranker status and any explanation text
type RerankOutcome struct {
	Status      RerankStatus `json:"status"`
	Explanation string       `json:"explanation,omitempty"`
}

// WorkflowState is the single record threaded through every workflow step.
// Steps never modify a state in place; they return an updated Clone.
type WorkflowState struct {
	SessionID   string              `json:"session_id,omitempty"`
	UserID      string              `json:"user_id"`
	RawQuestion string              `json:"raw_question"`
	Topic       TopicClassification `json:"topic,omitempty"`
	Profile     *UserProfile        `json:"profile,omitempty"`
	BMI         *BMIResult          `json:"bmi,omitempty"`

	SelectedIngredients    []string         `json:"selected_ingredients,omitempty"`
	SelectedCookingMethods CookingSelection `json:"selected_cooking_methods"`

	// Context inputs for the cooking method narrowing
	Weather       string `json:"weather,omitempty"`
	TimeOfDay     string `json:"time_of_day,omitempty"`
	IgnoreContext bool   `json:"ignore_context,omitempty"`

	CandidateSources map[string]CandidateSource `json:"candidate_sources,omitempty"`
	DishIngredients  map[string][]string        `json:"dish_ingredients,omitempty"`
	SafeCandidates   []FoodCandidate            `json:"safe_candidates,omitempty"`
	RankedCandidates []FoodCandidate            `json:"ranked_candidates,omitempty"`
	Exclusions       ExclusionSet               `json:"exclusions"`

	// AllergyWarnings holds side-ingredient warnings keyed by dish id
	AllergyWarnings map[string][]string `json:"allergy_warnings,omitempty"`
	CookingWarnings []string            `json:"cooking_warnings,omitempty"`
	Trail           []string            `json:"trail,omitempty"`
	Aggregation     *AggregationOutcome `json:"aggregation,omitempty"`
	Rerank          *RerankOutcome      `json:"rerank,omitempty"`
	NaturalText     *string             `json:"natural_text,omitempty"`

	Resumed     bool             `json:"-"`
	CurrentStep Step             `json:"current_step"`
	Error       *ErrorDescriptor `json:"error,omitempty"`
	FinalResult *ResultEnvelope  `json:"final_result,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewWorkflowState creates a fresh state at the start step
func NewWorkflowState(userID, question string) WorkflowState {
	return WorkflowState{
		UserID:      userID,
		RawQuestion: question,
		CurrentStep: StepStart,
	}
}

// Signals extracts the routing inputs from the state
func (s WorkflowState) Signals() Signals {
	return Signals{
		HasError:          s.Error != nil,
		Topic:             s.Topic,
		HasCookingMethods: s.SelectedCookingMethods.Present(),
		Resumed:           s.Resumed,
	}
}

// Criteria derives the criteria set for candidate selection
func (s WorkflowState) Criteria() CriteriaSet {
	criteria := CriteriaSet{
		CookingMethods: cloneStrings(s.SelectedCookingMethods.Methods),
		Ingredients:    cloneStrings(s.SelectedIngredients),
	}
	if s.Profile != nil {
		criteria.Diseases = s.Profile.RealDiseases()
		criteria.Allergies = OrderedSet(s.Profile.Allergies)
	}
	if s.BMI != nil {
		criteria.BMICategory = s.BMI.Category
	}
	return criteria
}

// WithError returns a copy of the state carrying the given error
func (s WorkflowState) WithError(code, message string, step Step) WorkflowState {
	next := s.Clone()
	next.Error = &ErrorDescriptor{Code: code, Message: message, Step: step}
	return next
}

// AppendTrail returns a copy of the state with trail entries appended
func (s WorkflowState) AppendTrail(entries ...string) WorkflowState {
	next := s.Clone()
	next.Trail = append(next.Trail, entries...)
	return next
}

// ForNextTurn strips the per-turn working data from a persisted state,
// keeping identity, profile, selections and the exclusion sets.
func (s WorkflowState) ForNextTurn() WorkflowState {
	next := s.Clone()
	next.CandidateSources = nil
	next.DishIngredients = nil
	next.SafeCandidates = nil
	next.RankedCandidates = nil
	next.AllergyWarnings = nil
	next.CookingWarnings = nil
	next.Trail = nil
	next.Aggregation = nil
	next.Rerank = nil
	next.NaturalText = nil
	next.Error = nil
	next.FinalResult = nil
	next.CurrentStep = StepStart
	return next
}

// Clone returns a deep copy of the state
func (s WorkflowState) Clone() WorkflowState {
	out := s

	if s.Profile != nil {
		p := s.Profile.clone()
		out.Profile = &p
	}
	if s.BMI != nil {
		b := *s.BMI
		out.BMI = &b
	}
	out.SelectedIngredients = cloneStrings(s.SelectedIngredients)
	out.SelectedCookingMethods = s.SelectedCookingMethods.clone()

	if s.CandidateSources != nil {
		out.CandidateSources = make(map[string]CandidateSource, len(s.CandidateSources))
		for k, src := range s.CandidateSources {
			src.Candidates = cloneCandidates(src.Candidates)
			out.CandidateSources[k] = src
		}
	}
	out.DishIngredients = cloneStringMap(s.DishIngredients)
	out.SafeCandidates = cloneCandidates(s.SafeCandidates)
	out.RankedCandidates = cloneCandidates(s.RankedCandidates)
	out.Exclusions = s.Exclusions.clone()

	out.AllergyWarnings = cloneStringMap(s.AllergyWarnings)
	out.CookingWarnings = cloneStrings(s.CookingWarnings)
	out.Trail = cloneStrings(s.Trail)

	if s.Aggregation != nil {
		a := *s.Aggregation
		out.Aggregation = &a
	}
	if s.Rerank != nil {
		r := *s.Rerank
		out.Rerank = &r
	}
	if s.NaturalText != nil {
		t := *s.NaturalText
		out.NaturalText = &t
	}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	if s.FinalResult != nil {
		env := s.FinalResult.clone()
		out.FinalResult = &env
	}
	return out
}

func cloneStringMap(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = cloneStrings(v)
	}
	return out
}
