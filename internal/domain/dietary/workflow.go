package dietary

// Step is a state of the recommendation workflow. The set is closed.
type Step string

const (
	StepStart                    Step = "start"
	StepCheckSession             Step = "check_session"
	StepIdentifyUser             Step = "identify_user"
	StepClassifyTopic            Step = "classify_topic"
	StepCalculateBMI             Step = "calculate_bmi"
	StepProcessCookingRequest    Step = "process_cooking_request"
	StepGenerateSelectionPrompts Step = "generate_selection_prompts"
	StepQueryCandidates          Step = "query_candidates"
	StepFilterByIngredients      Step = "filter_by_ingredients"
	StepFilterAllergies          Step = "filter_allergies"
	StepAggregateCandidates      Step = "aggregate_candidates"
	StepRerank                   Step = "rerank"
	StepComposeResponse          Step = "compose_response"
	StepEndSuccess               Step = "end_success"
	StepEndRejected              Step = "end_rejected"
	StepEndWithError             Step = "end_with_error"
)

// Steps lists every workflow step
var Steps = []Step{
	StepStart,
	StepCheckSession,
	StepIdentifyUser,
	StepClassifyTopic,
	StepCalculateBMI,
	StepProcessCookingRequest,
	StepGenerateSelectionPrompts,
	StepQueryCandidates,
	StepFilterByIngredients,
	StepFilterAllergies,
	StepAggregateCandidates,
	StepRerank,
	StepComposeResponse,
	StepEndSuccess,
	StepEndRejected,
	StepEndWithError,
}

// Terminal reports whether the step ends a turn
func (s Step) Terminal() bool {
	switch s {
	case StepEndSuccess, StepEndRejected, StepEndWithError:
		return true
	}
	return false
}

// Valid reports whether the step belongs to the closed set
func (s Step) Valid() bool {
	for _, known := range Steps {
		if s == known {
			return true
		}
	}
	return false
}

// Signals are the state fields routing depends on
type Signals struct {
	HasError          bool
	Topic             TopicClassification
	HasCookingMethods bool
	Resumed           bool
}

// fixedTransitions are the data-independent edges of the workflow
var fixedTransitions = map[Step]Step{
	StepStart:                    StepCheckSession,
	StepIdentifyUser:             StepClassifyTopic,
	StepProcessCookingRequest:    StepQueryCandidates,
	StepGenerateSelectionPrompts: StepEndSuccess,
	StepQueryCandidates:          StepFilterByIngredients,
	StepFilterByIngredients:      StepFilterAllergies,
	StepFilterAllergies:          StepAggregateCandidates,
	StepAggregateCandidates:      StepRerank,
	StepRerank:                   StepComposeResponse,
	StepComposeResponse:          StepEndSuccess,
}

// Next is the transition function of the workflow. It is pure: the same
// step and signals always yield the same next step.
func Next(step Step, sig Signals) Step {
	if step.Terminal() {
		return step
	}
	if !step.Valid() {
		return StepEndWithError
	}
	if sig.HasError {
		return StepEndWithError
	}

	switch step {
	case StepCheckSession:
		if sig.Resumed && sig.HasCookingMethods {
			return StepQueryCandidates
		}
		return StepIdentifyUser
	case StepClassifyTopic:
		if sig.Topic == TopicIrrelevant {
			return StepEndRejected
		}
		return StepCalculateBMI
	case StepCalculateBMI:
		if sig.HasCookingMethods {
			return StepProcessCookingRequest
		}
		return StepGenerateSelectionPrompts
	}

	return fixedTransitions[step]
}
