// Package recommendation runs the conversation turn of the dish recommender:
// it drives the workflow state machine over the criteria, candidate, safety
// and ranking components and persists the session between turns.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/alchemorsel/nutriguide/internal/application/candidates"
	"github.com/alchemorsel/nutriguide/internal/application/criteria"
	"github.com/alchemorsel/nutriguide/internal/application/ranking"
	"github.com/alchemorsel/nutriguide/internal/application/safety"
	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/alchemorsel/nutriguide/internal/application/recommendation")

// Config contains orchestrator settings
type Config struct {
	// CollaboratorTimeout bounds every session, profile and model call
	CollaboratorTimeout time.Duration
	// MaxResults caps the dishes returned per turn
	MaxResults int
	// NaturalResponse asks the model to phrase the final message
	NaturalResponse bool
}

// node is one workflow step. It returns an updated copy of the state and
// records failures on it instead of returning errors.
type node func(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState

// turn carries what a single HandleTurn call needs besides the state
type turn struct {
	cmd   inbound.TurnCommand
	index *candidates.IngredientIndex
}

// Service implements the recommendation use case
type Service struct {
	sessions   outbound.SessionStore
	docs       outbound.DocumentStore
	llm        outbound.TextGenerationClient
	resolver   *criteria.Resolver
	aggregator *candidates.Aggregator
	filter     *safety.Filter
	reranker   *ranking.Reranker
	composer   Composer
	observer   Observer
	config     Config
	validate   *validator.Validate
	locks      *sessionLocks
	nodes      map[dietary.Step]node
	clock      func() time.Time
	logger     *zap.Logger
}

var _ inbound.RecommendationService = (*Service)(nil)

// NewService creates a new recommendation service
func NewService(
	sessions outbound.SessionStore,
	docs outbound.DocumentStore,
	llm outbound.TextGenerationClient,
	resolver *criteria.Resolver,
	aggregator *candidates.Aggregator,
	filter *safety.Filter,
	reranker *ranking.Reranker,
	observer Observer,
	config Config,
	logger *zap.Logger,
) *Service {
	if observer == nil {
		observer = nopObserver{}
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Service{
		sessions:   sessions,
		docs:       docs,
		llm:        llm,
		resolver:   resolver,
		aggregator: aggregator,
		filter:     filter,
		reranker:   reranker,
		observer:   observer,
		config:     config,
		validate:   validate,
		locks:      newSessionLocks(),
		clock:      time.Now,
		logger:     logger.Named("recommendation-service"),
	}
	s.nodes = map[dietary.Step]node{
		dietary.StepCheckSession:             s.checkSession,
		dietary.StepIdentifyUser:             s.identifyUser,
		dietary.StepClassifyTopic:            s.classifyTopic,
		dietary.StepCalculateBMI:             s.calculateBMI,
		dietary.StepProcessCookingRequest:    s.processCookingRequest,
		dietary.StepGenerateSelectionPrompts: s.generateSelectionPrompts,
		dietary.StepQueryCandidates:          s.queryCandidates,
		dietary.StepFilterByIngredients:      s.filterByIngredients,
		dietary.StepFilterAllergies:          s.filterAllergies,
		dietary.StepAggregateCandidates:      s.aggregateCandidates,
		dietary.StepRerank:                   s.rerank,
		dietary.StepComposeResponse:          s.composeResponse,
	}
	return s
}

// WithClock replaces the clock used for envelope and session timestamps
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// HandleTurn runs one conversation turn to a terminal step and returns its
// envelope. Turns sharing a session id are serialized.
func (s *Service) HandleTurn(ctx context.Context, cmd inbound.TurnCommand) *dietary.ResultEnvelope {
	started := time.Now()

	if appErr := s.validateCommand(cmd); appErr != nil {
		s.logger.Info("Rejected invalid turn", zap.String("details", appErr.Details))
		env := s.errorEnvelope(dietary.NewWorkflowState(cmd.UserID, cmd.Question).
			WithError(string(appErr.Code), describe(appErr), dietary.StepStart))
		s.observer.TurnCompleted(env.Status, time.Since(started))
		return env
	}

	if cmd.SessionID != "" {
		release := s.locks.Lock(cmd.SessionID)
		defer release()
	}

	ctx, span := tracer.Start(ctx, "recommendation.HandleTurn", trace.WithAttributes(
		attribute.String("user_id", cmd.UserID),
		attribute.Bool("has_session", cmd.SessionID != ""),
	))
	defer span.End()

	s.logger.Info("Handling turn",
		zap.String("user_id", cmd.UserID),
		zap.String("session_id", cmd.SessionID),
	)

	t := &turn{cmd: cmd}
	state := s.run(ctx, t, applyTurnInput(dietary.NewWorkflowState(cmd.UserID, cmd.Question), cmd))
	env := s.finish(ctx, state)

	span.SetAttributes(
		attribute.String("status", string(env.Status)),
		attribute.Int("foods", len(env.Foods)),
	)
	if env.Status == dietary.StatusError {
		span.SetStatus(codes.Error, env.Message)
	}
	s.observer.TurnCompleted(env.Status, time.Since(started))
	return env
}

// run executes nodes until a terminal step is reached. The guard bounds the
// loop at one visit per step.
func (s *Service) run(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	for i := 0; !state.CurrentStep.Terminal(); i++ {
		if i > len(dietary.Steps) {
			s.logger.Error("Workflow did not terminate", zap.String("step", string(state.CurrentStep)))
			state = state.WithError(string(apperrors.CodeUnknown), "Workflow did not terminate", state.CurrentStep)
			state.CurrentStep = dietary.StepEndWithError
			break
		}

		step := state.CurrentStep
		state = s.execute(ctx, t, step, state)
		state.CurrentStep = dietary.Next(step, state.Signals())
	}
	return state
}

// execute runs a single node inside its own span. A panicking node is
// turned into an UNKNOWN error on the state.
func (s *Service) execute(ctx context.Context, t *turn, step dietary.Step, state dietary.WorkflowState) (next dietary.WorkflowState) {
	run, ok := s.nodes[step]
	if !ok {
		return state
	}

	ctx, span := tracer.Start(ctx, "recommendation."+string(step))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Workflow step panicked",
				zap.String("step", string(step)),
				zap.Any("panic", r),
			)
			next = state.WithError(string(apperrors.CodeUnknown), fmt.Sprintf("Unexpected failure: %v", r), step)
		}

		failed := next.Error != nil
		if failed {
			span.SetStatus(codes.Error, next.Error.Message)
		}
		span.End()
		s.observer.StepCompleted(step, time.Since(started), failed)
	}()

	return run(ctx, t, state)
}

// finish builds the envelope for the terminal step. Successful turns are
// persisted; a failed write is logged and the envelope still returned.
func (s *Service) finish(ctx context.Context, state dietary.WorkflowState) *dietary.ResultEnvelope {
	switch state.CurrentStep {
	case dietary.StepEndSuccess:
		if state.FinalResult == nil {
			return s.errorEnvelope(state.WithError(string(apperrors.CodeUnknown), "Workflow ended without a result", state.CurrentStep))
		}
		env := *state.FinalResult
		env.SessionID = s.persist(ctx, state)
		env.Timestamp = s.clock()
		return &env

	case dietary.StepEndRejected:
		return &dietary.ResultEnvelope{
			Status:    dietary.StatusRejected,
			Message:   rejectionMessage,
			Foods:     []dietary.FoodView{},
			UserInfo:  dietary.SummarizeUser(state),
			SessionID: state.SessionID,
			Timestamp: s.clock(),
		}

	default:
		return s.errorEnvelope(state)
	}
}

func (s *Service) errorEnvelope(state dietary.WorkflowState) *dietary.ResultEnvelope {
	descriptor := dietary.ErrorDescriptor{
		Code:    string(apperrors.CodeUnknown),
		Message: "The workflow ended with an error",
		Step:    state.CurrentStep,
	}
	if state.Error != nil {
		descriptor = *state.Error
	}
	return &dietary.ResultEnvelope{
		Status:    dietary.StatusError,
		Message:   descriptor.Message,
		Foods:     []dietary.FoodView{},
		SessionID: state.SessionID,
		Timestamp: s.clock(),
		Error:     &descriptor,
	}
}

// persist creates a session when the state has none and saves it otherwise.
// It returns the session id the caller should continue with.
func (s *Service) persist(ctx context.Context, state dietary.WorkflowState) string {
	callCtx, cancel := s.bounded(ctx)
	defer cancel()

	state.UpdatedAt = s.clock()
	if state.SessionID == "" {
		id, err := s.sessions.Create(callCtx, state)
		if err != nil {
			s.logger.Error("Failed to create session", zap.String("user_id", state.UserID), zap.Error(err))
			return ""
		}
		return id
	}

	if err := s.sessions.Save(callCtx, state.SessionID, state); err != nil {
		s.logger.Error("Failed to save session",
			zap.String("session_id", state.SessionID),
			zap.Error(err),
		)
	}
	return state.SessionID
}

func (s *Service) validateCommand(cmd inbound.TurnCommand) *apperrors.AppError {
	if err := s.validate.Struct(cmd); err != nil {
		return validationError(err)
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return apperrors.NewInvalidInputError(dietary.ErrMissingUserID.Error())
	}
	if cmd.SessionID == "" && strings.TrimSpace(cmd.Question) == "" {
		return apperrors.NewInvalidInputError(dietary.ErrMissingQuestion.Error())
	}
	return nil
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.CollaboratorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.CollaboratorTimeout)
}

// fail records err on a copy of the state
func (s *Service) fail(state dietary.WorkflowState, err error, step dietary.Step) dietary.WorkflowState {
	appErr := apperrors.Wrap(err, "Unexpected failure")
	s.logger.Error("Workflow step failed",
		zap.String("step", string(step)),
		zap.String("code", string(appErr.Code)),
		zap.Error(err),
	)
	return state.WithError(string(appErr.Code), describe(appErr), step)
}

// upstream classifies a collaborator failure, keeping codes already assigned
// upstream keeps workflow errors as they are and reports store or provider
// failures as a failed upstream query
func upstream(operation string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && !dependencyFailure(appErr.Code) {
		return appErr
	}
	return apperrors.NewUpstreamQueryError(operation, err)
}

func dependencyFailure(code apperrors.ErrorCode) bool {
	return code == apperrors.CodeDatabaseError || code == apperrors.CodeExternalServiceError
}

func describe(err *apperrors.AppError) string {
	msg := err.Message
	if err.Details != "" {
		msg += ": " + err.Details
	}
	if err.Cause != nil && !strings.Contains(msg, err.Cause.Error()) {
		msg += ": " + err.Cause.Error()
	}
	return msg
}

func validationError(err error) *apperrors.AppError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInvalidInputError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		var msg string
		switch fe.Tag() {
		case "required", "required_without":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s long", fe.Field(), fe.Param())
		default:
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: msg,
		})
	}
	return apperrors.NewValidationErrors(out)
}

// applyTurnInput copies the caller's choices onto the state. Empty inputs
// keep what a resumed session already holds.
func applyTurnInput(state dietary.WorkflowState, cmd inbound.TurnCommand) dietary.WorkflowState {
	next := state.Clone()
	if q := strings.TrimSpace(cmd.Question); q != "" {
		next.RawQuestion = q
	}
	if len(cmd.Ingredients) > 0 {
		next.SelectedIngredients = dietary.OrderedSet(cmd.Ingredients)
	}
	if len(cmd.CookingMethods) > 0 {
		next.SelectedCookingMethods = dietary.NewCookingSelection(cmd.CookingMethods)
	}
	if cmd.Weather != "" {
		next.Weather = cmd.Weather
	}
	if cmd.TimeOfDay != "" {
		next.TimeOfDay = cmd.TimeOfDay
	}
	next.IgnoreContext = cmd.IgnoreContext
	return next
}
