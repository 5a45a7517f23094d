// Package pipeline runs the resume scoring stages in order, validating every
// stage output before it is handed to the next stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultTimeout = 90 * time.Second

type Options struct {
	// Timeout bounds a whole run. Zero means DefaultTimeout.
	Timeout       time.Duration
	AuditLanguage string
	// Steps replaces DefaultStages when set.
	Steps        []Step
	OnTransition TransitionFunc
	Logger       *zap.Logger
}

// Request is the input of one scoring run. The orchestrator owns Document
// from the moment Run is called and always closes it.
type Request struct {
	Document       Document
	JobDescription string
	TargetSkills   []string
	Context        model.ScoringContext
}

// Orchestrator is safe for concurrent use; every run keeps its own state.
type Orchestrator struct {
	inference    Inference
	extractor    DocumentExtractor
	steps        []Step
	timeout      time.Duration
	onTransition TransitionFunc
	logger       *zap.Logger
	tracer       trace.Tracer
}

func NewOrchestrator(inference Inference, extractor DocumentExtractor, opts Options) (*Orchestrator, error) {
	if inference == nil {
		return nil, errors.New("inference capability is required")
	}
	if extractor == nil {
		return nil, errors.New("document extractor is required")
	}

	steps := opts.Steps
	if steps == nil {
		steps = DefaultStages(opts.AuditLanguage)
	}
	if err := ValidateSteps(steps); err != nil {
		return nil, fmt.Errorf("invalid stage declarations: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Orchestrator{
		inference:    inference,
		extractor:    extractor,
		steps:        steps,
		timeout:      timeout,
		onTransition: opts.OnTransition,
		logger:       logger.WithFields(opts.Logger),
		tracer:       telemetry.GetTracer(),
	}, nil
}

// Run executes every stage in order and returns the bundled result. Any
// stage failure aborts the run; no partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, req Request) (result *model.ScoringResult, err error) {
	if req.Document == nil {
		return nil, &Error{Err: apperror.InvalidInput("resume document is required", nil)}
	}
	defer o.release(req.Document)

	if req.Context.SessionID == uuid.Nil {
		req.Context = model.NewScoringContext(req.Context.JobTitle, req.Context.Industry)
	}
	log := logger.WithFields(o.logger, logger.RunFields(req.Context.SessionID.String(), "")...)

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	runCtx, span := o.tracer.Start(runCtx, "scoring.run", trace.WithAttributes(
		telemetry.String("session_id", req.Context.SessionID.String()),
		telemetry.Int("target_skills", len(req.TargetSkills)),
	))
	defer span.End()

	machine := NewMachine(o.observe(log))
	in := &Inputs{
		JobDescription: req.JobDescription,
		TargetSkills:   NormalizeSkills(req.TargetSkills),
		Context:        req.Context,
	}

	var current StageName
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = o.fail(machine, span, log, current, apperror.Internal(fmt.Sprintf("panic: %v", r), nil))
		}
	}()

	log.Info("scoring started", zap.Int("target_skills", len(in.TargetSkills)))
	for _, step := range o.steps {
		current = step.StageName()
		if err := machine.Transition(step.EntryState()); err != nil {
			return nil, o.fail(machine, span, log, current, apperror.Internal("state machine rejected stage", err))
		}
		if err := runCtx.Err(); err != nil {
			return nil, o.fail(machine, span, log, current, classify(current, err, runCtx, ctx))
		}
		if err := o.runStep(runCtx, step, in, req.Document, log); err != nil {
			return nil, o.fail(machine, span, log, current, classify(current, err, runCtx, ctx))
		}
	}

	current = ""
	result, err = in.result()
	if err != nil {
		return nil, o.fail(machine, span, log, current, apperror.Internal("incomplete stage outputs", err))
	}
	if err := machine.Transition(StateDone); err != nil {
		return nil, o.fail(machine, span, log, current, apperror.Internal("state machine rejected completion", err))
	}

	span.SetAttributes(telemetry.Float64("overall_score", result.Evaluation.Score.OverallScore))
	log.Info("scoring completed",
		zap.Float64("overall_score", result.Evaluation.Score.OverallScore),
		zap.String("band", Band(result.Evaluation.Score.OverallScore)),
		zap.Duration("elapsed", time.Since(req.Context.SessionStart)),
	)
	return result, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, in *Inputs, doc Document, log *zap.Logger) error {
	name := step.StageName()
	ctx, span := o.tracer.Start(ctx, "scoring.stage."+string(name))
	defer span.End()

	start := time.Now()
	for _, capability := range step.RequiredCapabilities() {
		if capability != CapabilityDocumentExtraction || in.extracted {
			continue
		}
		text, err := o.extractor.ExtractText(ctx, doc)
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		in.ResumeText = text
		in.extracted = true
		log.Debug("resume text extracted", zap.Int("chars", len(text)))
	}

	if err := step.execute(ctx, o.inference, in); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	log.Debug("stage completed", zap.String(logger.FieldStage, string(name)), zap.Duration("duration", time.Since(start)))
	return nil
}

func (o *Orchestrator) fail(m *Machine, span trace.Span, log *zap.Logger, stage StageName, cause *apperror.DomainError) error {
	if !m.Current().Terminal() {
		_ = m.Transition(StateFailed)
	}
	err := &Error{Stage: stage, Err: cause}
	telemetry.RecordError(span, err)
	log.Warn("scoring failed",
		zap.String(logger.FieldStage, string(stage)),
		zap.String("kind", string(cause.Type)),
		zap.Error(cause),
	)
	return err
}

func (o *Orchestrator) observe(log *zap.Logger) TransitionFunc {
	return func(from, to State) {
		log.Debug("state transition", zap.String("from", string(from)), zap.String("to", string(to)))
		if o.onTransition != nil {
			o.onTransition(from, to)
		}
	}
}

func (o *Orchestrator) release(doc Document) {
	if err := doc.Close(); err != nil {
		o.logger.Warn("failed to release resume document", zap.String("document", doc.Name()), zap.Error(err))
	}
}
