package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/schema"
)

type StageName string

const (
	StageExtraction  StageName = "extraction"
	StageSkills      StageName = "skill_matching"
	StageExperience  StageName = "experience_scoring"
	StageEducation   StageName = "education_scoring"
	StageAggregation StageName = "final_aggregation"
	StageAudit       StageName = "audit"
)

// Inputs carries the request fields of one run and every stage output
// produced so far. Stage builders receive a copy and must not retain it.
type Inputs struct {
	JobDescription string
	TargetSkills   []string
	Context        model.ScoringContext
	ResumeText     string

	Profile    *model.ResumeProfile
	Skills     *model.SkillMatchResult
	Experience *model.ExperienceAssessment
	Education  *model.EducationAssessment
	Final      *model.FinalScore
	Evaluation *model.FinalEvaluation

	extracted bool
}

func (in *Inputs) produced(name StageName) bool {
	switch name {
	case StageExtraction:
		return in.Profile != nil
	case StageSkills:
		return in.Skills != nil
	case StageExperience:
		return in.Experience != nil
	case StageEducation:
		return in.Education != nil
	case StageAggregation:
		return in.Final != nil
	case StageAudit:
		return in.Evaluation != nil
	default:
		return false
	}
}

func (in *Inputs) result() (*model.ScoringResult, error) {
	var missing []StageName
	for _, name := range []StageName{StageSkills, StageExperience, StageEducation, StageAggregation, StageAudit} {
		if !in.produced(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &DependencyError{Stage: "result", MissingDependencies: missing}
	}

	return &model.ScoringResult{
		Context:    in.Context,
		Skills:     *in.Skills,
		Experience: *in.Experience,
		Education:  *in.Education,
		Scoring:    *in.Final,
		Evaluation: *in.Evaluation,
	}, nil
}

// Stage declares one pipeline step producing a T. Build must be pure: all
// I/O happens in the inference call made by the orchestrator.
type Stage[T any] struct {
	Name         StageName
	State        State
	DependsOn    []StageName
	Requires     []Capability
	Instructions string
	Schema       *schema.Schema
	Build        func(in Inputs) (any, error)
	// Check enforces invariants the schema cannot express.
	Check func(out T, in Inputs) error
	Store func(in *Inputs, out T)
}

// Step is the type-erased view of a Stage that the orchestrator runs.
type Step interface {
	StageName() StageName
	EntryState() State
	Dependencies() []StageName
	RequiredCapabilities() []Capability
	execute(ctx context.Context, inference Inference, in *Inputs) error
}

func (s *Stage[T]) StageName() StageName               { return s.Name }
func (s *Stage[T]) EntryState() State                  { return s.State }
func (s *Stage[T]) Dependencies() []StageName          { return s.DependsOn }
func (s *Stage[T]) RequiredCapabilities() []Capability { return s.Requires }

func (s *Stage[T]) execute(ctx context.Context, inference Inference, in *Inputs) error {
	var missing []StageName
	for _, dep := range s.DependsOn {
		if !in.produced(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Stage: s.Name, MissingDependencies: missing}
	}

	payload, err := s.Build(*in)
	if err != nil {
		return fmt.Errorf("building %s input: %w", s.Name, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s input: %w", s.Name, err)
	}

	raw, err := inference.Infer(ctx, InferenceRequest{
		Stage:        s.Name,
		Instructions: s.Instructions,
		Schema:       s.Schema,
		Payload:      body,
	})
	if err != nil {
		return err
	}

	out, err := schema.Decode[T](s.Schema, raw)
	if err != nil {
		return err
	}
	if s.Check != nil {
		if err := s.Check(out, *in); err != nil {
			return err
		}
	}
	s.Store(in, out)
	return nil
}

// ValidateSteps checks that steps walk the state machine in order and that
// every dependency is produced by an earlier step.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("no stages declared")
	}

	state := StateInit
	seen := make(map[StageName]bool, len(steps))
	for _, step := range steps {
		next := transitions[state]
		if step.EntryState() != next {
			return fmt.Errorf("stage %s enters %s, expected %s", step.StageName(), step.EntryState(), next)
		}
		var missing []StageName
		for _, dep := range step.Dependencies() {
			if !seen[dep] {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			return &DependencyError{Stage: step.StageName(), MissingDependencies: missing}
		}
		seen[step.StageName()] = true
		state = next
	}
	if transitions[state] != StateDone {
		return fmt.Errorf("stages end in %s, expected the audit state", state)
	}
	return nil
}

// NormalizeSkills trims target skills, drops empty entries and removes
// case-insensitive duplicates, keeping the first spelling.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
