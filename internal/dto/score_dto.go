package dto

import (
	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
)

// ScoreResumeRequest holds the form fields of POST /score-resume. The
// target_skills limits hold after comma separated values are split.
type ScoreResumeRequest struct {
	JobDescription string   `json:"job_description" validate:"required,max=20000"`
	TargetSkills   []string `json:"target_skills" validate:"max=100,dive,max=100"`
	JobTitle       string   `json:"job_title" validate:"max=200"`
	Industry       string   `json:"industry" validate:"max=100"`
}

type ScoreResultDTO struct {
	SkillsFound     model.SkillMatchResult     `json:"skills_found"`
	ExperienceScore model.ExperienceAssessment `json:"experience_score"`
	EducationScore  model.EducationAssessment  `json:"education_score"`
	Scoring         model.FinalScore           `json:"scoring"`
	Evaluation      model.FinalEvaluation      `json:"evaluation"`
	Band            string                     `json:"band"`
}

type ScoreMetaDTO struct {
	SessionID string `json:"session_id"`
	JobTitle  string `json:"job_title,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Provider  string `json:"inference_provider"`
	Model     string `json:"inference_model"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func NewScoreResultDTO(r *model.ScoringResult) ScoreResultDTO {
	return ScoreResultDTO{
		SkillsFound:     r.Skills,
		ExperienceScore: r.Experience,
		EducationScore:  r.Education,
		Scoring:         r.Scoring,
		Evaluation:      r.Evaluation,
		Band:            pipeline.Band(r.Evaluation.Score.OverallScore),
	}
}
