package pipeline

import (
	"strings"

	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/prompts"
	"github.com/fadilmartias/resume-scorer/internal/schema"
)

const DefaultAuditLanguage = "Indonesian"

var (
	ResumeProfileSchema = schema.New("resume_profile",
		schema.Strings("skills", "technical and soft skills"),
		schema.Strings("experience", "one entry per position"),
		schema.Strings("education", "degrees, schools, courses and certifications"),
		schema.Strings("projects", "one entry per project"),
		schema.Strings("achievements", "awards and measurable results"),
	)

	SkillMatchSchema = schema.New("skill_match_result",
		schema.Strings("skills_found", "target skills present in the resume"),
		schema.Count("total_skills_checked", "number of target skills evaluated"),
		schema.Number("match_fraction", "skills found divided by skills checked", 0, 1),
		schema.Strings("skill_context", "where each found skill appears"),
		schema.Number("skill_score", "weighted skill score", 0, MaxSkillScore),
	)

	ExperienceSchema = schema.New("experience_assessment",
		schema.Number("experience_score", "experience score", 0, MaxExperienceScore),
		schema.NonNegative("years_experience", "total years of relevant experience"),
		schema.Strings("relevant_roles", "relevant job titles"),
		schema.String("experience_breakdown", "explanation of each term"),
	)

	EducationSchema = schema.New("education_assessment",
		schema.Number("education_score", "education score", 0, MaxEducationScore),
		schema.String("degree_match", "how well the degree matches"),
		schema.Strings("certifications", "relevant certifications"),
		schema.String("education_breakdown", "explanation of each term"),
	)

	FinalScoreSchema = schema.New("final_score",
		schema.Number("overall_score", "overall score", 0, MaxOverallScore),
		schema.Number("skill_score", "skill score from skill matching", 0, MaxSkillScore),
		schema.Number("experience_score", "experience score from experience scoring", 0, MaxExperienceScore),
		schema.Number("education_score", "education score from education scoring", 0, MaxEducationScore),
		schema.Number("other_factors", "projects, achievements and extra qualifications", 0, MaxOtherFactors),
		schema.Strings("strengths", "key strengths"),
		schema.Strings("weaknesses", "key weaknesses"),
		schema.String("breakdown", "explanation of the final arithmetic"),
		schema.String("summary", "overall assessment of fit"),
	)

	FinalEvaluationSchema = schema.New("final_evaluation",
		schema.String("reasoning", "audit reasoning"),
		schema.Object("score", "audited final score", FinalScoreSchema),
	)
)

type ExtractionPayload struct {
	ResumeText string `json:"resume_text"`
}

type SkillsPayload struct {
	TargetSkills   []string            `json:"target_skills"`
	ResumeData     model.ResumeProfile `json:"resume_data"`
	ResumeText     string              `json:"resume_text"`
	JobDescription string              `json:"job_description"`
}

type ExperiencePayload struct {
	ResumeData     model.ResumeProfile `json:"resume_data"`
	JobDescription string              `json:"job_description"`
	JobTitle       string              `json:"job_title,omitempty"`
	Industry       string              `json:"industry,omitempty"`
}

type EducationPayload struct {
	ResumeData     model.ResumeProfile `json:"resume_data"`
	JobDescription string              `json:"job_description"`
}

type AggregationPayload struct {
	SkillScore      float64             `json:"skill_score"`
	ExperienceScore float64             `json:"experience_score"`
	EducationScore  float64             `json:"education_score"`
	ResumeData      model.ResumeProfile `json:"resume_data"`
	SkillsFound     []string            `json:"skills_found"`
	JobDescription  string              `json:"job_description"`
}

type AuditPayload struct {
	Result          model.FinalScore           `json:"result"`
	JobDescription  string                     `json:"job_description"`
	ResumeData      model.ResumeProfile        `json:"resume_data"`
	SkillsFound     model.SkillMatchResult     `json:"skills_found"`
	ExperienceScore model.ExperienceAssessment `json:"experience_score"`
	EducationScore  model.EducationAssessment  `json:"education_score"`
}

// DefaultStages returns the six scoring stages in execution order.
func DefaultStages(auditLanguage string) []Step {
	if strings.TrimSpace(auditLanguage) == "" {
		auditLanguage = DefaultAuditLanguage
	}

	return []Step{
		&Stage[model.ResumeProfile]{
			Name:         StageExtraction,
			State:        StateExtracting,
			Requires:     []Capability{CapabilityDocumentExtraction},
			Instructions: prompts.MustGet("extraction"),
			Schema:       ResumeProfileSchema,
			Build: func(in Inputs) (any, error) {
				return ExtractionPayload{ResumeText: in.ResumeText}, nil
			},
			Store: func(in *Inputs, out model.ResumeProfile) { in.Profile = &out },
		},
		&Stage[model.SkillMatchResult]{
			Name:         StageSkills,
			State:        StateSkillMatching,
			DependsOn:    []StageName{StageExtraction},
			Instructions: prompts.MustGet("skill_matching"),
			Schema:       SkillMatchSchema,
			Build: func(in Inputs) (any, error) {
				return SkillsPayload{
					TargetSkills:   nonNil(in.TargetSkills),
					ResumeData:     *in.Profile,
					ResumeText:     in.ResumeText,
					JobDescription: in.JobDescription,
				}, nil
			},
			Check: checkSkills,
			Store: func(in *Inputs, out model.SkillMatchResult) { in.Skills = &out },
		},
		&Stage[model.ExperienceAssessment]{
			Name:         StageExperience,
			State:        StateExperienceScoring,
			DependsOn:    []StageName{StageExtraction},
			Instructions: prompts.MustGet("experience_scoring"),
			Schema:       ExperienceSchema,
			Build: func(in Inputs) (any, error) {
				return ExperiencePayload{
					ResumeData:     *in.Profile,
					JobDescription: in.JobDescription,
					JobTitle:       in.Context.JobTitle,
					Industry:       in.Context.Industry,
				}, nil
			},
			Store: func(in *Inputs, out model.ExperienceAssessment) { in.Experience = &out },
		},
		&Stage[model.EducationAssessment]{
			Name:         StageEducation,
			State:        StateEducationScoring,
			DependsOn:    []StageName{StageExtraction},
			Instructions: prompts.MustGet("education_scoring"),
			Schema:       EducationSchema,
			Build: func(in Inputs) (any, error) {
				return EducationPayload{ResumeData: *in.Profile, JobDescription: in.JobDescription}, nil
			},
			Store: func(in *Inputs, out model.EducationAssessment) { in.Education = &out },
		},
		&Stage[model.FinalScore]{
			Name:         StageAggregation,
			State:        StateAggregating,
			DependsOn:    []StageName{StageExtraction, StageSkills, StageExperience, StageEducation},
			Instructions: prompts.MustGet("final_aggregation"),
			Schema:       FinalScoreSchema,
			Build: func(in Inputs) (any, error) {
				return AggregationPayload{
					SkillScore:      in.Skills.SkillScore,
					ExperienceScore: in.Experience.ExperienceScore,
					EducationScore:  in.Education.EducationScore,
					ResumeData:      *in.Profile,
					SkillsFound:     nonNil(in.Skills.SkillsFound),
					JobDescription:  in.JobDescription,
				}, nil
			},
			Check: checkAggregation,
			Store: func(in *Inputs, out model.FinalScore) { in.Final = &out },
		},
		&Stage[model.FinalEvaluation]{
			Name:         StageAudit,
			State:        StateAuditing,
			DependsOn:    []StageName{StageExtraction, StageSkills, StageExperience, StageEducation, StageAggregation},
			Instructions: prompts.Format(prompts.MustGet("audit"), map[string]string{"Language": auditLanguage}),
			Schema:       FinalEvaluationSchema,
			Build: func(in Inputs) (any, error) {
				return AuditPayload{
					Result:          *in.Final,
					JobDescription:  in.JobDescription,
					ResumeData:      *in.Profile,
					SkillsFound:     *in.Skills,
					ExperienceScore: *in.Experience,
					EducationScore:  *in.Education,
				}, nil
			},
			Check: checkAudit,
			Store: func(in *Inputs, out model.FinalEvaluation) { in.Evaluation = &out },
		},
	}
}

func checkSkills(out model.SkillMatchResult, in Inputs) error {
	if out.TotalSkillsChecked != len(in.TargetSkills) {
		return checkErrorf(StageSkills, "total_skills_checked is %d, %d target skills were given",
			out.TotalSkillsChecked, len(in.TargetSkills))
	}

	targets := make(map[string]bool, len(in.TargetSkills))
	for _, s := range in.TargetSkills {
		targets[strings.ToLower(s)] = true
	}
	seen := make(map[string]bool, len(out.SkillsFound))
	for _, s := range out.SkillsFound {
		key := strings.ToLower(strings.TrimSpace(s))
		if !targets[key] {
			return checkErrorf(StageSkills, "%q is not a target skill", s)
		}
		if seen[key] {
			return checkErrorf(StageSkills, "%q reported twice", s)
		}
		seen[key] = true
	}

	want := MatchFraction(len(out.SkillsFound), out.TotalSkillsChecked)
	if !approxEqual(out.MatchFraction, want) {
		return checkErrorf(StageSkills, "match_fraction is %.2f, expected %.2f", out.MatchFraction, want)
	}
	if out.TotalSkillsChecked == 0 && out.SkillScore != 0 {
		return checkErrorf(StageSkills, "skill_score must be 0 when no skills were checked, got %.2f", out.SkillScore)
	}
	return nil
}

func checkAggregation(out model.FinalScore, in Inputs) error {
	components := []struct {
		name     string
		got, src float64
	}{
		{"skill_score", out.SkillScore, in.Skills.SkillScore},
		{"experience_score", out.ExperienceScore, in.Experience.ExperienceScore},
		{"education_score", out.EducationScore, in.Education.EducationScore},
	}
	for _, c := range components {
		if !approxEqual(c.got, c.src) {
			return checkErrorf(StageAggregation, "%s is %.2f, upstream stage reported %.2f", c.name, c.got, c.src)
		}
	}

	want := Aggregate(out.SkillScore, out.ExperienceScore, out.EducationScore, out.OtherFactors)
	if !approxEqual(out.OverallScore, want) {
		return checkErrorf(StageAggregation, "overall_score is %.2f, components add up to %.2f", out.OverallScore, want)
	}
	return nil
}

func checkAudit(out model.FinalEvaluation, in Inputs) error {
	if out.Score.OverallScore > in.Final.OverallScore+1e-9 {
		return checkErrorf(StageAudit, "audit raised overall_score from %.2f to %.2f",
			in.Final.OverallScore, out.Score.OverallScore)
	}
	if strings.TrimSpace(out.Reasoning) == "" {
		return checkErrorf(StageAudit, "reasoning is empty")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
