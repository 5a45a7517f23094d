package model

// ResumeProfile is the structured view of a resume produced by extraction.
type ResumeProfile struct {
	Skills       []string `json:"skills"`
	Experience   []string `json:"experience"`
	Education    []string `json:"education"`
	Projects     []string `json:"projects"`
	Achievements []string `json:"achievements"`
}

type SkillMatchResult struct {
	SkillsFound        []string `json:"skills_found"`
	TotalSkillsChecked int      `json:"total_skills_checked"`
	MatchFraction      float64  `json:"match_fraction"`
	SkillContext       []string `json:"skill_context"`
	SkillScore         float64  `json:"skill_score"`
}

type ExperienceAssessment struct {
	ExperienceScore     float64  `json:"experience_score"`
	YearsExperience     float64  `json:"years_experience"`
	RelevantRoles       []string `json:"relevant_roles"`
	ExperienceBreakdown string   `json:"experience_breakdown"`
}

type EducationAssessment struct {
	EducationScore     float64  `json:"education_score"`
	DegreeMatch        string   `json:"degree_match"`
	Certifications     []string `json:"certifications"`
	EducationBreakdown string   `json:"education_breakdown"`
}

type FinalScore struct {
	OverallScore    float64  `json:"overall_score"`
	SkillScore      float64  `json:"skill_score"`
	ExperienceScore float64  `json:"experience_score"`
	EducationScore  float64  `json:"education_score"`
	OtherFactors    float64  `json:"other_factors"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Breakdown       string   `json:"breakdown"`
	Summary         string   `json:"summary"`
}

// FinalEvaluation is the audited score plus the auditor's reasoning.
type FinalEvaluation struct {
	Reasoning string     `json:"reasoning"`
	Score     FinalScore `json:"score"`
}

// ScoringResult bundles every stage output of one completed run.
type ScoringResult struct {
	Context    ScoringContext       `json:"-"`
	Skills     SkillMatchResult     `json:"skills_found"`
	Experience ExperienceAssessment `json:"experience_score"`
	Education  EducationAssessment  `json:"education_score"`
	Scoring    FinalScore           `json:"scoring"`
	Evaluation FinalEvaluation      `json:"evaluation"`
}
