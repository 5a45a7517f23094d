package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name                                string
		skill, experience, education, other float64
		want                                float64
	}{
		{"zero", 0, 0, 0, 0, 0},
		{"sum", 2.67, 3.5, 0.6, 0.3, 7.07},
		{"maximum", MaxSkillScore, MaxExperienceScore, MaxEducationScore, MaxOtherFactors, MaxOverallScore},
		{"clamped above", 4, 4.5, 1, 2, MaxOverallScore},
		{"clamped below", -1, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Aggregate(tt.skill, tt.experience, tt.education, tt.other), 1e-9)
		})
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, BandExcellent, Band(10))
	assert.Equal(t, BandExcellent, Band(8.0))
	assert.Equal(t, BandGood, Band(7.99))
	assert.Equal(t, BandGood, Band(6.0))
	assert.Equal(t, BandAverage, Band(5.9))
	assert.Equal(t, BandAverage, Band(4.0))
	assert.Equal(t, BandPoor, Band(3.99))
	assert.Equal(t, BandPoor, Band(0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
}

func TestSkillScore(t *testing.T) {
	tests := []struct {
		name  string
		tally SkillTally
		want  float64
	}{
		{"nothing checked", SkillTally{}, 0},
		{"all required found", SkillTally{RequiredFound: 3}, 4.0},
		{"two of three", SkillTally{RequiredFound: 2, RequiredMissing: 1}, 0.67},
		{"one of three", SkillTally{RequiredFound: 1, RequiredMissing: 2}, 0},
		{"none found", SkillTally{RequiredMissing: 3}, 0},
		{"with preferred", SkillTally{RequiredFound: 2, PreferredFound: 1, PreferredTotal: 2}, 3.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillScore(tt.tally)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, MaxSkillScore)
		})
	}
}

func TestMatchFraction(t *testing.T) {
	assert.Equal(t, 0.67, MatchFraction(2, 3))
	assert.Equal(t, 0.0, MatchFraction(0, 0))
	assert.Equal(t, 1.0, MatchFraction(4, 4))
	assert.Equal(t, 0.33, MatchFraction(1, 3))
}

func TestYearsTerm(t *testing.T) {
	assert.Equal(t, 2.0, YearsTerm(5, 5))
	assert.Equal(t, 2.0, YearsTerm(6, 5))
	assert.Equal(t, 2.5, YearsTerm(8, 5))
	assert.Equal(t, 1.5, YearsTerm(4, 5))
	assert.Equal(t, 1.0, YearsTerm(3.5, 5))
	assert.Equal(t, 0.5, YearsTerm(1, 5))
}

func TestExperienceScore_Bounds(t *testing.T) {
	assert.Equal(t, 4.0, ExperienceScore(10, 2, RoleExact, IndustrySame))
	assert.Equal(t, 0.8, ExperienceScore(0, 5, RoleUnrelated, IndustryDifferent))
	assert.Equal(t, 3.1, ExperienceScore(5, 5, RoleSimilar, IndustryRelated))

	for _, years := range []float64{0, 1, 3, 10, 40} {
		for _, role := range []RoleFit{RoleUnrelated, RoleRelated, RoleSimilar, RoleExact} {
			for _, industry := range []IndustryFit{IndustryDifferent, IndustryRelated, IndustrySame} {
				got := ExperienceScore(years, 3, role, industry)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, MaxExperienceScore)
			}
		}
	}
}

func TestEducationScore(t *testing.T) {
	assert.Equal(t, 0.0, EducationScore(EducationTally{}))
	assert.Equal(t, 0.6, EducationScore(EducationTally{Degree: DegreeExact}))
	assert.Equal(t, 0.7, EducationScore(EducationTally{Degree: DegreeCertificationOnly, ProfessionalCertifications: 2}))
	assert.Equal(t, 0.8, EducationScore(EducationTally{Degree: DegreeRelated, ProfessionalCertifications: 5}))
	assert.Equal(t, 1.0, EducationScore(EducationTally{
		Degree:                     DegreeExact,
		ProfessionalCertifications: 3,
		IndustryCertifications:     4,
		Coursework:                 true,
		AcademicAchievement:        true,
	}))
}

func TestOtherFactors(t *testing.T) {
	assert.Equal(t, 0.0, OtherFactors(0, 0))
	assert.Equal(t, 0.3, OtherFactors(2, 1))
	assert.Equal(t, MaxOtherFactors, OtherFactors(10, 10))
}
