package pipeline

// SkillTally counts matched and missed skills for the skill score.
type SkillTally struct {
	RequiredFound   int
	RequiredMissing int
	PreferredFound  int
	PreferredTotal  int
}

// SkillScore applies +2 per required match, +1 per preferred match and -3
// per missing required skill, normalised by the maximum attainable points to
// the 0-4 scale.
func SkillScore(t SkillTally) float64 {
	maxPoints := 2*(t.RequiredFound+t.RequiredMissing) + t.PreferredTotal
	if maxPoints <= 0 {
		return 0
	}
	points := 2*t.RequiredFound + t.PreferredFound - 3*t.RequiredMissing
	return Round2(Clamp(float64(points)/float64(maxPoints)*MaxSkillScore, 0, MaxSkillScore))
}

// MatchFraction is found/checked to two decimals, or 0 when nothing was checked.
func MatchFraction(found, checked int) float64 {
	if checked <= 0 {
		return 0
	}
	return Round2(float64(found) / float64(checked))
}

// significantlyAbove is the surplus of years that earns the top years term.
const significantlyAbove = 3.0

// YearsTerm scores years of experience against the required years.
func YearsTerm(years, required float64) float64 {
	diff := years - required
	switch {
	case diff >= significantlyAbove:
		return 2.5
	case diff >= 0:
		return 2.0
	case diff >= -1:
		return 1.5
	case diff >= -2:
		return 1.0
	default:
		return 0.5
	}
}

type RoleFit int

const (
	RoleUnrelated RoleFit = iota
	RoleRelated
	RoleSimilar
	RoleExact
)

func (r RoleFit) Points() float64 {
	switch r {
	case RoleExact:
		return 1.0
	case RoleSimilar:
		return 0.8
	case RoleRelated:
		return 0.5
	default:
		return 0.2
	}
}

func (r RoleFit) String() string {
	switch r {
	case RoleExact:
		return "exact title"
	case RoleSimilar:
		return "similar role"
	case RoleRelated:
		return "related role"
	default:
		return "unrelated roles"
	}
}

type IndustryFit int

const (
	IndustryDifferent IndustryFit = iota
	IndustryRelated
	IndustrySame
)

func (i IndustryFit) Points() float64 {
	switch i {
	case IndustrySame:
		return 0.5
	case IndustryRelated:
		return 0.3
	default:
		return 0.1
	}
}

func (i IndustryFit) String() string {
	switch i {
	case IndustrySame:
		return "same industry"
	case IndustryRelated:
		return "related industry"
	default:
		return "different industry"
	}
}

func ExperienceScore(years, required float64, role RoleFit, industry IndustryFit) float64 {
	total := YearsTerm(years, required) + role.Points() + industry.Points()
	return Round2(Clamp(total, 0, MaxExperienceScore))
}

type DegreeFit int

const (
	DegreeNone DegreeFit = iota
	DegreeUnrelated
	DegreeCertificationOnly
	DegreeRelated
	DegreeExact
)

func (d DegreeFit) Points() float64 {
	switch d {
	case DegreeExact:
		return 0.6
	case DegreeRelated:
		return 0.4
	case DegreeCertificationOnly:
		return 0.3
	case DegreeUnrelated:
		return 0.2
	default:
		return 0
	}
}

func (d DegreeFit) String() string {
	switch d {
	case DegreeExact:
		return "exact degree match"
	case DegreeRelated:
		return "related degree field"
	case DegreeCertificationOnly:
		return "no degree, relevant certifications"
	case DegreeUnrelated:
		return "unrelated degree"
	default:
		return "no degree"
	}
}

// EducationTally holds the inputs of the education score.
type EducationTally struct {
	Degree                     DegreeFit
	ProfessionalCertifications int
	IndustryCertifications     int
	Coursework                 bool
	AcademicAchievement        bool
}

func EducationScore(t EducationTally) float64 {
	total := t.Degree.Points()
	total += Clamp(0.2*float64(t.ProfessionalCertifications), 0, 0.4)
	total += Clamp(0.1*float64(t.IndustryCertifications), 0, 0.2)
	if t.Coursework {
		total += 0.1
	}
	if t.AcademicAchievement {
		total += 0.1
	}
	return Round2(Clamp(total, 0, MaxEducationScore))
}

// OtherFactors awards 0.1 per project or achievement, capped at 0.5.
func OtherFactors(projects, achievements int) float64 {
	return Round2(Clamp(0.1*float64(projects+achievements), 0, MaxOtherFactors))
}
