package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const rulesModel = "heuristic-v1"

// irrelevantCap is the highest overall score the audit allows when none of
// the target skills were found.
const irrelevantCap = 3.9

type section int

const (
	sectionNone section = iota
	sectionSkills
	sectionExperience
	sectionEducation
	sectionProjects
	sectionAchievements
)

var headings = map[string]section{
	"skills":                  sectionSkills,
	"skill":                   sectionSkills,
	"technical skills":        sectionSkills,
	"core skills":             sectionSkills,
	"keahlian":                sectionSkills,
	"kemampuan":               sectionSkills,
	"experience":              sectionExperience,
	"work experience":         sectionExperience,
	"professional experience": sectionExperience,
	"employment":              sectionExperience,
	"employment history":      sectionExperience,
	"pengalaman":              sectionExperience,
	"pengalaman kerja":        sectionExperience,
	"education":               sectionEducation,
	"pendidikan":              sectionEducation,
	"certifications":          sectionEducation,
	"certification":           sectionEducation,
	"sertifikasi":             sectionEducation,
	"projects":                sectionProjects,
	"project":                 sectionProjects,
	"proyek":                  sectionProjects,
	"portfolio":               sectionProjects,
	"achievements":            sectionAchievements,
	"awards":                  sectionAchievements,
	"honors":                  sectionAchievements,
	"prestasi":                sectionAchievements,
	"penghargaan":             sectionAchievements,
}

var (
	yearRange     = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|—|to|until|s/d|sampai)\s*((?:19|20)\d{2}|present|now|current|sekarang|saat ini)`)
	yearsStated   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\+?\s*(?:years?|yrs|tahun)`)
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•·▪◦>]+|\d+[.)])\s*`)
	skillSplitter = regexp.MustCompile(`[,;|•]`)
)

var degreeKeywords = []string{
	"bachelor", "master", "phd", "ph.d", "doctor", "sarjana", "magister", "diploma",
	"s1", "s2", "s3", "d3", "d4", "bsc", "b.sc", "msc", "m.sc", "b.eng", "m.eng", "b.s.", "m.s.", "degree", "mba",
}

var (
	certificationKeywords = []string{"certified", "certification", "certificate", "sertifikat", "sertifikasi"}
	courseworkKeywords    = []string{"coursework", "course", "kursus", "bootcamp", "training", "pelatihan"}
	academicKeywords      = []string{"gpa", "ipk", "cum laude", "honors", "honours", "scholarship", "beasiswa", "dean's list", "valedictorian"}
)

var stopwords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "our": true, "you": true, "are": true,
	"will": true, "from": true, "into": true, "that": true, "this": true, "have": true, "has": true,
	"dan": true, "yang": true, "untuk": true, "dengan": true, "di": true, "of": true, "in": true,
	"senior": true, "junior": true, "lead": true, "university": true, "universitas": true, "institute": true,
	"years": true, "year": true, "tahun": true, "experience": true, "present": true,
}

// RulesService scores resumes with deterministic keyword heuristics. It needs
// no network access and always returns schema-conforming output.
type RulesService struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewRulesService(log *zap.Logger) *RulesService {
	return &RulesService{
		now:    time.Now,
		logger: logger.WithProvider(log, "rules", rulesModel),
	}
}

func (s *RulesService) Provider() string { return "rules" }
func (s *RulesService) Model() string    { return rulesModel }

func (s *RulesService) Infer(ctx context.Context, req pipeline.InferenceRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(req.Payload) {
		return nil, fmt.Errorf("payload for %s is not valid JSON", req.Stage)
	}
	payload := gjson.ParseBytes(req.Payload)

	var out any
	switch req.Stage {
	case pipeline.StageExtraction:
		out = extractProfile(payload.Get("resume_text").String())
	case pipeline.StageSkills:
		out = matchSkills(payload)
	case pipeline.StageExperience:
		out = s.assessExperience(payload)
	case pipeline.StageEducation:
		out = assessEducation(payload)
	case pipeline.StageAggregation:
		out = aggregate(payload)
	case pipeline.StageAudit:
		evaluation, err := audit(payload, req.Instructions)
		if err != nil {
			return nil, err
		}
		out = evaluation
	default:
		return nil, fmt.Errorf("rules backend has no handler for stage %q", req.Stage)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding %s output: %w", req.Stage, err)
	}
	s.logger.Debug("inference completed", zap.String(logger.FieldStage, string(req.Stage)), zap.Int("bytes", len(raw)))
	return raw, nil
}

func extractProfile(text string) model.ResumeProfile {
	profile := model.ResumeProfile{
		Skills:       []string{},
		Experience:   []string{},
		Education:    []string{},
		Projects:     []string{},
		Achievements: []string{},
	}

	current := sectionNone
	seenSkills := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if sec, ok := heading(line); ok {
			current = sec
			continue
		}

		bullet := bulletPrefix.MatchString(line)
		entry := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if entry == "" {
			continue
		}

		switch current {
		case sectionSkills:
			if i := strings.Index(entry, ":"); i >= 0 && i < len(entry)-1 {
				entry = entry[i+1:]
			}
			for _, skill := range skillSplitter.Split(entry, -1) {
				skill = strings.TrimSpace(skill)
				key := strings.ToLower(skill)
				if skill == "" || seenSkills[key] {
					continue
				}
				seenSkills[key] = true
				profile.Skills = append(profile.Skills, skill)
			}
		case sectionExperience:
			profile.Experience = appendEntry(profile.Experience, entry, bullet)
		case sectionProjects:
			profile.Projects = appendEntry(profile.Projects, entry, bullet)
		case sectionEducation:
			profile.Education = append(profile.Education, entry)
		case sectionAchievements:
			profile.Achievements = append(profile.Achievements, entry)
		}
	}
	return profile
}

// appendEntry starts a new entry for a plain line and folds bullet lines into
// the entry above them.
func appendEntry(entries []string, line string, bullet bool) []string {
	if bullet && len(entries) > 0 {
		entries[len(entries)-1] += "; " + line
		return entries
	}
	return append(entries, line)
}

func heading(line string) (section, bool) {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(line), "#*:=_ "))
	cleaned = strings.ReplaceAll(cleaned, "&", "and")
	if len(cleaned) == 0 || len(cleaned) > 40 {
		return sectionNone, false
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if sec, ok := headings[cleaned]; ok {
		return sec, true
	}
	// "Education and Certifications", "Skills and Tools"
	if first, _, ok := strings.Cut(cleaned, " and "); ok {
		sec, ok := headings[first]
		return sec, ok
	}
	return sectionNone, false
}

func profileFrom(r gjson.Result) model.ResumeProfile {
	return model.ResumeProfile{
		Skills:       stringsFrom(r.Get("skills")),
		Experience:   stringsFrom(r.Get("experience")),
		Education:    stringsFrom(r.Get("education")),
		Projects:     stringsFrom(r.Get("projects")),
		Achievements: stringsFrom(r.Get("achievements")),
	}
}

func stringsFrom(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func matchSkills(payload gjson.Result) model.SkillMatchResult {
	targets := stringsFrom(payload.Get("target_skills"))
	profile := profileFrom(payload.Get("resume_data"))
	text := payload.Get("resume_text").String()
	experience := strings.Join(profile.Experience, "\n")

	listed := make(map[string]bool, len(profile.Skills))
	for _, s := range profile.Skills {
		listed[strings.ToLower(s)] = true
	}

	result := model.SkillMatchResult{
		SkillsFound:        []string{},
		SkillContext:       []string{},
		TotalSkillsChecked: len(targets),
	}
	var tally pipeline.SkillTally
	for _, target := range targets {
		var where string
		switch {
		case listed[strings.ToLower(target)] || containsSkill(strings.Join(profile.Skills, ", "), target):
			where = "listed in skills"
		case containsSkill(experience, target):
			where = "used in work experience"
		case containsSkill(text, target):
			where = "mentioned in resume text"
		}
		if where == "" {
			tally.RequiredMissing++
			continue
		}
		tally.RequiredFound++
		result.SkillsFound = append(result.SkillsFound, target)
		result.SkillContext = append(result.SkillContext, target+": "+where)
	}

	result.MatchFraction = pipeline.MatchFraction(tally.RequiredFound, result.TotalSkillsChecked)
	result.SkillScore = pipeline.SkillScore(tally)
	return result
}

// containsSkill reports whether skill occurs in text as a whole term. Skills
// of one or two characters ("Go", "R") match case-sensitively.
func containsSkill(text, skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" || text == "" {
		return false
	}
	pattern := `(?:^|[^\pL\pN+#.])` + regexp.QuoteMeta(skill) + `(?:$|[^\pL\pN+#])`
	if len([]rune(skill)) > 2 {
		pattern = `(?i)` + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func (s *RulesService) assessExperience(payload gjson.Result) model.ExperienceAssessment {
	profile := profileFrom(payload.Get("resume_data"))
	jd := payload.Get("job_description").String()

	years := s.yearsOfExperience(profile.Experience)
	required := requiredYears(jd)

	title := payload.Get("job_title").String()
	if strings.TrimSpace(title) == "" {
		title = firstLine(jd)
	}
	role, roles := roleFit(title, profile.Experience)

	industry := pipeline.IndustryRelated
	if name := strings.ToLower(strings.TrimSpace(payload.Get("industry").String())); name != "" {
		industry = pipeline.IndustryDifferent
		if strings.Contains(strings.ToLower(strings.Join(profile.Experience, "\n")), name) {
			industry = pipeline.IndustrySame
		}
	}

	score := pipeline.ExperienceScore(years, required, role, industry)
	return model.ExperienceAssessment{
		ExperienceScore: score,
		YearsExperience: years,
		RelevantRoles:   roles,
		ExperienceBreakdown: fmt.Sprintf(
			"years %.1f vs %.0f required: %.1f; role fit (%s): %.1f; industry fit (%s): %.1f; total %.2f",
			years, required, pipeline.YearsTerm(years, required),
			role, role.Points(),
			industry, industry.Points(),
			score,
		),
	}
}

// yearsOfExperience sums the merged year ranges of all positions, falling
// back to an explicitly stated number of years when it is larger.
func (s *RulesService) yearsOfExperience(entries []string) float64 {
	currentYear := s.now().Year()
	type span struct{ from, to int }
	var spans []span
	stated := 0.0

	for _, entry := range entries {
		for _, m := range yearRange.FindAllStringSubmatch(entry, -1) {
			from, _ := strconv.Atoi(m[1])
			to, err := strconv.Atoi(m[2])
			if err != nil {
				to = currentYear
			}
			if to >= from && from <= currentYear {
				spans = append(spans, span{from, min(to, currentYear)})
			}
		}
		for _, m := range yearsStated.FindAllStringSubmatch(entry, -1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v < 60 {
				stated = math.Max(stated, v)
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].from < spans[j].from })
	total := 0
	for i := 0; i < len(spans); {
		from, to := spans[i].from, spans[i].to
		j := i + 1
		for ; j < len(spans) && spans[j].from <= to; j++ {
			to = max(to, spans[j].to)
		}
		total += to - from
		i = j
	}
	return math.Max(float64(total), stated)
}

func requiredYears(jd string) float64 {
	m := yearsStated.FindStringSubmatch(jd)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

func roleFit(title string, entries []string) (pipeline.RoleFit, []string) {
	want := tokens(title)
	roles := []string{}
	best := 0.0
	if len(want) == 0 {
		return pipeline.RoleUnrelated, roles
	}

	for _, entry := range entries {
		headline := entry
		if i := strings.Index(headline, ";"); i >= 0 {
			headline = headline[:i]
		}
		have := tokens(headline)
		shared := 0
		for t := range want {
			if have[t] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		roles = append(roles, strings.TrimSpace(headline))
		best = math.Max(best, float64(shared)/float64(len(want)))
	}

	switch {
	case best >= 0.99:
		return pipeline.RoleExact, roles
	case best >= 0.5:
		return pipeline.RoleSimilar, roles
	case best > 0:
		return pipeline.RoleRelated, roles
	default:
		return pipeline.RoleUnrelated, roles
	}
}

func assessEducation(payload gjson.Result) model.EducationAssessment {
	profile := profileFrom(payload.Get("resume_data"))
	jdTokens := tokens(payload.Get("job_description").String())

	result := model.EducationAssessment{Certifications: []string{}}
	var tally pipeline.EducationTally
	bestOverlap := -1

	for _, entry := range profile.Education {
		lower := strings.ToLower(entry)
		switch {
		case containsAny(lower, certificationKeywords):
			result.Certifications = append(result.Certifications, entry)
			if overlap(tokens(entry), jdTokens) > 0 {
				tally.ProfessionalCertifications++
			} else {
				tally.IndustryCertifications++
			}
		case hasDegree(lower):
			bestOverlap = max(bestOverlap, overlap(fieldTokens(entry), jdTokens))
		}
		if containsAny(lower, courseworkKeywords) {
			tally.Coursework = true
		}
		if containsAny(lower, academicKeywords) {
			tally.AcademicAchievement = true
		}
	}
	for _, a := range profile.Achievements {
		if containsAny(strings.ToLower(a), academicKeywords) {
			tally.AcademicAchievement = true
		}
	}

	switch {
	case bestOverlap >= 2:
		tally.Degree = pipeline.DegreeExact
	case bestOverlap == 1:
		tally.Degree = pipeline.DegreeRelated
	case bestOverlap == 0:
		tally.Degree = pipeline.DegreeUnrelated
	case len(result.Certifications) > 0:
		tally.Degree = pipeline.DegreeCertificationOnly
	}

	result.EducationScore = pipeline.EducationScore(tally)
	result.DegreeMatch = tally.Degree.String()
	result.EducationBreakdown = fmt.Sprintf(
		"degree (%s): %.1f; professional certifications: %d; industry certifications: %d; coursework: %t; academic achievement: %t; total %.2f",
		tally.Degree, tally.Degree.Points(),
		tally.ProfessionalCertifications, tally.IndustryCertifications,
		tally.Coursework, tally.AcademicAchievement,
		result.EducationScore,
	)
	return result
}

func hasDegree(lower string) bool {
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')' }) {
		for _, k := range degreeKeywords {
			if word == k {
				return true
			}
		}
	}
	return false
}

// fieldTokens drops degree words so only the field of study is compared.
func fieldTokens(entry string) map[string]bool {
	out := tokens(entry)
	for _, k := range degreeKeywords {
		delete(out, k)
	}
	delete(out, "science")
	delete(out, "arts")
	return out
}

func aggregate(payload gjson.Result) model.FinalScore {
	skill := payload.Get("skill_score").Float()
	experience := payload.Get("experience_score").Float()
	education := payload.Get("education_score").Float()
	profile := profileFrom(payload.Get("resume_data"))
	found := stringsFrom(payload.Get("skills_found"))

	other := pipeline.OtherFactors(len(profile.Projects), len(profile.Achievements))
	overall := pipeline.Round2(pipeline.Aggregate(skill, experience, education, other))

	strengths, weaknesses := []string{}, []string{}
	if skill >= 3 {
		strengths = append(strengths, fmt.Sprintf("Strong match on target skills: %s", strings.Join(found, ", ")))
	} else if len(found) == 0 {
		weaknesses = append(weaknesses, "None of the target skills were found")
	} else {
		weaknesses = append(weaknesses, fmt.Sprintf("Partial skill match, found only: %s", strings.Join(found, ", ")))
	}
	if experience >= 3 {
		strengths = append(strengths, fmt.Sprintf("Relevant experience (%.2f/%.1f)", experience, pipeline.MaxExperienceScore))
	} else {
		weaknesses = append(weaknesses, fmt.Sprintf("Limited relevant experience (%.2f/%.1f)", experience, pipeline.MaxExperienceScore))
	}
	if education >= 0.6 {
		strengths = append(strengths, fmt.Sprintf("Education fits the role (%.2f/%.1f)", education, pipeline.MaxEducationScore))
	} else {
		weaknesses = append(weaknesses, fmt.Sprintf("Education is a weak fit (%.2f/%.1f)", education, pipeline.MaxEducationScore))
	}
	if other > 0 {
		strengths = append(strengths, fmt.Sprintf("%d projects and %d achievements listed", len(profile.Projects), len(profile.Achievements)))
	}

	return model.FinalScore{
		OverallScore:    overall,
		SkillScore:      skill,
		ExperienceScore: experience,
		EducationScore:  education,
		OtherFactors:    other,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Breakdown: fmt.Sprintf("skills %.2f + experience %.2f + education %.2f + other factors %.2f = %.2f",
			skill, experience, education, other, overall),
		Summary: fmt.Sprintf("Overall %.2f/%.0f (%s).", overall, pipeline.MaxOverallScore, pipeline.Band(overall)),
	}
}

func audit(payload gjson.Result, instructions string) (model.FinalEvaluation, error) {
	var score model.FinalScore
	if err := json.Unmarshal([]byte(payload.Get("result").Raw), &score); err != nil {
		return model.FinalEvaluation{}, fmt.Errorf("decoding audit result: %w", err)
	}
	if score.Strengths == nil {
		score.Strengths = []string{}
	}
	if score.Weaknesses == nil {
		score.Weaknesses = []string{}
	}

	checked := int(payload.Get("skills_found.total_skills_checked").Int())
	found := len(payload.Get("skills_found.skills_found").Array())
	mismatch := 0.0
	if checked > 0 {
		mismatch = pipeline.Round2((1 - float64(found)/float64(checked)) * 100)
	}

	indonesian := strings.Contains(strings.ToLower(instructions), "strictly in indonesian")
	original := score.OverallScore
	capped := checked > 0 && found == 0 && original > irrelevantCap
	if capped {
		score.OverallScore = irrelevantCap
		score.Summary = fmt.Sprintf("Overall %.2f/%.0f (%s).", score.OverallScore, pipeline.MaxOverallScore, pipeline.Band(score.OverallScore))
	}

	var reasoning string
	switch {
	case indonesian && capped:
		reasoning = fmt.Sprintf("Ketidaksesuaian keahlian %.2f%% (%d dari %d keahlian tidak ditemukan). Skor diturunkan dari %.2f menjadi %.2f karena resume tidak relevan dengan posisi.",
			mismatch, checked-found, checked, original, score.OverallScore)
	case indonesian:
		reasoning = fmt.Sprintf("Ketidaksesuaian keahlian %.2f%% (%d dari %d keahlian tidak ditemukan). Perhitungan skor sesuai metodologi, skor akhir %.2f dipertahankan.",
			mismatch, checked-found, checked, score.OverallScore)
	case capped:
		reasoning = fmt.Sprintf("Skill mismatch %.2f%% (%d of %d skills missing). Score lowered from %.2f to %.2f because the resume is not relevant to the role.",
			mismatch, checked-found, checked, original, score.OverallScore)
	default:
		reasoning = fmt.Sprintf("Skill mismatch %.2f%% (%d of %d skills missing). Scoring follows the methodology, final score %.2f kept.",
			mismatch, checked-found, checked, score.OverallScore)
	}

	return model.FinalEvaluation{Reasoning: reasoning, Score: score}, nil
}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	}) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

func overlap(a, b map[string]bool) int {
	n := 0
	for t := range a {
		if b[t] {
			n++
		}
	}
	return n
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
