package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AllStageProfiles(t *testing.T) {
	ClearCache()
	for _, name := range []string{
		"extraction",
		"skill_matching",
		"experience_scoring",
		"education_scoring",
		"final_aggregation",
		"audit",
	} {
		prompt, err := Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, prompt, name)
	}
}

func TestGet_Missing(t *testing.T) {
	_, err := Get("does_not_exist")
	assert.Error(t, err)
	assert.Panics(t, func() { MustGet("does_not_exist") })
}

func TestGet_Cached(t *testing.T) {
	ClearCache()
	first, err := Get("audit")
	require.NoError(t, err)

	cacheMu.RLock()
	_, cached := cache["audit"]
	cacheMu.RUnlock()
	assert.True(t, cached)

	second, err := Get("audit")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFormat(t *testing.T) {
	got := Format("Write in {{.Language}}. {{.Language}} only. {{.Unknown}}", map[string]string{"Language": "Indonesian"})
	assert.Equal(t, "Write in Indonesian. Indonesian only. {{.Unknown}}", got)
}

func TestAuditProfile_HasLanguagePlaceholder(t *testing.T) {
	prompt := MustGet("audit")
	assert.Contains(t, prompt, "{{.Language}}")
	assert.Contains(t, Format(prompt, map[string]string{"Language": "English"}), "strictly in English")
}
