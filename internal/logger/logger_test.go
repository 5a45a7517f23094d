package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "", TruncateForLog("abc", 0))
	assert.Equal(t, "abc", TruncateForLog("  abc  ", 5))
	assert.Equal(t, "ab...", TruncateForLog("abcdef", 2))
	assert.Equal(t, "résu...", TruncateForLog("résumé", 4))
}

func TestStringFields_SkipsEmpty(t *testing.T) {
	fields := StringFields(
		StringField{Key: "a", Value: " 1 "},
		StringField{Key: "", Value: "x"},
		StringField{Key: "b", Value: "   "},
	)
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "1", fields[0].String)
}

func TestWithFields_NilLogger(t *testing.T) {
	assert.NotNil(t, WithFields(nil))
	assert.NotNil(t, WithProvider(nil, "rules", ""))
}

func TestRunFields_Attached(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := WithFields(zap.New(core), RunFields("abc", "audit")...)
	l.Info("stage completed")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx[FieldSession])
	assert.Equal(t, "audit", ctx[FieldStage])
}
