package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type state string

func (s state) String() string { return "state:" + string(s) }

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time type", []any{"t", now}, []string{"t"}},
		{"error only", []any{err}, []string{"error"}},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "num", int64(42)}, []string{"msg", "x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"stringer", []any{"state", state("Associated")}, []string{"state"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			require.Len(t, fields, len(tt.wantKeys))
			for i, f := range fields {
				assert.Equal(t, tt.wantKeys[i], f.Key)
			}
		})
	}
}

func TestTypedFieldStringer(t *testing.T) {
	f := typedField("state", state("Suspended"))
	assert.Equal(t, zapcore.StringerType, f.Type)
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Level = "loud"
	opts.Format = "xml"
	assert.Len(t, opts.Validate(), 2)
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })

	assert.Error(t, SetLevel("verbose"))
	assert.NoError(t, SetLevel("debug"))
	assert.Equal(t, "debug", Level())
}
