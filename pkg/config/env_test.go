package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	assert.Equal(t, "value", GetEnvString("TEST_STR", "default"))

	t.Setenv("TEST_STR", "   ")
	assert.Equal(t, "default", GetEnvString("TEST_STR", "default"))

	assert.Equal(t, "default", GetEnvString("TEST_STR_UNSET", "default"))
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "42", 42},
		{"negative", "-3", -3},
		{"padded", " 7 ", 7},
		{"invalid", "abc", 10},
		{"empty", "", 10},
		{"float", "1.5", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			assert.Equal(t, tt.want, GetEnvInt("TEST_INT", 10))
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, GetEnvFloat("TEST_FLOAT", 1))

	t.Setenv("TEST_FLOAT", "fast")
	assert.Equal(t, 1.0, GetEnvFloat("TEST_FLOAT", 1))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"yes", true, true},
		{"yes", false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, GetEnvBool("TEST_BOOL", tt.def))
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "1m30s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DUR", time.Second))

	t.Setenv("TEST_DUR", "90")
	assert.Equal(t, time.Second, GetEnvDuration("TEST_DUR", time.Second))
}

func TestGetEnvStringList(t *testing.T) {
	def := []string{"a"}

	t.Setenv("TEST_LIST", " x, ,y ,z")
	assert.Equal(t, []string{"x", "y", "z"}, GetEnvStringList("TEST_LIST", def))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, def, GetEnvStringList("TEST_LIST", def))

	t.Setenv("TEST_LIST", "")
	assert.Equal(t, def, GetEnvStringList("TEST_LIST", def))
}

func TestValidateDurations(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))

	assert.NoError(t, ValidateDurationRange(time.Minute, time.Second, time.Hour))
	assert.NoError(t, ValidateDurationRange(time.Second, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Millisecond, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Minute, time.Hour, time.Second))
}

func TestValidateFraction(t *testing.T) {
	for _, f := range []float64{0, 0.25, 1} {
		assert.NoError(t, ValidateFraction(f), f)
	}
	for _, f := range []float64{-0.1, 1.01} {
		assert.Error(t, ValidateFraction(f), f)
	}
}
