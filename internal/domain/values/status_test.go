package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_StepStatus_Precedence(t *testing.T) {
	tests := []struct {
		status     StepStatus
		precedence int
	}{
		{StepAborted, 3},
		{StepFailed, 2},
		{StepSkipped, 1},
		{StepCompleted, 0},
		{StepStatus("unknown"), -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.precedence, tt.status.Precedence())
		})
	}

	assert.True(t, StepAborted.Precedence() > StepFailed.Precedence())
	assert.True(t, StepFailed.Precedence() > StepSkipped.Precedence())
	assert.True(t, StepSkipped.Precedence() > StepCompleted.Precedence())
}

func Test_StepStatus_IsFailure(t *testing.T) {
	assert.True(t, StepFailed.IsFailure())
	assert.True(t, StepAborted.IsFailure())
	assert.False(t, StepCompleted.IsFailure())
	assert.False(t, StepSkipped.IsFailure())
}

func Test_StepStatus_IsSuccess(t *testing.T) {
	assert.True(t, StepCompleted.IsSuccess())
	assert.False(t, StepFailed.IsSuccess())
	assert.False(t, StepAborted.IsSuccess())
	assert.False(t, StepSkipped.IsSuccess())
}

func Test_StepStatus_IsSkipped(t *testing.T) {
	assert.True(t, StepSkipped.IsSkipped())
	assert.False(t, StepCompleted.IsSkipped())
	assert.False(t, StepFailed.IsSkipped())
	assert.False(t, StepAborted.IsSkipped())
}

func Test_StepStatus_Validate(t *testing.T) {
	valid := []StepStatus{StepCompleted, StepFailed, StepSkipped, StepAborted}

	for _, s := range valid {
		t.Run(string(s), func(t *testing.T) {
			assert.NoError(t, s.Validate())
		})
	}

	invalid := StepStatus("invalid")
	assert.Error(t, invalid.Validate())
}

func Test_StepStatus_Scan(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected StepStatus
		wantErr  bool
	}{
		{"string completed", "completed", StepCompleted, false},
		{"string failed", "failed", StepFailed, false},
		{"bytes", []byte("aborted"), StepAborted, false},
		{"nil", nil, StepStatus(""), false},
		{"invalid type", 123, StepStatus(""), true},
		{"invalid value", "invalid", StepStatus(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StepStatus
			err := s.Scan(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, s)
			}
		})
	}
}
