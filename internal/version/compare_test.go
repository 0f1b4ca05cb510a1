package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVersionCompatibility(t *testing.T) {
	tests := []struct {
		name            string
		engineVersion   string
		requiredVersion string
		expectError     bool
		errorContains   string
	}{
		// Compatible cases
		{
			name:            "exact match",
			engineVersion:   "1.2.0",
			requiredVersion: "1.2.0",
			expectError:     false,
		},
		{
			name:            "engine patch higher",
			engineVersion:   "1.2.1",
			requiredVersion: "1.2.0",
			expectError:     false,
		},
		{
			name:            "required patch higher",
			engineVersion:   "1.2.0",
			requiredVersion: "1.2.5",
			expectError:     false,
		},
		{
			name:            "engine minor higher",
			engineVersion:   "1.3.0",
			requiredVersion: "1.2.0",
			expectError:     false,
		},
		{
			name:            "v prefix stripped",
			engineVersion:   "v1.2.0",
			requiredVersion: "v1.2.0",
			expectError:     false,
		},

		// Incompatible cases
		{
			name:            "engine minor lower",
			engineVersion:   "1.1.0",
			requiredVersion: "1.2.0",
			expectError:     true,
			errorContains:   "older than required",
		},
		{
			name:            "major version differs",
			engineVersion:   "2.0.0",
			requiredVersion: "1.2.0",
			expectError:     true,
			errorContains:   "major version mismatch",
		},

		// Dev builds skip the check
		{
			name:            "engine is main",
			engineVersion:   "main",
			requiredVersion: "1.2.0",
			expectError:     false,
		},
		{
			name:            "required is main",
			engineVersion:   "1.2.0",
			requiredVersion: "main",
			expectError:     false,
		},
		{
			name:            "both are main",
			engineVersion:   "main",
			requiredVersion: "main",
			expectError:     false,
		},

		// Malformed versions
		{
			name:            "invalid engine version",
			engineVersion:   "not-a-version",
			requiredVersion: "1.2.0",
			expectError:     true,
			errorContains:   "invalid engine version",
		},
		{
			name:            "invalid required version",
			engineVersion:   "1.2.0",
			requiredVersion: "garbage",
			expectError:     true,
			errorContains:   "invalid required version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVersionCompatibility(tt.engineVersion, tt.requiredVersion)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
	assert.NotEmpty(t, GetVersion())
}
