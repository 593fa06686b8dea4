// SPDX-License-Identifier: MPL-2.0

package wdkmeta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDriverType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    DriverType
		wantErr bool
	}{
		{name: "kmdf lower", input: "kmdf", want: DriverTypeKmdf},
		{name: "umdf upper", input: "UMDF", want: DriverTypeUmdf},
		{name: "wdm mixed", input: "Wdm", want: DriverTypeWdm},
		{name: "padded", input: "  kmdf ", want: DriverTypeKmdf},
		{name: "unknown", input: "kmdf2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDriverType(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDriverType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriverConfig_BinaryExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sys", DriverConfig{DriverType: DriverTypeWdm}.BinaryExtension())
	assert.Equal(t, "sys", DriverConfig{DriverType: DriverTypeKmdf}.BinaryExtension())
	assert.Equal(t, "dll", DriverConfig{DriverType: DriverTypeUmdf}.BinaryExtension())
}

func TestDriverConfig_StampVersionFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config DriverConfig
		want   []string
	}{
		{
			name:   "wdm has no framework flags",
			config: DriverConfig{DriverType: DriverTypeWdm},
			want:   nil,
		},
		{
			name: "kmdf major.minor",
			config: DriverConfig{
				DriverType: DriverTypeKmdf,
				Kmdf:       KmdfConfig{KmdfVersionMajor: 1, TargetKmdfVersionMinor: 33},
			},
			want: []string{"-k", "1.33"},
		},
		{
			name: "umdf major.minor.0",
			config: DriverConfig{
				DriverType: DriverTypeUmdf,
				Umdf:       UmdfConfig{UmdfVersionMajor: 2, TargetUmdfVersionMinor: 33},
			},
			want: []string{"-u", "2.33.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.config.StampVersionFlags())
		})
	}
}

func TestDriverConfig_InfVerifModelFlag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/w", DriverConfig{DriverType: DriverTypeWdm}.InfVerifModelFlag())
	assert.Equal(t, "/w", DriverConfig{DriverType: DriverTypeKmdf}.InfVerifModelFlag())
	assert.Equal(t, "/u", DriverConfig{DriverType: DriverTypeUmdf}.InfVerifModelFlag())
}

func TestDriverConfig_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    DriverConfig
		wantErr error
	}{
		{
			name:  "kmdf with explicit versions",
			input: `{"driver-type":"KMDF","kmdf-version-major":1,"target-kmdf-version-minor":33}`,
			want: DriverConfig{
				DriverType: DriverTypeKmdf,
				Kmdf:       KmdfConfig{KmdfVersionMajor: 1, TargetKmdfVersionMinor: 33},
			},
		},
		{
			name:  "kmdf defaults target minor",
			input: `{"driver-type":"KMDF","kmdf-version-major":1}`,
			want: DriverConfig{
				DriverType: DriverTypeKmdf,
				Kmdf:       KmdfConfig{KmdfVersionMajor: 1, TargetKmdfVersionMinor: 33},
			},
		},
		{
			name:  "umdf",
			input: `{"driver-type":"UMDF","umdf-version-major":2,"target-umdf-version-minor":15}`,
			want: DriverConfig{
				DriverType: DriverTypeUmdf,
				Umdf:       UmdfConfig{UmdfVersionMajor: 2, TargetUmdfVersionMinor: 15},
			},
		},
		{
			name:  "wdm carries nothing",
			input: `{"driver-type":"WDM"}`,
			want:  DriverConfig{DriverType: DriverTypeWdm},
		},
		{
			name:    "kmdf missing major version",
			input:   `{"driver-type":"KMDF"}`,
			wantErr: ErrMissingFrameworkVersion,
		},
		{
			name:    "unknown driver type",
			input:   `{"driver-type":"XDMF"}`,
			wantErr: ErrInvalidDriverType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got DriverConfig
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Structural equality over the variant is what the configuration resolver
// dedups on, so it must hold across independently decoded values.
func TestDriverConfig_StructuralEquality(t *testing.T) {
	t.Parallel()

	input := `{"driver-type":"KMDF","kmdf-version-major":1,"target-kmdf-version-minor":33}`

	var a, b DriverConfig
	require.NoError(t, json.Unmarshal([]byte(input), &a))
	require.NoError(t, json.Unmarshal([]byte(input), &b))

	assert.True(t, a == b)

	seen := map[DriverConfig]struct{}{a: {}}
	_, ok := seen[b]
	assert.True(t, ok, "equal configurations must collapse to one map key")
}
