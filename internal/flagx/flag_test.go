package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		names []string
		want  []string
	}{
		{
			name:  "short flag with separate value",
			args:  []string{"-c", "conf.json", "-a", "http://localhost:3000"},
			names: []string{"-c", "-config"},
			want:  []string{"-c", "conf.json"},
		},
		{
			name:  "flag with equals",
			args:  []string{"-config=alt.json", "-m", "provider"},
			names: []string{"-c", "-config"},
			want:  []string{"-config=alt.json"},
		},
		{
			name:  "order preserved across forms",
			args:  []string{"-config=first.json", "-c", "second.json", "-x", "1"},
			names: []string{"-c", "-config"},
			want:  []string{"-config=first.json", "-c", "second.json"},
		},
		{
			name:  "unknown flags and positionals ignored",
			args:  []string{"-x", "1", "-y=2", "positional"},
			names: []string{"-c"},
			want:  []string{},
		},
		{
			name:  "trailing flag without value kept",
			args:  []string{"-c"},
			names: []string{"-c"},
			want:  []string{"-c"},
		},
		{
			name:  "next flag is not consumed as value",
			args:  []string{"-c", "-m", "token"},
			names: []string{"-c"},
			want:  []string{"-c"},
		},
		{
			name:  "equals value that looks like a flag",
			args:  []string{"-config=--weird.json"},
			names: []string{"-config"},
			want:  []string{"-config=--weird.json"},
		},
		{
			name:  "nil args",
			args:  nil,
			names: []string{"-c"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.args, tt.names...))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-a", "x", "-c", "client.json"}, "client.json"},
		{"long", []string{"-config", "client.json"}, "client.json"},
		{"equals", []string{"-config=client.json", "-m", "token"}, "client.json"},
		{"absent", []string{"-m", "token"}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
