package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-a", ":8080"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-a", ":8080"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "flag followed by another flag has no value",
			args:    []string{"-c", "-a", ":8080"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "order preserved",
			args:    []string{"-d", "dsn", "-a", ":1", "-s", "k"},
			allowed: []string{"-a", "-s"},
			want:    []string{"-a", ":1", "-s", "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestStripArgs(t *testing.T) {
	known := []string{"-c", "-config", "-d"}

	assert.Equal(t,
		[]string{"create-admin", "-email", "a@b.c"},
		StripArgs([]string{"-c", "conf.json", "create-admin", "-d=postgres://x", "-email", "a@b.c"}, known))
	assert.Equal(t, []string{"migrate"}, StripArgs([]string{"-config", "-d", "dsn", "migrate"}, known))
	assert.Empty(t, StripArgs(nil, known))
}

func TestConfigFileFlag(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-a", ":8080", "-config", "server.json"}
	assert.Equal(t, "server.json", ConfigFileFlag())

	os.Args = []string{"bin", "-c=short.json"}
	assert.Equal(t, "short.json", ConfigFileFlag())

	os.Args = []string{"bin", "-a", ":8080"}
	assert.Equal(t, "", ConfigFileFlag())
}
