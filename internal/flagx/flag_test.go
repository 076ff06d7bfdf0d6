package flagx

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.json", "-a", "localhost"},
			allowed: []string{"--config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-v"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-k", "secret"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "order and repeats preserved",
			args:    []string{"-a", ":8080", "-c", "one.json", "-p", "x", "-c", "two.json"},
			allowed: []string{"-a", "-c"},
			want:    []string{"-a", ":8080", "-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/short.json", ConfigPath([]string{"-c", "/etc/short.json"}))
	assert.Equal(t, "/etc/long.json", ConfigPath([]string{"-a", ":1", "-config", "/etc/long.json"}))
	assert.Equal(t, "/etc/eq.json", ConfigPath([]string{"--config=/etc/eq.json"}))
	assert.Equal(t, "2.json", ConfigPath([]string{"-c", "1.json", "-config", "2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
	assert.Empty(t, ConfigPath(nil))
}

func TestStringList(t *testing.T) {
	var l StringList
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	fs.Var(&l, "l", "list")

	require.NoError(t, fs.Parse([]string{"-l", "repos/a/, repos/b/,,"}))
	assert.Equal(t, StringList{"repos/a/", "repos/b/"}, l)
	assert.Equal(t, "repos/a/,repos/b/", l.String())

	require.NoError(t, l.Set(""))
	assert.Empty(t, l)

	var nilList *StringList
	assert.Equal(t, "", nilList.String())
}
