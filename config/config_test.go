package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvsWithPrefix(t *testing.T) {
	t.Setenv("TSFIT_FOO", "foo-val")
	t.Setenv("TSFIT_BAR", "bar-val")
	t.Setenv("OTHER_BAZ", "should-not-expand")

	tests := []struct {
		name     string
		input    string
		prefix   string
		expected string
	}{
		{
			name:     "expand single matching var",
			input:    "value=${TSFIT_FOO}",
			prefix:   "TSFIT_",
			expected: "value=foo-val",
		},
		{
			name:     "expand multiple matching vars",
			input:    "one=${TSFIT_FOO}, two=${TSFIT_BAR}",
			prefix:   "TSFIT_",
			expected: "one=foo-val, two=bar-val",
		},
		{
			name:     "ignore unmatched var (wrong prefix)",
			input:    "value=${OTHER_BAZ}",
			prefix:   "TSFIT_",
			expected: "value=${OTHER_BAZ}",
		},
		{
			name:     "undefined env var with correct prefix",
			input:    "value=${TSFIT_UNKNOWN}",
			prefix:   "TSFIT_",
			expected: "value=",
		},
		{
			name:     "empty input string",
			input:    "",
			prefix:   "TSFIT_",
			expected: "",
		},
		{
			name:     "no variable placeholders",
			input:    "static string",
			prefix:   "TSFIT_",
			expected: "static string",
		},
		{
			name:     "empty prefix allows all expansions",
			input:    "x=${TSFIT_FOO}, y=${OTHER_BAZ}",
			prefix:   "",
			expected: "x=foo-val, y=should-not-expand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandEnvsWithPrefix(tt.input, tt.prefix))
		})
	}
}

const sampleConfig = `
main:
  directory: /tmp/tsfit
log:
  level: debug
  format: json
model:
  name: well-1
  observations: testdata/head.csv
  stresses:
    - name: rain
      path: testdata/rain.csv
plot:
  backends: [echarts]
  width: 800
serve:
  cron: "*/15 * * * *"
storage:
  name: local
  compression:
    algo: gzip
  encryption:
    algo: aes-256-gcm
    pass: ${TSFIT_ENC_PASS}
`

func TestMustLoad_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TSFIT_ENC_PASS", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o640))

	cfg := MustLoad(path, ModeServe)
	assert.Equal(t, "/tmp/tsfit", cfg.Main.Directory)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "well-1", cfg.Model.Name)
	assert.Equal(t, []string{"echarts"}, cfg.Plot.Backends)
	assert.Equal(t, 800, cfg.Plot.Width)
	assert.Equal(t, "*/15 * * * *", cfg.Serve.Cron)
	assert.Equal(t, "s3cret", cfg.Storage.Encryption.Pass)

	// defaults applied where the file is silent
	assert.Equal(t, 7070, cfg.Serve.ListenPort)
	assert.Equal(t, 10, cfg.Serve.Retention.KeepLast)
	assert.True(t, cfg.HasExternalStorageConfigured())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Main: MainConfig{Directory: "/tmp/x"},
			Model: ModelConfig{
				Observations: "head.csv",
				Stresses:     []StressConfig{{Name: "rain", Path: "rain.csv"}},
			},
			Plot:  PlotConfig{Backends: []string{"gplot"}},
			Serve: ServeConfig{ListenPort: 7070},
		}
	}

	assert.NoError(t, base().Validate(ModeFit))
	assert.NoError(t, base().Validate(ModeRender))
	assert.NoError(t, base().Validate(ModeServe))
	assert.Error(t, base().Validate("bogus"))

	c := base()
	c.Model.Observations = ""
	assert.Error(t, c.Validate(ModeFit))

	c = base()
	c.Model.Stresses = nil
	assert.Error(t, c.Validate(ModeFit))

	c = base()
	c.Plot.Backends = nil
	assert.NoError(t, c.Validate(ModeFit), "fit does not render")
	assert.Error(t, c.Validate(ModeRender))

	c = base()
	c.Main.Directory = ""
	assert.Error(t, c.Validate(ModeServe))

	c = base()
	c.Storage.Name = "ftp"
	assert.Error(t, c.Validate(ModeFit))
}

func TestString_MasksSecrets(t *testing.T) {
	c := &Config{}
	c.Storage.Encryption.Pass = "hunter2"
	c.Storage.S3.SecretAccessKey = "aws-secret"

	dump := c.String()
	assert.NotContains(t, dump, "hunter2")
	assert.NotContains(t, dump, "aws-secret")
	assert.Contains(t, dump, "***")
}
