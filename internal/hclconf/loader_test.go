package hclconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/stretchr/testify/require"

	"github.com/vk/draftpipe/internal/tier"
)

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoad_NoPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, model.Service.Workers)
	require.Equal(t, 3, model.Service.MaxRevisions)
	require.Equal(t, 3, model.Retry.MaxRetries)
	require.Equal(t, float64(2), model.Retry.BackoffBase)
	require.Nil(t, model.LLM)
	require.Nil(t, model.Search)
	require.Nil(t, model.Events)
}

func TestLoad_FullConfig(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, map[string]string{
		"main.hcl": `
service {
  workers       = 8
  max_revisions = 5
  writing_style = "casual"
  soft_timeout  = "2m"
  hard_timeout  = "3m"
}

retry {
  max_retries  = 4
  backoff_base = 1.5
}

tier "premium" {
  per_minute = 200
  per_day    = 20000
}

llm "openai" {
  model = "gpt-4-turbo"
}

search "http" {
  endpoint = "http://search.internal/query"
}

events "socketio" {
  url = "ws://events.internal/socket.io"
}
`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, 8, model.Service.Workers)
	require.Equal(t, 5, model.Service.MaxRevisions)
	require.Equal(t, "casual", model.Service.WritingStyle)
	require.Equal(t, 2*time.Minute, model.Service.SoftTimeout)
	require.Equal(t, 3*time.Minute, model.Service.HardTimeout)

	require.Equal(t, 4, model.Retry.MaxRetries)
	require.Equal(t, 1.5, model.Retry.BackoffBase)

	require.Equal(t, tier.Quota{PerMinute: 200, PerDay: 20000}, model.Quotas[tier.Premium])
	require.Equal(t, tier.Quota{PerMinute: 10, PerDay: 100}, model.Quotas[tier.Free],
		"unmentioned tiers keep their defaults")

	require.NotNil(t, model.LLM)
	require.Equal(t, "openai", model.LLM.Kind)
	require.NotNil(t, model.Search)
	require.Equal(t, "http", model.Search.Kind)
	require.NotNil(t, model.Events)
	require.Equal(t, "socketio", model.Events.Kind)
}

func TestLoad_ProviderBodyStaysDecodable(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, map[string]string{
		"llm.hcl": `
llm "openai" {
  model       = "gpt-4-turbo"
  api_key_env = "MY_KEY"
}
`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, model.LLM)

	var settings struct {
		Model     string  `hcl:"model"`
		APIKeyEnv *string `hcl:"api_key_env,optional"`
	}
	diags := gohcl.DecodeBody(model.LLM.Body, nil, &settings)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Equal(t, "gpt-4-turbo", settings.Model)
	require.NotNil(t, settings.APIKeyEnv)
	require.Equal(t, "MY_KEY", *settings.APIKeyEnv)
}

func TestLoad_MergesMultipleFiles(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, map[string]string{
		"a.hcl": `
service {
  workers = 2
}
`,
		"b.hcl": `
retry {
  max_retries = 7
}
`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, model.Service.Workers)
	require.Equal(t, 7, model.Retry.MaxRetries)
	require.Equal(t, 3, model.Service.MaxRevisions, "untouched settings keep defaults")
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		hcl  string
	}{
		{
			name: "unknown tier name",
			hcl: `
tier "gold" {
  per_minute = 1
  per_day    = 1
}
`,
		},
		{
			name: "invalid duration",
			hcl: `
service {
  soft_timeout = "four minutes"
}
`,
		},
		{
			name: "malformed hcl",
			hcl:  `service { workers = `,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := writeConfig(t, map[string]string{"bad.hcl": tc.hcl})
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
		})
	}
}

func TestLoad_SingleFilePath(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, map[string]string{
		"only.hcl": `
service {
  workers = 9
}
`,
	})

	model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "only.hcl"))
	require.NoError(t, err)
	require.Equal(t, 9, model.Service.Workers)
}
