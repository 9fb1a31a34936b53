package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common/config"
	commonerrors "storefront/internal/common/errors"
	"storefront/internal/common/logger"
	"storefront/internal/models"
	"storefront/internal/selection"
)

const testConfigYAML = `
app:
  name: storefront-test
  version: test
catalog:
  default_product_id: prod34521304
logging:
  level: error
  format: console
  output: stderr
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
		wantErr bool
	}{
		{name: "empty", entries: nil, want: "{}"},
		{name: "keeps order", entries: []string{"Size=s1", "Color=c1"}, want: `{"Size":"s1","Color":"c1"}`},
		{name: "later entry replaces", entries: []string{"Size=s1", "Size=s2"}, want: `{"Size":"s2"}`},
		{name: "cleared value", entries: []string{"Size="}, want: `{"Size":""}`},
		{name: "missing separator", entries: []string{"Size"}, wantErr: true},
		{name: "missing type", entries: []string{"=s1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := parseSelection(tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, selection.ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.String())
		})
	}
}

func TestNewApp_FallsBackToSampleData(t *testing.T) {
	cfg, err := config.LoadFromFile(writeConfig(t))
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Nil(t, a.search)
	assert.Empty(t, a.checks)

	deps := a.serverDeps()
	assert.Nil(t, deps.Search)
	assert.Equal(t, "prod34521304", deps.Codec.DefaultProductID)

	p, err := a.products.Fetch(context.Background(), "prod34521304")
	require.NoError(t, err)
	assert.Equal(t, "Sample Product", p.DisplayName)

	result, err := a.options.Fetch(context.Background(), "prod34521304", selection.New())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Options)
}

func TestNewApp_ConnectFailureIsClassified(t *testing.T) {
	tests := []struct {
		name   string
		enable func(*config.Config)
		want   commonerrors.ErrorCode
	}{
		{
			name: "elasticsearch",
			enable: func(c *config.Config) {
				c.Database.Elasticsearch = config.ElasticsearchConfig{Enabled: true, Addresses: []string{"http://127.0.0.1:1"}}
			},
			want: commonerrors.ErrCodeElasticsearchConnectionFailed,
		},
		{
			name: "postgres",
			enable: func(c *config.Config) {
				c.Database.Postgres = config.PostgresConfig{Enabled: true, Host: "127.0.0.1", Port: 1, Database: "x", User: "x", SSLMode: "disable"}
			},
			want: commonerrors.ErrCodeDatabaseConnectionFailed,
		},
		{
			name: "redis",
			enable: func(c *config.Config) {
				c.Database.Redis = config.RedisConfig{Enabled: true, Address: "127.0.0.1:1"}
			},
			want: commonerrors.ErrCodeCacheUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFromFile(writeConfig(t))
			require.NoError(t, err)
			tt.enable(cfg)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			a, err := newApp(ctx, cfg, logger.NewTestLogger(t))
			require.Error(t, err)
			assert.Nil(t, a)

			var stdErr *commonerrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.want, stdErr.Code)
			assert.True(t, stdErr.Retryable)
		})
	}
}

func TestOptionsCommand(t *testing.T) {
	out, err := execute(t, "options", "--select", "Size=opt-size-82")
	require.NoError(t, err)

	var result models.CatalogResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Options, 7)
	require.NotNil(t, result.Summary)
	assert.Equal(t, "Sample Product", result.Summary.ProductName)
}

func TestProductCommand(t *testing.T) {
	out, err := execute(t, "product", "prod34521304")
	require.NoError(t, err)

	var p models.Product
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "prod34521304", p.ID)

	_, err = execute(t, "product", "unknown")
	assert.Error(t, err)
}

func TestSearchCommand_RequiresElasticsearch(t *testing.T) {
	_, err := execute(t, "search", "sofa")
	assert.ErrorContains(t, err, "elasticsearch")
}
