package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.HTTP.ReadTimeout)
	assert.Equal(t, "orderflow_admin", cfg.Session.CookieName)
	assert.Equal(t, []string{"info@pixelnextdigital.com"}, cfg.Email.AdminRecipients)
	assert.False(t, cfg.Email.Configured())
	assert.False(t, cfg.Supabase.Configured())
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: supabase
supabase:
  url: https://project.supabase.co
  anon_key: anon
database:
  conn_max_lifetime: 1h
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ORDERFLOW_EMAIL_RESEND_API_KEY", "re_test")
	t.Setenv("ORDERFLOW_STRIPE_WEBHOOK_SECRET", "whsec_env")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, StoreDriverSupabase, cfg.Store.Driver)
	assert.True(t, cfg.Supabase.Configured())
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Email.Configured())
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "orderflow", SSLMode: "require"}

	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=orderflow sslmode=require", cfg.DSN())
}
