package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.DataBackend)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.InDelta(t, 0.18, cfg.Clinic.TaxRate, 1e-9)
	assert.True(t, cfg.Clinic.HasPaymentMethod("cash"))
	assert.True(t, cfg.Clinic.HasPaymentMethod("transfer"))
	assert.False(t, cfg.Clinic.HasPaymentMethod("crypto"))
	assert.Empty(t, cfg.RabbitURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "HTTP")
	t.Setenv("DATA_API_URL", "http://data-api:8082")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("TAX_RATE", "0.16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendHTTP, cfg.DataBackend)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.InDelta(t, 0.16, cfg.Clinic.TaxRate, 1e-9)
}

func TestLoad_ClinicFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clinic:
  name: Happy Paws
  currency: EUR
  timezone: Europe/Madrid
  paymentMethods:
    - id: cash
      name: Efectivo
    - id: bizum
      name: Bizum
`), 0o600))
	t.Setenv("POS_CONFIG_FILE", path)
	t.Setenv("CLINIC_CURRENCY", "GBP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Happy Paws", cfg.Clinic.Name)
	assert.Equal(t, "GBP", cfg.Clinic.Currency)
	assert.InDelta(t, 0.18, cfg.Clinic.TaxRate, 1e-9, "unset keys keep their defaults")
	assert.True(t, cfg.Clinic.HasPaymentMethod("bizum"))
	assert.False(t, cfg.Clinic.HasPaymentMethod("card"))
	assert.Equal(t, "Efectivo", cfg.Clinic.MethodNames()["cash"])
	assert.Equal(t, "Europe/Madrid", cfg.Clinic.Location().String())
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":   {"DATA_BACKEND": "mongo"},
		"http without url":  {"DATA_BACKEND": "http"},
		"bad tax rate":      {"TAX_RATE": "abc"},
		"tax out of range":  {"TAX_RATE": "1.5"},
		"missing yaml file": {"POS_CONFIG_FILE": "/does/not/exist.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestValidate_DuplicateMethods(t *testing.T) {
	cfg := Config{DataBackend: BackendPostgres, Clinic: defaultClinic()}
	cfg.Clinic.PaymentMethods = append(cfg.Clinic.PaymentMethods, PaymentMethod{ID: "cash"})
	require.ErrorContains(t, cfg.Validate(), "duplicate")
}
