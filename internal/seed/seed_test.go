package seed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/seed"
)

func TestLoadEmbedded(t *testing.T) {
	d, err := seed.Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, d.Categories)
	assert.NotEmpty(t, d.Providers)
	assert.Contains(t, d.DefaultBanners, "Home")

	var kplc *domain.ReferralCode
	for i := range d.ReferralCodes {
		if d.ReferralCodes[i].Code == "KPLC" {
			kplc = &d.ReferralCodes[i]
		}
	}
	require.NotNil(t, kplc)
	assert.True(t, kplc.IsVerified)

	for _, p := range d.Providers {
		assert.NotEmpty(t, p.CTA, "provider %d has no call to action", p.ID)
	}
	assert.False(t, d.Inbox[0].Timestamp.IsZero())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	raw := []byte(`
categories:
  - name: Home
    services: [Plumber]
providers:
  - id: 1
    name: Juma
    phone: "0722000001"
    service: Plumber
    category: Home
    location: Ngong Road, Nairobi
    cta: [call]
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	d, err := seed.Load(path)
	require.NoError(t, err)
	require.Len(t, d.Providers, 1)
	assert.Equal(t, "Nairobi", d.Providers[0].Area())
	assert.Equal(t, 1, d.Summary()["providers"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"duplicate phone", `
categories: [{name: Home}]
providers:
  - {id: 1, phone: "0722000001", category: Home}
  - {id: 2, phone: "+254722000001", category: Home}
`},
		{"unknown category", `
categories: [{name: Home}]
providers:
  - {id: 1, phone: "0722000001", category: Gas}
`},
		{"orphan catalogue item", `
categories: [{name: Home}]
providers:
  - {id: 1, phone: "0722000001", category: Home}
catalogue_items:
  - {id: 1, provider_id: 9, title: Drill}
`},
		{"banner without image", `
banners:
  - {id: 1, target_category: Home}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}
