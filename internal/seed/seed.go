// Package seed loads the starting catalogue for the marketplace: categories,
// referral codes, providers, banners, events and the rest of the demo data.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/utils"
)

//go:embed seed.yaml
var embedded []byte

type Data struct {
	Categories     []domain.Category      `yaml:"categories"`
	DefaultBanners map[string]string      `yaml:"default_banners"`
	ReferralCodes  []domain.ReferralCode  `yaml:"referral_codes"`
	Providers      []domain.Provider      `yaml:"providers"`
	Banners        []domain.SpecialBanner `yaml:"banners"`
	Events         []domain.Event         `yaml:"events"`
	CatalogueItems []domain.CatalogueItem `yaml:"catalogue_items"`
	UserTickets    []domain.Ticket        `yaml:"user_tickets"`
	Documents      []domain.Document      `yaml:"documents"`
	Invitations    []domain.Invitation    `yaml:"invitations"`
	Inbox          []domain.InboxMessage  `yaml:"inbox"`
}

// Load parses path when set, otherwise the embedded catalogue.
func Load(path string) (*Data, error) {
	if path == "" {
		return Parse(embedded)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the references a store relies on: unique provider ids and
// phones, known categories, and catalogue items owned by a seeded provider.
func (d *Data) Validate() error {
	var errs domain.ValidationErrors

	categories := map[string]bool{}
	for _, c := range d.Categories {
		if c.Name == "" {
			errs.Add("categories", "category name is required")
			continue
		}
		if categories[c.Name] {
			errs.Add("categories", "duplicate category "+c.Name)
		}
		categories[c.Name] = true
	}

	ids := map[int64]bool{}
	phones := map[string]bool{}
	for _, p := range d.Providers {
		field := fmt.Sprintf("providers[%d]", p.ID)
		if p.ID <= 0 {
			errs.Add(field, "id must be positive")
		}
		if ids[p.ID] {
			errs.Add(field, "duplicate id")
		}
		ids[p.ID] = true

		phone, ok := utils.NormalizePhone(p.Phone)
		if !ok {
			errs.Add(field, "invalid phone "+p.Phone)
		} else if phones[phone] {
			errs.Add(field, "duplicate phone "+p.Phone)
		}
		phones[phone] = true

		if !categories[p.Category] {
			errs.Add(field, "unknown category "+p.Category)
		}
	}

	for _, rc := range d.ReferralCodes {
		if rc.Category != "" && !categories[rc.Category] {
			errs.Add("referral_codes", "unknown category "+rc.Category+" for "+rc.Code)
		}
	}

	for _, item := range d.CatalogueItems {
		if !ids[item.ProviderID] {
			errs.Add("catalogue_items", fmt.Sprintf("item %d references unknown provider %d", item.ID, item.ProviderID))
		}
	}

	for i := range d.Banners {
		d.Banners[i].Normalize()
		if err := d.Banners[i].Validate(); err != nil {
			errs.Add("banners", fmt.Sprintf("banner %d: %v", d.Banners[i].ID, err))
		}
	}

	if err := errs.Err(); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	return nil
}

// Summary counts each collection, for the seed command.
func (d *Data) Summary() map[string]int {
	return map[string]int{
		"categories":      len(d.Categories),
		"referral_codes":  len(d.ReferralCodes),
		"providers":       len(d.Providers),
		"banners":         len(d.Banners),
		"events":          len(d.Events),
		"catalogue_items": len(d.CatalogueItems),
		"user_tickets":    len(d.UserTickets),
		"documents":       len(d.Documents),
		"invitations":     len(d.Invitations),
		"inbox":           len(d.Inbox),
	}
}
