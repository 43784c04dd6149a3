package domain

import "strings"

type CatalogueCategory string

const (
	CatalogueForRent CatalogueCategory = "For Rent"
	CatalogueForSale CatalogueCategory = "For Sale"
	CatalogueProduct CatalogueCategory = "Product"
	CatalogueService CatalogueCategory = "Service"
)

const (
	DefaultCatalogueImage  = "https://picsum.photos/seed/catalogueitem/400/300"
	DefaultCatalogueBanner = "https://picsum.photos/seed/defaultcatbanner/800/400"
)

// MaxImages is the upload cap per item: listings for rent or sale get five
// photos, everything else three.
func (c CatalogueCategory) MaxImages() int {
	if c == CatalogueForRent || c == CatalogueForSale {
		return 5
	}
	return 3
}

type CatalogueItem struct {
	ID           int64             `json:"id" yaml:"id"`
	ProviderID   int64             `json:"provider_id" yaml:"provider_id"`
	Title        string            `json:"title" yaml:"title"`
	Category     CatalogueCategory `json:"category" yaml:"category"`
	Description  string            `json:"description" yaml:"description"`
	Price        string            `json:"price" yaml:"price"`
	ImageURLs    []string          `json:"image_urls" yaml:"image_urls"`
	ExternalLink string            `json:"external_link,omitempty" yaml:"external_link"`
}

type CatalogueItemRequest struct {
	Title        string            `json:"title"`
	Category     CatalogueCategory `json:"category"`
	Description  string            `json:"description"`
	Price        string            `json:"price"`
	ImageURLs    []string          `json:"image_urls"`
	ExternalLink string            `json:"external_link"`
}

func (r *CatalogueItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Price = strings.TrimSpace(r.Price)
	r.ExternalLink = strings.TrimSpace(r.ExternalLink)
	if r.Category == "" {
		r.Category = CatalogueProduct
	}
	images := make([]string, 0, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	if len(images) == 0 {
		images = append(images, DefaultCatalogueImage)
	}
	r.ImageURLs = images
}

func (r CatalogueItemRequest) Validate() error {
	var errs ValidationErrors
	errs.Required("title", r.Title)
	errs.Required("price", r.Price)
	errs.Required("description", r.Description)
	switch r.Category {
	case CatalogueForRent, CatalogueForSale, CatalogueProduct, CatalogueService:
		if len(r.ImageURLs) > r.Category.MaxImages() {
			errs.Add("image_urls", "too many images for this category")
		}
	default:
		errs.Add("category", "is not a catalogue category")
	}
	return errs.Err()
}
