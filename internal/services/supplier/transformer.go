package supplier

import (
	"math"
	"strconv"
	"strings"

	"dropspot/internal/models"
)

// Transform converts a supplier catalog product into a catalog Product.
// The niche assignment is left to the caller.
func Transform(cp CatalogProduct) models.Product {
	product := models.Product{
		Title:    strings.TrimSpace(cp.Title),
		Price:    parsePrice(cp.Price),
		Currency: cp.Currency,
		Active:   true,
	}

	if product.Currency == "" {
		product.Currency = "USD"
	}

	if desc := strings.TrimSpace(stripHTML(cp.Description)); desc != "" {
		product.Description = &desc
	}

	if cost := parsePrice(cp.Cost); cost > 0 {
		product.CostPrice = &cost
	}

	if cp.URL != "" {
		link := cp.URL
		product.SupplierLink = &link
	}

	for _, img := range cp.Images {
		if img.URL != "" {
			product.Images = append(product.Images, img.URL)
		}
	}

	if cp.Tags != "" {
		for _, tag := range strings.Split(cp.Tags, ",") {
			if t := strings.TrimSpace(tag); t != "" {
				product.Tags = append(product.Tags, t)
			}
		}
	}

	return product
}

// parsePrice converts a decimal major-unit price string to minor units.
// Unparseable input maps to 0.
func parsePrice(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int64(math.Round(v * 100))
}

// stripHTML removes tags from supplier descriptions, which usually arrive as
// body_html fragments.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
