package supplier

// CatalogResponse is the payload returned by a supplier catalog endpoint.
type CatalogResponse struct {
	Products []CatalogProduct `json:"products"`
}

// CatalogProduct is a product as supplier feeds describe it. Prices come as
// decimal strings in major currency units.
type CatalogProduct struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"body_html"`
	Price       string         `json:"price"`
	Cost        string         `json:"cost"`
	Currency    string         `json:"currency"`
	Tags        string         `json:"tags"`
	URL         string         `json:"url"`
	Images      []CatalogImage `json:"images"`
}

type CatalogImage struct {
	ID  int64  `json:"id"`
	URL string `json:"src"`
}
