package service

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Servicio que consulta al microservicio externo de catálogo. El
// workflow solo necesita saber si el producto existe; nada más del
// catálogo entra al core.
type CatalogService struct {
	catalogURL string
	client     *http.Client
}

func NewCatalogService(catalogURL string) *CatalogService {
	return &CatalogService{
		catalogURL: catalogURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *CatalogService) ProductExists(ctx context.Context, productID string) (bool, error) {
	url := fmt.Sprintf("%s/products/%s", c.catalogURL, productID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("catalog respondió %d", resp.StatusCode)
	}
}
