package v1

import (
	"net/http"

	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, log: log}
}

// GetProducts lists the provider catalog. Pass fresh=true to bypass the
// in-process cache.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	cached := c.Query("fresh") != "true"

	products, err := h.service.Products(c.Request.Context(), cached)
	if err != nil {
		h.log.Error("Failed to list products", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.service.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}
