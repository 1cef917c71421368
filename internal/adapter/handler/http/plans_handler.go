package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
)

type PlansHandler struct {
	catalog *catalog.Catalog
}

func NewPlansHandler(plans *catalog.Catalog) *PlansHandler {
	return &PlansHandler{catalog: plans}
}

// GetPlans lists the website packages with their prices
// GET /api/plans
func (h *PlansHandler) GetPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"plans": h.catalog.Plans()})
}
