package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/effortlens/effortlens-api/internal/datasets"
	"github.com/effortlens/effortlens-api/internal/utils"
)

// DatasetHandler serves the dataset registry so clients can render one
// data-driven form per tag instead of hardcoding field sets.
type DatasetHandler struct{}

// NewDatasetHandler builds a dataset handler instance.
func NewDatasetHandler() *DatasetHandler {
	return &DatasetHandler{}
}

// Register attaches the routes to the provided router group.
func (h *DatasetHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *DatasetHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "datasets retrieved", datasets.All())
}
