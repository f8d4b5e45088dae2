package api

import (
	"log/slog"
	"net/http"

	"github.com/carenav/carenav/internal/crisis"
)

// resourcesHandler handles GET /api/v1/crisis-resources.
type resourcesHandler struct {
	resources crisis.ResourceLister
	logger    *slog.Logger
}

// resourceItem is the JSON representation of an active crisis resource.
type resourceItem struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// listResources returns the active crisis resource set in priority order.
func (h *resourcesHandler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.ActiveResources(r.Context())
	if err != nil {
		h.logger.Error("listing crisis resources", "error", err)
		writeError(w, http.StatusInternalServerError, "resources_failed", "failed to list crisis resources", h.logger)
		return
	}

	items := make([]resourceItem, len(resources))
	for i, res := range resources {
		items[i] = resourceItem{
			Name:        res.Name,
			Phone:       res.Phone,
			URL:         res.URL,
			Description: res.Description,
			Priority:    res.Priority,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items}, h.logger)
}
