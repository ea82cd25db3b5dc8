package record

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

// Handler exposes the loaded advice records.
type Handler struct {
	records record.Store
}

func New(records record.Store) *Handler {
	return &Handler{
		records: records,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conditions", h.handleListConditions)
}

type conditionView struct {
	Disease  string   `json:"disease"`
	Category string   `json:"category"`
	Remedies []string `json:"remedies"`
}

func (h *Handler) handleListConditions(w http.ResponseWriter, r *http.Request) {
	records := h.records.All()
	out := make([]conditionView, 0, len(records))
	for _, rec := range records {
		out = append(out, conditionView{
			Disease:  rec.Disease,
			Category: rec.Category,
			Remedies: rec.Remedies(),
		})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}
