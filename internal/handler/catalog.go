package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/service"
)

type serviceResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Platform     string  `json:"platform"`
	Category     string  `json:"category"`
	PricePer1000 float64 `json:"price_per_1000"`
	MinQuantity  int     `json:"min_quantity"`
	MaxQuantity  int     `json:"max_quantity"`
	DeliveryTime string  `json:"delivery_time"`
}

func toServiceResponse(s *model.Service) serviceResponse {
	return serviceResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Platform:     s.Platform,
		Category:     s.Category,
		PricePer1000: s.PricePer1000.InexactFloat64(),
		MinQuantity:  s.MinQuantity,
		MaxQuantity:  s.MaxQuantity,
		DeliveryTime: s.DeliveryTime,
	}
}

type listResponse struct {
	Items []any `json:"items"`
	Total int   `json:"total"`
}

// ListServices возвращает страницу активных услуг каталога.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	f := repository.ServiceFilter{
		Platform: r.URL.Query().Get("platform"),
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Limit:    limit,
		Offset:   offset,
	}

	services, total, err := h.service.ListServices(r.Context(), f)
	if err != nil {
		h.logger.Error("list services error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(services))
	for i := range services {
		items = append(items, toServiceResponse(&services[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

// GetService возвращает одну услугу каталога.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathID(r, "serviceID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s, err := h.service.GetService(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) || errors.Is(err, service.ErrServiceUnavailable) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get service error", zap.Error(err), zap.Int64("serviceID", serviceID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(s))
}

// PopularServices возвращает витрину самых заказываемых услуг.
func (h *Handler) PopularServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.PopularServices(r.Context())
	if err != nil {
		h.logger.Error("popular services error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(services))
	for i := range services {
		items = append(items, toServiceResponse(&services[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(services)})
}

// Platforms возвращает список платформ активных услуг.
func (h *Handler) Platforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.service.Platforms(r.Context())
	if err != nil {
		h.logger.Error("list platforms error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

// Categories возвращает список категорий, опционально по платформе.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context(), r.URL.Query().Get("platform"))
	if err != nil {
		h.logger.Error("list categories error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type priceResponse struct {
	ServiceID int64   `json:"service_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// PreviewPrice рассчитывает стоимость заказа без его создания.
func (h *Handler) PreviewPrice(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathID(r, "serviceID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	price, s, err := h.service.PreviewPrice(r.Context(), serviceID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrServiceNotFound), errors.Is(err, service.ErrServiceUnavailable):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrQuantityOutOfRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("preview price error", zap.Error(err), zap.Int64("serviceID", serviceID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{
		ServiceID: s.ID,
		Quantity:  quantity,
		Price:     price.InexactFloat64(),
	})
}
