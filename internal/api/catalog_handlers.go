package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/catalog"
)

// CatalogHandler serves the service catalog, public reads plus admin CRUD.
type CatalogHandler struct {
	mgr    *catalog.Manager
	logger zerolog.Logger
}

func NewCatalogHandler(mgr *catalog.Manager, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{mgr: mgr, logger: logger}
}

func (h *CatalogHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	services, err := h.mgr.List(r.Context(), true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, services)
}

func (h *CatalogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	services, err := h.mgr.List(r.Context(), false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, services)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.mgr.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, svc)
}

func serviceInput(req ServiceRequest) catalog.ServiceInput {
	return catalog.ServiceInput{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Icon:             req.Icon,
		Price:            req.Price,
		PriceType:        catalog.PriceType(req.PriceType),
		DurationMinutes:  req.DurationMinutes,
		ResourceType:     catalog.ResourceType(req.ResourceType),
		IsActive:         req.IsActive,
		DisplayOrder:     req.DisplayOrder,
	}
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	svc, err := h.mgr.Create(r.Context(), serviceInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, svc, "Servicio creado")
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	svc, err := h.mgr.Update(r.Context(), id, serviceInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, svc, "Servicio actualizado")
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Servicio eliminado")
}

func (h *CatalogHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	orders := make(map[uuid.UUID]int, len(req.Orders))
	for _, o := range req.Orders {
		id, err := uuid.Parse(o.ID)
		if err != nil {
			badRequest(w, "El identificador no es válido")
			return
		}
		orders[id] = o.DisplayOrder
	}

	if err := h.mgr.Reorder(r.Context(), orders); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Orden actualizado")
}
