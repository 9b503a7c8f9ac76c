package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/content"
)

// ContentHandler serves the editable site surface: page copy, settings,
// team roster, testimonials and the contact form.
type ContentHandler struct {
	mgr    *content.Manager
	logger zerolog.Logger
}

func NewContentHandler(mgr *content.Manager, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{mgr: mgr, logger: logger}
}

func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.mgr.ListContent(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, blocks)
}

func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	block, err := h.mgr.GetContent(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, block)
}

func (h *ContentHandler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	block, err := h.mgr.SetContent(r.Context(), chi.URLParam(r, "key"), req.Value)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, block, "Contenido guardado")
}

func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.DeleteContent(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Contenido eliminado")
}

func (h *ContentHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.mgr.ListSettings(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (h *ContentHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	setting, err := h.mgr.SetSetting(r.Context(), chi.URLParam(r, "key"), req.Value)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, setting, "Configuración guardada")
}

func (h *ContentHandler) PublicTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.mgr.ListTeam(r.Context(), true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, team)
}

func (h *ContentHandler) AllTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.mgr.ListTeam(r.Context(), false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, team)
}

func teamInput(req TeamMemberRequest) content.TeamMemberInput {
	return content.TeamMemberInput{
		Name:         req.Name,
		Position:     req.Position,
		Bio:          req.Bio,
		Specialties:  req.Specialties,
		PhotoURL:     req.PhotoURL,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	}
}

func (h *ContentHandler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var req TeamMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	member, err := h.mgr.CreateTeamMember(r.Context(), teamInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, member, "Integrante creado")
}

func (h *ContentHandler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TeamMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	member, err := h.mgr.UpdateTeamMember(r.Context(), id, teamInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, member, "Integrante actualizado")
}

func (h *ContentHandler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.DeleteTeamMember(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Integrante eliminado")
}

func (h *ContentHandler) PublicReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	featured := q.Get("featured") == "true"
	limit, _ := strconv.Atoi(q.Get("limit"))

	reviews, err := h.mgr.PublicReviews(r.Context(), featured, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, reviews)
}

func (h *ContentHandler) AllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.mgr.AllReviews(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, reviews)
}

func (h *ContentHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := content.ReviewInput{
		Name:    req.Name,
		Role:    req.Role,
		Content: req.Content,
		Rating:  req.Rating,
	}
	if claims := GetClaims(r.Context()); claims != nil {
		if userID, err := uuid.Parse(claims.UserID); err == nil {
			in.UserID = &userID
		}
	}

	review, err := h.mgr.SubmitReview(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, review, "Gracias por tu reseña. Será publicada tras su revisión.")
}

func (h *ContentHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ModerateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.mgr.ModerateReview(r.Context(), id, content.ReviewModeration{
		IsApproved: req.IsApproved,
		IsFeatured: req.IsFeatured,
		Rating:     req.Rating,
		Content:    req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, review, "Reseña actualizada")
}

func (h *ContentHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.DeleteReview(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Reseña eliminada")
}

func (h *ContentHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.mgr.SubmitContact(r.Context(), content.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, msg, "Tu mensaje ha sido enviado. Te contactaremos pronto.")
}

func (h *ContentHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	messages, err := h.mgr.ListMessages(r.Context(), unreadOnly)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, messages)
}

func (h *ContentHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.MarkMessageRead(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Mensaje marcado como leído")
}

func (h *ContentHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mgr.DeleteMessage(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "Mensaje eliminado")
}
