package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cardvault-rest-api/internal/model"
	"cardvault-rest-api/internal/repository"
	"cardvault-rest-api/internal/service"
	"cardvault-rest-api/pkg/apierror"
	"cardvault-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// maxImportSize caps uploaded CSV batches at 10 MiB.
const maxImportSize = 10 << 20

// CardHandler handles card catalog HTTP requests.
type CardHandler struct {
	catalog *service.CatalogService
}

// NewCardHandler creates a new card handler.
func NewCardHandler(catalog *service.CatalogService) *CardHandler {
	return &CardHandler{catalog: catalog}
}

// ListCards handles GET /api/v1/cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	filter := model.CardFilter{
		NameQuery: r.URL.Query().Get("q"),
		Type:      r.URL.Query().Get("type"),
		Rarity:    r.URL.Query().Get("rarity"),
		SetID:     r.URL.Query().Get("set_id"),
	}

	if v := r.URL.Query().Get("owned"); v != "" {
		owned, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(w, apierror.BadRequest("owned must be true or false"))
			return
		}
		filter.Owned = &owned
	}
	filter.Limit = parseIntParam(r, "limit", 0)
	filter.Offset = parseIntParam(r, "offset", 0)

	cards, err := h.catalog.ListCards(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	if cards == nil {
		cards = []model.Card{}
	}

	response.JSONWithMeta(w, http.StatusOK, cards, response.Meta{
		Count:  len(cards),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetCard handles GET /api/v1/cards/{card_id}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "card_id")
	if cardID == "" {
		response.Error(w, apierror.BadRequest("card_id is required"))
		return
	}

	card, err := h.catalog.GetCard(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			response.Error(w, apierror.NotFound("Card not found"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, card)
}

// ImportCSV handles POST /api/v1/cards/import
// Accepts a multipart upload with a "csv_file" field, or a raw CSV body.
func (h *CardHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body, apiErr := importPayload(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	defer body.Close()

	result, err := h.catalog.ImportCSV(r.Context(), io.LimitReader(body, maxImportSize))
	if err != nil {
		// Only unusable uploads are the client's fault; repository
		// failures surface as 500s.
		if errors.Is(err, service.ErrInvalidCSV) {
			response.Error(w, apierror.BadRequest(err.Error()))
			return
		}
		response.Error(w, err)
		return
	}
	if result.Errors == nil {
		result.Errors = []model.RowError{}
	}

	response.OK(w, result)
}

// importPayload extracts the CSV stream from a multipart form or the
// raw request body.
func importPayload(r *http.Request) (io.ReadCloser, *apierror.Error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, apierror.BadRequest("failed to parse multipart form")
		}
		file, _, err := r.FormFile("csv_file")
		if err != nil {
			return nil, apierror.ValidationError("csv_file field is required",
				apierror.FieldError{Field: "csv_file", Message: "missing file upload"})
		}
		return file, nil
	}
	if !isCSVContentType(contentType) {
		return nil, apierror.UnsupportedMedia("expected multipart/form-data or CSV content, got " + contentType)
	}
	if r.Body == nil {
		return nil, apierror.BadRequest("request body is required")
	}
	return r.Body, nil
}

// isCSVContentType accepts the media types spreadsheet tools and curl
// use for raw CSV bodies. An absent Content-Type is allowed.
func isCSVContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "text/csv", "application/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel":
		return true
	}
	return false
}

// ownedRequest is the PATCH body for ownership toggling.
type ownedRequest struct {
	Owned *bool `json:"owned"`
}

// SetOwned handles PATCH /api/v1/cards/{card_id}/owned
func (h *CardHandler) SetOwned(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "card_id")
	if cardID == "" {
		response.Error(w, apierror.BadRequest("card_id is required"))
		return
	}

	var req ownedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.Owned == nil {
		response.Error(w, apierror.ValidationError("owned is required",
			apierror.FieldError{Field: "owned", Message: "must be true or false"}))
		return
	}

	if err := h.catalog.SetOwned(r.Context(), cardID, *req.Owned); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			response.Error(w, apierror.NotFound("Card not found"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"id":    cardID,
		"owned": *req.Owned,
	})
}

// GetStats handles GET /api/v1/collection/stats
func (h *CardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}

// parseIntParam reads a non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
