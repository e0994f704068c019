package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"redpockets/models"
	"redpockets/service"

	log "github.com/sirupsen/logrus"
)

// Handlers exposes the distribution engine and snapshot editor over HTTP
type Handlers struct {
	envelopes service.EnvelopeService
	snapshots service.SnapshotService
	previews  *service.PreviewService
}

// NewHandlers creates the HTTP handler set
func NewHandlers(envelopes service.EnvelopeService, snapshots service.SnapshotService, previews *service.PreviewService) *Handlers {
	return &Handlers{
		envelopes: envelopes,
		snapshots: snapshots,
		previews:  previews,
	}
}

// Envelope handlers

func (h *Handlers) CreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sender      string  `json:"sender"`
		Kind        string  `json:"kind"`
		TotalAmount float64 `json:"total_amount"`
		Count       int     `json:"count"`
		Note        string  `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind := models.EnvelopeKind(req.Kind)
	var envelope *models.Envelope
	var err error
	if kind == models.EnvelopeKindItem {
		envelope, err = h.envelopes.CreateItemEnvelope(r.Context(), req.Sender, req.Count, req.Note)
	} else {
		envelope, err = h.envelopes.CreateEnvelopeWithValidation(r.Context(), req.Sender, kind, req.TotalAmount, req.Count, req.Note)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, envelope)
}

func (h *Handlers) GetEnvelope(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/envelopes/")
	envelope, err := h.envelopes.GetEnvelope(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if envelope == nil {
		http.Error(w, "Envelope not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, envelope)
}

func (h *Handlers) DeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/envelopes/")
	if err := h.envelopes.DeleteEnvelope(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Envelope deleted"})
}

func (h *Handlers) Claim(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/envelopes/"), "/claims")

	var req struct {
		Claimant string `json:"claimant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reward, err := h.envelopes.Claim(r.Context(), id, req.Claimant)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reward)
}

func (h *Handlers) GetRecords(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/envelopes/"), "/records")
	records, err := h.envelopes.GetRecords(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/envelopes/"), "/preview")
	items := h.previews.Get(id)
	if items == nil {
		http.Error(w, "No preview available", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) GetActiveBySender(w http.ResponseWriter, r *http.Request) {
	sender := strings.TrimSuffix(extractPathParam(r.URL.Path, "/senders/"), "/envelopes")
	envelopes, err := h.envelopes.GetActiveBySender(r.Context(), sender)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, envelopes)
}

// Snapshot handlers

func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := extractPathParam(r.URL.Path, "/snapshots/")
	snapshot, err := h.snapshots.LoadItems(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}
	if snapshot == nil {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := extractPathParam(r.URL.Path, "/snapshots/")

	var req struct {
		Slots [models.SnapshotSlots]*models.ItemStack `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.snapshots.SaveItems(r.Context(), owner, req.Slots); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Snapshot saved"})
}

func (h *Handlers) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := extractPathParam(r.URL.Path, "/snapshots/")
	if err := h.snapshots.DeleteItems(r.Context(), owner); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Snapshot deleted"})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// respondError maps engine sentinels onto HTTP status codes
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrInvalid),
		errors.Is(err, service.ErrEmpty),
		errors.Is(err, service.ErrSnapshotLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrLedgerUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
