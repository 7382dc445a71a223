// Package handler is the thin HTTP layer over the registry facade. It
// delegates to the service without embedding business logic so transport
// concerns remain isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"herdbook/internal/platform/middleware"
	"herdbook/internal/registry/models"
	"herdbook/internal/registry/service"
	"herdbook/internal/transport/http/shared"
	dErrors "herdbook/pkg/domain-errors"
	"herdbook/pkg/requestcontext"
)

// Service defines the facade operations the handler depends on.
type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (models.AnimalRecord, error)
	UpdateLocation(ctx context.Context, id models.AnimalID, newLocation string) (models.AuditEntry, error)
	UpdateStatus(ctx context.Context, id models.AnimalID, newStatus models.Status) (models.AuditEntry, error)
	TransferOwnership(ctx context.Context, id models.AnimalID, newOwner models.Account) (models.AuditEntry, error)
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	SetAdmin(ctx context.Context, newAdmin models.Account) error
	GetDetails(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error)
	GetByFingerprint(ctx context.Context, fp models.Fingerprint) (models.AnimalRecord, error)
	VerifyOwnership(ctx context.Context, id models.AnimalID, owner models.Account) (bool, error)
	GetHistoryEntry(ctx context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error)
	GetUpdateCount(ctx context.Context, id models.AnimalID) (uint64, error)
	IsPaused(ctx context.Context) (bool, error)
	GetAdmin(ctx context.Context) (models.Account, error)
	GetLastID(ctx context.Context) (uint64, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger       *slog.Logger
	registry     Service
	jwtValidator middleware.JWTValidator
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		registry:     registry,
		jwtValidator: jwtValidator,
	}
}

// Register registers the registry routes with the chi router. Mutating routes
// run behind bearer auth; the read surface consumed by external collaborators
// stays open.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/animals/{id}", h.handleGetDetails)
		r.Get("/animals/fingerprint/{fp}", h.handleGetByFingerprint)
		r.Get("/animals/{id}/ownership/{account}", h.handleVerifyOwnership)
		r.Get("/animals/{id}/history/count", h.handleUpdateCount)
		r.Get("/animals/{id}/history/{seq}", h.handleHistoryEntry)
		r.Get("/registry/status", h.handleRegistryStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

			r.Post("/animals", h.handleRegisterAnimal)
			r.Patch("/animals/{id}/location", h.handleUpdateLocation)
			r.Patch("/animals/{id}/status", h.handleUpdateStatus)
			r.Post("/animals/{id}/transfer", h.handleTransferOwnership)
			r.Post("/registry/pause", h.handlePause)
			r.Post("/registry/unpause", h.handleUnpause)
			r.Post("/registry/admin", h.handleSetAdmin)
		})
	})
}

func (h *Handler) handleRegisterAnimal(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(r, "invalid register request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.registry.Register(r.Context(), service.RegisterInput{
		Breed:       req.Breed,
		Species:     req.Species,
		Gender:      req.Gender,
		BirthDate:   req.BirthDate,
		Location:    req.Location,
		Description: req.Description,
		Status:      models.Status(req.Status),
		Tags:        req.Tags,
	})
	if err != nil {
		h.warn(r, "register rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAnimalResponse(record))
}

func (h *Handler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entry, err := h.registry.UpdateLocation(r.Context(), id, req.Location)
	if err != nil {
		h.warn(r, "update location rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAuditResponse(entry))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entry, err := h.registry.UpdateStatus(r.Context(), id, models.Status(req.Status))
	if err != nil {
		h.warn(r, "update status rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAuditResponse(entry))
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entry, err := h.registry.TransferOwnership(r.Context(), id, models.Account(req.NewOwner))
	if err != nil {
		h.warn(r, "transfer rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAuditResponse(entry))
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Pause(r.Context()); err != nil {
		h.warn(r, "pause rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Unpause(r.Context()); err != nil {
		h.warn(r, "unpause rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registry.SetAdmin(r.Context(), models.Account(req.Admin)); err != nil {
		h.warn(r, "set admin rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"admin": req.Admin})
}

func (h *Handler) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.registry.GetDetails(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAnimalResponse(record))
}

func (h *Handler) handleGetByFingerprint(w http.ResponseWriter, r *http.Request) {
	fp, err := models.ParseFingerprint(chi.URLParam(r, "fp"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.registry.GetByFingerprint(r.Context(), fp)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAnimalResponse(record))
}

func (h *Handler) handleVerifyOwnership(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	owned, err := h.registry.VerifyOwnership(r.Context(), id, models.Account(chi.URLParam(r, "account")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"owned": owned})
}

func (h *Handler) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidParam, "sequence must be a positive integer"))
		return
	}
	entry, err := h.registry.GetHistoryEntry(r.Context(), id, seq)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAuditResponse(entry))
}

func (h *Handler) handleUpdateCount(w http.ResponseWriter, r *http.Request) {
	id, err := animalID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	count, err := h.registry.GetUpdateCount(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

func (h *Handler) handleRegistryStatus(w http.ResponseWriter, r *http.Request) {
	paused, err := h.registry.IsPaused(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	admin, err := h.registry.GetAdmin(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	lastID, err := h.registry.GetLastID(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, registryStatusResponse{
		Paused: paused,
		Admin:  string(admin),
		LastID: lastID,
	})
}

func animalID(r *http.Request) (models.AnimalID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidID, "animal id must be a positive integer")
	}
	return models.AnimalID(id), nil
}

func (h *Handler) warn(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
