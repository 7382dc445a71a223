package handler

import (
	"time"

	"herdbook/internal/registry/models"
)

type registerRequest struct {
	Breed       string   `json:"breed"`
	Species     string   `json:"species"`
	Gender      string   `json:"gender"`
	BirthDate   int64    `json:"birth_date"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

type updateLocationRequest struct {
	Location string `json:"location"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner"`
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

type animalResponse struct {
	ID           uint64   `json:"id"`
	Fingerprint  string   `json:"fingerprint"`
	Owner        string   `json:"owner"`
	RegisteredAt string   `json:"registered_at"`
	Breed        string   `json:"breed"`
	Species      string   `json:"species"`
	Gender       string   `json:"gender"`
	BirthDate    int64    `json:"birth_date"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags"`
}

type auditResponse struct {
	AnimalID  uint64 `json:"animal_id"`
	Seq       uint64 `json:"seq"`
	Updater   string `json:"updater"`
	Timestamp string `json:"timestamp"`
	Field     string `json:"field"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

type registryStatusResponse struct {
	Paused bool   `json:"paused"`
	Admin  string `json:"admin"`
	LastID uint64 `json:"last_id"`
}

func toAnimalResponse(record models.AnimalRecord) animalResponse {
	return animalResponse{
		ID:           uint64(record.ID),
		Fingerprint:  record.Fingerprint.Hex(),
		Owner:        string(record.Owner),
		RegisteredAt: record.RegisteredAt.Format(time.RFC3339Nano),
		Breed:        record.Breed,
		Species:      record.Species,
		Gender:       record.Gender,
		BirthDate:    record.BirthDate,
		Location:     record.Location,
		Description:  record.Description,
		Status:       string(record.Status),
		Tags:         record.Tags,
	}
}

func toAuditResponse(entry models.AuditEntry) auditResponse {
	return auditResponse{
		AnimalID:  uint64(entry.AnimalID),
		Seq:       entry.Seq,
		Updater:   string(entry.Updater),
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
		Field:     entry.Field,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
	}
}
