// Package models holds the registry domain types. Storage of the actual
// records lives in the store layer; these types stay transport-agnostic.
package models

import (
	"encoding/hex"
	"time"

	dErrors "herdbook/pkg/domain-errors"
)

// Account identifies a caller. Owner and admin are both plain accounts; the
// distinction is held in RegistryState, not in the type.
type Account string

// AnimalID is the sequential record identifier, assigned starting at 1.
type AnimalID uint64

// FingerprintSize is the digest length of the identity fingerprint.
const FingerprintSize = 32

// Fingerprint is the registration-time identity digest. It never changes for
// the life of a record, even when the location it was derived from does.
type Fingerprint [FingerprintSize]byte

// Hex renders the fingerprint in the lowercase hex form used on the wire and
// as the index key.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint decodes a hex fingerprint, rejecting anything that is not
// exactly FingerprintSize bytes.
func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fp, dErrors.Wrap(err, dErrors.CodeInvalidHash, "fingerprint is not valid hex")
	}
	if len(raw) != FingerprintSize {
		return fp, dErrors.New(dErrors.CodeInvalidHash, "fingerprint must be 32 bytes")
	}
	copy(fp[:], raw)
	return fp, nil
}

// Status labels the lifecycle state of a record. There is no transition
// graph: any update-whitelisted status may follow any other.
type Status string

const (
	StatusActive      Status = "active"
	StatusPending     Status = "pending"
	StatusSold        Status = "sold"
	StatusDeceased    Status = "deceased"
	StatusQuarantined Status = "quarantined"
)

// RegistrationStatuses is the whitelist accepted at registration time.
var RegistrationStatuses = map[Status]bool{
	StatusActive:  true,
	StatusPending: true,
}

// UpdateStatuses is the whitelist accepted by status updates. It deliberately
// shares only "active" with RegistrationStatuses.
var UpdateStatuses = map[Status]bool{
	StatusActive:      true,
	StatusSold:        true,
	StatusDeceased:    true,
	StatusQuarantined: true,
}

// AnimalRecord is one registered entity. Breed, species, gender, birth date,
// description, and tags are immutable after registration; location, status,
// and owner mutate through the facade only.
type AnimalRecord struct {
	ID           AnimalID
	Fingerprint  Fingerprint
	Owner        Account
	RegisteredAt time.Time
	Breed        string
	Species      string
	Gender       string
	BirthDate    int64
	Location     string
	Description  string
	Status       Status
	Tags         []string
}

// AuditEntry records one committed field mutation. Seq is contiguous per
// record starting at 1; seq 0 means "never mutated" and is never stored.
type AuditEntry struct {
	AnimalID  AnimalID
	Seq       uint64
	Updater   Account
	Timestamp time.Time
	Field     string
	OldValue  string
	NewValue  string
}

// Audited field names.
const (
	FieldLocation = "location"
	FieldStatus   = "status"
	FieldOwner    = "owner"
)

// RegistryState is the process-wide scalar state: the monotonic id counter,
// the pause gate, and the single admin account.
type RegistryState struct {
	LastAssignedID uint64
	Paused         bool
	Admin          Account
}
