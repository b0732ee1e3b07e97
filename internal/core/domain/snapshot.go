package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is an immutable capture of one subsystem's payload at a
// version. The fingerprint is computed once, at construction.
type Snapshot struct {
	subsystemID string
	payload     Payload
	version     uint64
	createdAt   time.Time
	fingerprint string
}

// NewSnapshot captures a deep copy of payload for subsystemID at version
// and freezes its fingerprint.
func NewSnapshot(subsystemID string, payload Payload, version uint64, at time.Time) (*Snapshot, error) {
	if subsystemID == "" {
		return nil, ErrInvalidArgument.WithDetails("subsystem id is required")
	}

	captured := payload.Clone()
	if captured == nil {
		captured = Payload{}
	}

	fp, err := Fingerprint(captured)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		subsystemID: subsystemID,
		payload:     captured,
		version:     version,
		createdAt:   at,
		fingerprint: fp,
	}, nil
}

// SubsystemID returns the owning subsystem.
func (s *Snapshot) SubsystemID() string { return s.subsystemID }

// Version returns the snapshot version.
func (s *Snapshot) Version() uint64 { return s.version }

// CreatedAt returns the capture time.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// Fingerprint returns the digest frozen at construction.
func (s *Snapshot) Fingerprint() string { return s.fingerprint }

// Payload returns the captured payload without copying it. Writing to
// the returned map breaks the fingerprint invariant; Verify reports it.
func (s *Snapshot) Payload() Payload { return s.payload }

// RecomputeFingerprint digests the payload as it is now.
func (s *Snapshot) RecomputeFingerprint() (string, error) {
	return Fingerprint(s.payload)
}

// Verify reports whether the payload still matches the frozen fingerprint.
func (s *Snapshot) Verify() bool {
	fp, err := s.RecomputeFingerprint()
	if err != nil {
		return false
	}
	return fp == s.fingerprint
}

// MarshalJSON exposes the snapshot for inspection output.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SubsystemID string    `json:"subsystem_id"`
		Version     uint64    `json:"version"`
		Fingerprint string    `json:"fingerprint"`
		CreatedAt   time.Time `json:"created_at"`
		Payload     Payload   `json:"payload"`
	}{
		SubsystemID: s.subsystemID,
		Version:     s.version,
		Fingerprint: s.fingerprint,
		CreatedAt:   s.createdAt,
		Payload:     s.payload,
	})
}
