package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainTimeline = "icetime/timeline/v1"
	DomainEventLog = "icetime/eventlog/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TimelineDigest computes the content digest of a per-second timeline.
// Two runs over identical inputs must produce the same digest; the replay
// command relies on this to detect hidden nondeterminism.
func TimelineDigest(entries []TimelineEntry) (string, error) {
	arr := make(Array, len(entries))
	for i, e := range entries {
		arr[i] = e.canonical()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("TimelineDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTimeline, canonical), nil
}

// EventLogDigest computes the content digest of a situation event log.
func EventLogDigest(entries []EventLogEntry) (string, error) {
	arr := make(Array, len(entries))
	for i, e := range entries {
		arr[i] = e.canonical()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("EventLogDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEventLog, canonical), nil
}
