package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tripmap/internal/domain"
)

// KeyMapView is keyed by the fingerprint of the plan the view was built from,
// so identical plans share one entry across trips.
func KeyMapView(fingerprint string) string {
	return "view:" + fingerprint
}

func KeyTrip(id uuid.UUID) string {
	return "trip:" + id.String()
}

// PlanFingerprint hashes the JSON form of a plan.
func PlanFingerprint(plan *domain.TripPlan) (string, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("fingerprint plan: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
