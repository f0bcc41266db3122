package ipam

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// macOUIPrefix is the organizationally-unique identifier every generated
// MAC address starts with. It is part of the wire contract with the
// hypervisor and must not change.
const macOUIPrefix = "BC:24:11"

// maxMACAttempts bounds the collision-retry loop in GenerateMAC.
const maxMACAttempts = 100

// GenerateMAC produces a random MAC under macOUIPrefix and retries on
// collision against every MAC already assigned to an allocation, up to
// maxMACAttempts.
func GenerateMAC(ctx context.Context, q *store.Queries) (string, error) {
	for attempt := 0; attempt < maxMACAttempts; attempt++ {
		mac, err := randomMAC()
		if err != nil {
			return "", fmt.Errorf("generating mac: %w", err)
		}

		exists, err := q.ExistsMAC(ctx, mac)
		if err != nil {
			return "", err
		}
		if !exists {
			return mac, nil
		}
	}
	return "", apperr.Internal(fmt.Sprintf("could not generate a unique mac after %d attempts", maxMACAttempts))
}

func randomMAC() (string, error) {
	var suffix [3]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%02X:%02X:%02X", macOUIPrefix, suffix[0], suffix[1], suffix[2]), nil
}
