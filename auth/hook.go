package auth

import (
	"context"
	"fmt"
)

// PostVerifyHook is an injectable claim-transformation step run
// synchronously after successful verification, before the request
// proceeds. Hooks may attach derived fields to the claim set; they must not
// replace it and must not perform blocking I/O. A nil hook is a valid
// configuration (identity transform).
type PostVerifyHook interface {
	Enrich(ctx context.Context, claims ClaimSet) error
}

// DefaultLocationType is the locations discriminator the leaderboard
// deployment registers users under.
const DefaultLocationType = "village"

// LocationHook derives the caller's registered LGD code from the
// `locations` claim. When a matching record with a non-empty lgd_code
// exists, the code is attached as the registered_lgd_code claim; otherwise
// an explicit nil is attached, so downstream readers can distinguish
// "checked, not found" from "hook not run". Data-shape oddities (missing
// array, missing field) degrade to the nil marker and never fail the
// request.
type LocationHook struct {
	locationType string
}

// NewLocationHook builds the hook. An empty locationType selects
// DefaultLocationType.
func NewLocationHook(locationType string) *LocationHook {
	if locationType == "" {
		locationType = DefaultLocationType
	}
	return &LocationHook{locationType: locationType}
}

// Enrich implements PostVerifyHook.
func (h *LocationHook) Enrich(_ context.Context, claims ClaimSet) error {
	if claims == nil {
		return fmt.Errorf("%w: nil claim set", ErrHookInternal)
	}
	if rec, ok := claims.FindLocation(h.locationType); ok && rec.LGDCode != "" {
		claims[ClaimRegisteredLGDCode] = rec.LGDCode
	} else {
		claims[ClaimRegisteredLGDCode] = nil
	}
	return nil
}

// RegisteredLGDCode reads the hook-derived code from an enriched claim set.
// present reports whether the hook ran at all; code is empty when the hook
// ran and found no matching location.
func RegisteredLGDCode(claims ClaimSet) (code string, present bool) {
	v, present := claims[ClaimRegisteredLGDCode]
	if !present {
		return "", false
	}
	code, _ = v.(string)
	return code, true
}
