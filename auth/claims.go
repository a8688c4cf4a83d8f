package auth

// ClaimSet is the decoded JWT payload of an authenticated request: an open
// claim-name → value mapping. It is owned by the request and never shared
// across requests; the only mutation after creation is the single derived
// field a PostVerifyHook attaches.
type ClaimSet map[string]any

// Claim names this service reads.
const (
	ClaimSubject           = "sub"
	ClaimEmail             = "email"
	ClaimLocations         = "locations"
	ClaimRegisteredLGDCode = "registered_lgd_code"
)

// String returns the named claim if it is a non-empty string.
func (c ClaimSet) String(name string) (string, bool) {
	v, ok := c[name].(string)
	return v, ok && v != ""
}

// Subject returns the `sub` claim.
func (c ClaimSet) Subject() string {
	s, _ := c.String(ClaimSubject)
	return s
}

// LocationRecord is one entry of the `locations` claim issued by the
// identity provider: a typed pointer into the LGD (Local Government
// Directory) hierarchy.
type LocationRecord struct {
	LocationType string
	LGDCode      string
}

// Locations decodes the `locations` claim. A missing or oddly-shaped claim
// yields an empty slice; entries that are not objects are skipped.
func (c ClaimSet) Locations() []LocationRecord {
	raw, ok := c[ClaimLocations].([]any)
	if !ok {
		return nil
	}
	out := make([]LocationRecord, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		var rec LocationRecord
		if v, ok := m["location_type"].(string); ok {
			rec.LocationType = v
		}
		if v, ok := m["lgd_code"].(string); ok {
			rec.LGDCode = v
		}
		out = append(out, rec)
	}
	return out
}

// FindLocation returns the first location record matching the given
// location_type tag. The second result distinguishes "checked, not found".
func (c ClaimSet) FindLocation(locationType string) (LocationRecord, bool) {
	for _, rec := range c.Locations() {
		if rec.LocationType == locationType {
			return rec, true
		}
	}
	return LocationRecord{}, false
}
