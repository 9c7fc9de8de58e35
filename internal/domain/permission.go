package domain

// Owns implements the single authorization rule of the API: a resource may be
// read or mutated only by the user it belongs to. There are no roles and no
// sharing, so the check reduces to an identity comparison.
func Owns(resourceOwnerID, requesterID string) bool {
	return resourceOwnerID != "" && resourceOwnerID == requesterID
}
