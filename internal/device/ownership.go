package device

// Authorize reports whether callerID may modify a resource owned by ownerID.
// It returns nil only for an exact, non-empty match and ErrForbidden otherwise.
func Authorize(ownerID, callerID string) error {
	if callerID == "" || ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
