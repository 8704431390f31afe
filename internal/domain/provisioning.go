package domain

// StepError records one failed provisioning action.
type StepError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ProvisioningResult is the ledger of one finalization run. Every attempted
// action contributes exactly one entry to Steps or Errors, never both.
type ProvisioningResult struct {
	ClientID  string      `json:"client_id,omitempty"`
	FolderURL string      `json:"folder_url,omitempty"`
	InviteURL string      `json:"invite_url,omitempty"`
	Steps     []string    `json:"steps"`
	Errors    []StepError `json:"errors"`
}

// Partial reports whether at least one action failed.
func (r *ProvisioningResult) Partial() bool {
	return len(r.Errors) > 0
}

// Outcome returns "success" or "partial" for the audit record.
func (r *ProvisioningResult) Outcome() string {
	if r.Partial() {
		return "partial"
	}
	return "success"
}
