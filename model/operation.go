// api/model/operation.go
package model

// Capability role names the dashboard's guarded operations are bound to.
// Names resolve remotely to opaque tokens; see gate.Gate.
const (
	CapabilityRecoverer = "RECOVERER_ROLE"
	CapabilityRemover   = "REMOVER_ROLE"
	CapabilityTreasurer = "TREASURER_ROLE"
)

// RecoveryInput re-activates a student who dropped out of a term.
type RecoveryInput struct {
	StudentID Address `json:"studentId" binding:"required"`
	Term      int     `json:"term" binding:"required,gte=1"`
}

// RemovalInput permanently removes a student from the program. Irreversible,
// so the controller for it requires a second user acknowledgment.
type RemovalInput struct {
	StudentID Address `json:"studentId" binding:"required"`
	Term      int     `json:"term" binding:"required,gte=1"`
}

// FeeUpdateInput changes the per-term program fee.
type FeeUpdateInput struct {
	AmountWei uint64 `json:"amountWei" binding:"required,gt=0"`
}

// WithdrawalInput moves accumulated fees out of the program treasury.
// Irreversible, so it also requires a second acknowledgment.
type WithdrawalInput struct {
	Recipient Address `json:"recipient" binding:"required"`
	AmountWei uint64  `json:"amountWei" binding:"required,gt=0"`
}
