// api/util/validation_util.go

package util

import (
	"fmt"

	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/model"
)

// ValidationUtil holds the pure, synchronous input predicates applied before
// any guarded operation touches the ledger. A rejection here means the remote
// boundary was never called.
type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateAddress(addr model.Address) error {
	if !addr.Valid() {
		return fmt.Errorf("%w: %q must be a 0x-prefixed 40-hex-digit string", ledger_errors.ErrInvalidAddress, addr)
	}
	return nil
}

func (v *ValidationUtil) ValidateRecoveryInput(input model.RecoveryInput) error {
	if err := v.ValidateAddress(input.StudentID); err != nil {
		return fmt.Errorf("studentId: %w", err)
	}
	if input.Term < 1 {
		return fmt.Errorf("term must be at least 1, got %d", input.Term)
	}
	return nil
}

func (v *ValidationUtil) ValidateRemovalInput(input model.RemovalInput) error {
	if err := v.ValidateAddress(input.StudentID); err != nil {
		return fmt.Errorf("studentId: %w", err)
	}
	if input.Term < 1 {
		return fmt.Errorf("term must be at least 1, got %d", input.Term)
	}
	return nil
}

func (v *ValidationUtil) ValidateFeeUpdateInput(input model.FeeUpdateInput) error {
	if input.AmountWei == 0 {
		return fmt.Errorf("fee amount must be positive")
	}
	return nil
}

func (v *ValidationUtil) ValidateWithdrawalInput(input model.WithdrawalInput) error {
	if err := v.ValidateAddress(input.Recipient); err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	if input.AmountWei == 0 {
		return fmt.Errorf("withdrawal amount must be positive")
	}
	return nil
}
