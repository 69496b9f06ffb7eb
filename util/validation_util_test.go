// api/util/validation_util_test.go
package util_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/util"
)

const goodAddr = model.Address("0xaabbccddeeff00112233445566778899aabbccdd")

func TestValidationUtil(t *testing.T) {
	v := util.NewValidationUtil()

	t.Run("Address", func(t *testing.T) {
		assert.NoError(t, v.ValidateAddress(goodAddr))

		err := v.ValidateAddress("0x1234")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ledger_errors.ErrInvalidAddress))
	})

	t.Run("RecoveryInput", func(t *testing.T) {
		assert.NoError(t, v.ValidateRecoveryInput(model.RecoveryInput{StudentID: goodAddr, Term: 1}))
		assert.Error(t, v.ValidateRecoveryInput(model.RecoveryInput{StudentID: "bad", Term: 1}))
		assert.Error(t, v.ValidateRecoveryInput(model.RecoveryInput{StudentID: goodAddr, Term: 0}))
	})

	t.Run("RemovalInput", func(t *testing.T) {
		assert.NoError(t, v.ValidateRemovalInput(model.RemovalInput{StudentID: goodAddr, Term: 3}))
		assert.Error(t, v.ValidateRemovalInput(model.RemovalInput{StudentID: goodAddr, Term: -1}))
	})

	t.Run("FeeUpdateInput", func(t *testing.T) {
		assert.NoError(t, v.ValidateFeeUpdateInput(model.FeeUpdateInput{AmountWei: 1_000_000}))
		assert.Error(t, v.ValidateFeeUpdateInput(model.FeeUpdateInput{AmountWei: 0}))
	})

	t.Run("WithdrawalInput", func(t *testing.T) {
		assert.NoError(t, v.ValidateWithdrawalInput(model.WithdrawalInput{Recipient: goodAddr, AmountWei: 5}))
		assert.Error(t, v.ValidateWithdrawalInput(model.WithdrawalInput{Recipient: "", AmountWei: 5}))
		assert.Error(t, v.ValidateWithdrawalInput(model.WithdrawalInput{Recipient: goodAddr, AmountWei: 0}))
	})
}
