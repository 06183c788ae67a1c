package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

func TestTransfer_ConcurrentConservesTotal(t *testing.T) {
	uc, ledger := newTransferFixture()
	seedAccount(ledger, "acc-a", "user-1", "GBP", "100")
	seedAccount(ledger, "acc-b", "user-2", "GBP", "0")

	const workers = 50
	one := decimal.RequireFromString("1")

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			_, err := uc.Transfer(context.Background(), usecase.TransferInput{
				CallerID:        "user-1",
				SourceAccountID: "acc-a",
				DestAccountID:   "acc-b",
				Amount:          one,
				Currency:        "GBP",
			})
			errs[i] = err
		}(i)
	}

	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "worker %d", i)
	}

	assert.True(t, balanceOf(t, ledger, "acc-a").Equal(decimal.RequireFromString("50")))
	assert.True(t, balanceOf(t, ledger, "acc-b").Equal(decimal.RequireFromString("50")))
	assert.Equal(t, workers, ledger.CompletedCount())
}

func TestTransfer_OpposingDirectionsDoNotDeadlock(t *testing.T) {
	uc, ledger := newTransferFixture()
	seedAccount(ledger, "acc-a", "user-1", "GBP", "100")
	seedAccount(ledger, "acc-b", "user-2", "GBP", "100")

	const each = 20
	one := decimal.RequireFromString("1")

	var wg sync.WaitGroup
	start := make(chan struct{})

	transfer := func(callerID, source, dest string) {
		defer wg.Done()
		<-start

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			CallerID:        callerID,
			SourceAccountID: source,
			DestAccountID:   dest,
			Amount:          one,
			Currency:        "GBP",
		})
		assert.NoError(t, err)
	}

	for i := 0; i < each; i++ {
		wg.Add(2)
		go transfer("user-1", "acc-a", "acc-b")
		go transfer("user-2", "acc-b", "acc-a")
	}

	close(start)
	wg.Wait()

	// Equal traffic in both directions nets out to the starting balances.
	assert.True(t, balanceOf(t, ledger, "acc-a").Equal(decimal.RequireFromString("100")))
	assert.True(t, balanceOf(t, ledger, "acc-b").Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 2*each, ledger.CompletedCount())
}

func TestTransfer_ConcurrentDuplicatesCreateOneTransaction(t *testing.T) {
	uc, ledger := newTransferFixture()
	seedAccount(ledger, "acc-a", "user-1", "GBP", "100")
	seedAccount(ledger, "acc-b", "user-2", "GBP", "0")

	const workers = 8

	input := usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-a",
		DestAccountID:   "acc-b",
		Amount:          decimal.RequireFromString("25"),
		Currency:        "GBP",
		IdempotencyKey:  strPtr("key-dup"),
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]*usecase.TransactionResult, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			results[i], errs[i] = uc.Transfer(context.Background(), input)
		}(i)
	}

	close(start)
	wg.Wait()

	var winnerID string
	for i := 0; i < workers; i++ {
		require.NoErrorf(t, errs[i], "worker %d", i)
		require.NotNil(t, results[i])

		if winnerID == "" {
			winnerID = results[i].Transaction.ID
		}
		assert.Equal(t, winnerID, results[i].Transaction.ID)
	}

	// The movement ran exactly once.
	assert.Equal(t, 1, ledger.TransactionCount())
	assert.Equal(t, 1, ledger.CompletedCount())
	assert.True(t, balanceOf(t, ledger, "acc-a").Equal(decimal.RequireFromString("75")))
	assert.True(t, balanceOf(t, ledger, "acc-b").Equal(decimal.RequireFromString("25")))
}

func TestTransfer_InjectedCreditFailureRollsBackDebit(t *testing.T) {
	uc, ledger := newTransferFixture()
	seedAccount(ledger, "acc-a", "user-1", "GBP", "100")
	seedAccount(ledger, "acc-b", "user-2", "GBP", "0")

	// Fail the credit leg only.
	ledger.ApplyDeltaHook = func(accountID string, delta decimal.Decimal) error {
		if accountID == "acc-b" {
			return domain.ErrAccountNotActive
		}
		return nil
	}

	result, err := uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-a",
		DestAccountID:   "acc-b",
		Amount:          decimal.RequireFromString("30"),
		Currency:        "GBP",
	})
	require.ErrorIs(t, err, domain.ErrAccountNotActive)

	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionStatusFailed, result.Transaction.Status)

	assert.True(t, balanceOf(t, ledger, "acc-a").Equal(decimal.RequireFromString("100")))
	assert.True(t, balanceOf(t, ledger, "acc-b").IsZero())
}
