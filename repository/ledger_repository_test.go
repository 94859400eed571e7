package repository

import (
	"context"
	"testing"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Append(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount()
	testutil.InsertTestAccount(t, testDB.DB, account)

	t.Run("successful append", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(account.ID, 500, 500)

		err := repo.Append(ctx, entry)
		require.NoError(t, err)

		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("zero amount rejected by check constraint", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(account.ID, 0, 500)

		err := repo.Append(ctx, entry)
		assert.Error(t, err)
	})

	t.Run("negative running balance rejected", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(account.ID, -100, -100)
		entry.Kind = entities.EntryKindSpend

		err := repo.Append(ctx, entry)
		assert.Error(t, err)
	})
}

func TestLedgerRepository_GetLatestByAccount(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount()
	testutil.InsertTestAccount(t, testDB.DB, account)

	t.Run("no entries", func(t *testing.T) {
		latest, err := repo.GetLatestByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("returns newest entry", func(t *testing.T) {
		first := testutil.CreateTestLedgerEntry(account.ID, 300, 300)
		require.NoError(t, repo.Append(ctx, first))

		second := testutil.CreateTestLedgerEntry(account.ID, 200, 500)
		require.NoError(t, repo.Append(ctx, second))

		latest, err := repo.GetLatestByAccount(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, second.ID, latest.ID)
		assert.Equal(t, int64(500), latest.BalanceAfter)
	})
}

func TestLedgerRepository_SumByAccount(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ledgerRepo := NewLedgerRepository(testDB.DB)
	accountRepo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount()
	testutil.InsertTestAccount(t, testDB.DB, account)

	t.Run("empty ledger sums to zero", func(t *testing.T) {
		sum, err := ledgerRepo.SumByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Zero(t, sum)
	})

	t.Run("sum matches final balance_after", func(t *testing.T) {
		entries := []*entities.LedgerEntry{
			{AccountID: account.ID, Kind: entities.EntryKindEarn, Amount: 1000, BalanceAfter: 1000},
			{AccountID: account.ID, Kind: entities.EntryKindSpend, Amount: -300, BalanceAfter: 700},
			{AccountID: account.ID, Kind: entities.EntryKindAdjust, Amount: 50, BalanceAfter: 750},
		}
		for _, entry := range entries {
			require.NoError(t, ledgerRepo.Append(ctx, entry))
		}
		require.NoError(t, accountRepo.UpdateBalance(ctx, account.ID, 750))

		sum, err := ledgerRepo.SumByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(750), sum)

		// Derived total matches the cached balance
		cached, err := accountRepo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, sum, cached.PointBalance)
	})
}

func TestLedgerRepository_GetByAccount(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount()
	testutil.InsertTestAccount(t, testDB.DB, account)

	balance := int64(0)
	for i := 0; i < 5; i++ {
		balance += 100
		entry := testutil.CreateTestLedgerEntry(account.ID, 100, balance)
		require.NoError(t, repo.Append(ctx, entry))
	}

	t.Run("newest first with limit", func(t *testing.T) {
		entries, err := repo.GetByAccount(ctx, account.ID, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, int64(500), entries[0].BalanceAfter)
		assert.Equal(t, int64(300), entries[2].BalanceAfter)
	})

	t.Run("unknown account returns empty", func(t *testing.T) {
		other := testutil.CreateTestAccount()
		entries, err := repo.GetByAccount(ctx, other.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		missing := testutil.CreateTestAccount()
		account, err := repo.GetByID(ctx, missing.ID)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("account found", func(t *testing.T) {
		seeded := testutil.CreateTestAccount(func(a *entities.Account) {
			a.PointBalance = 2500
			a.TierCode = "gold"
		})
		testutil.InsertTestAccount(t, testDB.DB, seeded)

		account, err := repo.GetByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, seeded.ID, account.ID)
		assert.Equal(t, "gold", account.TierCode)
		assert.Equal(t, int64(2500), account.PointBalance)
		assert.True(t, account.IsActive())
	})
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("updates cached balance", func(t *testing.T) {
		account := testutil.CreateTestAccount(func(a *entities.Account) {
			a.PointBalance = 100
		})
		testutil.InsertTestAccount(t, testDB.DB, account)

		err := repo.UpdateBalance(ctx, account.ID, 900)
		require.NoError(t, err)

		updated, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(900), updated.PointBalance)
	})

	t.Run("unknown account errors", func(t *testing.T) {
		missing := testutil.CreateTestAccount()
		err := repo.UpdateBalance(ctx, missing.ID, 100)
		assert.Error(t, err)
	})
}
