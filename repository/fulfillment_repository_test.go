package repository

import (
	"context"
	"testing"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedWinningTicket sets up everything a fulfillment row needs: an account,
// a drawing, a prize, and a ticket marked as its winner
func seedWinningTicket(t *testing.T, testDB *testutil.TestDatabase) (*entities.Ticket, *entities.Prize, *entities.Account) {
	t.Helper()
	ctx := context.Background()

	account, drawing, entry := seedTicketFixtures(t, testDB)

	prize := testutil.CreateTestPrize(drawing.ID)
	require.NoError(t, NewPrizeRepository(testDB.DB).Create(ctx, prize))

	ticketRepo := NewTicketRepository(testDB.DB)
	ticket := testutil.CreateTestTicket(drawing.ID, account.ID, entry.ID)
	require.NoError(t, ticketRepo.CreateBatch(ctx, []*entities.Ticket{ticket}))
	require.NoError(t, ticketRepo.MarkWinner(ctx, ticket.ID, prize.ID))

	return ticket, prize, account
}

func TestFulfillmentRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFulfillmentRepository(testDB.DB)
	ctx := context.Background()

	ticket, prize, account := seedWinningTicket(t, testDB)

	t.Run("creates pending fulfillment", func(t *testing.T) {
		fulfillment := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)

		err := repo.Create(ctx, fulfillment)
		require.NoError(t, err)
		assert.NotZero(t, fulfillment.ID)

		fetched, err := repo.GetByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, entities.FulfillmentStatusPending, fetched.Status)
		assert.Nil(t, fetched.ForfeitDeadline)
	})

	t.Run("one fulfillment per ticket", func(t *testing.T) {
		duplicate := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)
		err := repo.Create(ctx, duplicate)
		assert.Error(t, err)
	})
}

func TestFulfillmentRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFulfillmentRepository(testDB.DB)
	ctx := context.Background()

	ticket, prize, account := seedWinningTicket(t, testDB)

	fulfillment := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)
	require.NoError(t, repo.Create(ctx, fulfillment))

	t.Run("persists workflow fields", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		fulfillment.Notify(now, entities.DefaultForfeitWindow)
		require.NoError(t, repo.Update(ctx, fulfillment))

		address := "1 Main St"
		fulfillment.ConfirmAddress(address, now.Add(time.Hour))
		require.NoError(t, repo.Update(ctx, fulfillment))

		fetched, err := repo.GetByID(ctx, fulfillment.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.FulfillmentStatusAddressConfirmed, fetched.Status)
		require.NotNil(t, fetched.ShippingAddress)
		assert.Equal(t, address, *fetched.ShippingAddress)
		require.NotNil(t, fetched.NotifiedAt)
		require.NotNil(t, fetched.ForfeitDeadline)
		assert.WithinDuration(t, now.Add(entities.DefaultForfeitWindow), *fetched.ForfeitDeadline, time.Second)
	})

	t.Run("unknown fulfillment errors", func(t *testing.T) {
		ghost := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)
		ghost.ID = 999999
		ghost.Status = entities.FulfillmentStatusWinnerNotified
		err := repo.Update(ctx, ghost)
		assert.Error(t, err)
	})
}

func TestFulfillmentRepository_GetPending(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFulfillmentRepository(testDB.DB)
	ctx := context.Background()

	ticket, prize, account := seedWinningTicket(t, testDB)

	fulfillment := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)
	require.NoError(t, repo.Create(ctx, fulfillment))

	t.Run("returns pending rows", func(t *testing.T) {
		pending, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, fulfillment.ID, pending[0].ID)
	})

	t.Run("notified rows drop out", func(t *testing.T) {
		fulfillment.Notify(time.Now().UTC(), entities.DefaultForfeitWindow)
		require.NoError(t, repo.Update(ctx, fulfillment))

		pending, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestFulfillmentRepository_GetForfeitable(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFulfillmentRepository(testDB.DB)
	ctx := context.Background()

	ticket, prize, account := seedWinningTicket(t, testDB)

	fulfillment := testutil.CreateTestFulfillment(ticket.ID, prize.ID, account.ID)
	require.NoError(t, repo.Create(ctx, fulfillment))

	now := time.Now().UTC()

	t.Run("pending rows never forfeit", func(t *testing.T) {
		rows, err := repo.GetForfeitable(ctx, now.Add(365*24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("notified rows forfeit after the deadline", func(t *testing.T) {
		fulfillment.Notify(now.Add(-15*24*time.Hour), entities.DefaultForfeitWindow)
		require.NoError(t, repo.Update(ctx, fulfillment))

		rows, err := repo.GetForfeitable(ctx, now)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, fulfillment.ID, rows[0].ID)

		// Before the deadline nothing is reported
		rows, err = repo.GetForfeitable(ctx, now.Add(-2*24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("delivered rows never forfeit", func(t *testing.T) {
		fulfillment.Status = entities.FulfillmentStatusDelivered
		require.NoError(t, repo.Update(ctx, fulfillment))

		rows, err := repo.GetForfeitable(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestDrawPickRepository_Record(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewDrawPickRepository(testDB.DB)
	ctx := context.Background()

	_, prize, _ := seedWinningTicket(t, testDB)

	picks := []*entities.DrawPick{
		{DrawingID: prize.DrawingID, PrizeID: prize.ID, UpperBound: 100, ExcludedCount: 0, PickedNumber: 42},
		{DrawingID: prize.DrawingID, PrizeID: prize.ID, UpperBound: 100, ExcludedCount: 1, PickedNumber: 7},
	}
	for _, pick := range picks {
		require.NoError(t, repo.Record(ctx, pick))
		assert.NotZero(t, pick.ID)
	}

	fetched, err := repo.GetByDrawing(ctx, prize.DrawingID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, int64(42), fetched[0].PickedNumber)
	assert.Equal(t, int64(7), fetched[1].PickedNumber)
	assert.Equal(t, int64(1), fetched[1].ExcludedCount)
}
