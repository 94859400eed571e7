package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
	"fittrack/drawing-engine/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type trackerMocks struct {
	fulfillmentRepo *testhelpers.MockFulfillmentRepository
	prizeRepo       *testhelpers.MockPrizeRepository
	ticketRepo      *testhelpers.MockTicketRepository
	publisher       *testhelpers.MockEventPublisher
}

func setupTrackerMocks() *trackerMocks {
	return &trackerMocks{
		fulfillmentRepo: new(testhelpers.MockFulfillmentRepository),
		prizeRepo:       new(testhelpers.MockPrizeRepository),
		ticketRepo:      new(testhelpers.MockTicketRepository),
		publisher:       new(testhelpers.MockEventPublisher),
	}
}

func (m *trackerMocks) newTracker() interfaces.FulfillmentTracker {
	return NewFulfillmentTracker(m.fulfillmentRepo, m.prizeRepo, m.ticketRepo, m.publisher, 0)
}

func createFulfillment(id int64, status entities.FulfillmentStatus, opts ...func(*entities.Fulfillment)) *entities.Fulfillment {
	f := &entities.Fulfillment{
		ID:        id,
		TicketID:  10,
		PrizeID:   100,
		AccountID: "acct-a",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func physicalPrize() *entities.Prize {
	return &entities.Prize{ID: 100, DrawingID: 1, Rank: 1, Kind: entities.PrizeKindPhysical}
}

func digitalPrize() *entities.Prize {
	return &entities.Prize{ID: 100, DrawingID: 1, Rank: 1, Kind: entities.PrizeKindDigital}
}

func TestFulfillmentTracker_MarkNotified(t *testing.T) {
	t.Parallel()

	t.Run("pending advances and starts clock", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusPending), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusWinnerNotified && f.ForfeitDeadline != nil
		})).Return(nil)

		assert.NoError(t, m.newTracker().MarkNotified(context.Background(), 1))
		m.fulfillmentRepo.AssertExpectations(t)
	})

	t.Run("repeat notification is a no-op", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)

		assert.NoError(t, m.newTracker().MarkNotified(context.Background(), 1))
		m.fulfillmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestFulfillmentTracker_ConfirmAddress(t *testing.T) {
	t.Parallel()

	t.Run("physical prize accepts address", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(physicalPrize(), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusAddressConfirmed && *f.ShippingAddress == "1 Main St"
		})).Return(nil)

		assert.NoError(t, m.newTracker().ConfirmAddress(context.Background(), 1, "1 Main St"))
	})

	t.Run("digital prize rejects address", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(digitalPrize(), nil)

		var conflict *entities.StateConflictError
		assert.ErrorAs(t, m.newTracker().ConfirmAddress(context.Background(), 1, "1 Main St"), &conflict)
	})

	t.Run("empty address rejected", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		var verr *entities.ValidationError
		assert.ErrorAs(t, m.newTracker().ConfirmAddress(context.Background(), 1, ""), &verr)
		m.fulfillmentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestFulfillmentTracker_MarkShipped(t *testing.T) {
	t.Parallel()

	t.Run("address confirmed ships", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusAddressConfirmed), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusShipped && *f.Carrier == "UPS" && *f.TrackingNumber == "1Z999"
		})).Return(nil)

		assert.NoError(t, m.newTracker().MarkShipped(context.Background(), 1, "UPS", "1Z999"))
	})

	t.Run("shipping before address confirmation rejected", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)

		var conflict *entities.StateConflictError
		assert.ErrorAs(t, m.newTracker().MarkShipped(context.Background(), 1, "UPS", "1Z999"), &conflict)
	})
}

func TestFulfillmentTracker_MarkDelivered(t *testing.T) {
	t.Parallel()

	t.Run("shipped physical prize delivers", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusShipped), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(physicalPrize(), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusDelivered && f.DeliveredAt != nil
		})).Return(nil)

		assert.NoError(t, m.newTracker().MarkDelivered(context.Background(), 1))
	})

	t.Run("notified digital prize delivers directly", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(digitalPrize(), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		assert.NoError(t, m.newTracker().MarkDelivered(context.Background(), 1))
	})

	t.Run("notified physical prize cannot skip shipping", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(physicalPrize(), nil)

		var conflict *entities.StateConflictError
		assert.ErrorAs(t, m.newTracker().MarkDelivered(context.Background(), 1), &conflict)
	})
}

func TestFulfillmentTracker_Decline(t *testing.T) {
	t.Parallel()

	t.Run("notified winner declines", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusWinnerNotified), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusForfeited
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		assert.NoError(t, m.newTracker().Decline(context.Background(), 1))
		m.publisher.AssertExpectations(t)
	})

	t.Run("shipped prize can still be declined", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusShipped), nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusForfeited
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		assert.NoError(t, m.newTracker().Decline(context.Background(), 1))
		m.publisher.AssertExpectations(t)
	})

	t.Run("delivered prize cannot decline", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetByID", mock.Anything, int64(1)).Return(createFulfillment(1, entities.FulfillmentStatusDelivered), nil)

		var conflict *entities.StateConflictError
		assert.ErrorAs(t, m.newTracker().Decline(context.Background(), 1), &conflict)
	})
}

func TestFulfillmentTracker_CheckForfeiture(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("expired notification forfeits", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		deadline := now.Add(-24 * time.Hour) // notified 15 days ago with a 14-day window
		expired := createFulfillment(1, entities.FulfillmentStatusWinnerNotified, func(f *entities.Fulfillment) {
			f.ForfeitDeadline = &deadline
		})

		m.fulfillmentRepo.On("GetForfeitable", mock.Anything, now).Return([]*entities.Fulfillment{expired}, nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusForfeited
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		count, err := m.newTracker().CheckForfeiture(context.Background(), now)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("nothing expired", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetForfeitable", mock.Anything, now).Return([]*entities.Fulfillment{}, nil)

		count, err := m.newTracker().CheckForfeiture(context.Background(), now)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestFulfillmentTracker_DispatchPending(t *testing.T) {
	t.Parallel()

	winningTicket := func() *entities.Ticket {
		num := int64(7)
		prizeID := int64(100)
		return &entities.Ticket{
			ID:           10,
			DrawingID:    1,
			AccountID:    "acct-a",
			TicketNumber: &num,
			IsWinner:     true,
			PrizeID:      &prizeID,
		}
	}

	t.Run("pending fulfillment dispatches and advances", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetPending", mock.Anything, 10).Return([]*entities.Fulfillment{
			createFulfillment(1, entities.FulfillmentStatusPending),
		}, nil)
		m.ticketRepo.On("GetByID", mock.Anything, int64(10)).Return(winningTicket(), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(physicalPrize(), nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)
		m.fulfillmentRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *entities.Fulfillment) bool {
			return f.Status == entities.FulfillmentStatusWinnerNotified
		})).Return(nil)

		count, err := m.newTracker().DispatchPending(context.Background(), 10)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("publish failure leaves row pending for retry", func(t *testing.T) {
		t.Parallel()
		m := setupTrackerMocks()
		m.fulfillmentRepo.On("GetPending", mock.Anything, 10).Return([]*entities.Fulfillment{
			createFulfillment(1, entities.FulfillmentStatusPending),
		}, nil)
		m.ticketRepo.On("GetByID", mock.Anything, int64(10)).Return(winningTicket(), nil)
		m.prizeRepo.On("GetByID", mock.Anything, int64(100)).Return(physicalPrize(), nil)
		m.publisher.On("Publish", mock.Anything).Return(errors.New("broker down"))

		count, err := m.newTracker().DispatchPending(context.Background(), 10)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
		m.fulfillmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
