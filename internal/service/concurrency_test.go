package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/pkg/util/errorutil"
)

func TestConcurrentExtendsAreAdditive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.store.PutUser(domain.User{IsPremium: true, PremiumExpiresAt: timePtr(domain.AddMonths(t0, 1))})

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.premium.Extend(ctx, operator, u.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	user := f.user(t, u.ID)
	require.NotNil(t, user.PremiumExpiresAt)
	assert.Equal(t, domain.AddMonths(t0, workers+1), *user.PremiumExpiresAt)
	assert.Equal(t, int64(1+workers), user.Version)

	active := 0
	for _, e := range f.ledger(t, u.ID) {
		if e.Status == domain.LedgerStatusActive {
			active++
			assert.Equal(t, *user.PremiumExpiresAt, *e.EndDate)
		}
	}
	assert.Equal(t, 1, active)
	assert.Len(t, f.ledger(t, u.ID), workers)
	assert.Len(t, f.eventsOf(events.EventPremiumExtended), workers)
}

func TestConcurrentApproveAndRejectSettleRejected(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := newFixture(t)
		ctx := context.Background()
		u := f.store.PutUser(domain.User{})
		r := f.store.PutVerification(domain.VerificationRequest{UserID: u.ID, VerificationType: "id_card"})

		var (
			wg         sync.WaitGroup
			approveErr error
			rejectErr  error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, approveErr = f.verifications.Approve(ctx, operator, r.ID)
		}()
		go func() {
			defer wg.Done()
			rejectErr = f.verifications.Reject(ctx, operator, r.ID)
		}()
		wg.Wait()

		require.NoError(t, rejectErr)
		approvedEvents := f.eventsOf(events.EventVerificationApproved)
		if approveErr != nil {
			assert.True(t, errorutil.HasCode(approveErr, errorutil.CodeNotFound), approveErr)
			assert.Empty(t, approvedEvents)
		} else {
			assert.Len(t, approvedEvents, 1)
		}

		_, err := f.store.Verifications().GetByID(ctx, r.ID)
		assert.Error(t, err)
		user := f.user(t, u.ID)
		assert.False(t, user.IsVerified)
		assert.Len(t, f.eventsOf(events.EventVerificationRejected), 1)
	}
}

func TestConcurrentGrantAndRevokeKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users := make([]domain.User, 10)
	for i := range users {
		users[i] = f.store.PutUser(domain.User{})
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*len(users))
	for _, u := range users {
		u := u
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.premium.Grant(ctx, operator, GrantInput{UserID: u.ID, PlanType: domain.PlanMonthly})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.premium.Revoke(ctx, operator, u.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, u := range users {
		user := f.user(t, u.ID)
		entries := f.ledger(t, u.ID)
		require.Len(t, entries, 1)

		if user.IsPremium {
			require.NotNil(t, user.PremiumExpiresAt)
			assert.Equal(t, domain.LedgerStatusActive, entries[0].Status)
			assert.Equal(t, *user.PremiumExpiresAt, *entries[0].EndDate)
		} else {
			assert.Nil(t, user.PremiumExpiresAt)
			assert.Equal(t, domain.LedgerStatusCancelled, entries[0].Status)
		}
	}
	assert.Len(t, f.eventsOf(events.EventPremiumGranted), len(users))
	assert.Len(t, f.eventsOf(events.EventPremiumRevoked), len(users))
}
