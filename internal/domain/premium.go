package domain

import "time"

// PlanType names a premium plan. Only monthly and yearly plans are dated;
// every other plan is an unlimited grant.
type PlanType string

const (
	PlanMonthly  PlanType = "monthly"
	PlanYearly   PlanType = "yearly"
	PlanLifetime PlanType = "lifetime"
	// PlanExtension marks ledger rows written by an extension. It cannot be granted.
	PlanExtension PlanType = "extension"
)

// LedgerStatus is the lifecycle of a ledger entry.
type LedgerStatus string

const (
	LedgerStatusActive     LedgerStatus = "active"
	LedgerStatusSuperseded LedgerStatus = "superseded"
	LedgerStatusCancelled  LedgerStatus = "cancelled"
	LedgerStatusExpired    LedgerStatus = "expired"
)

// PremiumLedgerEntry records one grant or extension. EndDate is nil for
// unlimited grants. AmountMinor is in minor currency units (kuruş, cents).
type PremiumLedgerEntry struct {
	ID          string
	UserID      string
	PlanType    PlanType
	StartDate   time.Time
	EndDate     *time.Time
	AmountMinor int64
	Currency    string
	Status      LedgerStatus
	GrantedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PremiumState is the read-time view of a user's entitlement.
type PremiumState string

const (
	PremiumStateNone         PremiumState = "none"
	PremiumStateActive       PremiumState = "active"
	PremiumStateExpiringSoon PremiumState = "expiring_soon"
	PremiumStateUnlimited    PremiumState = "unlimited"
	PremiumStateExpired      PremiumState = "expired"
)

// EndDateFor computes the expiry of a plan started at start. Nil means unlimited.
func EndDateFor(plan PlanType, start time.Time) *time.Time {
	var end time.Time
	switch plan {
	case PlanMonthly:
		end = AddMonths(start, 1)
	case PlanYearly:
		end = AddMonths(start, 12)
	default:
		return nil
	}
	return &end
}

// AddMonths adds calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)
	if last := daysIn(year, target, t.Location()); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// IsActive reports a premium flag backed by an unexpired or unlimited grant.
func (u *User) IsActive(now time.Time) bool {
	if u == nil || !u.IsPremium {
		return false
	}
	return u.PremiumExpiresAt == nil || u.PremiumExpiresAt.After(now)
}

// IsExpired reports the interim state of a premium flag whose expiry passed
// without a revoke.
func (u *User) IsExpired(now time.Time) bool {
	return u != nil && u.IsPremium && u.PremiumExpiresAt != nil && !u.PremiumExpiresAt.After(now)
}

// PremiumState classifies the user's entitlement at now. window is the
// expiring-soon horizon.
func (u *User) PremiumState(now time.Time, window time.Duration) PremiumState {
	switch {
	case u == nil || !u.IsPremium:
		return PremiumStateNone
	case u.PremiumExpiresAt == nil:
		return PremiumStateUnlimited
	case u.IsExpired(now):
		return PremiumStateExpired
	case u.PremiumExpiresAt.Sub(now) <= window:
		return PremiumStateExpiringSoon
	default:
		return PremiumStateActive
	}
}
