package model

type User struct {
	ID                int64
	TwitterID         string
	WalletAddress     *string
	ReferralCode      string
	TotalPoints       int
	ReferralPoints    int
	FinishedTasks     []int64
	ReferredBy        []int64
	ReferrerID        *int64
	Multiplier        int
	EncryptedPassword string
}

// UserSnapshot is the read-time projection handed to external reporting.
// Points are computed from the row, never stored.
type UserSnapshot struct {
	TwitterID     string
	WalletAddress *string
	Points        int
}

func (u *User) Snapshot() *UserSnapshot {
	return &UserSnapshot{
		TwitterID:     u.TwitterID,
		WalletAddress: u.WalletAddress,
		Points:        (u.TotalPoints + u.ReferralPoints) * u.Multiplier,
	}
}

func (u *User) HasFinishedTask(taskID int64) bool {
	for _, id := range u.FinishedTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// ReferralBonus truncates toward zero. The percent applies to the task's
// point value, not the user's cumulative total.
func ReferralBonus(points, percent int) int {
	return points * percent / 100
}
