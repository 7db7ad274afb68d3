package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferralBonus(t *testing.T) {
	tests := []struct {
		name     string
		points   int
		percent  int
		expected int
	}{
		{"Even split", 100, 10, 10},
		{"Truncates toward zero", 95, 10, 9},
		{"Below one point", 5, 10, 0},
		{"Odd percent", 33, 15, 4},
		{"Zero points", 0, 10, 0},
		{"Zero percent", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReferralBonus(tt.points, tt.percent))
		})
	}
}

func TestUser_Snapshot(t *testing.T) {
	wallet := "wallet_a"

	tests := []struct {
		name           string
		totalPoints    int
		referralPoints int
		multiplier     int
		expected       int
	}{
		{"Zero multiplier", 500, 50, 0, 0},
		{"Identity multiplier", 100, 10, 1, 110},
		{"Boosted", 30, 7, 5, 185},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{
				TwitterID:      "alice",
				WalletAddress:  &wallet,
				TotalPoints:    tt.totalPoints,
				ReferralPoints: tt.referralPoints,
				Multiplier:     tt.multiplier,
			}

			s := u.Snapshot()
			assert.Equal(t, tt.expected, s.Points)
			assert.Equal(t, "alice", s.TwitterID)
			assert.Equal(t, &wallet, s.WalletAddress)
		})
	}
}

func TestUser_HasFinishedTask(t *testing.T) {
	u := &User{FinishedTasks: []int64{1, 3, 5}}

	assert.True(t, u.HasFinishedTask(3))
	assert.False(t, u.HasFinishedTask(2))
	assert.False(t, (&User{}).HasFinishedTask(1))
}
