package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

type fakeRepo struct {
	profiles map[string]Profile
	limit    int
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[string]Profile)}
}

func (repo *fakeRepo) CheckEmailUniqueness(_ context.Context, email string, excluded ...Profile) error {
	for _, p := range repo.profiles {
		if p.Email != email {
			continue
		}
		var excl bool
		for _, e := range excluded {
			if e.ID == p.ID {
				excl = true
			}
		}
		if !excl {
			return ErrEmailExists
		}
	}
	return nil
}

func (repo *fakeRepo) CreateProfile(_ context.Context, p Profile) (Profile, error) {
	repo.profiles[p.ID] = p
	return p, nil
}

func (repo *fakeRepo) GetProfileByID(_ context.Context, id string) (Profile, error) {
	if p, ok := repo.profiles[id]; ok {
		return p, nil
	}
	return Profile{}, ErrNotFound
}

func (repo *fakeRepo) GetProfileByEmail(_ context.Context, email string) (Profile, error) {
	for _, p := range repo.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (repo *fakeRepo) UpdateProfile(_ context.Context, p Profile) (Profile, error) {
	if _, ok := repo.profiles[p.ID]; !ok {
		return Profile{}, ErrNotFound
	}
	repo.profiles[p.ID] = p
	return p, nil
}

func (repo *fakeRepo) SetPushToken(_ context.Context, id string, token null.String) error {
	p, ok := repo.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.FCMToken = token
	repo.profiles[id] = p
	return nil
}

func (repo *fakeRepo) QueryLeaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	repo.limit = limit
	return nil, nil
}

func mockNow(t *testing.T, at time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = time.Now })
}

func TestService_Register(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	prof, err := svc.Register(ctx, NewProfile{
		Email:    "jane@uni.test",
		FullName: "Jane Poe",
		Password: "s3cretword",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	assert.NotEmpty(t, prof.ID)
	assert.Equal(t, "jane@uni.test", prof.Email)
	assert.NoError(t, prof.CheckPassword("s3cretword"))
	assert.Error(t, prof.CheckPassword("wrong"))
	assert.Zero(t, prof.StudyPoints)

	// email taken
	err = svc.CheckEmailUniqueness(ctx, "jane@uni.test")
	assert.Error(t, err)
}

func TestService_LogStudySession(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()
	day1 := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	mockNow(t, day1)

	prof, err := svc.Register(ctx, NewProfile{Email: "a@b.test", FullName: "A", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	prof, err = svc.LogStudySession(ctx, prof.ID, 25)
	if err != nil {
		t.Fatalf("LogStudySession() failed: %v", err)
	}
	assert.Equal(t, 25, prof.TotalStudyMinutes)
	assert.Equal(t, 250, prof.StudyPoints) // 10 points per minute
	assert.Equal(t, 1, prof.CurrentStreak)

	// same day: streak untouched
	mockNow(t, day1.Add(3*time.Hour))
	prof, _ = svc.LogStudySession(ctx, prof.ID, 25)
	assert.Equal(t, 50, prof.TotalStudyMinutes)
	assert.Equal(t, 1, prof.CurrentStreak)

	// next day: streak extends
	mockNow(t, day1.AddDate(0, 0, 1))
	prof, _ = svc.LogStudySession(ctx, prof.ID, 10)
	assert.Equal(t, 2, prof.CurrentStreak)

	// a missed day resets the streak
	mockNow(t, day1.AddDate(0, 0, 4))
	prof, _ = svc.LogStudySession(ctx, prof.ID, 10)
	assert.Equal(t, 1, prof.CurrentStreak)
}

func TestService_AwardTaskCompletion(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()
	mockNow(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))

	prof, err := svc.Register(ctx, NewProfile{Email: "a@b.test", FullName: "A", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if err = svc.AwardTaskCompletion(ctx, prof.ID); err != nil {
		t.Fatalf("AwardTaskCompletion() failed: %v", err)
	}

	prof, _ = svc.GetByID(ctx, prof.ID)
	assert.Equal(t, 10, prof.StudyPoints)
	assert.Equal(t, 1, prof.CurrentStreak)

	assert.Equal(t, ErrNotFound, svc.AwardTaskCompletion(ctx, "nope"))
}

func TestService_PushTokenLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	prof, err := svc.Register(ctx, NewProfile{Email: "a@b.test", FullName: "A", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	assert.NoError(t, svc.RegisterPushToken(ctx, prof.ID, "device-token"))
	prof, _ = svc.GetByID(ctx, prof.ID)
	assert.True(t, prof.CanReceivePush())
	assert.Equal(t, "device-token", prof.FCMToken.String)

	assert.NoError(t, svc.ForgetPushToken(ctx, prof.ID))
	prof, _ = svc.GetByID(ctx, prof.ID)
	assert.False(t, prof.CanReceivePush())
}

func TestService_Leaderboard(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Leaderboard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, LeaderboardSize, repo.limit)
}
