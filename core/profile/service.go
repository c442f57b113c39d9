package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studyhuddle/backend/core"
)

const (
	// LeaderboardSize is how many top scholars the leaderboard exposes.
	LeaderboardSize = 10

	taskCompletionPoints = 10
	pointsPerStudyMinute = 10
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrEmailExists = errors.New("a profile with this email already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Profile) error
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
		// SetPushToken writes the push registration token; an invalid null.String
		// clears it.
		SetPushToken(ctx context.Context, id string, token null.String) error
		// QueryLeaderboard returns up to limit profiles ordered by study points,
		// highest first.
		QueryLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Profile) error
		Register(ctx context.Context, np NewProfile) (Profile, error)
		GetByID(ctx context.Context, id string) (Profile, error)
		GetByEmail(ctx context.Context, email string) (Profile, error)
		Update(ctx context.Context, id string, up UpdateProfile) (Profile, error)
		RegisterPushToken(ctx context.Context, id, token string) error
		ForgetPushToken(ctx context.Context, id string) error
		LogStudySession(ctx context.Context, id string, minutes int) (Profile, error)
		AwardTaskCompletion(ctx context.Context, id string) error
		Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excluded ...Profile) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excluded...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, np NewProfile) (Profile, error) {
	now := nowFunc().UTC()
	prof := Profile{
		ID:        uuid.New().String(),
		Email:     np.Email,
		FullName:  np.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := prof.SetPassword(np.Password); err != nil {
		return Profile{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateProfile(ctx, prof)
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProfile) (Profile, error) {
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	prof.FullName = up.FullName
	prof.AvatarURL = up.AvatarURL
	prof.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *service) RegisterPushToken(ctx context.Context, id, token string) error {
	return svc.repo.SetPushToken(ctx, id, null.StringFrom(token))
}

func (svc *service) ForgetPushToken(ctx context.Context, id string) error {
	return svc.repo.SetPushToken(ctx, id, null.String{})
}

// LogStudySession credits a finished pomodoro session: minutes are added to
// the lifetime total, points are earned per minute and the daily streak is
// touched.
func (svc *service) LogStudySession(ctx context.Context, id string, minutes int) (Profile, error) {
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	now := nowFunc().UTC()
	prof.TotalStudyMinutes += minutes
	prof.StudyPoints += minutes * pointsPerStudyMinute
	touchStreak(&prof, now)
	prof.UpdatedAt = now
	return svc.repo.UpdateProfile(ctx, prof)
}

// AwardTaskCompletion credits a completed task: fixed points plus a streak touch.
func (svc *service) AwardTaskCompletion(ctx context.Context, id string) error {
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return err
	}
	now := nowFunc().UTC()
	prof.StudyPoints += taskCompletionPoints
	touchStreak(&prof, now)
	prof.UpdatedAt = now
	_, err = svc.repo.UpdateProfile(ctx, prof)
	return err
}

func (svc *service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	return svc.repo.QueryLeaderboard(ctx, LeaderboardSize)
}

// touchStreak updates the daily study streak: studying twice the same day is
// a no-op, studying on consecutive days extends the streak, anything else
// restarts it.
func touchStreak(prof *Profile, now time.Time) {
	today := truncateToDay(now)
	if prof.LastStudyDate.Valid {
		last := truncateToDay(prof.LastStudyDate.Time)
		switch {
		case last.Equal(today):
			return
		case last.Equal(today.AddDate(0, 0, -1)):
			prof.CurrentStreak++
		default:
			prof.CurrentStreak = 1
		}
	} else {
		prof.CurrentStreak = 1
	}
	prof.LastStudyDate = null.TimeFrom(today)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
