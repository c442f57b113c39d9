package profile

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyhuddle/backend/core"
)

// Profile is a student's account: identity, push registration and
// study-gamification counters.
type Profile struct {
	ID                string      `json:"id"`
	Email             string      `json:"email"`
	FullName          string      `json:"full_name"`
	AvatarURL         string      `json:"avatar_url,omitempty"`
	PasswordHash      []byte      `json:"-"`
	FCMToken          null.String `json:"-"`
	StudyPoints       int         `json:"study_points"`
	CurrentStreak     int         `json:"current_streak"`
	LastStudyDate     null.Time   `json:"last_study_date,omitempty"`
	TotalStudyMinutes int         `json:"total_study_minutes"`
	CreatedAt         time.Time   `json:"created_at"` // UTC
	UpdatedAt         time.Time   `json:"updated_at"` // UTC
}

func (p *Profile) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Profile) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

// CanReceivePush reports whether the profile has a usable push registration.
func (p *Profile) CanReceivePush() bool {
	return p.FCMToken.Valid && p.FCMToken.String != ""
}

// NewProfile contains information needed to register a new Profile.
type NewProfile struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewProfile) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.FullName = core.CleanString(np.FullName)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, np.Email)
}

// UpdateProfile defines what information a student may change on their own profile.
type UpdateProfile struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

func (up *UpdateProfile) Validate(orig Profile, validate *validator.Validate) error {
	name := core.CleanString(up.FullName)
	if name != "" {
		up.FullName = name
	} else {
		up.FullName = orig.FullName
	}
	up.AvatarURL = core.CleanString(up.AvatarURL)
	return validate.Struct(up)
}

// RegisterToken carries a device push registration token.
type RegisterToken struct {
	Token string `json:"token" validate:"required"`
}

func (rt *RegisterToken) Validate(validate *validator.Validate) error {
	rt.Token = core.CleanString(rt.Token)
	return validate.Struct(rt)
}

// StudySession reports a finished pomodoro session.
type StudySession struct {
	Minutes int `json:"minutes" validate:"required,gt=0,lte=720"`
}

func (ss StudySession) Validate(validate *validator.Validate) error {
	return validate.Struct(ss)
}

// LeaderboardEntry is a public leaderboard row.
type LeaderboardEntry struct {
	FullName    string `json:"full_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	StudyPoints int    `json:"study_points"`
}
