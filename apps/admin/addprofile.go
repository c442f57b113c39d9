package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/profile"
)

// addProfile updates or creates a profile.Profile.
func (cli *commandLine) addProfile(email, name, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	now := time.Now().UTC()

	prof, err := cli.profRepo.GetProfileByEmail(ctx, email)
	if err != nil {
		if err != profile.ErrNotFound {
			return err
		}
		prof = profile.Profile{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: now,
		}
	}
	prof.FullName = name
	prof.UpdatedAt = now
	if err = prof.SetPassword(pwd); err != nil {
		return err
	}

	if prof.CreatedAt.Equal(now) {
		_, err = cli.profRepo.CreateProfile(ctx, prof)
	} else {
		_, err = cli.profRepo.UpdateProfile(ctx, prof)
	}
	return err
}
