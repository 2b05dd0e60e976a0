package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mealauth/mealauth/pkg/domain"
)

// Load reads the persisted session. A stored user or timestamp that no
// longer parses is reported as absent rather than as an error.
func Load(ctx context.Context, s Store) (domain.Session, error) {
	var sess domain.Session

	token, _, err := s.Get(ctx, KeyToken)
	if err != nil {
		return sess, fmt.Errorf("session.Load: token: %w", err)
	}
	sess.Token = token

	raw, ok, err := s.Get(ctx, KeyUser)
	if err != nil {
		return sess, fmt.Errorf("session.Load: user: %w", err)
	}
	if ok && raw != "" {
		var u domain.UserProfile
		if json.Unmarshal([]byte(raw), &u) == nil {
			sess.User = &u
		}
	}

	raw, ok, err = s.Get(ctx, KeyLastAuth)
	if err != nil {
		return sess, fmt.Errorf("session.Load: last auth: %w", err)
	}
	if ok {
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil && ms > 0 {
			sess.LastAuthAt = time.UnixMilli(ms)
		}
	}
	return sess, nil
}

// SaveLogin persists a freshly issued token and the profile it belongs to.
func SaveLogin(ctx context.Context, s Store, token string, user domain.UserProfile) error {
	if err := s.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("session.SaveLogin: token: %w", err)
	}
	if err := SaveUser(ctx, s, user); err != nil {
		return fmt.Errorf("session.SaveLogin: %w", err)
	}
	return nil
}

// SaveUser replaces the cached profile.
func SaveUser(ctx context.Context, s Store, user domain.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session.SaveUser: marshal: %w", err)
	}
	if err := s.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("session.SaveUser: %w", err)
	}
	return nil
}

// SaveLastAuth records the time of the last successful meal authorization,
// with millisecond precision.
func SaveLastAuth(ctx context.Context, s Store, t time.Time) error {
	if err := s.Set(ctx, KeyLastAuth, strconv.FormatInt(t.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("session.SaveLastAuth: %w", err)
	}
	return nil
}

// Clear removes every persisted session field.
func Clear(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, Keys...); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}
