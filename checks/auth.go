package checks

import (
	"context"
	"time"

	"github.com/cataloro/probe/cataloro"
)

// AuthCheck exercises the login contract: admin credentials authenticate,
// the bearer token carries the advertised claims, the profile endpoint
// round-trips the same user, and a garbage token is rejected.
func (s *Service) AuthCheck(ctx context.Context) Result {
	r := newResult(CheckAuth)

	client, user, err := s.login(ctx, s.Config.AdminEmail, s.Config.AdminPassword)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	r.expect("login.role", cataloro.RoleAdmin, user.Role)
	r.expectTrue("login.is_active", user.IsActive, user.IsActive)

	claims, err := client.Claims()
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("token.user_id", user.ID, claims.UserID)
	r.expect("token.role", cataloro.RoleAdmin, claims.Role)
	expiry := time.Unix(claims.ExpiresAt, 0)
	r.expectTrue("token.not_expired", expiry.After(time.Now()), expiry.UTC().Format(time.RFC3339))

	profile, err := client.Profile(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("profile.id", user.ID, profile.ID)
	r.expect("profile.email", user.Email, profile.Email)

	// a made-up token must not authenticate
	bogus := s.newClient()
	bogus.Token = "not-a-real-token"
	if _, err := bogus.Profile(ctx); err == nil {
		r.expectTrue("reject.garbage_token", false, "accepted")
	} else {
		r.expectTrue("reject.garbage_token", true, "rejected")
	}

	return r.done()
}
