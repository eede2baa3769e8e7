package checks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cataloro/probe/apperr"
	"github.com/cataloro/probe/cataloro"
	"github.com/go-redis/redis/v7"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
)

const adminTokenKey = "probe:token:admin"

// Service holds everything the checks need: backend config, the run
// store, the redis cache and a logger. Mirrors the other service structs
// in this codebase.
type Service struct {
	Config cataloro.ProbeConfig
	Store  RunStore
	Redis  *redis.Client
	Logger *logrus.Logger
}

// RunStore persists finished runs. Implemented by dashboard.Service.
type RunStore interface {
	SaveRun(run *Run) error
}

func (s *Service) newClient() *cataloro.Client {
	return cataloro.NewClient(s.Config.BaseURL, s.Config.Timeout(), s.Logger)
}

// login authenticates one actor and returns the session client plus the
// user record the backend reported.
func (s *Service) login(ctx context.Context, email, password string) (*cataloro.Client, *cataloro.AuthUser, error) {
	client := s.newClient()
	req := cataloro.LoginRequest{Email: email, Password: password}
	if s.Config.TOTPSecret != "" && email == s.Config.AdminEmail {
		code, err := totp.GenerateCode(s.Config.TOTPSecret, time.Now())
		if err != nil {
			return nil, nil, fmt.Errorf("generate totp: %w", err)
		}
		req.TOTPCode = code
	}
	res, err := client.Login(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return client, &res.User, nil
}

func (s *Service) loginAdmin(ctx context.Context) (*cataloro.Client, *cataloro.AuthUser, error) {
	// reuse a cached admin token when redis has one; a stale token just
	// falls through to a fresh login
	if s.Redis != nil {
		if token, err := s.Redis.Get(adminTokenKey).Result(); err == nil && token != "" {
			client := s.newClient()
			client.Token = token
			if user, err := client.Profile(ctx); err == nil {
				return client, user, nil
			}
		}
	}
	client, user, err := s.login(ctx, s.Config.AdminEmail, s.Config.AdminPassword)
	if err != nil {
		return nil, nil, err
	}
	if s.Redis != nil {
		if err := s.Redis.Set(adminTokenKey, client.Token, 30*time.Minute).Err(); err != nil {
			s.Logger.WithFields(logrus.Fields{"code": err.Error()}).Info("could not cache admin token")
		}
	}
	return client, user, nil
}

func (s *Service) loginBuyer(ctx context.Context) (*cataloro.Client, *cataloro.AuthUser, error) {
	return s.login(ctx, s.Config.BuyerEmail, s.Config.BuyerPassword)
}

func (s *Service) loginSeller(ctx context.Context) (*cataloro.Client, *cataloro.AuthUser, error) {
	return s.login(ctx, s.Config.SellerEmail, s.Config.SellerPassword)
}

// waitFor polls fn until it reports done, the consistency window closes,
// or the context is cancelled. The backend settles writes asynchronously,
// so reads right after a write may lag.
func (s *Service) waitFor(ctx context.Context, what string, fn func() (bool, error)) error {
	deadline := time.Now().Add(s.Config.ConsistencyTimeout())
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return apperr.Wrap(fmt.Errorf("gave up waiting for %s", what), apperr.ErrConsistency, "")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Config.PollInterval()):
		}
	}
}

// classify maps client errors onto the probe failure classes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, cataloro.ErrConnectivity):
		return apperr.Wrap(err, apperr.ErrBackendDown, "")
	case errors.Is(err, cataloro.ErrSchema), errors.Is(err, cataloro.ErrContentType):
		return apperr.Wrap(err, apperr.ErrSchemaMismatch, "")
	}
	var apiErr *cataloro.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 401 || apiErr.Status == 403 {
			return apperr.Wrap(err, apperr.ErrAuth, "")
		}
		return apperr.Wrap(err, apperr.ErrBackendStatus, "")
	}
	return apperr.Wrap(err, apperr.ErrInternal, "")
}
