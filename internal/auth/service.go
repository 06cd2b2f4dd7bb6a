package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bher20/copierbill/internal/session"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"golang.org/x/crypto/bcrypt"
)

// Roles a session can carry.
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// Objects and actions checked by RequirePermission.
const (
	ObjCustomers = "customers"
	ObjInvoices  = "invoices"
	ObjBilling   = "billing"
	ObjSettings  = "settings"

	ActRead  = "read"
	ActWrite = "write"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

// Options configures the shared-password login.
type Options struct {
	// Disabled grants every request the operator role without a session.
	Disabled bool
	// PasswordHash is the bcrypt hash of the operator password.
	PasswordHash string
	// ViewerPasswordHash optionally enables a read-only login.
	ViewerPasswordHash string
	// SessionTTL of zero keeps sessions until logout.
	SessionTTL time.Duration
}

type Service struct {
	opts     Options
	sessions session.Store
	enforcer *casbin.Enforcer
}

func NewService(opts Options, sessions session.Store) (*Service, error) {
	if !opts.Disabled && opts.PasswordHash == "" {
		return nil, errors.New("auth: operator password hash is required")
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := [][]string{
		{RoleOperator, "*", "*"},
		{RoleViewer, ObjCustomers, ActRead},
		{RoleViewer, ObjInvoices, ActRead},
		{RoleViewer, ObjBilling, ActRead},
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}

	return &Service{opts: opts, sessions: sessions, enforcer: e}, nil
}

// HashPassword returns a bcrypt hash for a plaintext password from config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the password against the operator and viewer hashes and
// issues a session token for the matching role.
func (s *Service) Login(ctx context.Context, password string) (token, role string, err error) {
	if s.opts.Disabled {
		return "", RoleOperator, nil
	}
	switch {
	case matches(s.opts.PasswordHash, password):
		role = RoleOperator
	case matches(s.opts.ViewerPasswordHash, password):
		role = RoleViewer
	default:
		return "", "", ErrInvalidCredentials
	}

	token, err = s.sessions.Create(ctx, role, s.opts.SessionTTL)
	if err != nil {
		return "", "", err
	}
	return token, role, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if s.opts.Disabled {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// Resolve returns the role for a session token.
func (s *Service) Resolve(ctx context.Context, token string) (string, bool, error) {
	if s.opts.Disabled {
		return RoleOperator, true, nil
	}
	return s.sessions.Lookup(ctx, token)
}

func (s *Service) Enforce(role, obj, act string) (bool, error) {
	return s.enforcer.Enforce(role, obj, act)
}

func matches(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
