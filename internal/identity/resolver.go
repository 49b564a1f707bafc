package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

const (
	ErrDomainNotAllowed = "domain_not_allowed"
	ErrMissingEmail     = "missing_email"
	ErrServerError      = "server_error"

	// DefaultDepartment is assigned to auto-registered teacher accounts.
	DefaultDepartment = "General"
)

// DomainRestrictedMessage is the fixed denial text shown to non-institutional
// identities.
const DomainRestrictedMessage = "Access Restricted: Only @neu.edu.ph emails are allowed."

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code
}

// RoleCache remembers the role a user asked for at login so it survives page
// reloads within the same browser session.
type RoleCache interface {
	PreferredRole(ctx context.Context, email string) (model.Role, bool, error)
	SetPreferredRole(ctx context.Context, email string, role model.Role) error
}

// Registry is the slice of the teacher registry the resolver needs for
// professor auto-registration.
type Registry interface {
	FindTeacherByEmailOrName(ctx context.Context, email, name string) (model.TeacherAccount, error)
	CreateTeacher(ctx context.Context, teacher model.TeacherAccount) error
}

type Resolver struct {
	domain         string
	demoAdminEmail string
	cache          RoleCache
	registry       Registry
}

// NewResolver builds a resolver for the given institutional domain (without
// the leading @). cache and registry may be nil; the corresponding side
// effects are then skipped.
func NewResolver(domain, demoAdminEmail string, cache RoleCache, registry Registry) *Resolver {
	return &Resolver{
		domain:         strings.TrimPrefix(strings.ToLower(domain), "@"),
		demoAdminEmail: strings.ToLower(demoAdminEmail),
		cache:          cache,
		registry:       registry,
	}
}

// Input is the externally authenticated identity as reported by the
// provider, plus the role the user picked on the login form (if any).
type Input struct {
	Subject       string
	Email         string
	Name          string
	PreferredRole model.Role
}

// Resolve maps an external identity to an application user. One validation
// pass per identity; a domain rejection is terminal until the user
// re-authenticates.
func (r *Resolver) Resolve(ctx context.Context, input Input) (model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return model.User{}, &Error{Code: ErrMissingEmail}
	}
	if !strings.HasSuffix(email, "@"+r.domain) {
		return model.User{}, &Error{Code: ErrDomainNotAllowed, Message: DomainRestrictedMessage}
	}

	preferred := input.PreferredRole
	if preferred == "" && r.cache != nil {
		cached, ok, err := r.cache.PreferredRole(ctx, email)
		if err != nil {
			return model.User{}, &Error{Code: ErrServerError}
		}
		if ok {
			preferred = cached
		}
	}

	// An explicit admin preference wins; otherwise fall back to the
	// local-part heuristic. A professor preference does not override the
	// heuristic, matching the login-form behavior.
	role := model.RoleProfessor
	if preferred == model.RoleAdmin {
		role = model.RoleAdmin
	} else if strings.HasPrefix(localPart(email), "admin") || email == r.demoAdminEmail {
		role = model.RoleAdmin
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = localPart(email)
	}

	if input.PreferredRole != "" && r.cache != nil {
		if err := r.cache.SetPreferredRole(ctx, email, input.PreferredRole); err != nil {
			return model.User{}, &Error{Code: ErrServerError}
		}
	}

	user := model.User{
		ID:    input.Subject,
		Email: email,
		Role:  role,
		Name:  name,
	}
	if user.ID == "" {
		user.ID = email
	}

	if role == model.RoleProfessor && r.registry != nil {
		if err := r.autoRegister(ctx, user); err != nil {
			return model.User{}, err
		}
	}
	return user, nil
}

func (r *Resolver) autoRegister(ctx context.Context, user model.User) error {
	_, err := r.registry.FindTeacherByEmailOrName(ctx, user.Email, user.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return &Error{Code: ErrServerError}
	}

	displayID, err := randomDisplayID()
	if err != nil {
		return &Error{Code: ErrServerError}
	}
	now := time.Now().UTC()
	if err := r.registry.CreateTeacher(ctx, model.TeacherAccount{
		ID:         displayID,
		Name:       user.Name,
		Email:      user.Email,
		Department: DefaultDepartment,
		Status:     model.TeacherStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return &Error{Code: ErrServerError}
	}
	return nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

func randomDisplayID() (string, error) {
	value, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("T-%04d", value.Int64()), nil
}
