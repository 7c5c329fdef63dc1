package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/domain/user"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

var knownRoles = map[string]struct{}{
	user.RoleAdmin:      {},
	user.RoleOperator:   {},
	user.RoleSupervisor: {},
	user.RoleHOD:        {},
	user.RoleHOF:        {},
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserService manages the directory that sign-off assignments draw from.
type UserService interface {
	List(ctx context.Context) ([]*types.User, error)
	ListByRole(ctx context.Context, role string) ([]string, error)
	Create(ctx context.Context, in UserInput) (*types.User, error)
	Update(ctx context.Context, id uint, in UserInput) (*types.User, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	log   *logger.Logger
	users repos.UserRepo
	cost  int
}

func NewUserService(baseLog *logger.Logger, users repos.UserRepo) UserService {
	return &userService{
		log:   baseLog.With("service", "UserService"),
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	out, err := us.users.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, aggregates.MapError("users.list", err)
	}
	return out, nil
}

func (us *userService) ListByRole(ctx context.Context, role string) ([]string, error) {
	names, err := us.users.ListUsernamesByRole(dbctx.Context{Ctx: ctx}, normalizeRole(role))
	if err != nil {
		return nil, aggregates.MapError("users.by_role", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (us *userService) Create(ctx context.Context, in UserInput) (*types.User, error) {
	const op = "users.create"
	username := strings.TrimSpace(in.Username)
	role := normalizeRole(in.Role)
	if username == "" || in.Password == "" {
		return nil, domainagg.Validation(op, "username and password are required")
	}
	if _, ok := knownRoles[role]; !ok {
		return nil, domainagg.Validation(op, fmt.Sprintf("unknown role %q", in.Role))
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := us.users.GetByUsername(dbc, username)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if existing != nil {
		return nil, domainagg.NewError(domainagg.CodeConflict, op, fmt.Sprintf("username %q is taken", username), nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), us.cost)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	u := &types.User{Username: username, Password: string(hash), Role: role}
	if err := us.users.Create(dbc, u); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	us.log.Info("user created", "username", username, "role", role)
	return u, nil
}

// Update changes the role and, when given, the password. The username is
// immutable because sign-off slots reference it.
func (us *userService) Update(ctx context.Context, id uint, in UserInput) (*types.User, error) {
	const op = "users.update"
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.users.GetByID(dbc, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if u == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("user %d not found", id))
	}
	updates := map[string]interface{}{}
	if strings.TrimSpace(in.Role) != "" {
		role := normalizeRole(in.Role)
		if _, ok := knownRoles[role]; !ok {
			return nil, domainagg.Validation(op, fmt.Sprintf("unknown role %q", in.Role))
		}
		updates["role"] = role
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), us.cost)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		updates["password"] = string(hash)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := us.users.Update(dbc, id, updates); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return us.users.GetByID(dbc, id)
}

func (us *userService) Delete(ctx context.Context, id uint) error {
	const op = "users.delete"
	ok, err := us.users.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if !ok {
		return domainagg.NotFound(op, fmt.Sprintf("user %d not found", id))
	}
	return nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(u *types.User, plain string) bool {
	if u == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
