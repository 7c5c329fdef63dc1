package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) error
	GetByID(dbc dbctx.Context, id uint) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	List(dbc dbctx.Context) ([]*types.User, error)
	ListUsernamesByRole(dbc dbctx.Context, role string) ([]string, error)
	Update(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uint) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) error {
	if u == nil {
		return nil
	}
	return dbc.DB(r.db).Create(u).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uint) (*types.User, error) {
	if id == 0 {
		return nil, nil
	}
	var out types.User
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var out types.User
	err := dbc.DB(r.db).Where("username = ?", username).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) List(dbc dbctx.Context) ([]*types.User, error) {
	var out []*types.User
	err := dbc.DB(r.db).Order("username ASC").Find(&out).Error
	return out, err
}

func (r *userRepo) ListUsernamesByRole(dbc dbctx.Context, role string) ([]string, error) {
	var out []string
	err := dbc.DB(r.db).
		Model(&types.User{}).
		Where("LOWER(role) = ?", strings.ToLower(strings.TrimSpace(role))).
		Order("username ASC").
		Pluck("username", &out).Error
	return out, err
}

func (r *userRepo) Update(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepo) Delete(dbc dbctx.Context, id uint) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.User{})
	return res.RowsAffected > 0, res.Error
}
