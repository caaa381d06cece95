package service

import (
	"errors"
	"strings"
	"time"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/model"
	moduledto "sd-gallery-server/internal/modules/user/dto"
	"sd-gallery-server/internal/modules/user/repo"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
)

type Service struct {
	*platformservice.AppService
	userStore repo.UserStore
}

func New(appService *platformservice.AppService, userStore repo.UserStore) *Service {
	return &Service{
		AppService: appService,
		userStore:  userStore,
	}
}

// Register 注册新用户，密码以 bcrypt 哈希保存
func (s *Service) Register(req moduledto.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if ok, msg := utils.ValidateUsername(username); !ok {
		return nil, platformservice.NewValidationError(msg)
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		return nil, platformservice.NewValidationError(msg)
	}
	email := strings.TrimSpace(req.Email)
	if ok, msg := utils.ValidateEmail(email); !ok {
		return nil, platformservice.NewValidationError(msg)
	}
	dob, ok, msg := utils.ParseDateOfBirth(req.DateOfBirth, s.Now())
	if !ok {
		return nil, platformservice.NewValidationError(msg)
	}

	taken, err := s.userStore.UsernameExists(username)
	if err != nil {
		return nil, platformservice.Internal("注册失败", err)
	}
	if taken {
		return nil, platformservice.Validation(ErrUsernameTaken)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, platformservice.Internal("注册失败", err)
	}

	user := &model.User{
		Username:    username,
		Password:    string(hashed),
		Email:       email,
		DateOfBirth: dob,
	}
	if err := s.userStore.Create(user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if isDuplicateKey(err) {
			return nil, platformservice.Validation(ErrUsernameTaken)
		}
		return nil, platformservice.Internal("注册失败", err)
	}

	s.Logger().Info("👤 新用户注册", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 按用户名或邮箱校验密码并签发登录令牌。用户不存在与密码错误返回相同的错误。
func (s *Service) Login(req moduledto.LoginRequest) (*moduledto.LoginResponse, error) {
	account := req.Account()
	if account == "" {
		return nil, platformservice.Validation(ErrInvalidCredentials)
	}
	user, err := s.findByAccount(account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformservice.Validation(ErrInvalidCredentials)
		}
		return nil, platformservice.Internal("登录失败", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, platformservice.Validation(ErrInvalidCredentials)
	}

	hours := config.Get().JWT.ExpirationHours
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateLoginToken(user.ID, user.Username, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, platformservice.Internal("登录失败", err)
	}

	return &moduledto.LoginResponse{ID: user.ID, Username: user.Username, Token: token}, nil
}

// findByAccount 先按用户名查找，包含 @ 时再按邮箱查找
func (s *Service) findByAccount(account string) (*model.User, error) {
	user, err := s.userStore.FindByUsername(account)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) || !strings.Contains(account, "@") {
		return user, err
	}
	return s.userStore.FindByEmail(account)
}

// Exists 用于图库的归属校验
func (s *Service) Exists(id uint) (bool, error) {
	return s.userStore.Exists(id)
}

func (s *Service) FindByID(id uint) (*model.User, error) {
	user, err := s.userStore.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformservice.NotFound(ErrUserNotFound)
		}
		return nil, platformservice.Internal("获取用户信息失败", err)
	}
	return user, nil
}

func (s *Service) Profile(id uint) (*moduledto.UserProfile, error) {
	user, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &moduledto.UserProfile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DateOfBirth: user.DateOfBirth.Format(utils.DateLayout),
		CreatedAt:   user.CreatedAt,
	}, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
