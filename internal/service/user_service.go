package service

import (
	"errors"

	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/pkg/hash"
	"yedam-go/pkg/token"

	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken 表示用户名已被注册。
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// TokenPair 是登录成功后下发的令牌对。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 接口定义了用户相关的业务逻辑。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (*TokenPair, error)
	GetProfile(userID uint) (*model.User, error)
	RefreshToken(refreshToken string) (*TokenPair, error)
}

type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, jwtManager: jwtManager}
}

// Register 注册新用户，密码经 bcrypt 哈希后入库。
func (s *userService) Register(username, password string) (*model.User, error) {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: hashed,
		Role:     "USER",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验密码并下发 access/refresh 令牌对。
func (s *userService) Login(username, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

// GetProfile 返回用户基本信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

// RefreshToken 校验 refresh token 并下发新的令牌对。
func (s *userService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *userService) issueTokens(user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
