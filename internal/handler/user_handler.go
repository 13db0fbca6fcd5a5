package handler

import (
	"errors"
	"net/http"

	"yedam-go/internal/middleware"
	"yedam-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 处理用户注册、登录等接口。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 注册新用户。
// POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid username or password format"})
		return
	}

	user, err := h.userService.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"code": 409, "message": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to register"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": user})
}

// Login 用户登录，成功后返回令牌对。
// POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "invalid request body"})
		return
	}

	tokens, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": tokens})
}

// Profile 返回当前登录用户的信息。
// GET /api/users/profile
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.userService.GetProfile(middleware.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": user})
}

// Refresh 用 refresh token 换取新的令牌对。
// POST /api/users/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "refreshToken is required"})
		return
	}

	tokens, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": tokens})
}
