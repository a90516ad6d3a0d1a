package handler

import (
	"kling-studio/app/auth"
	"kling-studio/app/config"
	"kling-studio/app/model"
	"kling-studio/app/utils"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	config     *config.Config
	db         *gorm.DB
	jwtService *auth.JWTService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		config:     cfg,
		db:         db,
		jwtService: auth.NewJWTService(cfg),
	}
}

// LoginRequest 登录请求结构
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse 登录响应结构
type LoginResponse struct {
	Token    string      `json:"token"`
	User     *model.User `json:"user"`
	ExpireAt int64       `json:"expire_at"`
}

type loginPage struct {
	Title    string
	Username string
	Error    string
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// LoginPage 登录页面
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", loginPage{Title: pageTitle})
}

// Login 用户登录，表单提交时写入 Cookie 并跳转首页，JSON 请求返回令牌
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.loginError(c, http.StatusBadRequest, 400, "请填写用户名和密码", req.Username)
		return
	}

	var user model.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		h.loginError(c, http.StatusUnauthorized, 401, "用户名或密码错误", req.Username)
		return
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		h.loginError(c, http.StatusUnauthorized, 401, "用户名或密码错误", req.Username)
		return
	}

	if !user.IsActive {
		h.loginError(c, http.StatusForbidden, 403, "用户账号已被禁用", req.Username)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.loginError(c, http.StatusInternalServerError, 500, "生成令牌失败", req.Username)
		return
	}

	now := time.Now()
	user.LastLogin = &now
	h.db.Save(&user)

	expireAt := now.Add(h.jwtService.TTL())

	if wantsJSON(c) {
		success(c, LoginResponse{
			Token:    token,
			User:     &user,
			ExpireAt: expireAt.Unix(),
		}, "登录成功")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.jwtService.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) loginError(c *gin.Context, statusCode, errorCode int, message, username string) {
	if wantsJSON(c) {
		fail(c, statusCode, errorCode, message)
		return
	}
	c.HTML(statusCode, "login.html", loginPage{Title: pageTitle, Username: username, Error: message})
}

// Logout 清除登录 Cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

// RefreshToken 刷新令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		fail(c, http.StatusUnauthorized, 401, "Authorization header is required")
		return
	}

	newToken, err := h.jwtService.RefreshToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		fail(c, http.StatusUnauthorized, 401, "刷新令牌失败: "+err.Error())
		return
	}

	success(c, gin.H{
		"token":     newToken,
		"expire_at": time.Now().Add(h.jwtService.TTL()).Unix(),
	}, "刷新成功")
}

// Me 获取当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, 401, "未认证")
		return
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		fail(c, http.StatusNotFound, 404, "用户不存在")
		return
	}

	success(c, user, "success")
}
