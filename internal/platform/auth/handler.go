package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc AuthService }

func RegisterRoutes(r gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
}

// RegisterProtectedRoutes: RequireAuth 配下のエンドポイント
func RegisterProtectedRoutes(r gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	r.GET("/auth/me", h.Me)
	r.POST("/auth/logout", h.Logout)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	UserID          int64  `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	BorrowingLimit  int    `json:"borrowing_limit"`
	CurrentBorrowed int    `json:"current_borrowed"`
}

func toUserResponse(u *User) UserResponse {
	return UserResponse{
		UserID:          u.UserID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		BorrowingLimit:  u.BorrowingLimit,
		CurrentBorrowed: u.CurrentBorrowed,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが間違っています"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user":    toUserResponse(u),
		"message": "Login successful",
	})
}

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     *string `json:"role,omitempty"` // 未指定なら reader
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role := RoleReader
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}
	if role != RoleReader && role != RoleLibrarian && role != RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		if err == ErrAlreadyExists {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(u), "message": "registered"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, err := h.svc.Me(c.Request.Context(), id)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	// トークンはステートレスなのでサーバ側の失効処理は無し。クライアント側で破棄する。
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
