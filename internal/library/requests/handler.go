package requests

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"maktaba-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes: RequireAuth 済みグループに登録する前提
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 利用者（reader）
	r.POST("/requests", auth.RequireRole(auth.RoleReader), h.CreateRequest)
	r.GET("/users/:user_id/requests", h.ListUserRequests)

	// 司書
	r.GET("/requests/pending", auth.RequireRole(auth.RoleLibrarian, auth.RoleAdmin), h.ListPending)
	r.POST("/requests/:request_id/approve", auth.RequireRole(auth.RoleLibrarian, auth.RoleAdmin), h.ApproveRequest)
	r.POST("/requests/:request_id/reject", auth.RequireRole(auth.RoleLibrarian, auth.RoleAdmin), h.RejectRequest)

	// 管理者
	r.GET("/admin/book-logs", auth.RequireRole(auth.RoleAdmin), h.ListLogs)
}

// ---------- handlers ----------

// POST /requests
func (h *Handler) CreateRequest(c *gin.Context) {
	var req CreateRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody(CodeInvalidArgument, "unauthorized"))
		return
	}

	res, err := h.svc.CreateRequest(c.Request.Context(), userID, req.BookID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/requests/"+res.RequestULID)
	c.JSON(http.StatusCreated, res)
}

// POST /requests/:request_id/approve
func (h *Handler) ApproveRequest(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("request_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "request_id must be a number"))
		return
	}

	librarianID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody(CodeInvalidArgument, "unauthorized"))
		return
	}

	res, err := h.svc.ApproveRequest(c.Request.Context(), requestID, librarianID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /requests/:request_id/reject
func (h *Handler) RejectRequest(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("request_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "request_id must be a number"))
		return
	}

	res, err := h.svc.RejectRequest(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /requests/pending
func (h *Handler) ListPending(c *gin.Context) {
	res, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": len(res)})
}

// GET /users/:user_id/requests
// 本人か librarian/admin のみ参照可
func (h *Handler) ListUserRequests(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "user_id must be a number"))
		return
	}

	callerID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody(CodeInvalidArgument, "unauthorized"))
		return
	}
	role := auth.CurrentRole(c)
	if callerID != userID && role != auth.RoleLibrarian && role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, errorBody(CodeInvalidArgument, "forbidden"))
		return
	}

	res, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": len(res)})
}

// GET /admin/book-logs
func (h *Handler) ListLogs(c *gin.Context) {
	res, err := h.svc.ListLogs(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": len(res)})
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
