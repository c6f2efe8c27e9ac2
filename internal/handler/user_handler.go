package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

const adminDateLayout = time.RFC3339

type createUserPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type changePasswordPayload struct {
	UserID      uint   `json:"userId"`
	NewPassword string `json:"newPassword"`
}

// ListUsers 返回全部用户（仅管理员），每次调用重新校验权限。
func (a *API) ListUsers(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil || !user.IsAdmin {
		respondError(c, http.StatusForbidden, "无权限")
		return
	}

	users, err := a.users.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取用户列表失败")
		return
	}

	items := make([]gin.H, 0, len(users))
	for i := range users {
		item := userPayload(&users[i])
		item["created_at"] = users[i].CreatedAt.Format(adminDateLayout)
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"users": items})
}

// CreateUser 新增用户（仅管理员）。
func (a *API) CreateUser(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil || !user.IsAdmin {
		respondError(c, http.StatusForbidden, "无权限")
		return
	}

	var payload createUserPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Username == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	created, err := a.users.Create(service.UserInput{
		Username: payload.Username,
		Password: payload.Password,
		IsAdmin:  payload.IsAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameLength):
			respondError(c, http.StatusBadRequest, "用户名长度应为 2-50 个字符")
		case errors.Is(err, service.ErrPasswordTooShort):
			respondError(c, http.StatusBadRequest, "密码长度至少 6 个字符")
		case errors.Is(err, service.ErrUsernameTaken):
			respondError(c, http.StatusBadRequest, "用户名已存在")
		default:
			respondError(c, http.StatusInternalServerError, "创建用户失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": userPayload(created)})
}

// DeleteUser 删除指定用户（仅管理员），禁止删除自己。
func (a *API) DeleteUser(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil || !user.IsAdmin {
		respondError(c, http.StatusForbidden, "无权限")
		return
	}

	raw := c.Query("id")
	if raw == "" {
		respondError(c, http.StatusBadRequest, "用户ID不能为空")
		return
	}
	targetID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	if err := a.users.Delete(uint(targetID), user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteSelf):
			respondError(c, http.StatusBadRequest, "不能删除当前登录用户")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusBadRequest, "用户不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除用户失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ChangeUserPassword 修改密码：管理员可改任何人，普通用户只能改自己。
func (a *API) ChangeUserPassword(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	var payload changePasswordPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if !user.IsAdmin && payload.UserID != user.ID {
		respondError(c, http.StatusForbidden, "无权限")
		return
	}

	if err := a.users.ChangePassword(payload.UserID, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			respondError(c, http.StatusBadRequest, "密码长度至少 6 个字符")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusBadRequest, "用户不存在")
		default:
			respondError(c, http.StatusInternalServerError, "修改密码失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
