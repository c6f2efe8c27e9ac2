package handler

import (
	"errors"
	"net/http"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 处理登录：校验凭证、签发会话并设置 http-only cookie。
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Username == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	user, session, err := a.auth.Login(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "用户名或密码错误")
			return
		}
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(service.SessionCookieName, session.Token, int(service.SessionTTL.Seconds()), "/", "", a.cookieSecure, true)

	c.JSON(http.StatusOK, gin.H{"success": true, "user": userPayload(user)})
}

// Logout 删除该用户的全部会话并清除 cookie。
func (a *API) Logout(c *gin.Context) {
	if user := a.currentUser(c); user != nil {
		if err := a.auth.Logout(user.ID); err != nil {
			respondError(c, http.StatusInternalServerError, "登出失败")
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(service.SessionCookieName, "", -1, "/", "", a.cookieSecure, true)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me 返回当前会话用户信息。
func (a *API) Me(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": userPayload(user)})
}
