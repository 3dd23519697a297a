package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/Domenick1991/bookingadmin/internal/dashboard"
	"github.com/Domenick1991/bookingadmin/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	service auth.AuthUseCase
	views   *dashboard.Registry
	cookie  CookieSettings
	log     *logrus.Entry
}

type loginPage struct {
	Email  string
	Error  string
	Notice string
}

func NewAuthHandler(service auth.AuthUseCase, views *dashboard.Registry, cookie CookieSettings, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{service: service, views: views, cookie: cookie, log: log}
}

func (h *AuthHandler) Register(router gin.IRouter, guard gin.HandlerFunc) {
	router.GET("/", h.root)
	router.GET("/login", h.showLogin)
	router.POST("/login", h.login)
	router.POST("/logout", guard, h.logout)
}

func (h *AuthHandler) root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) showLogin(c *gin.Context) {
	if id, err := c.Cookie(h.cookie.Name); err == nil && id != "" {
		if _, err := h.service.Session(c.Request.Context(), id); err == nil {
			c.Redirect(http.StatusFound, "/admindashboard")
			return
		}
	}

	c.HTML(http.StatusOK, "login.tmpl", loginPage{Notice: c.Query("notice")})
}

func (h *AuthHandler) login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	session, err := h.service.SignIn(c.Request.Context(), auth.SignInInput{Email: email, Password: password})
	if err != nil {
		message := auth.MsgSomethingWrong
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			message = authErr.Message
		}
		_ = c.Error(err)
		c.HTML(http.StatusUnauthorized, "login.tmpl", loginPage{Email: email, Error: message})
		return
	}

	h.cookie.set(c, session.ID)
	c.Redirect(http.StatusFound, "/admindashboard")
}

func (h *AuthHandler) logout(c *gin.Context) {
	session := currentSession(c)

	err := h.service.SignOut(c.Request.Context(), session.ID)
	h.views.Drop(session.ID)
	h.cookie.clear(c)

	if err != nil {
		h.log.WithFields(logrus.Fields{"session_id": session.ID, "error": err}).Warn("sign-out reported an error")
		c.Redirect(http.StatusFound, "/login?notice="+url.QueryEscape("Logout error: "+err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/login")
}
