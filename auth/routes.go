package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell/common"
)

type credentials struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (a *Context) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.PublicOnly, a.loginPage)
	router.POST("/login", a.PublicOnly, a.loginPost)
	router.GET("/signup", a.PublicOnly, a.signupPage)
	router.POST("/signup", a.PublicOnly, a.signupPost)
	router.POST("/logout", a.logout)
	router.GET("/me", a.me)
}

func (a *Context) loginPage(c *gin.Context) {
	common.OK(c, http.StatusOK, gin.H{"page": "login"})
}

func (a *Context) signupPage(c *gin.Context) {
	common.OK(c, http.StatusOK, gin.H{"page": "signup", "minPasswordLength": MinPasswordLength})
}

func (a *Context) loginPost(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}

	result := a.Login(c, req.Email, req.Password)
	if !result.Success {
		common.Fail(c, result.Err())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *Context) signupPost(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}

	result := a.Signup(c, req.Email, req.Password)
	if !result.Success {
		common.Fail(c, result.Err())
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (a *Context) logout(c *gin.Context) {
	result := a.Logout(c)
	if !result.Success {
		common.Fail(c, result.Err())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *Context) me(c *gin.Context) {
	common.OK(c, http.StatusOK, gin.H{"user": a.CurrentUser(c)})
}
