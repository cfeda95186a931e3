package httpserver

import (
	"net/http"

	"shopbridge/internal/domain"
	userrepo "shopbridge/internal/repository/user"
	"shopbridge/internal/service/profile"

	"github.com/gin-gonic/gin"
)

// tokenRequest accepts the password grant as a form or as JSON.
type tokenRequest struct {
	GrantType string `form:"grant_type" json:"grant_type"`
	Username  string `form:"username" json:"username" binding:"required"`
	Password  string `form:"password" json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Principal   string `json:"principal"`
}

type profileRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	ShippingAddress *string `json:"shippingAddress"`
}

func (h *handlers) signup(c *gin.Context) {
	var req profile.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	u, err := h.deps.Profiles.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "username and password required")
		return
	}
	if req.GrantType != "" && req.GrantType != "password" {
		badRequest(c, "unsupported grant_type")
		return
	}
	u, tok, err := h.deps.Profiles.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
		Principal:   u.ID,
	})
}

func (h *handlers) me(c *gin.Context) {
	me, err := h.deps.Profiles.Me(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (h *handlers) myRole(c *gin.Context) {
	role, err := h.deps.Roles.Resolve(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": principal(c), "role": role})
}

func (h *handlers) saveProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	u, err := h.deps.Profiles.SaveProfile(c.Request.Context(), principal(c), userrepo.ProfileUpdate{
		Name:            req.Name,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type assignRoleRequest struct {
	Principal string `json:"principal" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

func (h *handlers) assignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "principal and role required")
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	a, err := h.deps.Roles.AssignRole(c.Request.Context(), principal(c), req.Principal, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
