package gateway

import (
	"errors"
	"net/http"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errAuthDisabled     = errors.New("phone sign-in is not configured")
	errLocationDisabled = errors.New("location is not configured")
	errPeersDisabled    = errors.New("peer discovery is not configured")
)

func (g *Gateway) getAuth(c *gin.Context) {
	if g.deps.Auth == nil {
		abort(c, http.StatusServiceUnavailable, errAuthDisabled)
		return
	}
	c.JSON(http.StatusOK, g.deps.Auth.State())
}

type otpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (g *Gateway) sendOTP(c *gin.Context) {
	if g.deps.Auth == nil {
		abort(c, http.StatusServiceUnavailable, errAuthDisabled)
		return
	}
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	result := g.deps.Auth.SendOTP(c.Request.Context(), req.Phone)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type verifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// verifyOTP signs the user in to the user store once the code checks out,
// carrying the verified phone into the preferences.
func (g *Gateway) verifyOTP(c *gin.Context) {
	if g.deps.Auth == nil {
		abort(c, http.StatusServiceUnavailable, errAuthDisabled)
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	result := g.deps.Auth.VerifyOTP(c.Request.Context(), req.Code)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, result)
		return
	}
	if result.User != nil {
		g.deps.Stores.User.Login(models.Profile{
			UID:   result.User.UID,
			Phone: result.User.PhoneNumber,
		})
	}
	g.deps.Stores.Toasts.Add("Successfully logged in!", models.SeveritySuccess, 0)
	c.JSON(http.StatusOK, result)
}

// authLogout ends the phone session only. The user store keeps its
// preferences and favorites.
func (g *Gateway) authLogout(c *gin.Context) {
	if g.deps.Auth == nil {
		abort(c, http.StatusServiceUnavailable, errAuthDisabled)
		return
	}
	result := g.deps.Auth.Logout(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) getLocation(c *gin.Context) {
	if g.deps.Location == nil {
		abort(c, http.StatusServiceUnavailable, errLocationDisabled)
		return
	}
	c.JSON(http.StatusOK, g.deps.Location.Current())
}

func (g *Gateway) refreshLocation(c *gin.Context) {
	if g.deps.Location == nil {
		abort(c, http.StatusServiceUnavailable, errLocationDisabled)
		return
	}
	c.JSON(http.StatusOK, g.deps.Location.Refresh(c.Request.Context()))
}

func (g *Gateway) forgetLocation(c *gin.Context) {
	if g.deps.Location == nil {
		abort(c, http.StatusServiceUnavailable, errLocationDisabled)
		return
	}
	c.JSON(http.StatusOK, g.deps.Location.Forget(c.Request.Context()))
}

func (g *Gateway) listPeers(c *gin.Context) {
	if g.deps.Peers == nil {
		abort(c, http.StatusServiceUnavailable, errPeersDisabled)
		return
	}
	peers, err := g.deps.Peers.Peers(c.Request.Context())
	if err != nil {
		g.logger.Warn("Failed to list peers", zap.Error(err))
		abort(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"peers": peers, "total": len(peers)})
}
