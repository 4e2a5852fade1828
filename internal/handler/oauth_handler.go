package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"estatehub/config"
	"estatehub/internal/apperr"
	"estatehub/internal/domain"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"
	oauthStateCookie    = "oauth_state"
)

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type facebookUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// profileFetcher exchanges an authorization code for the provider's view of the user.
type profileFetcher func(ctx context.Context, conf *oauth2.Config, code string) (service.SocialProfile, error)

// OAuthHandler runs the authorization-code login for one identity provider.
type OAuthHandler struct {
	provider string
	label    string
	conf     *oauth2.Config
	opts     []oauth2.AuthCodeOption
	secure   bool
	authSvc  *service.AuthService
	log      *zap.Logger
	fetch    profileFetcher
}

func NewGoogleOAuthHandler(cfg *config.Config, authSvc *service.AuthService, log *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider: domain.ProviderGoogle,
		label:    "Google",
		conf: &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		opts:    []oauth2.AuthCodeOption{oauth2.AccessTypeOffline},
		secure:  cfg.Server.IsProduction(),
		authSvc: authSvc,
		log:     log,
		fetch:   fetchGoogleProfile,
	}
}

func NewFacebookOAuthHandler(cfg *config.Config, authSvc *service.AuthService, log *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider: domain.ProviderFacebook,
		label:    "Facebook",
		conf: &oauth2.Config{
			ClientID:     cfg.OAuth.FacebookClientID,
			ClientSecret: cfg.OAuth.FacebookClientSecret,
			RedirectURL:  cfg.OAuth.FacebookRedirectURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		secure:  cfg.Server.IsProduction(),
		authSvc: authSvc,
		log:     log,
		fetch:   fetchFacebookProfile,
	}
}

func (h *OAuthHandler) stateCookie() string { return oauthStateCookie + "_" + h.provider }

func (h *OAuthHandler) configured(c *gin.Context) bool {
	if h.conf.ClientID == "" {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": h.label + " login is not configured"})
		return false
	}
	return true
}

// Redirect sends the user to the provider's consent screen.
func (h *OAuthHandler) Redirect(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	state, err := newState()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.stateCookie(), state, 600, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, h.conf.AuthCodeURL(state, h.opts...))
}

// Callback exchanges the code, creates or links the user and returns tokens.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	state, _ := c.Cookie(h.stateCookie())
	if state == "" || state != c.Query("state") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Missing authorization code"})
		return
	}
	profile, err := h.fetch(c.Request.Context(), h.conf, code)
	if err == nil && (profile.ID == "" || profile.Email == "") {
		err = errors.New("profile without id or email")
	}
	if err != nil {
		h.log.Warn("Social login failure", zap.String("provider", h.provider), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Authentication failed"})
		return
	}
	u, pair, created, err := h.authSvc.LoginWithProvider(c.Request.Context(), h.provider, profile)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.label + " login successful", "user": u, "token": pair, "is_new": created})
}

func fetchGoogleProfile(ctx context.Context, conf *oauth2.Config, code string) (service.SocialProfile, error) {
	var info googleUserInfo
	if err := fetchUserInfo(ctx, conf, code, googleUserInfoURL, &info); err != nil {
		return service.SocialProfile{}, err
	}
	return service.SocialProfile{ID: info.ID, Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}

func fetchFacebookProfile(ctx context.Context, conf *oauth2.Config, code string) (service.SocialProfile, error) {
	var info facebookUserInfo
	if err := fetchUserInfo(ctx, conf, code, facebookUserInfoURL, &info); err != nil {
		return service.SocialProfile{}, err
	}
	return service.SocialProfile{ID: info.ID, Email: info.Email, Name: info.Name, AvatarURL: info.Picture.Data.URL}, nil
}

func fetchUserInfo(ctx context.Context, conf *oauth2.Config, code, url string, out any) error {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	resp, err := conf.Client(ctx, tok).Get(url)
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch user info: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	return nil
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", apperr.NewInternalError(errors.Join(errors.New("oauth state"), err))
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
