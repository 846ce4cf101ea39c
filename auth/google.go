package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
)

// GoogleIdentity is what a verified Google sign-in tells us.
type GoogleIdentity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// FirebaseVerifier checks Firebase ID tokens issued for Google sign-in.
type FirebaseVerifier struct {
	client    *firebaseauth.Client
	projectID string
}

func NewFirebaseVerifier(ctx context.Context, projectID, credentialsJSON string) (*FirebaseVerifier, error) {
	if projectID == "" || credentialsJSON == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID and FIREBASE_CREDENTIALS_JSON must be set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: projectID}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return GoogleIdentity{}, err
	}
	if token.Audience != v.projectID {
		return GoogleIdentity{}, errors.New("invalid token audience")
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return GoogleIdentity{}, errors.New("token has no email")
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return GoogleIdentity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}

// POST /auth/google
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	var req struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	identity, err := h.google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		h.log.Warn("google token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Firebase ID token"})
		return
	}

	// fetch or create the profile; the Firebase uid becomes the user id of
	// new accounts, and an existing account with the same email is reused
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	var user models.User
	err = h.db.Where("id = ?", identity.UID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = h.db.Where("email = ?", email).First(&user).Error
		if err == nil {
			h.log.Info("google sign-in linked to existing account", zap.String("user_id", user.ID))
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			ID:        identity.UID,
			Email:     email,
			Name:      identity.Name,
			AvatarURL: identity.Picture,
			Provider:  "google",
			Role:      models.RoleUser,
		}
		if err := h.db.Create(&user).Error; err != nil {
			h.log.Error("google user create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	case err != nil:
		h.log.Error("google user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	default:
		if err := h.db.Model(&user).Updates(models.User{Name: identity.Name, AvatarURL: identity.Picture}).Error; err != nil {
			h.log.Warn("google profile refresh failed", zap.Error(err))
		}
	}

	h.respondWithToken(c, http.StatusOK, user)
}
