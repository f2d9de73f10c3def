// services/auth_service.go
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	kakaoUserInfoURL  = "https://kapi.kakao.com/v2/user/me"

	tokenLifetime = 7 * 24 * time.Hour
)

type AuthService struct {
	userRepo   *repositories.UserRepository
	httpClient *http.Client
	jwtSecret  []byte
}

func NewAuthService(userRepo *repositories.UserRepository) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		jwtSecret:  []byte(os.Getenv("JWT_SECRET")),
	}
}

// socialProfile is the provider-independent identity we extract.
type socialProfile struct {
	SocialID string
	Nickname string
	Avatar   *string
}

func (s *AuthService) fetchJSON(url, accessToken string, out any) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return utils.NewUpstreamError("failed to build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return utils.NewUpstreamError("profile fetch failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return utils.NewUnauthorized("invalid access token")
	}
	if resp.StatusCode != http.StatusOK {
		return utils.NewUpstreamError(fmt.Sprintf("profile endpoint returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.NewUpstreamError("failed to read profile response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return utils.NewUpstreamError("malformed profile response")
	}
	return nil
}

func (s *AuthService) fetchGoogleProfile(accessToken string) (*socialProfile, error) {
	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := s.fetchJSON(googleUserInfoURL, accessToken, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, utils.NewUnauthorized("google profile missing id")
	}

	nickname := payload.Name
	if nickname == "" {
		nickname = payload.Email
	}
	profile := &socialProfile{SocialID: payload.ID, Nickname: nickname}
	if payload.Picture != "" {
		profile.Avatar = &payload.Picture
	}
	return profile, nil
}

func (s *AuthService) fetchKakaoProfile(accessToken string) (*socialProfile, error) {
	var payload struct {
		ID         int64 `json:"id"`
		Properties struct {
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"properties"`
	}
	if err := s.fetchJSON(kakaoUserInfoURL, accessToken, &payload); err != nil {
		return nil, err
	}
	if payload.ID == 0 {
		return nil, utils.NewUnauthorized("kakao profile missing id")
	}

	nickname := payload.Properties.Nickname
	if nickname == "" {
		nickname = "미플러" // default nickname for profile-less Kakao accounts
	}
	profile := &socialProfile{
		SocialID: fmt.Sprintf("%d", payload.ID),
		Nickname: nickname,
	}
	if payload.Properties.ProfileImage != "" {
		profile.Avatar = &payload.Properties.ProfileImage
	}
	return profile, nil
}

// IssueToken signs a 7-day HS256 JWT for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId":   user.ID,
		"nickname": user.Nickname,
		"exp":      time.Now().Add(tokenLifetime).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) login(c *fiber.Ctx, socialType string, fetch func(string) (*socialProfile, error)) error {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.AccessToken == "" {
		return utils.NewBadRequest("accessToken is required")
	}

	profile, err := fetch(req.AccessToken)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindOrCreateBySocial(profile.SocialID, socialType, profile.Nickname, profile.Avatar)
	if err != nil {
		return err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		log.Printf("❌ [Auth] token signing failed (user: %d): %v", user.ID, err)
		return utils.NewUpstreamError("failed to issue token")
	}

	return utils.Success(c, fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// GoogleLogin exchanges a Google access token for a session token.
func (s *AuthService) GoogleLogin(c *fiber.Ctx) error {
	return s.login(c, models.SocialTypeGoogle, s.fetchGoogleProfile)
}

// KakaoLogin exchanges a Kakao access token for a session token.
func (s *AuthService) KakaoLogin(c *fiber.Ctx) error {
	return s.login(c, models.SocialTypeKakao, s.fetchKakaoProfile)
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewUnauthorized("user not found")
	}
	return utils.Success(c, user.Public())
}

// GetUser returns another user's public profile.
func (s *AuthService) GetUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return utils.NewBadRequest("invalid user id")
	}
	user, err := s.userRepo.FindByID(uint(id))
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewNotFound("user not found")
	}
	return utils.Success(c, user.Public())
}
