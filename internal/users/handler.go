package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/telemetry/metrics"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"
)

type usersRepo interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	Add(ctx context.Context, user User) (*User, error)
	SeedDefaultTaxonomy(ctx context.Context, userID int) error
}

type googleVerifier interface {
	VerifyCredential(ctx context.Context, credential string) (*auth.GoogleIdentity, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
}

type tokenIssuer interface {
	Issue(userID int, email string) (string, error)
}

type GoogleAuthRequest struct {
	Code       string `json:"code"`
	Credential string `json:"credential"`
}

type GoogleAuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type Handler struct {
	repo           usersRepo
	verifier       googleVerifier
	tokenService   tokenIssuer
	metricsManager *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	verifier googleVerifier,
	tokenService tokenIssuer,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		verifier:       verifier,
		tokenService:   tokenService,
		metricsManager: metricsManager,
	}
}

// HandleGoogleAuth exchanges a google authorization code or ID token for a
// session token, creating the user (with the default taxonomy) on first login.
func (handler *Handler) HandleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.googleauth")
	defer span.End()

	var authReq GoogleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&authReq); err != nil {
		log.Tracef("google auth, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	credential := authReq.Credential
	if credential == "" && authReq.Code == "" {
		pkg.WriteJSONError(w, "google code or credential required", http.StatusBadRequest)
		return
	}

	if credential == "" {
		idToken, err := handler.verifier.ExchangeCode(ctx, authReq.Code)
		if err != nil {
			log.Errorf("google auth, code exchange: %s", err)
			pkg.WriteJSONError(w, "google code exchange failed", http.StatusInternalServerError)
			return
		}
		credential = idToken
	}

	identity, err := handler.verifier.VerifyCredential(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrNotAJWT) {
			pkg.WriteJSONError(w, "provided credential is not a valid JWT", http.StatusBadRequest)
			return
		}
		log.Errorf("google auth, credential verification: %s", err)
		pkg.WriteJSONError(w, "google credential verification failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, identity.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Errorf("google auth, get user [%s]: %s", identity.Email, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if errors.Is(err, ErrUserNotFound) {
		user, err = handler.repo.Add(ctx, User{
			Email:    identity.Email,
			Name:     identity.Name,
			GoogleID: identity.GoogleID,
		})
		if err != nil {
			log.Errorf("google auth, create user [%s]: %s", identity.Email, err)
			pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		// a seeding failure leaves a partial taxonomy; login still succeeds
		if err := handler.repo.SeedDefaultTaxonomy(ctx, user.ID); err != nil {
			log.Errorf("google auth, seed default taxonomy for user %d: %s", user.ID, err)
		}

		handler.metricsManager.CounterNewUsers.Inc()
		log.Debugf("new user created via google login: %d [%s]", user.ID, user.Email)
	}

	token, err := handler.tokenService.Issue(user.ID, user.Email)
	if err != nil {
		log.Errorf("google auth, issue session token for user %d: %s", user.ID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.Inc()

	respJson, err := json.Marshal(GoogleAuthResponse{User: user, Token: token})
	if err != nil {
		log.Errorf("google auth, marshal response: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// HandleMe returns the profile of the calling user.
func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.me")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get profile for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}{
		ID:    user.ID,
		Email: user.Email,
	})
	if err != nil {
		log.Errorf("marshal profile for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
