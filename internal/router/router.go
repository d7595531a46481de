// Package router wires the HTTP API: public account and share-view
// endpoints, bearer-protected content and sharing endpoints, and the
// operational ping/stats endpoints. Handlers translate between JSON and
// the service core and map its errors onto HTTP statuses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/secondbrain/internal/auth"
	"github.com/patric-chuzhbe/secondbrain/internal/authenticator"
	"github.com/patric-chuzhbe/secondbrain/internal/gzippedhttp"
	"github.com/patric-chuzhbe/secondbrain/internal/ipchecker"
	"github.com/patric-chuzhbe/secondbrain/internal/logger"
	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/service"
)

type brainService interface {
	SignUp(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (string, error)
	AddContent(ctx context.Context, userID string, request models.AddContentRequest) (*models.Content, error)
	GetUserContent(ctx context.Context, userID string) ([]models.Content, error)
	DeleteContent(ctx context.Context, contentID, userID string) error
	EnableSharing(ctx context.Context, userID string) (string, error)
	DisableSharing(ctx context.Context, userID string) error
	GetPublicView(ctx context.Context, hash string) (*models.PublicView, error)
	GetInternalStats(ctx context.Context) (models.StatsResponse, error)
	Ping(ctx context.Context) error
}

// Router holds the HTTP handlers of the service.
type Router struct {
	service   brainService
	auth      authenticator.Authenticator
	ipChecker *ipchecker.IPChecker
	validate  *validator.Validate
}

// New assembles the chi mux with logging and gzip middleware, the Access
// Gate on every private endpoint, and the public share-view route that
// deliberately bypasses it.
func New(
	theService brainService,
	theAuth authenticator.Authenticator,
	theIPChecker *ipchecker.IPChecker,
) http.Handler {
	theRouter := &Router{
		service:   theService,
		auth:      theAuth,
		ipChecker: theIPChecker,
		validate:  validator.New(),
	}

	mux := chi.NewRouter()
	mux.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	mux.Route(`/api/v1`, func(api chi.Router) {
		api.Post(`/signup`, theRouter.PostSignup)
		api.Post(`/signin`, theRouter.PostSignin)
		api.Get(`/brain/{shareHash}`, theRouter.GetBrainByHash)

		api.Group(func(private chi.Router) {
			private.Use(theAuth.AuthenticateUser)
			private.Post(`/content`, theRouter.PostContent)
			private.Get(`/content`, theRouter.GetContent)
			private.Delete(`/content/{contentId}`, theRouter.DeleteContentItem)
			private.Post(`/brain/share`, theRouter.PostBrainShare)
		})
	})

	mux.Get(`/ping`, theRouter.GetPing)
	mux.Get(`/api/internal/stats`, theRouter.GetInternalStats)

	return mux
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response body: ", zap.Error(err))
	}
}

func writeMessage(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.MessageResponse{Message: message})
}

func (theRouter *Router) decodeAndValidate(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return err
	}

	return theRouter.validate.Struct(target)
}

// PostSignup handles POST /api/v1/signup.
func (theRouter *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if err := theRouter.decodeAndValidate(request, &signupRequest); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := theRouter.service.SignUp(request.Context(), signupRequest.Username, signupRequest.Password)
	if errors.Is(err, models.ErrUsernameTaken) {
		writeMessage(response, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `service.SignUp()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error signing up")
		return
	}

	writeMessage(response, http.StatusOK, "User signed up")
}

// PostSignin handles POST /api/v1/signin.
func (theRouter *Router) PostSignin(response http.ResponseWriter, request *http.Request) {
	var signinRequest models.SigninRequest
	if err := theRouter.decodeAndValidate(request, &signinRequest); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, err := theRouter.service.Authenticate(request.Context(), signinRequest.Username, signinRequest.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		writeMessage(response, http.StatusForbidden, "Incorrect credentials")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `service.Authenticate()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error signing in")
		return
	}

	token, err := theRouter.auth.IssueToken(userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.auth.IssueToken()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error signing in")
		return
	}

	writeJSON(response, http.StatusOK, models.SigninResponse{Token: token})
}

// PostContent handles POST /api/v1/content.
func (theRouter *Router) PostContent(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "No token provided")
		return
	}

	var addRequest models.AddContentRequest
	if err := theRouter.decodeAndValidate(request, &addRequest); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := theRouter.service.AddContent(request.Context(), userID, addRequest)
	if errors.Is(err, service.ErrInvalidContentType) {
		writeMessage(response, http.StatusBadRequest, "Invalid content type")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `service.AddContent()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error adding content")
		return
	}

	writeJSON(response, http.StatusOK, models.AddContentResponse{
		Message: "Content added",
		Content: *item,
	})
}

// GetContent handles GET /api/v1/content.
func (theRouter *Router) GetContent(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "No token provided")
		return
	}

	contents, err := theRouter.service.GetUserContent(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `service.GetUserContent()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error fetching content")
		return
	}

	writeJSON(response, http.StatusOK, contents)
}

// DeleteContentItem handles DELETE /api/v1/content/{contentId}.
func (theRouter *Router) DeleteContentItem(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "No token provided")
		return
	}

	contentID := chi.URLParam(request, "contentId")
	err := theRouter.service.DeleteContent(request.Context(), contentID, userID)
	if errors.Is(err, models.ErrNotFound) {
		// Deliberately the same response for "missing" and "not yours".
		writeMessage(response, http.StatusNotFound, "Content not found or unauthorized")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `service.DeleteContent()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error deleting content")
		return
	}

	writeMessage(response, http.StatusOK, "Content deleted successfully")
}

// PostBrainShare handles POST /api/v1/brain/share.
func (theRouter *Router) PostBrainShare(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "No token provided")
		return
	}

	var shareRequest models.ShareRequest
	if err := json.NewDecoder(request.Body).Decode(&shareRequest); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if !shareRequest.Share {
		if err := theRouter.service.DisableSharing(request.Context(), userID); err != nil {
			logger.Log.Debugln("Error calling the `service.DisableSharing()`: ", zap.Error(err))
			writeMessage(response, http.StatusInternalServerError, "Error sharing content")
			return
		}
		writeMessage(response, http.StatusOK, "Removed link")
		return
	}

	hash, err := theRouter.service.EnableSharing(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `service.EnableSharing()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error sharing content")
		return
	}

	writeJSON(response, http.StatusOK, models.ShareResponse{Hash: hash})
}

// GetBrainByHash handles GET /api/v1/brain/{shareHash}. It is the one
// intentionally unauthenticated read path of the system.
func (theRouter *Router) GetBrainByHash(response http.ResponseWriter, request *http.Request) {
	hash := chi.URLParam(request, "shareHash")

	view, err := theRouter.service.GetPublicView(request.Context(), hash)
	if errors.Is(err, models.ErrNotFound) {
		// Revoked and never-issued hashes are indistinguishable here.
		writeMessage(response, http.StatusNotFound, "Invalid share link")
		return
	}
	if errors.Is(err, models.ErrIntegrity) {
		logger.Log.Errorln("Share link references a missing user: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error getting shared content")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `service.GetPublicView()`: ", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "Error getting shared content")
		return
	}

	writeJSON(response, http.StatusOK, view)
}

// GetPing handles GET /ping - the storage health check.
func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalStats handles GET /api/internal/stats, restricted to the
// trusted subnet.
func (theRouter *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	if !theRouter.ipChecker.Enabled() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := theRouter.ipChecker.ClientIP(request)
	if err != nil || !theRouter.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := theRouter.service.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `service.GetInternalStats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}
