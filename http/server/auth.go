package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection/pg"
	"go.uber.org/zap"
)

// auth is used as context value key by the authHandler.
type auth struct{}

// isPublic determines if a request is served without authentication.
func isPublic(r *http.Request) bool {
	return r.URL.Path == common.PathReadiness || r.URL.Path == common.PathMetrics
}

type authHandler struct {
	apiKeyManager pg.ApiKeyManager
	handler       http.Handler
	logger        *zap.Logger
}

func (h *authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isPublic(r) {
		h.handler.ServeHTTP(w, r)
		return
	}

	authorization := r.Header.Get(common.HeaderAuthorization)

	apiKey, err := h.apiKeyManager.GetApiKey(r.Context(), authorization)
	if err != nil {
		h.logger.Warn("authentication failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.String("remoteAddr", r.RemoteAddr),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ctx := context.WithValue(r.Context(), auth{}, apiKey)
	h.handler.ServeHTTP(w, r.WithContext(ctx))
}

type basicAuthHandler struct {
	username string
	password string
	handler  http.Handler
	logger   *zap.Logger
}

func (h *basicAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isPublic(r) {
		h.handler.ServeHTTP(w, r)
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) != 1 {
		h.logger.Warn("authentication failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	h.handler.ServeHTTP(w, r)
}
