package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/api"
	"github.com/anchorageoss/cip8-walletauth/verify"
)

const (
	msgInvalidBody     = "invalid request body"
	msgBodyTooLarge    = "request body too large"
	msgInvalidAddress  = "invalid address"
	msgRejected        = "signature verification failed"
	msgUnauthenticated = "missing or invalid session token"
	msgInternal        = "internal error"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleChallenge(c *gin.Context) {
	var req api.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortBadBody(c, err)
		return
	}

	if req.Address != "" {
		if _, err := address.Decode(req.Address); err != nil {
			abort(c, http.StatusBadRequest, msgInvalidAddress, err)
			return
		}
	}

	challenge, err := s.deps.Challenges.Issue(req.Address)
	if err != nil {
		abort(c, http.StatusInternalServerError, msgInternal, err)
		return
	}
	s.deps.Metrics.ChallengeIssued()

	c.JSON(http.StatusOK, api.ChallengeResponse{
		Hash:      challenge.Hash,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt,
	})
}

func (s *Server) handleConnect(c *gin.Context) {
	var req api.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadBody(c, err)
		return
	}

	result, err := s.deps.Connector.Connect(c.Request.Context(), req)
	if err != nil {
		if verify.IsRejection(err) {
			abort(c, http.StatusUnauthorized, msgRejected, err)
			return
		}
		abort(c, http.StatusInternalServerError, msgInternal, err)
		return
	}

	c.JSON(http.StatusOK, api.ConnectResponse{
		Token:     result.Token,
		Address:   result.Claims.Address,
		ExpiresAt: result.ExpiresAt(),
	})
}

func (s *Server) handleSession(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		abort(c, http.StatusUnauthorized, msgUnauthenticated, errors.New("no bearer token"))
		return
	}

	claims, err := s.deps.Sessions.Parse(token)
	if err != nil {
		abort(c, http.StatusUnauthorized, msgUnauthenticated, err)
		return
	}

	resp := api.SessionResponse{
		Address:   claims.Address,
		SessionID: claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortBadBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abort(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err)
		return
	}
	abort(c, http.StatusBadRequest, msgInvalidBody, err)
}

// abort records err for the request log and sends a generic message
func abort(c *gin.Context, status int, message string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: message})
}
