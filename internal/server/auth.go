package server

import (
	"net/http"
	"strings"

	xerrors "github.com/Slowper/emmawebsitempa-sub001/pkg/errors"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/xerr"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenStore 演示用的内存 token 集合，进程重启即失效
type TokenStore struct {
	tokens mapset.Set[string]
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: mapset.NewSet[string]()}
}

func (s *TokenStore) Issue() string {
	token := "cms_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.tokens.Add(token)
	return token
}

func (s *TokenStore) Valid(token string) bool {
	return token != "" && s.tokens.Contains(token)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login 只校验用户名，密码不做检查
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, xerrors.Wrap(xerr.ErrInvalidJSON, "", err))
		return
	}
	if req.Username != s.cfg.Auth.Username {
		logger.Warn("🔒 login rejected", zap.String("username", req.Username))
		fail(c, xerrors.New(xerr.ErrUnauthenticated, "Invalid credentials"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   s.tokens.Issue(),
		"user":    gin.H{"username": req.Username, "role": "admin"},
	})
}

// requireToken 开启 auth.require_token 时校验 Bearer token
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.Auth.RequireToken {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || !s.tokens.Valid(strings.TrimSpace(token)) {
			fail(c, xerrors.New(xerr.ErrInvalidToken, ""))
			return
		}
		c.Next()
	}
}
