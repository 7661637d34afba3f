// Package hubtest runs an in-process fake of the hub backend for
// integration tests: credential login with real bcrypt hashes and signed
// JWTs, bearer-token enforcement, and in-memory data, department, label
// and admin state.
package hubtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type userEntry struct {
	passwordHash []byte
	role         string
	displayName  string
}

// Server is a fake hub backend. All mutators are safe for concurrent use
// with in-flight requests.
type Server struct {
	mu      sync.Mutex
	secret  []byte
	users   map[string]userEntry
	revoked bool

	catalog     map[string][]gin.H
	months      map[string][]map[string]any
	departments map[string]string
	labels      map[string]string

	systems  map[string]gin.H
	accounts map[string]gin.H
	roles    map[string]gin.H

	srv *httptest.Server
}

// New starts a fake hub on a random local port.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:      []byte("hubtest-signing-secret"),
		users:       map[string]userEntry{},
		catalog:     map[string][]gin.H{},
		months:      map[string][]map[string]any{},
		departments: map[string]string{},
		labels:      map[string]string{},
		systems:     map[string]gin.H{},
		accounts:    map[string]gin.H{},
		roles:       map[string]gin.H{},
	}
	s.srv = httptest.NewServer(s.router())
	return s
}

// URL is the backend base URL.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the fake down.
func (s *Server) Close() { s.srv.Close() }

// AddUser registers a login with a bcrypt-hashed password.
func (s *Server) AddUser(username, password, role, displayName string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = userEntry{passwordHash: hash, role: role, displayName: displayName}
}

// IssueToken mints a signed token for username, for tests that bypass the
// login endpoint (the SSO drop-file path).
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	entry := s.users[username]
	s.mu.Unlock()

	claims := jwtlib.MapClaims{
		"sub":       username,
		"email":     username,
		"nome":      entry.displayName,
		"permissao": entry.role,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

// ExpireSessions makes every authenticated endpoint answer 401 until
// Restore is called, simulating backend-side token revocation.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

// Restore undoes ExpireSessions.
func (s *Server) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = false
}

// SetCatalog registers one period under a year.
func (s *Server) SetCatalog(year, periodID, display string, rawMonth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[year] = append(s.catalog[year], gin.H{
		"caminho": periodID,
		"display": display,
		"mes_raw": rawMonth,
	})
}

// SetMonth registers the raw records served for a period.
func (s *Server) SetMonth(periodID string, records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[periodID] = records
}

// SetDepartment seeds the analyst→department mapping.
func (s *Server) SetDepartment(analyst, department string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[analyst] = department
}

func (s *Server) router() *gin.Engine {
	r := gin.New()

	r.POST("/api/auth/login", s.handleLogin)

	authed := r.Group("/", s.requireAuth)
	{
		authed.GET("/api/me", s.handleMe)

		authed.GET("/api/data/list_months", s.handleListMonths)
		authed.GET("/api/data/get_month/:id", s.handleGetMonth)
		authed.POST("/api/data/get_period", s.handleGetPeriod)

		authed.GET("/api/departments", s.handleGetDepartments)
		authed.POST("/api/departments", s.handleSetDepartment)
		authed.GET("/api/departments/analysts", s.handleListAnalysts)

		authed.GET("/api/labels", s.handleGetLabels)
		authed.PUT("/api/labels/:key", s.handleSetLabel)

		authed.GET("/api/sistemas", s.listOf(&s.systems))
		authed.POST("/api/sistemas", s.createIn(&s.systems, "sistema_id"))
		authed.PUT("/api/sistemas/:id", s.updateIn(&s.systems))
		authed.DELETE("/api/sistemas/:id", s.deleteFrom(&s.systems))

		authed.GET("/api/usuarios", s.listOf(&s.accounts))
		authed.POST("/api/usuarios", s.createIn(&s.accounts, "email"))
		authed.PUT("/api/usuarios/:id", s.updateIn(&s.accounts))
		authed.DELETE("/api/usuarios/:id", s.deleteFrom(&s.accounts))

		authed.GET("/api/funcoes", s.listOf(&s.roles))
		authed.POST("/api/funcoes", s.createIn(&s.roles, "id"))
		authed.PUT("/api/funcoes/:id", s.updateIn(&s.roles))
		authed.DELETE("/api/funcoes/:id", s.deleteFrom(&s.roles))
	}

	return r
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	entry, ok := s.users[body.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(entry.passwordHash, []byte(body.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": s.IssueToken(body.Username),
		"token_type":   "bearer",
		"user_role":    entry.role,
	})
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	s.mu.Lock()
	revoked := s.revoked
	s.mu.Unlock()

	_, err := jwtlib.Parse(raw, func(*jwtlib.Token) (any, error) { return s.secret, nil },
		jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Next()
}

func (s *Server) handleMe(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, _ := strings.CutPrefix(header, "Bearer ")
	token, _ := jwtlib.Parse(raw, func(*jwtlib.Token) (any, error) { return s.secret, nil })
	claims, _ := token.Claims.(jwtlib.MapClaims)
	c.JSON(http.StatusOK, claims)
}

func (s *Server) handleListMonths(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"data": s.catalog})
}

func (s *Server) handleGetMonth(c *gin.Context) {
	s.mu.Lock()
	records, ok := s.months[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "month not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleGetPeriod(c *gin.Context) {
	var body struct {
		Months []string `json:"months"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := []map[string]any{}
	for _, id := range body.Months {
		merged = append(merged, s.months[id]...)
	}
	// The batch endpoint historically used the Portuguese envelope key.
	c.JSON(http.StatusOK, gin.H{"registros": merged})
}

func (s *Server) handleGetDepartments(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.departments)
}

func (s *Server) handleSetDepartment(c *gin.Context) {
	var body struct {
		Analyst    string `json:"analyst"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Analyst == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "analyst is required"})
		return
	}
	s.mu.Lock()
	s.departments[body.Analyst] = body.Department
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListAnalysts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	analysts := []string{}
	seen := map[string]struct{}{}
	for _, records := range s.months {
		for _, rec := range records {
			name, _ := rec["Atendido por"].(string)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			analysts = append(analysts, name)
		}
	}
	c.JSON(http.StatusOK, analysts)
}

func (s *Server) handleGetLabels(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"labels": s.labels})
}

func (s *Server) handleSetLabel(c *gin.Context) {
	var body struct {
		Label string `json:"label"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request"})
		return
	}
	s.mu.Lock()
	if body.Label == "" {
		delete(s.labels, c.Param("key"))
	} else {
		s.labels[c.Param("key")] = body.Label
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listOf, createIn, updateIn and deleteFrom implement the three admin
// collections, which share one REST shape keyed by a body field.
func (s *Server) listOf(store *map[string]gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []gin.H{}
		for _, item := range *store {
			out = append(out, item)
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) createIn(store *map[string]gin.H, keyField string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body gin.H
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request"})
			return
		}
		key, _ := body[keyField].(string)
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": keyField + " is required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := (*store)[key]; exists {
			c.JSON(http.StatusConflict, gin.H{"detail": key + " already exists"})
			return
		}
		(*store)[key] = body
		c.JSON(http.StatusOK, gin.H{"status": "created"})
	}
}

func (s *Server) updateIn(store *map[string]gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body gin.H
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request"})
			return
		}
		key := c.Param("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		item, exists := (*store)[key]
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"detail": key + " not found"})
			return
		}
		for field, value := range body {
			item[field] = value
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

func (s *Server) deleteFrom(store *map[string]gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := (*store)[key]; !exists {
			c.JSON(http.StatusNotFound, gin.H{"detail": key + " not found"})
			return
		}
		delete(*store, key)
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
