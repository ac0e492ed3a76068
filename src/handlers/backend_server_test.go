package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// fakeUser is a user as stored by the fake backend, in its wire format
type fakeUser struct {
	ID        string `json:"_id"`
	Name      string `json:"nom"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"actif"`
	CreatedAt string `json:"createdAt"`
}

// fakeBackendServer emulates the user-management backend over HTTP
type fakeBackendServer struct {
	*httptest.Server

	mu       sync.Mutex
	users    []fakeUser
	tokens   map[string]string // token -> user id
	nextID   int
	historyN int // pages served per admin
}

func newFakeBackendServer(userCount int) *fakeBackendServer {
	gin.SetMode(gin.TestMode)
	f := &fakeBackendServer{
		tokens:   make(map[string]string),
		historyN: 5,
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.users = append(f.users,
		fakeUser{ID: "admin-1", Name: "Alice Admin", Email: "alice@example.com", Role: "admin", Active: true, CreatedAt: base.Format(time.RFC3339)},
		fakeUser{ID: "user-1", Name: "Bob User", Email: "bob@example.com", Role: "user", Active: true, CreatedAt: base.Add(time.Hour).Format(time.RFC3339)},
	)
	for i := 0; i < userCount-2; i++ {
		f.users = append(f.users, fakeUser{
			ID:        fmt.Sprintf("u-%d", i),
			Name:      fmt.Sprintf("Member %d", i),
			Email:     fmt.Sprintf("member%d@example.com", i),
			Role:      "user",
			Active:    i%2 == 0,
			CreatedAt: base.Add(time.Duration(i+2) * time.Hour).Format(time.RFC3339),
		})
	}
	f.nextID = len(f.users)

	router := gin.New()
	router.POST("/api/admin/login", f.login)
	router.POST("/api/users/login", f.login)
	router.POST("/api/users/register", f.register)
	router.POST("/api/admin/users", f.authed(f.register))
	router.POST("/api/users/logout", f.authed(f.logout))
	router.GET("/api/users/me", f.authed(f.me))
	router.GET("/api/users", f.authed(f.list))
	router.PUT("/api/users/:id", f.authed(f.update))
	router.DELETE("/api/users/:id", f.authed(f.remove))
	router.GET("/api/admin/actions-history/:adminId", f.authed(f.history))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	f.Server = httptest.NewServer(router)
	return f
}

// revokeAll invalidates every issued token
func (f *fakeBackendServer) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

func (f *fakeBackendServer) find(id string) int {
	for i := range f.users {
		if f.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeBackendServer) authed(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		f.mu.Lock()
		id, ok := f.tokens[token]
		f.mu.Unlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token invalide"})
			return
		}
		c.Set("uid", id)
		next(c)
	}
}

func (f *fakeBackendServer) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == body.Email && body.Password == "secret" {
			token := fmt.Sprintf("token-%s-%d", u.ID, len(f.tokens))
			f.tokens[token] = u.ID
			c.JSON(http.StatusOK, gin.H{"message": "Connexion réussie", "token": token, "user": u})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Email ou mot de passe incorrect"})
}

func (f *fakeBackendServer) register(c *gin.Context) {
	var body fakeUser
	_ = c.ShouldBindJSON(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == body.Email {
			c.JSON(http.StatusConflict, gin.H{"message": "Cet email est déjà utilisé"})
			return
		}
	}
	f.nextID++
	body.ID = fmt.Sprintf("new-%d", f.nextID)
	body.Active = true
	if body.Role == "" {
		body.Role = "user"
	}
	body.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	f.users = append(f.users, body)
	c.JSON(http.StatusCreated, gin.H{"message": "Utilisateur créé avec succès"})
}

func (f *fakeBackendServer) logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	f.mu.Lock()
	delete(f.tokens, token)
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

func (f *fakeBackendServer) me(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(c.GetString("uid")); i >= 0 {
		c.JSON(http.StatusOK, gin.H{"user": f.users[i]})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
}

func (f *fakeBackendServer) list(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"users": f.users})
}

func (f *fakeBackendServer) update(c *gin.Context) {
	var body fakeUser
	_ = c.ShouldBindJSON(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(c.Param("id"))
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	f.users[i].Name = body.Name
	f.users[i].Email = body.Email
	f.users[i].Role = body.Role
	f.users[i].Active = body.Active
	c.JSON(http.StatusOK, gin.H{"message": "Utilisateur mis à jour"})
}

func (f *fakeBackendServer) remove(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(c.Param("id"))
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	f.users = append(f.users[:i], f.users[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Utilisateur supprimé"})
}

func (f *fakeBackendServer) history(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	adminID := c.Param("adminId")

	items := make([]gin.H, 0, 2)
	for i := 0; i < 2; i++ {
		n := (page-1)*2 + i
		action := "create"
		if n%2 == 1 {
			action = "delete"
		}
		items = append(items, gin.H{
			"_id":        fmt.Sprintf("act-%d", n),
			"adminId":    gin.H{"_id": adminID, "nom": "Alice Admin", "email": "alice@example.com"},
			"adminName":  "Alice Admin",
			"action":     action,
			"targetType": "user",
			"targetId":   fmt.Sprintf("u-%d", n),
			"details":    fmt.Sprintf("%s member %d", action, n),
			"timestamp":  time.Date(2024, 2, 1, 0, n, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"history": items,
		"pagination": gin.H{
			"currentPage":  page,
			"totalPages":   f.historyN,
			"totalItems":   f.historyN * 2,
			"itemsPerPage": 2,
		},
	})
}
