package gateway

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Routes holds the backend endpoint paths. Paths containing {id} or {adminId}
// are templates filled per call.
type Routes struct {
	UserRegister    string `yaml:"user_register"`
	AdminRegister   string `yaml:"admin_register"`
	UserLogin       string `yaml:"user_login"`
	AdminLogin      string `yaml:"admin_login"`
	CurrentUser     string `yaml:"current_user"`
	ListUsers       string `yaml:"list_users"`
	UserByID        string `yaml:"user_by_id"`
	AdminCreateUser string `yaml:"admin_create_user"`
	ActionHistory   string `yaml:"action_history"`
	Logout          string `yaml:"logout"`
}

// DefaultRoutes returns the paths served by the user-management backend
func DefaultRoutes() Routes {
	return Routes{
		UserRegister:    "/api/users/register",
		AdminRegister:   "/api/admin/register",
		UserLogin:       "/api/users/login",
		AdminLogin:      "/api/admin/login",
		CurrentUser:     "/api/users/me",
		ListUsers:       "/api/users",
		UserByID:        "/api/users/{id}",
		AdminCreateUser: "/api/admin/users",
		ActionHistory:   "/api/admin/actions-history/{adminId}",
		Logout:          "/api/users/logout",
	}
}

// LoadRoutes reads a YAML route override file. Keys missing from the file
// keep their default path.
func LoadRoutes(path string) (Routes, error) {
	routes := DefaultRoutes()
	if path == "" {
		return routes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return routes, fmt.Errorf("read routes file: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes overlays YAML route definitions on the defaults
func ParseRoutes(data []byte) (Routes, error) {
	routes := DefaultRoutes()
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return DefaultRoutes(), fmt.Errorf("parse routes: %w", err)
	}
	if !strings.Contains(routes.UserByID, "{id}") {
		return DefaultRoutes(), fmt.Errorf("parse routes: user_by_id must contain {id}")
	}
	if !strings.Contains(routes.ActionHistory, "{adminId}") {
		return DefaultRoutes(), fmt.Errorf("parse routes: action_history must contain {adminId}")
	}
	return routes, nil
}

func expand(tmpl, key, value string) string {
	return strings.ReplaceAll(tmpl, "{"+key+"}", url.PathEscape(value))
}
