// Package handlers provides HTTP handlers for the admin service
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	// Add service dependencies here
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/admin/dashboard", h.GetDashboard)
	mux.HandleFunc("/api/v1/admin/users", h.ListUsers)
	mux.HandleFunc("/api/v1/admin/tenants", h.ListTenants)
	mux.HandleFunc("/api/v1/admin/system/health", h.GetSystemHealth)
	mux.HandleFunc("/api/v1/admin/system/metrics", h.GetSystemMetrics)
	mux.HandleFunc("/api/v1/admin/audit-logs", h.GetAuditLogs)
	mux.HandleFunc("/api/v1/admin/settings", h.HandleSettings)
}

// DashboardResponse represents admin dashboard data
type DashboardResponse struct {
	TotalUsers      int64            `json:"totalUsers"`
	TotalWorkflows  int64            `json:"totalWorkflows"`
	TotalExecutions int64            `json:"totalExecutions"`
	ActiveTenants   int64            `json:"activeTenants"`
	SystemStatus    string           `json:"systemStatus"`
	RecentActivity  []ActivityItem   `json:"recentActivity"`
	Metrics         DashboardMetrics `json:"metrics"`
}

// ActivityItem represents a recent activity item
type ActivityItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardMetrics contains dashboard metrics
type DashboardMetrics struct {
	ExecutionsToday    int64   `json:"executionsToday"`
	SuccessRate        float64 `json:"successRate"`
	AvgExecutionTime   float64 `json:"avgExecutionTimeMs"`
	ActiveSchedules    int64   `json:"activeSchedules"`
	PendingExecutions  int64   `json:"pendingExecutions"`
	FailedExecutions24h int64  `json:"failedExecutions24h"`
}

// GetDashboard returns admin dashboard data
func (h *AdminHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Mock dashboard data
	dashboard := DashboardResponse{
		TotalUsers:      1250,
		TotalWorkflows:  3420,
		TotalExecutions: 125000,
		ActiveTenants:   85,
		SystemStatus:    "healthy",
		RecentActivity: []ActivityItem{
			{ID: "1", Type: "workflow.created", Message: "New workflow created", Timestamp: time.Now().Add(-10 * time.Minute)},
			{ID: "2", Type: "user.login", Message: "User logged in", Timestamp: time.Now().Add(-15 * time.Minute)},
			{ID: "3", Type: "execution.completed", Message: "Execution completed", Timestamp: time.Now().Add(-20 * time.Minute)},
		},
		Metrics: DashboardMetrics{
			ExecutionsToday:    1520,
			SuccessRate:        98.5,
			AvgExecutionTime:   250,
			ActiveSchedules:    45,
			PendingExecutions:  12,
			FailedExecutions24h: 23,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}

// ListUsers returns a list of users for admin
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Mock user data
	users := []map[string]interface{}{
		{"id": "user-1", "email": "admin@linkflow.ai", "name": "Admin User", "role": "admin", "status": "active"},
		{"id": "user-2", "email": "user@linkflow.ai", "name": "Regular User", "role": "user", "status": "active"},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": users,
		"total": len(users),
	})
}

// ListTenants returns a list of tenants for admin
func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Mock tenant data
	tenants := []map[string]interface{}{
		{"id": "tenant-1", "name": "Acme Corp", "plan": "enterprise", "status": "active", "users": 50},
		{"id": "tenant-2", "name": "Startup Inc", "plan": "pro", "status": "active", "users": 10},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": tenants,
		"total": len(tenants),
	})
}

// SystemHealthResponse represents system health status
type SystemHealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services"`
}

// ServiceHealth represents health of a service
type ServiceHealth struct {
	Status   string        `json:"status"`
	Latency  time.Duration `json:"latencyMs"`
	LastCheck time.Time    `json:"lastCheck"`
}

// GetSystemHealth returns system health status
func (h *AdminHandler) GetSystemHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := SystemHealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services: map[string]ServiceHealth{
			"postgres":      {Status: "healthy", Latency: 5 * time.Millisecond, LastCheck: time.Now()},
			"redis":         {Status: "healthy", Latency: 2 * time.Millisecond, LastCheck: time.Now()},
			"kafka":         {Status: "healthy", Latency: 10 * time.Millisecond, LastCheck: time.Now()},
			"elasticsearch": {Status: "healthy", Latency: 15 * time.Millisecond, LastCheck: time.Now()},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// GetSystemMetrics returns system metrics
func (h *AdminHandler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := map[string]interface{}{
		"cpu": map[string]interface{}{
			"usage":   45.5,
			"cores":   8,
		},
		"memory": map[string]interface{}{
			"used":    4096,
			"total":   16384,
			"percent": 25.0,
		},
		"disk": map[string]interface{}{
			"used":    50000,
			"total":   500000,
			"percent": 10.0,
		},
		"network": map[string]interface{}{
			"bytesIn":  1024000,
			"bytesOut": 512000,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

// GetAuditLogs returns audit logs
func (h *AdminHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logs := []map[string]interface{}{
		{"id": "log-1", "action": "user.login", "userId": "user-1", "ip": "192.168.1.1", "timestamp": time.Now().Add(-1 * time.Hour)},
		{"id": "log-2", "action": "workflow.create", "userId": "user-1", "resource": "workflow-123", "timestamp": time.Now().Add(-2 * time.Hour)},
		{"id": "log-3", "action": "settings.update", "userId": "admin-1", "changes": map[string]string{"key": "rate_limit", "old": "100", "new": "200"}, "timestamp": time.Now().Add(-3 * time.Hour)},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": logs,
		"total": len(logs),
	})
}

// HandleSettings handles settings GET and PUT
func (h *AdminHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSettings(w, r)
	case http.MethodPut:
		h.updateSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings := map[string]interface{}{
		"rateLimit": map[string]interface{}{
			"enabled":           true,
			"requestsPerMinute": 100,
			"burstSize":         200,
		},
		"security": map[string]interface{}{
			"mfaRequired":       false,
			"passwordMinLength": 8,
			"sessionTimeout":    30,
		},
		"notifications": map[string]interface{}{
			"emailEnabled": true,
			"slackEnabled": true,
			"smsEnabled":   false,
		},
		"features": map[string]interface{}{
			"workflowVersioning": true,
			"multiTenancy":       true,
			"auditLogging":       true,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

func (h *AdminHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// In real implementation, save settings to database
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Settings updated successfully",
	})
}
