// Package handlers provides HTTP handlers for the backup service
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// BackupHandler handles backup-related HTTP requests
type BackupHandler struct {
	// Add service dependencies here
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler() *BackupHandler {
	return &BackupHandler{}
}

// RegisterRoutes registers backup routes
func (h *BackupHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/backups", h.HandleBackups)
	mux.HandleFunc("/api/v1/backups/create", h.CreateBackup)
	mux.HandleFunc("/api/v1/backups/restore", h.RestoreBackup)
	mux.HandleFunc("/api/v1/backups/schedule", h.HandleSchedule)
	mux.HandleFunc("/api/v1/backups/status", h.GetStatus)
}

// Backup represents a backup record
type Backup struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // full, incremental, differential
	Status      string    `json:"status"` // pending, running, completed, failed
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Duration    int64     `json:"durationMs,omitempty"`
	Error       string    `json:"error,omitempty"`
	Metadata    BackupMetadata `json:"metadata"`
}

// BackupMetadata contains backup metadata
type BackupMetadata struct {
	DatabaseVersion string `json:"databaseVersion"`
	TableCount      int    `json:"tableCount"`
	RowCount        int64  `json:"rowCount"`
	Compression     string `json:"compression"`
	Encrypted       bool   `json:"encrypted"`
}

// HandleBackups handles GET (list) and DELETE requests
func (h *BackupHandler) HandleBackups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBackups(w, r)
	case http.MethodDelete:
		h.deleteBackup(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BackupHandler) listBackups(w http.ResponseWriter, r *http.Request) {
	// Mock backup data
	completedAt := time.Now().Add(-1 * time.Hour)
	backups := []Backup{
		{
			ID:          "backup-001",
			Type:        "full",
			Status:      "completed",
			Size:        1024 * 1024 * 500, // 500MB
			Path:        "/backups/2024-01-15/full-001.tar.gz",
			StartedAt:   time.Now().Add(-2 * time.Hour),
			CompletedAt: &completedAt,
			Duration:    3600000,
			Metadata: BackupMetadata{
				DatabaseVersion: "15.4",
				TableCount:      25,
				RowCount:        1000000,
				Compression:     "gzip",
				Encrypted:       true,
			},
		},
		{
			ID:        "backup-002",
			Type:      "incremental",
			Status:    "running",
			StartedAt: time.Now().Add(-15 * time.Minute),
			Path:      "/backups/2024-01-15/incr-002.tar.gz",
			Metadata: BackupMetadata{
				DatabaseVersion: "15.4",
				Compression:     "gzip",
				Encrypted:       true,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": backups,
		"total": len(backups),
	})
}

func (h *BackupHandler) deleteBackup(w http.ResponseWriter, r *http.Request) {
	backupID := r.URL.Query().Get("id")
	if backupID == "" {
		http.Error(w, "Backup ID required", http.StatusBadRequest)
		return
	}

	// In real implementation, delete the backup
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Backup deleted successfully",
	})
}

// CreateBackupRequest represents a backup creation request
type CreateBackupRequest struct {
	Type        string   `json:"type"` // full, incremental
	Description string   `json:"description,omitempty"`
	Tables      []string `json:"tables,omitempty"` // empty = all tables
	Compress    bool     `json:"compress"`
	Encrypt     bool     `json:"encrypt"`
}

// CreateBackup initiates a new backup
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Default to full backup
	if req.Type == "" {
		req.Type = "full"
	}

	// Create backup record
	backup := Backup{
		ID:        "backup-" + time.Now().Format("20060102150405"),
		Type:      req.Type,
		Status:    "pending",
		StartedAt: time.Now(),
		Path:      "/backups/" + time.Now().Format("2006-01-02") + "/" + req.Type + "-" + time.Now().Format("150405") + ".tar.gz",
		Metadata: BackupMetadata{
			DatabaseVersion: "15.4",
			Compression:     "gzip",
			Encrypted:       req.Encrypt,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(backup)
}

// RestoreBackupRequest represents a restore request
type RestoreBackupRequest struct {
	BackupID    string   `json:"backupId"`
	TargetDB    string   `json:"targetDb,omitempty"`
	Tables      []string `json:"tables,omitempty"` // empty = all tables
	DropExisting bool    `json:"dropExisting"`
}

// RestoreBackup initiates a backup restore
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RestoreBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.BackupID == "" {
		http.Error(w, "Backup ID required", http.StatusBadRequest)
		return
	}

	// In real implementation, start restore process
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"restoreId": "restore-" + time.Now().Format("20060102150405"),
		"backupId":  req.BackupID,
		"status":    "pending",
		"message":   "Restore initiated successfully",
	})
}

// BackupSchedule represents backup schedule configuration
type BackupSchedule struct {
	Enabled        bool   `json:"enabled"`
	FullBackupCron string `json:"fullBackupCron"`
	IncrBackupCron string `json:"incrBackupCron"`
	RetentionDays  int    `json:"retentionDays"`
	MaxBackups     int    `json:"maxBackups"`
}

// HandleSchedule handles backup schedule GET and PUT
func (h *BackupHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		schedule := BackupSchedule{
			Enabled:        true,
			FullBackupCron: "0 2 * * 0", // Sunday at 2 AM
			IncrBackupCron: "0 2 * * 1-6", // Mon-Sat at 2 AM
			RetentionDays:  30,
			MaxBackups:     50,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schedule)

	case http.MethodPut:
		var schedule BackupSchedule
		if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "Schedule updated successfully",
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// BackupStatus represents current backup status
type BackupStatus struct {
	LastFullBackup   *time.Time `json:"lastFullBackup,omitempty"`
	LastIncrBackup   *time.Time `json:"lastIncrBackup,omitempty"`
	NextScheduled    *time.Time `json:"nextScheduled,omitempty"`
	TotalBackups     int        `json:"totalBackups"`
	TotalSize        int64      `json:"totalSize"`
	CurrentOperation *string    `json:"currentOperation,omitempty"`
	OperationProgress float64   `json:"operationProgress,omitempty"`
}

// GetStatus returns current backup status
func (h *BackupHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lastFull := time.Now().Add(-24 * time.Hour)
	lastIncr := time.Now().Add(-6 * time.Hour)
	nextScheduled := time.Now().Add(18 * time.Hour)

	status := BackupStatus{
		LastFullBackup: &lastFull,
		LastIncrBackup: &lastIncr,
		NextScheduled:  &nextScheduled,
		TotalBackups:   15,
		TotalSize:      1024 * 1024 * 1024 * 5, // 5GB
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
