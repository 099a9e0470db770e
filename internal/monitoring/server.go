package monitoring

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"dairy-backend/pkg/utils"
)

// Event is pushed to connected dashboard clients: reconciliation runs,
// credit sweeps and other operational happenings.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans out events to websocket clients. Dead connections are dropped on
// the first failed write.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) Broadcast(event string, payload any) {
	msg := Event{Type: event, Payload: payload, Timestamp: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWS upgrades the connection and keeps it registered until the client
// goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Monitoring] Websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()
	log.Printf("[Monitoring] Dashboard client connected (%d active)", clientCount)

	// Read loop exists only to notice the close.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// SystemStats is the ops snapshot served to the dashboard.
type SystemStats struct {
	DatabaseStatus    string  `json:"database_status"`
	ActiveConnections int     `json:"active_connections"`
	IdleConnections   int     `json:"idle_connections"`
	ResponseTimeMS    int64   `json:"response_time_ms"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	MemoryUsed        string  `json:"memory_used"`
	MemoryTotal       string  `json:"memory_total"`
	DiskPercent       float64 `json:"disk_percent"`
	DiskUsed          string  `json:"disk_used"`
	DiskTotal         string  `json:"disk_total"`
	Uptime            string  `json:"uptime"`
}

// StatsHandler serves host and database health for the ops dashboard.
type StatsHandler struct {
	db        *pgxpool.Pool
	startedAt time.Time
}

func NewStatsHandler(db *pgxpool.Pool) *StatsHandler {
	return &StatsHandler{db: db, startedAt: time.Now()}
}

func (s *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := SystemStats{
		DatabaseStatus: "healthy",
		Uptime:         time.Since(s.startedAt).Round(time.Second).String(),
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		stats.DatabaseStatus = "unreachable"
	}
	stats.ResponseTimeMS = time.Since(start).Milliseconds()

	poolStat := s.db.Stat()
	stats.ActiveConnections = int(poolStat.AcquiredConns())
	stats.IdleConnections = int(poolStat.IdleConns())

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsed = formatBytes(vm.Used)
		stats.MemoryTotal = formatBytes(vm.Total)
	}
	if du, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = du.UsedPercent
		stats.DiskUsed = formatBytes(du.Used)
		stats.DiskTotal = formatBytes(du.Total)
	}

	utils.JSON(w, http.StatusOK, stats)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
