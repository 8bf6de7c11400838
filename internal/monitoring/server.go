package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringServer serves process and database stats on a side port and
// pushes alerts to connected websocket clients. The ledger's analytics
// service raises alerts through Alert.
type MonitoringServer struct {
	db         *pgxpool.Pool
	port       int
	alerts     []AlertRecord
	alertsMux  sync.RWMutex
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan AlertRecord
}

type AlertRecord struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

type Stats struct {
	DatabaseStatus string  `json:"database_status"`
	ResponseTime   int64   `json:"response_time_ms"`
	ActiveAlerts   int     `json:"active_alerts"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	MemoryUsed     string  `json:"memory_used"`
	MemoryTotal    string  `json:"memory_total"`
	DiskPercent    float64 `json:"disk_percent"`
	DiskUsed       string  `json:"disk_used"`
	DiskTotal      string  `json:"disk_total"`
	DBSize         string  `json:"db_size"`
	Uptime         string  `json:"uptime"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewMonitoringServer accepts a nil pool when the service runs on the
// in-memory store; database stats are reported as unavailable.
func NewMonitoringServer(db *pgxpool.Pool, port int) *MonitoringServer {
	return &MonitoringServer{
		db:        db,
		port:      port,
		alerts:    make([]AlertRecord, 0),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan AlertRecord, 16),
	}
}

func (ms *MonitoringServer) Start() {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/alerts", ms.getAlerts).Methods("GET")
	r.HandleFunc("/ws", ms.handleWebSocket)

	go ms.handleBroadcast()
	go ms.monitorHealth()

	addr := fmt.Sprintf(":%d", ms.port)
	log.Printf("[Monitoring] Listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// Alert records an alert and pushes it to websocket clients. Implements the
// Alerter the analytics service expects.
func (ms *MonitoringServer) Alert(severity, alertType, message string) {
	alert := AlertRecord{
		Severity:  severity,
		Type:      alertType,
		Message:   message,
		Timestamp: time.Now(),
	}

	ms.alertsMux.Lock()
	alert.ID = len(ms.alerts) + 1
	ms.alerts = append(ms.alerts, alert)
	ms.alertsMux.Unlock()

	select {
	case ms.broadcast <- alert:
	default:
		// No listener draining yet; the alert is still recorded.
	}
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "unavailable"
	var responseTime int64
	var dbSize, uptime string
	if ms.db != nil {
		start := time.Now()
		err := ms.db.Ping(ctx)
		responseTime = time.Since(start).Milliseconds()
		if err != nil {
			dbStatus = "unhealthy"
		} else {
			dbStatus = "healthy"

			var dbSizeBytes int64
			ms.db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSizeBytes)
			dbSize = formatBytes(uint64(dbSizeBytes))

			var uptimeSec int
			ms.db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec)
			uptime = formatUptime(uptimeSec)
		}
	}

	cpuPercents, _ := cpu.Percent(time.Second, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	ms.alertsMux.RLock()
	active := 0
	for _, alert := range ms.alerts {
		if !alert.Resolved {
			active++
		}
	}
	ms.alertsMux.RUnlock()

	return Stats{
		DatabaseStatus: dbStatus,
		ResponseTime:   responseTime,
		ActiveAlerts:   active,
		CPUPercent:     cpuPercent,
		MemoryPercent:  memStats.UsedPercent,
		MemoryUsed:     formatBytes(memStats.Used),
		MemoryTotal:    formatBytes(memStats.Total),
		DiskPercent:    diskStats.UsedPercent,
		DiskUsed:       formatBytes(diskStats.Used),
		DiskTotal:      formatBytes(diskStats.Total),
		DBSize:         dbSize,
		Uptime:         uptime,
	}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (ms *MonitoringServer) getAlerts(w http.ResponseWriter, r *http.Request) {
	ms.alertsMux.RLock()
	defer ms.alertsMux.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.alerts)
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Monitoring] WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *MonitoringServer) handleBroadcast() {
	for alert := range ms.broadcast {
		ms.clientsMux.Lock()
		for client := range ms.clients {
			if err := client.WriteJSON(alert); err != nil {
				client.Close()
				delete(ms.clients, client)
			}
		}
		ms.clientsMux.Unlock()
	}
}

func (ms *MonitoringServer) monitorHealth() {
	if ms.db == nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		start := time.Now()
		err := ms.db.Ping(ctx)
		elapsed := time.Since(start).Milliseconds()
		cancel()

		if err != nil {
			ms.Alert("critical", "database_down", "Database is unreachable")
			continue
		}
		if elapsed > 1000 {
			ms.Alert("warning", "high_latency", fmt.Sprintf("Database response time: %dms", elapsed))
		}
	}
}
