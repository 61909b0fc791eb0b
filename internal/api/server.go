// Package api is the gin HTTP surface over the detection engine. It is a
// thin translation layer: all decision logic lives in pkg/manager and
// pkg/cusum. Grounded on the teacher's internal/api/server.go (gin engine,
// cors.Config, grouped /api/v1 routes, Start/setupRoutes shape).
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentryline/spc-cusum-engine/pkg/manager"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
	"github.com/sentryline/spc-cusum-engine/pkg/store"

	"github.com/sentryline/spc-cusum-engine/internal/telemetry"
)

// Server is the API server.
type Server struct {
	router   *gin.Engine
	mgr      *manager.Manager
	records  store.RecordLog
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	port     string
}

// NewServer wires a gin engine over an already-constructed Manager.
func NewServer(mgr *manager.Manager, records store.RecordLog, metrics *telemetry.Metrics, registry *prometheus.Registry, port string) *Server {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(config))

	s := &Server{
		router:   router,
		mgr:      mgr,
		records:  records,
		metrics:  metrics,
		registry: registry,
		port:     port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")

	v1.POST("/ingest", s.ingest)

	v1.POST("/detectors/register", s.register)
	v1.DELETE("/detectors/:key", s.deleteDetector)
	v1.POST("/detectors/batch-import", s.batchImport)
	v1.GET("/detectors", s.listConfigs)
	v1.GET("/detectors/:key/trajectory", s.trajectory)
	v1.PUT("/detectors/:key/config", s.updateConfig)

	v1.PUT("/config/global", s.updateGlobal)

	v1.POST("/states/save", s.saveStates)
	v1.POST("/states/load", s.loadStates)

	v1.GET("/records", s.queryRecords)

	v1.GET("/health", s.healthCheck)
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.router.Run(":" + s.port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now()})
}

func (s *Server) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	res, err := s.mgr.Ingest(manager.IngestInput{
		Item:           req.Item,
		Context:        req.context(),
		Value:          req.Value,
		Throughput:     req.Throughput,
		Timestamp:      req.Timestamp,
		Tags:           spc.Tags(req.Tags),
		OverrideConfig: req.OverrideConfig,
	})
	s.metrics.SampleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, manager.ErrBadSample) {
			s.metrics.SamplesRejected.WithLabelValues("bad_sample").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.metrics.SamplesIngested.WithLabelValues(req.Item).Inc()
	if res.Alert {
		s.metrics.AlertsFired.WithLabelValues(string(res.AlertSide)).Inc()
		if !res.ShouldPush {
			s.metrics.PushesSuppressed.WithLabelValues(req.Item).Inc()
		}
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.mgr.Register(spc.Key(req.Key), req.Config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key})
}

func (s *Server) deleteDetector(c *gin.Context) {
	key := spc.Key(c.Param("key"))
	if err := s.mgr.Delete(key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

func (s *Server) batchImport(c *gin.Context) {
	var req batchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	keys := make([]spc.Key, len(req.Keys))
	for i, k := range req.Keys {
		keys[i] = spc.Key(k)
	}
	if err := s.mgr.BatchImport(keys, req.SharedCfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(keys)})
}

func (s *Server) listConfigs(c *gin.Context) {
	global, perKey, err := s.mgr.ListConfigs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.metrics.ActiveDetectors.Set(float64(len(s.mgr.Keys())))
	c.JSON(http.StatusOK, gin.H{"global_defaults": global, "per_key_configs": perKey})
}

func (s *Server) trajectory(c *gin.Context) {
	key := spc.Key(c.Param("key"))
	traj, err := s.mgr.Trajectory(key)
	if err != nil {
		if errors.Is(err, manager.ErrUnknownKey) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown detector key"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "trajectory": traj})
}

func (s *Server) updateConfig(c *gin.Context) {
	key := spc.Key(c.Param("key"))
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.mgr.UpdateConfig(key, req.ConfigDelta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (s *Server) updateGlobal(c *gin.Context) {
	var req updateGlobalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.mgr.UpdateGlobal(req.ConfigDelta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) saveStates(c *gin.Context) {
	if err := s.mgr.SaveAllStates(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) loadStates(c *gin.Context) {
	if err := s.mgr.LoadAllStates(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": true})
}

func (s *Server) queryRecords(c *gin.Context) {
	filter := store.RecordFilter{Item: c.Query("item")}
	if product := c.Query("product"); product != "" {
		filter.Context = &spc.Context{
			Product: product,
			Line:    c.Query("line"),
			Station: c.Query("station"),
		}
	}
	if from, ok := spc.ParseTimestamp(c.Query("from")); ok {
		filter.From = from
	}
	if to, ok := spc.ParseTimestamp(c.Query("to")); ok {
		filter.To = to
	}
	if limit := c.Query("limit"); limit != "" {
		var n int
		if _, err := fmt.Sscanf(limit, "%d", &n); err == nil {
			filter.Limit = n
		}
	}

	records, err := s.records.Query(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
