package httpapi

import (
	"net/http"
	"time"

	"coffee-menu/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	StaticDir      string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Log            logrus.FieldLogger
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.Log != nil {
		r.Use(RequestLogger(cfg.Log))
	}

	if cfg.StaticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}
	handler.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
