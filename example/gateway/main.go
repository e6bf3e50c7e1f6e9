// Command gateway mounts the RPC handler inside a gin router with CORS, a
// health probe and Prometheus metrics:
//
//	go run ./example/gateway
//
//	curl -s -X POST localhost:8080/rpc \
//	  -d '{"jsonrpc":"2.0","method":"calc.Add","params":{"a":2,"b":3},"id":1}'
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wirerpc/wirerpc/codec"
	"github.com/wirerpc/wirerpc/config"
	"github.com/wirerpc/wirerpc/dispatch"
	"github.com/wirerpc/wirerpc/metrics"
	"github.com/wirerpc/wirerpc/transport"
	"github.com/wirerpc/wirerpc/wire"
)

var startedAt = time.Now()

// Calc is exposed under the configured namespace, so its methods dispatch
// as calc.Add and calc.Div.
type Calc struct{}

func (Calc) Add(ctx context.Context, p struct {
	A int `json:"a"`
	B int `json:"b"`
}) (int, error) {
	return p.A + p.B, nil
}

func (Calc) Div(ctx context.Context, p struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}) (float64, error) {
	if p.B == 0 {
		return 0, wire.NewError(-32001, "division by zero")
	}
	return p.A / p.B, nil
}

func main() {
	cfg := config.Default()
	config.LoadEnv(&cfg)

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("app", "gateway").Logger().Level(cfg.Level())

	metrics.Register()

	reg := dispatch.NewRegistry()
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "calc"
	}
	if err := dispatch.Receiver(reg, namespace, Calc{}); err != nil {
		log.Fatal().Err(err).Msg("register receiver")
	}
	d := dispatch.NewDispatcher(reg,
		dispatch.WithLogger(log),
		dispatch.WithCallHook(metrics.DispatchHook()),
	)

	h := transport.NewHandler(d,
		transport.WithCodecs(codec.JSON{}, codec.CBOR{}),
		transport.WithMaxBodyBytes(cfg.MaxBodyBytes),
		transport.WithMaxBatch(cfg.MaxBatch),
		transport.WithLogger(log),
		transport.WithHTTPHook(metrics.ObserveHTTP),
		transport.WithBatchHook(metrics.ObserveBatch),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.POST("/rpc", gin.WrapH(h))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"methods": reg.Names(),
		})
	})

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
