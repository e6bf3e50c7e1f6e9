// Command adder serves the classic adder API over HTTP:
//
//	go run ./example/adder -config example/adder/config.toml
//
//	curl -s -X POST localhost:8080/rpc \
//	  -d '{"jsonrpc":"2.0","method":"wrapping_add","params":[1,1],"id":1}'
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/wirerpc/wirerpc/codec"
	"github.com/wirerpc/wirerpc/config"
	"github.com/wirerpc/wirerpc/dispatch"
	"github.com/wirerpc/wirerpc/transport"
)

type pairParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

type listParams struct {
	List []uint `json:"lst"`
}

func registerAdder(reg *dispatch.Registry) {
	dispatch.MustFunc(reg, "checked_add", func(ctx context.Context, p pairParams) (*int, error) {
		sum := p.A + p.B
		if (p.B > 0 && sum < p.A) || (p.B < 0 && sum > p.A) {
			return nil, nil
		}
		return &sum, nil
	})
	dispatch.MustFunc(reg, "wrapping_add", func(ctx context.Context, p pairParams) (int, error) {
		return p.A + p.B, nil
	})
	dispatch.MustFunc(reg, "greet", func(ctx context.Context, _ struct{}) (string, error) {
		return "hello", nil
	})
	dispatch.MustFunc(reg, "swallow", func(ctx context.Context, _ struct{}) (interface{}, error) {
		return nil, nil
	})
	dispatch.MustFunc(reg, "repeat_list", func(ctx context.Context, p listParams) ([]uint, error) {
		return append(p.List, p.List...), nil
	})
	dispatch.MustFunc(reg, "fail", func(ctx context.Context, _ struct{}) (dispatch.Result, error) {
		return dispatch.Fail("tada!").Tagged(), nil
	})
	dispatch.MustFunc(reg, "succeed", func(ctx context.Context, _ struct{}) (dispatch.Result, error) {
		return dispatch.OK(1).Tagged(), nil
	})
}

func buildHandler(d *dispatch.Dispatcher, cfg config.Config, log zerolog.Logger) *transport.Handler {
	codecs := []codec.Codec{codec.JSON{}}
	if cfg.EnableCBOR {
		codecs = append(codecs, codec.CBOR{})
	}
	return transport.NewHandler(d,
		transport.WithCodecs(codecs...),
		transport.WithMaxBodyBytes(cfg.MaxBodyBytes),
		transport.WithMaxBatch(cfg.MaxBatch),
		transport.WithLogger(log),
	)
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	dotenvErr := godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("app", "adder").Logger()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}
	config.LoadEnv(&cfg)
	log = log.Level(cfg.Level())
	if dotenvErr != nil {
		log.Debug().Msg("no .env file found, using the environment as-is")
	}

	reg := dispatch.NewRegistry()
	registerAdder(reg)
	d := dispatch.NewDispatcher(reg, dispatch.WithLogger(log))

	// The handler is swapped wholesale on config reload; requests in flight
	// keep the handler they started with.
	handler := &atomic.Pointer[transport.Handler]{}
	handler.Store(buildHandler(d, cfg, log))

	if *configPath != "" {
		go func() {
			err := config.Watch(context.Background(), *configPath, log, func(next config.Config) {
				handler.Store(buildHandler(d, next, log))
				log.Info().Msg("transport settings reloaded")
			})
			if err != nil {
				log.Error().Err(err).Msg("config watch stopped")
			}
		}()
	}

	http.Handle("/rpc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Load().ServeHTTP(w, r)
	}))

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
