package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/gossipchain/app/services/node/handlers"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/state"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/worker"
	"github.com/ardanlabs/gossipchain/foundation/events"
	"github.com/ardanlabs/gossipchain/foundation/logger"
	"github.com/ardanlabs/gossipchain/foundation/nameservice"
	"github.com/ardanlabs/gossipchain/foundation/node"
	"github.com/ardanlabs/gossipchain/foundation/validate"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Node struct {
			Name              string        `conf:"default:miner1"`
			Host              string        `conf:"default:127.0.0.1"`
			Port              int           `conf:"default:9000"`
			Difficulty        uint          `conf:"default:2"`
			TransPerBlock     int           `conf:"default:4"`
			MiningInterval    time.Duration `conf:"default:2s"`
			DiscoveryInterval time.Duration `conf:"default:1500ms"`
			WriteTimeout      time.Duration `conf:"default:5s"`
			DialTimeout       time.Duration `conf:"default:3s"`
			ClientRate        float64       `conf:"default:100"`
			ClientBurst       int           `conf:"default:20"`
		}
		NameService struct {
			Host    string        `conf:"default:127.0.0.1:8333"`
			Timeout time.Duration `conf:"default:3s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "gossip proof of work mining node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	limits := struct {
		Name          string  `validate:"required"`
		Port          int     `validate:"min=1,max=65535"`
		Difficulty    uint    `validate:"lte=256"`
		TransPerBlock int     `validate:"gte=1"`
		ClientRate    float64 `validate:"gt=0"`
		ClientBurst   int     `validate:"gte=1"`
	}{
		Name:          cfg.Node.Name,
		Port:          cfg.Node.Port,
		Difficulty:    cfg.Node.Difficulty,
		TransPerBlock: cfg.Node.TransPerBlock,
		ClientRate:    cfg.Node.ClientRate,
		ClientBurst:   cfg.Node.ClientBurst,
	}
	if err := validate.Check(limits); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The directory is where this node finds the other miners and where it
	// announces itself.
	directory := nameservice.NewClient(cfg.NameService.Host, cfg.NameService.Timeout)

	// The state value represents the mining node and manages the mempool,
	// ledger and peers and provides an API for application support.
	st, err := state.New(state.Config{
		NodeName:      cfg.Node.Name,
		Difficulty:    cfg.Node.Difficulty,
		TransPerBlock: cfg.Node.TransPerBlock,
		Directory:     directory,
		WriteTimeout:  cfg.Node.WriteTimeout,
		DialTimeout:   cfg.Node.DialTimeout,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the mining and peer discovery workflows.
	// The worker will register itself with the state before any connection
	// can submit a transaction.
	wrk := worker.Run(st, worker.Config{
		MiningInterval:    cfg.Node.MiningInterval,
		DiscoveryInterval: cfg.Node.DiscoveryInterval,
	}, ev)

	// =========================================================================
	// Start Node Service

	// The node server accepts wallet clients and peer miners on one port.
	// Failing to bind is fatal.
	nodeSrv := node.New(node.Config{
		State:        st,
		WriteTimeout: cfg.Node.WriteTimeout,
		ClientRate:   rate.Limit(cfg.Node.ClientRate),
		ClientBurst:  cfg.Node.ClientBurst,
		EvHandler:    ev,
	})

	nodeHost := net.JoinHostPort(cfg.Node.Host, strconv.Itoa(cfg.Node.Port))
	if err := nodeSrv.Start(nodeHost); err != nil {
		return fmt.Errorf("starting node server: %w", err)
	}
	log.Infow("startup", "status", "node server started", "host", nodeSrv.Addr().String())

	// Announce this node to the directory. The node keeps mining without
	// one, discovery will keep trying to list miners each tick.
	regCtx, regCancel := context.WithTimeout(context.Background(), cfg.NameService.Timeout)
	reg, err := directory.Register(regCtx, nameservice.Entry{
		Name: cfg.Node.Name,
		Host: cfg.Node.Host,
		Port: cfg.Node.Port,
	})
	regCancel()
	switch {
	case err != nil:
		log.Errorw("startup", "status", "directory registration failed", "directory", directory.Addr(), "ERROR", err)
	default:
		log.Infow("startup", "status", "registered with directory", "directory", directory.Addr(), "entry", reg.Entry.String())
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Drop the directory entry so no new peers dial in.
		if reg != nil {
			log.Infow("shutdown", "status", "deregister from directory")
			reg.Close()
		}

		// Stop mining and discovery before tearing down connections.
		log.Infow("shutdown", "status", "stopping worker")
		wrk.Shutdown()

		// Give outstanding connections a deadline for completion.
		ctx, cancelNode := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelNode()

		log.Infow("shutdown", "status", "shutdown node server started")
		if err := nodeSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not stop node server gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
