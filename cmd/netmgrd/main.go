package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/corvidnet/netmgrd/internal/api"
	"github.com/corvidnet/netmgrd/internal/audit"
	"github.com/corvidnet/netmgrd/internal/config"
	"github.com/corvidnet/netmgrd/internal/logging"
	"github.com/corvidnet/netmgrd/internal/netio"
	"github.com/corvidnet/netmgrd/internal/objtypes"
	"github.com/corvidnet/netmgrd/internal/omp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	listen     string
	workers    int
	jsonLogs   bool
	debug      bool
	apiEnabled bool
	apiAddr    string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.listen, "listen", "", "Override the UDP listen address")
	flag.IntVar(&f.workers, "workers", -1, "Fixed worker count (-1 means use config/auto)")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.apiEnabled, "api", false, "Enable the management REST API")
	flag.StringVar(&f.apiAddr, "api-addr", "", "Override the management API bind address (host:port)")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.listen != "" {
		cfg.Netio.Listen = f.listen
	}
	if f.workers >= 0 {
		cfg.Netio.Workers = config.WorkerSetting{Mode: config.WorkersFixed, Value: f.workers}
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
	if f.apiEnabled {
		cfg.API.Enabled = true
	}
	if f.apiAddr != "" {
		if host, portStr, err := net.SplitHostPort(f.apiAddr); err == nil {
			if port, err := strconv.Atoi(portStr); err == nil {
				cfg.API.Host = host
				cfg.API.Port = port
			}
		}
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	runID := uuid.New().String()[:8]

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	}).With("run_id", runID)
	logger.Info("netmgrd starting",
		"listen", cfg.Netio.Listen,
		"workers", cfg.Netio.Workers.String(),
		"api_enabled", cfg.API.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var ledger *audit.Ledger
	if cfg.Audit.Enabled {
		ledger, err = audit.Open(cfg.Audit.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open audit ledger: %w", err)
		}
		defer ledger.Close()
	}

	registry := omp.NewRegistry()
	registry.Types.Register(objtypes.NewHostType())
	registry.Types.Register(objtypes.NewLeaseType())
	processor := omp.NewProcessor(registry)
	processor.OnMutate = auditMutateFunc(ledger, logger, runID)

	nworkers := workerCount(cfg.Netio.Workers)
	mgr := netio.NewManager(nworkers, cfg.Netio.CommandQueueLen, logger)
	mgr.Start()
	if cfg.Netio.MaxUDPSize > 0 {
		mgr.SetMaxUDP(uint32(cfg.Netio.MaxUDPSize))
	}

	var holder listenerHolder
	listener, err := netio.ListenUDP(mgr, cfg.Netio.Listen, recvHandler(&holder, processor, logger), nil, netio.ListenUDPOptions{
		SendBufferBytes: cfg.Netio.SendBufferBytes,
		RecvBufferBytes: cfg.Netio.RecvBufferBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to start UDP listener: %w", err)
	}
	holder.set(listener)

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(cfg, logger)
		apiSrv.Handler().SetListeners([]*netio.UDPListener{listener})
		apiSrv.Handler().SetRegistry(registry)
		apiSrv.Handler().SetLedger(ledger)

		logger.Info("management API starting", "addr", apiSrv.Addr())
		go func() {
			serveErr := apiSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			logger.Error("management API error", "err", serveErr)
			cancel()
		}()
	}

	<-ctx.Done()
	logger.Info("netmgrd shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if apiSrv != nil {
		_ = apiSrv.Shutdown(shutdownCtx)
	}

	netio.StopListening(netio.Background(), listener)
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("netio manager shutdown", "err", err)
	}

	logger.Info("netmgrd stopped")
	return nil
}

func workerCount(w config.WorkerSetting) int {
	if w.Mode == config.WorkersFixed {
		return w.Value
	}
	return -1
}

// auditMutateFunc returns the Processor.OnMutate hook that records every
// create/update/delete attempt to ledger. A nil ledger (audit disabled)
// yields a nil hook, matching the processor's own nil-is-off convention.
func auditMutateFunc(ledger *audit.Ledger, logger *slog.Logger, runID string) func(verb, typeName string, handle omp.Handle, err error) {
	if ledger == nil {
		return nil
	}
	actor := "omp@" + runID
	return func(verb, typeName string, handle omp.Handle, err error) {
		result := "ok"
		detail := ""
		if err != nil {
			result = "error"
			detail = err.Error()
		}
		subject := typeName
		if handle != omp.NoHandle {
			subject = fmt.Sprintf("%s#%d", typeName, uint32(handle))
		}
		entry := audit.Entry{
			Actor:   actor,
			Action:  verb,
			Subject: subject,
			Detail:  detail,
			Result:  result,
		}
		recordCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if recErr := ledger.Record(recordCtx, entry); recErr != nil {
			logger.Error("audit record failed", "err", recErr)
		}
	}
}

// listenerHolder breaks the chicken-and-egg cycle between ListenUDP (which
// needs a receive callback) and the callback (which needs the listener it
// was registered on, to send replies). ListenUDP only queues the per-worker
// bind commands and returns; no datagram can reach the callback until those
// binds complete and the caller has had a chance to call set.
type listenerHolder struct {
	l *netio.UDPListener
}

func (h *listenerHolder) set(l *netio.UDPListener) { h.l = l }

// recvHandler builds the UDP receive callback that decodes an inbound OMP
// message and hands it to processor, replying on the same handle the
// datagram arrived on.
func recvHandler(holder *listenerHolder, processor *omp.Processor, logger *slog.Logger) netio.RecvCallback {
	return func(cctx *netio.CallCtx, handle *netio.Handle, data []byte, _ any) {
		msg, err := omp.Decode(data)
		if err != nil {
			logger.Warn("discarding malformed OMP datagram", "peer", handle.Peer(), "err", err)
			return
		}

		conn := &udpConnection{cctx: cctx, handle: handle, listener: holder.l}
		if err := processor.Process(msg, conn); err != nil {
			logger.Warn("OMP message processing failed", "op", msg.Op, "peer", handle.Peer(), "err", err)
		}
	}
}

// udpConnection adapts a netio UDP handle to omp.Connection: replies are
// sent back to the peer the inbound datagram came from, on the worker that
// received it. WriteFrame is only ever called synchronously from within the
// receive callback that owns cctx/handle, so the listener answers the send
// on the same worker before Send returns.
type udpConnection struct {
	cctx     *netio.CallCtx
	handle   *netio.Handle
	listener *netio.UDPListener
}

func (c *udpConnection) WriteFrame(data []byte) error {
	var sendErr error
	c.listener.Send(c.cctx, c.handle, data, func(_ *netio.CallCtx, _ netio.Result, err error, _ any) {
		sendErr = err
	}, nil)
	return sendErr
}
