// Command netsketch is a shared whiteboard. Run it bare to open the
// board and join a session, `netsketch serve` to host the relay that
// carries a session, or `netsketch discover` to list sessions
// advertised on the local network.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"netsketch/internal/config"
	"netsketch/internal/relay"
	"netsketch/internal/transport"
	"netsketch/internal/ui"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return runServe(args[1:])
		case "discover":
			return runDiscover(args[1:])
		}
	}
	return runClient(args)
}

func runClient(args []string) error {
	fs := flag.NewFlagSet("netsketch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	sessionURL := fs.String("url", "", "session URL to join, overrides the config")
	offline := fs.Bool("offline", false, "draw locally without joining a session")
	discover := fs.Bool("discover", false, "join the first session found on the local network")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *sessionURL != "" {
		cfg.SessionURL = *sessionURL
	}
	if *offline {
		cfg.Offline = true
	}
	setupLogging(cfg)

	if *discover && !cfg.Offline {
		urls, err := transport.Discover(3 * time.Second)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			slog.Warn("no sessions on the local network, drawing locally")
			cfg.Offline = true
		} else {
			slog.Info("found session", "url", urls[0])
			cfg.SessionURL = urls[0]
		}
	}

	ui.New(cfg, slog.Default()).Run(context.Background(), cfg)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("netsketch serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	addr := fs.String("addr", "", "address to listen on, overrides the config")
	noMDNS := fs.Bool("no-mdns", false, "do not advertise the session over mDNS")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *noMDNS {
		cfg.Advertise = false
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Advertise {
		if port, err := listenPort(cfg.ListenAddr); err != nil {
			slog.Warn("cannot advertise session", "err", err)
		} else if srv, err := transport.Advertise(port); err != nil {
			slog.Warn("cannot advertise session", "err", err)
		} else {
			defer srv.Shutdown()
		}
	}

	slog.Info("share this board", "url", shareURL(cfg.ListenAddr))
	return relay.New(cfg.ListenAddr, slog.Default()).ListenAndServe(ctx)
}

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("netsketch discover", flag.ExitOnError)
	timeout := fs.Duration("timeout", 3*time.Second, "how long to listen for sessions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls, err := transport.Discover(*timeout)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no sessions found on the local network")
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	return nil
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

func listenPort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}

// shareURL turns the listen address into something a peer can paste
// into -url. Wildcard hosts are replaced with this machine's LAN
// address.
func shareURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = transport.LocalIP()
	}
	return "ws://" + net.JoinHostPort(host, port) + transport.DefaultPath
}
