package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ayusman/handtrack/internal/app"
	"github.com/ayusman/handtrack/internal/config"
	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logger"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	serve := flag.Bool("serve", false, "run the HTTP API instead of processing images")
	addrFlag := flag.String("addr", "", "listen address for -serve (default server.addr from the config)")
	outDir := flag.String("out", "", "directory for annotated images")
	handIndex := flag.Int("hand", 0, "index of the hand to locate")
	from := flag.Int("from", -1, "first landmark of the distance to measure")
	to := flag.Int("to", -1, "second landmark of the distance to measure")
	record := flag.Bool("record", false, "record located hands in the snapshot store")
	label := flag.String("label", "", "label for recorded snapshots")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: handtrack [flags] image...\n       handtrack [flags] -serve [-addr addr]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "handtrack: %v\n", err)
		return 2
	}

	if cfg.Log.Development {
		err = logger.InitDevelopment()
	} else {
		err = logger.InitProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "handtrack: init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.L()

	var pair *tracker.Pair
	if *from >= 0 || *to >= 0 {
		if !detector.ValidLandmark(*from) || !detector.ValidLandmark(*to) {
			fmt.Fprintf(os.Stderr, "handtrack: -from and -to must both be landmark indices in [0, %d)\n", detector.NumLandmarks)
			return 2
		}
		pair = &tracker.Pair{From: *from, To: *to}
	}

	if !*serve && flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	var st *store.Store
	if cfg.Store.Path != "" && (*serve || *record) {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			log.Error("failed to open store", zap.String("path", cfg.Store.Path), zap.Error(err))
			return 1
		}
		defer st.Close()
	}

	a := app.New(app.Config{
		Store:         st,
		Detector:      cfg.Detector,
		Tracker:       cfg.Tracker,
		StaticDir:     findWebDir(),
		MaxImageBytes: cfg.Server.MaxImageBytes,
	})
	defer a.Close()

	if *serve {
		if err := a.Server().ListenAndServe(listenAddr(*addrFlag, cfg)); err != nil {
			log.Error("server failed", zap.Error(err))
			return 1
		}
		return 0
	}

	opts := app.Options{
		HandIndex: *handIndex,
		Pair:      pair,
		Record:    *record,
		Label:     *label,
		OutDir:    *outDir,
	}

	enc := json.NewEncoder(os.Stdout)
	status := 0
	for _, path := range flag.Args() {
		result, err := a.ProcessFile(path, opts)
		if err != nil {
			log.Error("failed to process image", zap.String("path", path), zap.Error(err))
			status = 1
			continue
		}
		if err := enc.Encode(result); err != nil {
			log.Error("failed to write result", zap.Error(err))
			return 1
		}
	}

	return status
}

// listenAddr returns the -addr flag when set and the configured address otherwise.
func listenAddr(flagAddr string, cfg config.Config) string {
	if flagAddr != "" {
		return flagAddr
	}
	return cfg.Server.Addr
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handtrack/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handtrack", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
