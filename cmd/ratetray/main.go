package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"

	"github.com/ruvasqm/rate-tray/common"
	"github.com/ruvasqm/rate-tray/config"
	"github.com/ruvasqm/rate-tray/factory"
	"github.com/ruvasqm/rate-tray/storage"
	"github.com/ruvasqm/rate-tray/tray"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "ratetray"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	configFile           = "./config.toml"
	envFile              = "./.env"
	envSourceKey         = "SOURCE_API_KEY"
	envHistoryKey        = "HISTORY_API_KEY"
	defaultDataSubdir    = ".local/share"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging common.FileLoggingHandler

var (
	trayHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("main")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,engine:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the engine package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logSaveFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the application will store its database and logs.",
		Value: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = trayHelpTemplate
	app.Name = "Rate tray"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "Tray application that polls a remote rate, keeps a local history and renders the value as the tray icon"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
	}
	app.Authors = []cli.Author{
		{
			Name: "ruvasqm",
		},
	}

	app.Action = run

	defer func() {
		if fileLogging != nil {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	saveLogFile := ctx.GlobalBool(logSaveFile.Name)
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = common.AttachFileLogger(log, defaultLogsPath, logFilePrefix, saveLogFile, workingDir)
	if err != nil {
		return err
	}

	if fileLogging != nil {
		timeLogLifeSpan := time.Second * time.Duration(logFileLifeSpanInSec)
		sizeLogLifeSpanInMB := uint64(logFileLifeSpanInMB)
		err = fileLogging.ChangeFileLifeSpan(timeLogLifeSpan, sizeLogLifeSpanInMB)
		if err != nil {
			return err
		}
	}

	log.Info("Starting rate tray", "version", appVersion, "pid", os.Getpid())

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	secrets, err := readSecrets(cfg)
	if err != nil {
		return err
	}

	cfg.Storage.Path, err = resolveStoragePath(workingDir, cfg.Storage.Path)
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(*cfg, secrets[envSourceKey], secrets[envHistoryKey])
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			log.Error("history database failed integrity checks, refusing to start with an empty history",
				"path", cfg.Storage.Path,
				"error", err,
			)
		}
		return err
	}

	controller, err := tray.NewController(tray.ArgsController{
		Title:     cfg.Source.Name,
		Updates:   components.GetScheduler().Updates(),
		OnTrigger: components.GetScheduler().TriggerNow,
		OnStart:   components.Start,
		OnExit:    components.Close,
	})
	if err != nil {
		components.Close()
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("termination signal received, shutting down")
		controller.Quit()
	}()

	// blocks until the quit menu item or a signal stops the tray loop
	controller.Run()

	log.Info("Application closed")

	return nil
}

func readSecrets(cfg *config.Config) (map[string]string, error) {
	secrets := make(map[string]string)
	if cfg.Source.AuthEnabled {
		secrets[envSourceKey] = ""
	}
	if cfg.API.Enabled && cfg.API.AuthEnabled {
		secrets[envHistoryKey] = ""
	}

	if len(secrets) == 0 {
		return secrets, nil
	}

	err := common.ReadEnvFile(envFile, secrets)
	if err != nil {
		return nil, err
	}

	return secrets, nil
}

// resolveStoragePath keeps absolute paths as they are; relative paths land
// under the working directory when one is provided, otherwise under the
// user's local data directory
func resolveStoragePath(workingDir string, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	if len(workingDir) > 0 {
		return filepath.Join(workingDir, path), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve the home directory: %w", err)
	}

	return filepath.Join(home, defaultDataSubdir, path), nil
}
