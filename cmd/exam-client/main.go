package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/apiclient"
	"github.com/stemsi/exstem-client/internal/attempt"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/logger"
	"github.com/stemsi/exstem-client/internal/terminal"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// stdout belongs to the exam screen.
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(ctx, cfg, log, os.Args[2:])
	case "take":
		err = runTake(ctx, cfg, log, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		os.Exit(exitCode(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  exam-client login [-nisn <nisn>]
  exam-client take -exam <id> [-token <jwt>]

Environment: API_BASE_URL, API_TOKEN, API_RATE_LIMIT, REQUEST_TIMEOUT_SECONDS,
TICK_INTERVAL_MS, LOG_LEVEL, LOG_FORMAT`)
}

func newClient(cfg *config.Config, token string, log zerolog.Logger) *apiclient.Client {
	return apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Token:     token,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.APIRateLimit,
	}, log)
}

// runLogin prompts for credentials and prints the issued token.
func runLogin(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	nisn := fs.String("nisn", "", "student NISN (prompted when empty)")
	_ = fs.Parse(args)

	reader := bufio.NewReader(os.Stdin)

	if *nisn == "" {
		fmt.Print("NISN: ")
		line, _ := reader.ReadString('\n')
		*nisn = strings.TrimSpace(line)
	}
	if *nisn == "" {
		return errors.New("NISN is required")
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	client := newClient(cfg, "", log)
	res, err := client.Login(ctx, *nisn, string(pw))
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusUnauthorized {
			fmt.Fprintln(os.Stderr, "Invalid NISN or password.")
		} else {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "Logged in as %s.\n", res.Student.Name)
	fmt.Printf("export API_TOKEN=%s\n", res.Token)
	return nil
}

// runTake runs one exam attempt.
func runTake(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("take", flag.ExitOnError)
	examID := fs.String("exam", "", "exam id")
	token := fs.String("token", cfg.APIToken, "bearer token (defaults to API_TOKEN)")
	_ = fs.Parse(args)

	if *examID == "" {
		fs.Usage()
		return errors.New("-exam is required")
	}

	expired, err := apiclient.TokenExpired(*token, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("Token is not a readable JWT, sending it anyway")
	}
	if expired {
		fmt.Fprintln(os.Stderr, "Your session has expired. Run 'exam-client login' again.")
		return errors.New("token expired")
	}

	runner := terminal.NewRunner(newClient(cfg, *token, log), terminal.Options{
		ExamID:       *examID,
		TickInterval: cfg.TickInterval,
	}, os.Stdin, os.Stdout, log)

	return runner.Run(ctx)
}

func exitCode(err error) int {
	var lerr *attempt.LoadError
	switch {
	case errors.As(err, &lerr):
		return 3
	case errors.Is(err, terminal.ErrAbandoned), errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
