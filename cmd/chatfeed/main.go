package main

import (
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/infrastructure/appwrite"
	"app-chat/infrastructure/embedded"
	"app-chat/internal"
	"app-chat/projection"
	"app-chat/runtime"
	"app-chat/runtime/workers"
	"app-chat/services"
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"
)

// Exit codes to provide meaningful status to the operating system.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type options struct {
	envFile  string
	register bool
	login    bool
	logout   bool
	history  bool
	name     string
	email    string
	password string
	noColour bool
}

func parseOptions(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("chatfeed", pflag.ContinueOnError)
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.BoolVar(&opts.register, "register", false, "create the account then log in")
	flags.BoolVar(&opts.login, "login", false, "log in before opening the feed")
	flags.BoolVar(&opts.logout, "logout", false, "close the current session and exit")
	flags.BoolVar(&opts.history, "history", false, "print every message as a table and exit")
	flags.StringVar(&opts.name, "name", "", "display name, with --register")
	flags.StringVar(&opts.email, "email", os.Getenv("CHAT_EMAIL"), "account email")
	flags.StringVar(&opts.password, "password", os.Getenv("CHAT_PASSWORD"), "account password")
	flags.BoolVar(&opts.noColour, "no-colour", false, "plain output")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.register && opts.login {
		return options{}, fmt.Errorf("--register and --login are exclusive")
	}
	return opts, nil
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatfeed terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the backend, the session gate and the feed, then relays stdin
// lines as messages until the input ends or a signal arrives.
func run() (int, error) {
	// 1. Options & configuration
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		return exitConfig, err
	}
	if err := godotenv.Load(opts.envFile); err != nil && !goerrors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf("env file error: %w", err)
	}
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Events and backend
	counter := event.NewCounter()
	handler := event.Chain{
		event.NewFeedStatusHandler(log, counter),
		event.NewWorkerRestartedAfterPanicHandler(log, counter),
	}
	backend, closeBackend, err := openBackend(ctx, log, config, handler)
	if err != nil {
		return exitRuntime, err
	}
	defer closeBackend()

	supervisor := workers.NewSupervisor(log, handler, config.RestartInterval)
	gate := services.NewSessionGate(log, backend)
	messages := services.NewMessageService(log, backend, backend, config.MessagesCollection, config.AttachmentsBucket)
	realtime := services.NewRealtimeService(log, backend, supervisor, config.MessagesCollection)

	// 4. Session
	if opts.logout {
		gate.LogOut(ctx)
		return exitOK, nil
	}
	session, err := authenticate(ctx, gate, opts)
	if err != nil {
		return exitRuntime, err
	}

	// 5. History only
	if opts.history {
		all, err := messages.FetchAll(ctx)
		if err != nil {
			return exitRuntime, err
		}
		printHistory(os.Stdout, all, session)
		return exitOK, nil
	}

	// 6. Live feed
	view := newTerminalView(os.Stdout, !opts.noColour)
	feed := projection.NewFeed(log, view, messages, config.ScrollDelay)
	synchronizer := runtime.NewSynchronizer(log, messages, realtime, feed,
		append(handler, event.HandlerFunc(view.Status)))
	if err := synchronizer.Start(ctx, session); err != nil {
		return exitRuntime, err
	}
	defer func() {
		synchronizer.Stop()
		supervisor.Wait()
	}()

	lines := make(chan string)
	go readLines(os.Stdin, lines)
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down gracefully...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := send(ctx, messages, session, line); err != nil {
				view.Notice(err)
			}
		}
	}
}

// authenticate probes the current session first, then registers or logs in
// when asked to.
func authenticate(ctx context.Context, gate services.ISessionGate, opts options) (chat.Session, error) {
	switch {
	case opts.register:
		return gate.SignUp(ctx, opts.name, opts.email, opts.password)
	case opts.login:
		return gate.LogIn(ctx, opts.email, opts.password)
	}
	current, err := gate.CurrentSession(ctx)
	if err != nil {
		return chat.Session{}, err
	}
	if current == nil {
		return chat.Session{}, fmt.Errorf("not logged in, use --login or --register")
	}
	return *current, nil
}

func openBackend(ctx context.Context, log *slog.Logger, config internal.Config,
	handler event.Handler) (contract.Backend, func(), error) {
	switch strings.ToLower(config.Backend) {
	case internal.BackendAppwrite:
		client, err := appwrite.NewClient(log, appwrite.Config{
			Endpoint:     config.AppwriteEndpoint,
			ProjectID:    config.AppwriteProjectID,
			DatabaseID:   config.AppwriteDatabaseID,
			PageSize:     config.PageSize,
			PingInterval: config.RealtimePingInterval,
			BufferSize:   config.SubscriptionBufferSize,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	default:
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		hubCtx, cancel := context.WithCancel(ctx)
		backend := embedded.NewBackend(log, db, handler, embedded.Config{
			TokenSecret:   config.AuthSecret,
			TokenDuration: config.AuthTokenDuration,
			PageSize:      config.PageSize,
			BufferSize:    config.SubscriptionBufferSize,
			SinkTimeout:   config.DeliveryTimeout,
		})
		backend.Start(hubCtx)
		return backend.NewClient(), func() {
			cancel()
			backend.Wait()
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	}
}

// send posts one input line. "/image <path> [caption]" uploads the file first.
func send(ctx context.Context, messages services.IMessageService, session chat.Session, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd := chat.PostMessageCommand{Text: line}
	if rest, ok := strings.CutPrefix(line, "/image "); ok {
		path, caption, _ := strings.Cut(strings.TrimSpace(rest), " ")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		id, err := messages.UploadAttachment(ctx, chat.UploadAttachmentCommand{Filename: path, Data: data})
		if err != nil {
			return err
		}
		cmd = chat.PostMessageCommand{Text: caption, AttachmentID: &id}
	}
	_, err := messages.Append(ctx, session, cmd)
	return err
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}
