package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/nmurthy/vivadesk/internal/handler"
	"github.com/nmurthy/vivadesk/internal/llm"
	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/notify"
	"github.com/nmurthy/vivadesk/internal/results"
	"github.com/nmurthy/vivadesk/internal/sheet"
	"github.com/nmurthy/vivadesk/internal/store"
	vsync "github.com/nmurthy/vivadesk/internal/sync"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vivadesk",
		Short: "Teacher dashboard backend for AI-held viva examinations",
	}

	serve := serveCmd()
	root.AddCommand(serve, syncCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `vivadesk --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "vivadesk.db", "SQLite database path")
	f.String("spreadsheet-id", "", "Google Sheets spreadsheet ID (empty disables the sheet store)")
	f.String("credentials", "credentials.json", "Google service account credentials file")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty uses the OpenAI default)")
	f.String("llm-key", "", "API key for question generation")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.Duration("sync-interval", 5*time.Minute, "Background reconciliation interval")
	f.String("sync-policy", "replace", "Reconciliation policy (replace, upsert)")
	f.Bool("sync-on-start", true, "Run one reconciliation cycle at startup")
	f.String("call-api-url", "", "Call platform API base URL (required for the upsert policy)")
	f.String("call-api-key", "", "Call platform API key")
	f.String("mail-key", "", "Mail provider API key (empty disables result emails)")
	f.String("mail-from", "", "Sender address for result emails")
	f.String("mail-from-name", "VivaDesk", "Sender name for result emails")
	f.String("admin-email", "admin@vivadesk.local", "Initial admin teacher email")
	f.String("admin-password", "", "Initial admin password (or set VIVADESK_ADMIN_PASSWORD)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation cycle and print the report",
		RunE:  runSync,
	}
	f := cmd.Flags()
	f.String("db", "vivadesk.db", "SQLite database path")
	f.String("spreadsheet-id", "", "Google Sheets spreadsheet ID")
	f.String("credentials", "credentials.json", "Google service account credentials file")
	f.String("sync-policy", "replace", "Reconciliation policy (replace, upsert)")
	f.String("call-api-url", "", "Call platform API base URL (required for the upsert policy)")
	f.String("call-api-key", "", "Call platform API key")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export viva results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "vivadesk.db", "SQLite database path")
	f.String("spreadsheet-id", "", "Google Sheets spreadsheet ID (fallback source)")
	f.String("credentials", "credentials.json", "Google service account credentials file")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("VIVADESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("vivadesk")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/vivadesk")
	v.AddConfigPath("/etc/vivadesk")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func sheetClient(ctx context.Context, v *viper.Viper) (*sheet.Client, error) {
	id := v.GetString("spreadsheet-id")
	if id == "" {
		return nil, nil
	}
	return sheet.New(ctx, sheet.Config{
		SpreadsheetID:   id,
		CredentialsFile: v.GetString("credentials"),
	})
}

func buildPolicy(v *viper.Viper, db *store.Store, sc *sheet.Client) (vsync.Policy, error) {
	switch v.GetString("sync-policy") {
	case "replace":
		if sc == nil {
			return nil, nil
		}
		return &vsync.FullReplace{Source: sc, Mirror: db}, nil
	case "upsert":
		apiURL := v.GetString("call-api-url")
		if apiURL == "" {
			return nil, fmt.Errorf("the upsert policy requires --call-api-url")
		}
		return &vsync.CallUpsert{
			Source: vsync.NewCallAPI(apiURL, v.GetString("call-api-key")),
			Mirror: db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown sync policy %q (want replace or upsert)", v.GetString("sync-policy"))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	sc, err := sheetClient(ctx, v)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	if sc != nil {
		if err := seedFromSheet(ctx, db, sc); err != nil {
			slog.Warn("seeding catalog from spreadsheet failed", "error", err)
		}
	} else {
		slog.Info("no spreadsheet configured, using the database only")
	}

	var gen handler.Generator
	if key := v.GetString("llm-key"); key != "" {
		gen = llm.New(v.GetString("llm-url"), key, v.GetString("llm-model"))
	}

	var mailer notify.Sender
	if v.GetString("mail-key") != "" {
		m, err := notify.New(notify.Config{
			APIKey:    v.GetString("mail-key"),
			FromEmail: v.GetString("mail-from"),
			FromName:  v.GetString("mail-from-name"),
		})
		if err != nil {
			return fmt.Errorf("configure mail: %w", err)
		}
		mailer = m
	}

	policy, err := buildPolicy(v, db, sc)
	if err != nil {
		return err
	}
	if policy != nil {
		runner := &vsync.Runner{
			Policy:     policy,
			Interval:   v.GetDuration("sync-interval"),
			RunOnStart: v.GetBool("sync-on-start"),
		}
		go runner.Start(ctx)
	}

	var reader results.SheetReader
	if sc != nil {
		reader = sc
	}
	rs := results.New(db, reader)

	var writer handler.SheetWriter
	if sc != nil {
		writer = sc
	}
	h := handler.New(db, writer, rs, gen, mailer, policy, handler.Config{
		SecureCookies: v.GetBool("secure-cookies"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"spreadsheet_configured", sc != nil,
		"llm_configured", gen != nil,
		"mail_configured", mailer != nil,
		"sync_policy", v.GetString("sync-policy"),
		"sync_interval", v.GetDuration("sync-interval"),
	)

	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sc, err := sheetClient(ctx, v)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}

	policy, err := buildPolicy(v, db, sc)
	if err != nil {
		return err
	}
	if policy == nil {
		return errors.New("the replace policy requires --spreadsheet-id")
	}

	report, err := policy.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sc, err := sheetClient(ctx, v)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	var reader results.SheetReader
	if sc != nil {
		reader = sc
	}

	rows, source, err := results.New(db, reader).List(ctx)
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	export := model.ResultsExport{
		SpreadsheetID: v.GetString("spreadsheet-id"),
		Source:        source,
		ExportedAt:    time.Now(),
		Count:         len(rows),
		Results:       rows,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}

// seedFromSheet imports the spreadsheet's catalog tabs into an empty mirror
// so a fresh deployment starts with the sheet's subjects, topics, questions,
// and teacher roster. Teacher rows carry no password hash, so imported
// accounts cannot log in until an admin sets credentials.
func seedFromSheet(ctx context.Context, db *store.Store, sc *sheet.Client) error {
	subjects, err := db.ListSubjects("")
	if err != nil {
		return err
	}
	if len(subjects) > 0 {
		return nil
	}

	snap, err := sc.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	for _, sub := range snap.Subjects {
		if _, err := db.CreateSubject(sub); err != nil {
			slog.Warn("import subject", "subject", sub.Name, "error", err)
		}
	}
	for _, topic := range snap.Topics {
		if _, err := db.CreateTopic(topic); err != nil {
			slog.Warn("import topic", "topic", topic.Name, "error", err)
		}
	}
	for _, q := range snap.Questions {
		if _, err := db.InsertQuestion(q); err != nil {
			slog.Warn("import question", "subject", q.Subject, "error", err)
		}
	}
	for _, teacher := range snap.Teachers {
		existing, err := db.GetTeacherByEmail(teacher.Email)
		if err != nil || existing != nil {
			continue
		}
		if _, err := db.CreateTeacher(teacher); err != nil {
			slog.Warn("import teacher", "email", teacher.Email, "error", err)
		}
	}

	slog.Info("seeded catalog from spreadsheet",
		"subjects", len(snap.Subjects),
		"topics", len(snap.Topics),
		"questions", len(snap.Questions),
		"teachers", len(snap.Teachers),
	)
	return nil
}

func seedAdmin(db *store.Store, email, password string) error {
	count, err := db.TeacherCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or VIVADESK_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateTeacher(model.Teacher{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Status:       model.TeacherActive,
	})
	if err != nil {
		return fmt.Errorf("create admin teacher: %w", err)
	}

	slog.Info("seeded admin teacher", "email", email)
	return nil
}
