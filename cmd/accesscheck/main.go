package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/akozachenko/accesscheck/internal/catalog"
	"github.com/akozachenko/accesscheck/internal/handler"
	appI18n "github.com/akozachenko/accesscheck/internal/i18n"
	"github.com/akozachenko/accesscheck/internal/mailer"
	"github.com/akozachenko/accesscheck/internal/model"
	"github.com/akozachenko/accesscheck/internal/report"
	"github.com/akozachenko/accesscheck/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "accesscheck",
		Short: "Accessibility self-assessment tool for youth centers",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), sendCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `accesscheck --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "accesscheck.db", "SQLite database path")
	f.StringP("catalog", "c", "questions/demo_uk.json", "Path to the question catalog JSON file")
	f.StringP("lang", "l", "uk", "Report and email language (uk, en)")
	f.String("base-url", "http://localhost:8080", "Public URL prefix used in share links")
	f.String("resend-key", "", "Resend API key (or set ACCESSCHECK_RESEND_KEY)")
	f.String("from", "noreply@accesscheck.local", "Sender address for report emails")
	f.String("admin-email", "", "Destination address for report emails")
	f.String("admin-password", "", "Initial admin password (or set ACCESSCHECK_ADMIN_PASSWORD)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assessment results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "accesscheck.db", "SQLite database path")
	f.StringP("catalog", "c", "questions/demo_uk.json", "Path to the question catalog JSON file")
	f.Int64("session", 0, "Session ID to export (0 = all sessions)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email an assessment report to the configured admin address",
		RunE:  runSend,
	}
	f := cmd.Flags()
	f.String("db", "accesscheck.db", "SQLite database path")
	f.StringP("catalog", "c", "questions/demo_uk.json", "Path to the question catalog JSON file")
	f.Int64("session", 0, "Session ID to send (required)")
	f.String("report", "results", "Report variant (results, answers)")
	f.StringP("lang", "l", "uk", "Report and email language (uk, en)")
	f.String("resend-key", "", "Resend API key (or set ACCESSCHECK_RESEND_KEY)")
	f.String("from", "noreply@accesscheck.local", "Sender address for report emails")
	f.String("admin-email", "", "Destination address for report emails")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("session")

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

	v.SetEnvPrefix("ACCESSCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("accesscheck")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/accesscheck")
	v.AddConfigPath("/etc/accesscheck")
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

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	cat, err := loadCatalog(db, v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	m := mailer.New(v.GetString("resend-key"), v.GetString("from"), v.GetString("admin-email"))

	cfg := model.Config{
		BaseURL:       strings.TrimRight(v.GetString("base-url"), "/"),
		AdminEmail:    v.GetString("admin-email"),
		SecureCookies: v.GetBool("secure-cookies"),
	}

	h := handler.New(db, cat, m, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"catalog", v.GetString("catalog"),
		"questions", cat.QuestionCount(),
		"lang", lang,
		"base_url", cfg.BaseURL,
		"email_enabled", m.Enabled(),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cat, err := catalog.Load(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	assembler := report.New(cat)

	var sessions []model.AssessmentSession
	if id := v.GetInt64("session"); id != 0 {
		sess, err := db.GetSession(id)
		if err != nil {
			return fmt.Errorf("get session %d: %w", id, err)
		}
		sessions = []model.AssessmentSession{sess}
	} else {
		sessions, err = db.ListSessions()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
	}

	exports := make([]report.Export, 0, len(sessions))
	for _, sess := range sessions {
		raw, err := db.RawAnswers(sess.ID)
		if err != nil {
			return fmt.Errorf("load answers for session %d: %w", sess.ID, err)
		}
		exports = append(exports, assembler.BuildExport(sess, model.DecodeAnswers(raw, cat)))
	}

	data, err := json.MarshalIndent(exports, "", "  ")
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
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func runSend(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cat, err := catalog.Load(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))

	m := mailer.New(v.GetString("resend-key"), v.GetString("from"), v.GetString("admin-email"))
	if !m.Enabled() {
		return fmt.Errorf("no Resend API key configured: set --resend-key or ACCESSCHECK_RESEND_KEY")
	}

	id := v.GetInt64("session")
	sess, err := db.GetSession(id)
	if err != nil {
		return fmt.Errorf("get session %d: %w", id, err)
	}
	raw, err := db.RawAnswers(id)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}
	answers := model.DecodeAnswers(raw, cat)

	assembler := report.New(cat)
	switch v.GetString("report") {
	case "answers":
		doc, err := assembler.FullAnswersHTML(ctx, sess, answers)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		return m.SendFullAnswers(ctx, sess.CenterName, fmt.Sprintf("accesscheck-answers-%d.html", id), doc)
	case "results":
		doc, err := assembler.ResultsHTML(ctx, sess, answers)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		return m.SendResults(ctx, sess.CenterName, fmt.Sprintf("accesscheck-report-%d.html", id), doc)
	default:
		return fmt.Errorf("unknown report variant %q (use results or answers)", v.GetString("report"))
	}
}

// loadCatalog reads and validates the catalog file, and warns when the file
// changed since existing sessions were recorded against it.
func loadCatalog(db *store.Store, path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := catalog.Validate(&cat); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := db.GetMetadata("catalog_sha256")
	if err != nil {
		return nil, fmt.Errorf("check catalog hash: %w", err)
	}
	if storedHash != "" && storedHash != hash {
		slog.Warn("catalog file changed since existing sessions were recorded, stored answers may no longer line up",
			"path", path)
	}
	if err := db.SetMetadata("catalog_sha256", hash); err != nil {
		return nil, fmt.Errorf("record catalog hash: %w", err)
	}

	slog.Info("loaded catalog", "path", path, "sections", len(cat.Sections), "questions", cat.QuestionCount())
	return &cat, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or ACCESSCHECK_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
