package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medisys/hms/internal/config"
	"github.com/medisys/hms/internal/domain/clinic"
	"github.com/medisys/hms/internal/domain/hospital"
	"github.com/medisys/hms/internal/domain/notification"
	"github.com/medisys/hms/internal/domain/user"
	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
	"github.com/medisys/hms/internal/platform/importer"
	"github.com/medisys/hms/internal/platform/sandbox"
	"github.com/medisys/hms/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Migrations()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd, statuses)
			return nil
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// tokenCmd mints a bearer token for scripting and local testing.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			hospitalID, _ := cmd.Flags().GetString("hospital")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := principalFromFlags(userID, role, hospitalID)
			if err != nil {
				return err
			}
			token, exp, err := auth.IssueToken(jwtConfig(cfg), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("user", "", "User ID (a random one when empty)")
	cmd.Flags().String("role", string(auth.RoleAdmin), "Role of the token holder")
	cmd.Flags().String("hospital", "", "Hospital ID for hospital-bound roles")
	return cmd
}

func principalFromFlags(userID, role, hospitalID string) (auth.Principal, error) {
	r, err := auth.ParseRole(role)
	if err != nil {
		return auth.Principal{}, err
	}
	p := auth.Principal{UserID: uuid.New(), Role: r}
	if userID != "" {
		if p.UserID, err = uuid.Parse(userID); err != nil {
			return auth.Principal{}, fmt.Errorf("--user: %w", err)
		}
	}
	if hospitalID != "" {
		hid, err := uuid.Parse(hospitalID)
		if err != nil {
			return auth.Principal{}, fmt.Errorf("--hospital: %w", err)
		}
		p.HospitalID = &hid
	}
	if p.HospitalBound() && p.HospitalID == nil {
		return auth.Principal{}, fmt.Errorf("--hospital is required for role %s", r)
	}
	return p, nil
}

// importCmd loads hospitals or users from a CSV or XLSX file as an admin.
func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <hospitals|users> <file>",
		Short: "Bulk import records from CSV or XLSX",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			entity, path := args[0], args[1]

			records, err := readImportFile(path)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			policy, err := cfg.FieldPolicy()
			if err != nil {
				return err
			}
			lister := db.NewLister(pool, policy, nil, logger)
			tx := db.Transactor(pool)
			admin := auth.Principal{Role: auth.RoleAdmin}

			var report *importer.Report
			switch entity {
			case "hospitals":
				svc := hospital.NewService(hospital.NewHospitalRepo(pool, lister), hospital.NewServiceRepo(pool, lister), tx, logger)
				report, err = svc.ImportHospitals(ctx, admin, records, dryRun)
			case "users":
				svc := user.NewService(user.NewRepo(pool, lister), jwtConfig(cfg), tx, logger)
				report, err = svc.ImportUsers(ctx, admin, records, dryRun)
			default:
				return fmt.Errorf("unknown entity %q: expected hospitals or users", entity)
			}
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Validate without writing")
	return cmd
}

// seedCmd fills an empty database with generated demo data.
func seedCmd() *cobra.Command {
	defaults := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			seedCfg := defaults
			seedCfg.Hospitals, _ = cmd.Flags().GetInt("hospitals")
			seedCfg.DoctorsPerHospital, _ = cmd.Flags().GetInt("doctors")
			seedCfg.PatientsPerHospital, _ = cmd.Flags().GetInt("patients")
			seedCfg.Password, _ = cmd.Flags().GetString("password")
			seedCfg.Seed, _ = cmd.Flags().GetInt64("seed")

			ds, err := sandbox.Generate(seedCfg)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}
			logger := newLogger(cfg.Env)
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			stores := sandbox.Stores{
				Hospitals:     hospital.NewHospitalRepo(pool, nil),
				Services:      hospital.NewServiceRepo(pool, nil),
				Users:         user.NewRepo(pool, nil),
				Patients:      clinic.NewPatientRepo(pool, nil),
				Doctors:       clinic.NewDoctorRepo(pool, nil),
				Notifications: notification.NewRepo(pool, nil),
			}
			res, err := sandbox.NewSeeder(stores, db.Transactor(pool), logger).Store(ctx, ds)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d hospitals, %d services, %d users (%d doctors, %d patients) in %s.\n",
				res.Hospitals, res.Services, res.Users, res.Doctors, res.Patients, res.Duration.Round(time.Millisecond))
			fmt.Fprintf(cmd.OutOrStdout(), "Sign in as admin@hms.local with the seed password.\n")
			return nil
		},
	}
	cmd.Flags().Int("hospitals", defaults.Hospitals, "Number of hospitals")
	cmd.Flags().Int("doctors", defaults.DoctorsPerHospital, "Doctors per hospital")
	cmd.Flags().Int("patients", defaults.PatientsPerHospital, "Patients per hospital")
	cmd.Flags().String("password", defaults.Password, "Password of every generated account")
	cmd.Flags().Int64("seed", defaults.Seed, "Random seed")
	return cmd
}

func readImportFile(path string) ([]importer.Record, error) {
	format, err := importer.DetectFormat(path, "")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.Read(f, format)
}

func printReport(cmd *cobra.Command, r *importer.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d rows, %d imported, %d rejected, %d duplicates (dry run: %t)\n",
		r.Entity, r.Total, r.Imported, len(r.Rejected), len(r.Duplicates), r.DryRun)
	for _, re := range r.Rejected {
		fmt.Fprintf(out, "  line %d: %s\n", re.Line, strings.Join(re.Errors, "; "))
	}
	for _, d := range r.Duplicates {
		fmt.Fprintf(out, "  line %d: %s (%s)\n", d.Line, d.Reason, d.Key)
	}
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")
	if cfg.MetricsEnabled {
		if err := telemetry.WatchPool(pool); err != nil {
			logger.Warn().Err(err).Msg("pool metrics unavailable")
		}
	}

	e, err := newServer(cfg, pool, logger)
	if err != nil {
		return err
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
