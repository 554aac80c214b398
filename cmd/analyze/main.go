package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/chynybekuuludastan/content_optimizer/internal/api/middleware"
	"github.com/chynybekuuludastan/content_optimizer/internal/app"
	"github.com/chynybekuuludastan/content_optimizer/internal/config"
	"github.com/chynybekuuludastan/content_optimizer/internal/database"
	"github.com/chynybekuuludastan/content_optimizer/internal/database/migration"
	"github.com/chynybekuuludastan/content_optimizer/internal/logger"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	cliApp := &cli.App{
		Name:  "content-optimizer",
		Usage: "score page content for SEO quality",
		Commands: []*cli.Command{
			analyzeCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "score a local HTML file or a fetched URL and print the JSON report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "HTML file to score"},
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page URL; fetched unless --file is given"},
			&cli.BoolFlag{Name: "render", Usage: "render the page in headless Chrome before scoring"},
			&cli.BoolFlag{Name: "check-images", Usage: "measure real image sizes with HEAD requests"},
			&cli.StringSliceFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "target keywords to always report"},
			&cli.IntFlag{Name: "max-recommendations", Value: 20, Usage: "length of the merged recommendation list"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML scoring settings overlay", EnvVars: []string{"SCORING_CONFIG"}},
			&cli.BoolFlag{Name: "summary", Usage: "print only the overall score and summary"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "log errors only"},
		},
		Action: analyzeAction,
	}
}

func analyzeAction(c *cli.Context) error {
	if c.String("file") == "" && c.String("url") == "" {
		return cli.Exit("either --file or --url is required", 2)
	}

	cfg := config.NewConfig()
	cfg.ScoringConfig = c.String("config")

	level := cfg.LogLevel
	if c.Bool("quiet") {
		level = "error"
	}
	zlog, err := logger.New(cfg.Environment, level)
	if err != nil {
		return err
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(c.Context, cfg.AnalysisTimeout+cfg.FetchTimeout)
	defer cancel()

	service, closeService, err := app.NewContentService(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeService()

	req := analyzer.AnalyzeRequest{
		URL: c.String("url"),
		Options: analyzer.Options{
			CheckImageSizes:    c.Bool("check-images"),
			MaxRecommendations: c.Int("max-recommendations"),
			TargetKeywords:     c.StringSlice("keywords"),
		},
	}

	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		req.HTML = string(data)
	} else {
		opts := parser.DefaultParseOptions()
		opts.Timeout = cfg.FetchTimeout

		var page *parser.Page
		if c.Bool("render") {
			page, err = parser.RenderPage(ctx, req.URL, opts)
		} else {
			page, err = parser.ParseWebsite(ctx, req.URL, opts)
		}
		if err != nil {
			return fmt.Errorf("fetch page: %w", err)
		}
		zlog.Debug("Page fetched",
			zap.String("url", page.URL),
			zap.Int("status", page.StatusCode),
			zap.Duration("load_time", page.LoadTime))
		req.URL, req.HTML, req.Content = page.URL, page.HTML, page.Content
	}

	report, err := service.Analyze(ctx, req)
	if err != nil {
		return err
	}

	var out interface{} = report
	if c.Bool("summary") {
		out = struct {
			URL          string                `json:"url"`
			OverallScore analyzer.OverallScore `json:"overall_score"`
			SEOSummary   analyzer.SEOSummary   `json:"seo_summary"`
		}{report.URL, report.OverallScore, report.SEOSummary}
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func migrateCommand() *cli.Command {
	run := func(action string) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg := config.NewConfig()
			if dsn := c.String("dsn"); dsn != "" {
				cfg.PostgresURI = dsn
			}
			zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer zlog.Sync()

			db, err := database.OpenPostgreSQL(cfg.PostgresURI, false)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := migration.NewMigrator(db.DB, zlog)
			if err != nil {
				return err
			}

			var names []string
			switch action {
			case "status":
				status, err := migrator.GetStatus(c.Context)
				if err != nil {
					return err
				}
				for _, s := range status {
					state := "pending"
					if s.Applied {
						state = fmt.Sprintf("batch %d, %s", s.Batch, s.AppliedAt.Format(time.RFC3339))
					}
					fmt.Fprintf(c.App.Writer, "%-45s %s\n", s.Name, state)
				}
				return nil
			case "rollback":
				names, err = migrator.Rollback(c.Context)
			case "reset":
				names, err = migrator.Reset(c.Context)
			default:
				names, err = migrator.Migrate(c.Context)
			}
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(c.App.Writer, "Nothing to do")
				return nil
			}
			fmt.Fprintf(c.App.Writer, "%s: %s\n", action, strings.Join(names, ", "))
			return nil
		}
	}

	dsn := &cli.StringFlag{Name: "dsn", Usage: "PostgreSQL connection string", EnvVars: []string{"POSTGRES_URI"}}
	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the report database schema",
		Flags: []cli.Flag{dsn},
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "apply pending migrations", Action: run("up")},
			{Name: "rollback", Usage: "roll back the last batch", Action: run("rollback")},
			{Name: "reset", Usage: "roll back everything and apply again", Action: run("reset")},
			{Name: "status", Usage: "show migration status", Action: run("status")},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an API token signed with JWT_SECRET",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Required: true, Usage: "token subject"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.NewConfig()
			if !cfg.AuthEnabled() {
				return cli.Exit("JWT_SECRET is not set", 2)
			}
			token, err := middleware.GenerateJWT(c.String("subject"), cfg.JWTSecret, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
