package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pra-ai-team/marketing-agent/internal/competitors"
	"github.com/pra-ai-team/marketing-agent/internal/config"
	"github.com/pra-ai-team/marketing-agent/internal/datecheck"
	"github.com/pra-ai-team/marketing-agent/internal/history"
	"github.com/pra-ai-team/marketing-agent/internal/knowledge"
	"github.com/pra-ai-team/marketing-agent/internal/scaffold"
	"github.com/pra-ai-team/marketing-agent/internal/serp"
	"github.com/pra-ai-team/marketing-agent/internal/server"
	"github.com/pra-ai-team/marketing-agent/internal/userinput"
)

var version = "dev"

const defaultUserInputFile = "input/user_input.md"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "marketing-agent",
	Short:   "Marketing project scaffolding and SEO analysis",
	Long:    "marketing-agent scaffolds dated marketing project workspaces from templates, collects competitor pages, and analyzes keyword rankings via SerpAPI.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// .env is optional; it usually carries SERPAPI_KEY.
		if err := godotenv.Load(); err == nil {
			log.Printf("Loaded environment from .env")
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(competitorsCmd)
	rootCmd.AddCommand(seoCmd)
	rootCmd.AddCommand(fixDatesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marketing-agent", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default project config in input/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "input/project-config.yaml"
		if configPath != "" {
			target = configPath
		}
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Created config: %s\n", target)

		if _, err := os.Stat(defaultUserInputFile); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(defaultUserInputFile), 0o755); err == nil {
				if err := os.WriteFile(defaultUserInputFile, userinput.FormTemplate, 0o644); err == nil {
					fmt.Printf("Created input form: %s\n", defaultUserInputFile)
				}
			}
		}

		fmt.Println("Edit the config (or fill the input form) before running 'marketing-agent setup'.")
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the project config and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(knowledge.Summary(cfg))

		errors, warnings := cfg.Validate()
		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		for _, e := range errors {
			fmt.Printf("Error: %s\n", e)
		}
		if len(errors) > 0 {
			return fmt.Errorf("config has %d error(s)", len(errors))
		}
		fmt.Println("Config OK")
		return nil
	},
}

// --- setup command ---

var (
	setupDate        string
	setupForce       bool
	setupNoComp      bool
	setupNoInject    bool
	setupNoUserInput bool
	setupQuick       bool
	setupTimeout     time.Duration
	setupMaxComp     int
	setupOutdir      string
	setupCompany     string
	setupCompanyFile string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Scaffold a dated marketing project from the templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !setupNoUserInput {
			if err := applyUserInput(); err != nil {
				return err
			}
		}
		if setupCompany != "" {
			cfg.Company.Name = setupCompany
		}
		if setupOutdir != "" {
			cfg.Output.Dir = setupOutdir
		}

		if err := checkConfig(setupQuick); err != nil {
			return err
		}

		result, err := scaffold.Run(scaffold.Options{
			Cfg:             cfg,
			Date:            setupDate,
			Force:           setupForce,
			SkipCompetitors: setupNoComp,
			SkipInject:      setupNoInject,
			Quick:           setupQuick,
			FetchTimeout:    setupTimeout,
			MaxCompetitors:  setupMaxComp,
			Confirm:         askYesNo,
		})
		if err == scaffold.ErrAborted {
			fmt.Println("Aborted.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("\nProject: %s\n", result.ProjectDir)
		for _, step := range result.Steps {
			status := "ok"
			if step.Err != nil {
				status = "FAILED: " + step.Err.Error()
			}
			fmt.Printf("  %-12s %s (%s)\n", step.Name, status, step.Detail)
		}

		if len(result.Unresolved) > 0 {
			fmt.Println("\nUnresolved markers (fill the config and re-run setup):")
			for file, remaining := range result.Unresolved {
				fmt.Printf("  %s: %s\n", file, strings.Join(remaining, ", "))
			}
		}
		if result.Failed() {
			return fmt.Errorf("setup finished with failed steps")
		}
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupDate, "date", "", "Project date (YYYYMMDD, default today)")
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "Reuse an existing project directory without asking")
	setupCmd.Flags().BoolVar(&setupNoComp, "no-competitors", false, "Skip the competitor fetch")
	setupCmd.Flags().BoolVar(&setupNoInject, "no-inject", false, "Skip the competitor report injection")
	setupCmd.Flags().BoolVar(&setupNoUserInput, "no-user-input", false, "Skip applying input/user_input.md to the config")
	setupCmd.Flags().BoolVar(&setupQuick, "quick", false, "Skip all network steps and relax validation")
	setupCmd.Flags().DurationVar(&setupTimeout, "fetch-timeout", 20*time.Second, "Per-request timeout for competitor fetches")
	setupCmd.Flags().IntVar(&setupMaxComp, "max-competitors", 0, "Cap the number of competitors fetched (0 = no cap)")
	setupCmd.Flags().StringVar(&setupOutdir, "outdir", "", "Override the output directory")
	setupCmd.Flags().StringVar(&setupCompany, "company", "", "Override the company name for this run")
	setupCmd.Flags().StringVar(&setupCompanyFile, "company-file", defaultUserInputFile, "Path to the user input form")
}

// applyUserInput merges the user input form into the config file and reloads
// the config. A missing form is not an error.
func applyUserInput() error {
	formPath := setupCompanyFile
	if _, err := os.Stat(formPath); err != nil {
		return nil
	}

	path, err := config.ResolveConfigPath(configPath)
	if err != nil {
		path = "input/project-config.yaml"
	}

	applied, changed, err := userinput.Apply(formPath, path)
	if err != nil {
		return fmt.Errorf("applying user input: %w", err)
	}
	if !applied {
		return nil
	}

	fmt.Printf("Applied %s: %d field(s) updated\n", formPath, len(changed))
	for _, key := range changed {
		fmt.Printf("  - %s\n", key)
	}

	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	return nil
}

// checkConfig validates before scaffolding. Quick mode only requires the
// company name.
func checkConfig(quick bool) error {
	errors, warnings := cfg.Validate()
	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	if quick {
		if !config.Provided(cfg.Company.Name) {
			return fmt.Errorf("company name is not set")
		}
		return nil
	}
	if len(errors) > 0 {
		for _, e := range errors {
			fmt.Printf("Error: %s\n", e)
		}
		return fmt.Errorf("config has %d error(s); fix them or use --quick", len(errors))
	}
	return nil
}

func askYesNo(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// --- competitors command ---

var (
	compDate    string
	compTimeout time.Duration
	compMax     int
)

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Fetch competitor pages into an existing project directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := compDate
		if date == "" {
			date = time.Now().Format("20060102")
		}
		projectDir := filepath.Join(cfg.OutDir(), date)
		if _, err := os.Stat(projectDir); err != nil {
			return fmt.Errorf("project directory %s not found; run 'marketing-agent setup' first", projectDir)
		}

		fetcher := competitors.NewFetcher(compTimeout, compMax)
		result, err := fetcher.FetchAll(projectDir, cfg.Competitors.TargetCompanies)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d competitor report(s) under %s\n", len(result.Saved), filepath.Join(projectDir, "competitors"))
		return nil
	},
}

func init() {
	competitorsCmd.Flags().StringVar(&compDate, "date", "", "Project date (YYYYMMDD, default today)")
	competitorsCmd.Flags().DurationVar(&compTimeout, "fetch-timeout", 20*time.Second, "Per-request timeout")
	competitorsCmd.Flags().IntVar(&compMax, "max-competitors", 0, "Cap the number of competitors fetched (0 = no cap)")
}

// --- seo command ---

var (
	seoAPIKey string
	seoDelay  time.Duration
	seoOutdir string
)

var seoCmd = &cobra.Command{
	Use:   "seo",
	Short: "Run the SERP keyword analysis and write JSON + Markdown reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := seoAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("SERPAPI_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("no SerpAPI key; set SERPAPI_KEY (or .env) or pass --api-key")
		}

		keywords := cfg.AllKeywords()
		if len(keywords) == 0 {
			return fmt.Errorf("no keywords configured under seo.primary_keywords")
		}

		client := serp.NewClient(apiKey, "")
		if seoDelay > 0 {
			client.SetDelay(seoDelay)
		} else if cfg.SEO.RequestDelaySec > 0 {
			client.SetDelay(time.Duration(cfg.SEO.RequestDelaySec) * time.Second)
		}

		analysis, err := serp.NewAnalyzer(cfg, client).Run(keywords)
		if err != nil {
			return err
		}

		outDir := seoOutdir
		if outDir == "" {
			outDir = cfg.OutDir()
		}
		saved, err := serp.Save(analysis, cfg.Company.Name, outDir)
		if err != nil {
			return err
		}
		fmt.Printf("Analysis complete: %d/%d keywords\n", analysis.SuccessCount, analysis.TotalKeywords)
		fmt.Printf("  JSON:     %s\n", saved.JSONPath)
		fmt.Printf("  Markdown: %s\n", saved.MarkdownPath)

		db, err := history.Open(filepath.Join(cfg.GetDataDir(), "rank-history.db"))
		if err != nil {
			log.Printf("Rank history not recorded: %v", err)
			return nil
		}
		defer db.Close()
		if _, err := db.RecordAnalysis(analysis); err != nil {
			log.Printf("Rank history not recorded: %v", err)
		}
		return nil
	},
}

func init() {
	seoCmd.Flags().StringVar(&seoAPIKey, "api-key", "", "SerpAPI key (default: SERPAPI_KEY env)")
	seoCmd.Flags().DurationVar(&seoDelay, "delay", 0, "Delay between requests (default: seo.request_delay_sec)")
	seoCmd.Flags().StringVar(&seoOutdir, "outdir", "", "Report output directory (default: output dir)")
}

// --- fix-dates command ---

var (
	fixMethod string
	fixYes    bool
)

var fixDatesCmd = &cobra.Command{
	Use:   "fix-dates",
	Short: "Detect and repair folder/execution date mismatches",
	RunE: func(cmd *cobra.Command, args []string) error {
		mismatches, err := datecheck.Scan(cfg.OutDir())
		if err != nil {
			return err
		}
		if len(mismatches) == 0 {
			fmt.Println("No date mismatches found")
			return nil
		}

		for i, m := range mismatches {
			fmt.Printf("%d. %s\n", i+1, m.ProjectDir)
			fmt.Printf("   folder date:    %s\n", m.FolderDate)
			fmt.Printf("   execution date: %s (%s in %s)\n", m.ExecutionDate, m.ExecutionDatetime, m.SourceFile)
		}

		if fixMethod == "" {
			fmt.Println("\nRe-run with --method rename or --method rewrite to repair")
			return nil
		}

		for _, m := range mismatches {
			if !fixYes && !askYesNo(fmt.Sprintf("Fix %s with %s? [y/N]: ", m.ProjectDir, fixMethod)) {
				continue
			}
			switch fixMethod {
			case "rename":
				newPath, err := datecheck.Rename(m)
				if err != nil {
					fmt.Printf("Failed: %v\n", err)
					continue
				}
				fmt.Printf("Renamed %s -> %s\n", m.ProjectDir, newPath)
			case "rewrite":
				updated, err := datecheck.Restamp(m)
				if err != nil {
					fmt.Printf("Failed: %v\n", err)
					continue
				}
				fmt.Printf("Restamped %d file(s) in %s\n", len(updated), m.ProjectDir)
			default:
				return fmt.Errorf("unknown method %q (want rename or rewrite)", fixMethod)
			}
		}
		return nil
	},
}

func init() {
	fixDatesCmd.Flags().StringVar(&fixMethod, "method", "", "Repair method: rename (folder) or rewrite (documents)")
	fixDatesCmd.Flags().BoolVar(&fixYes, "yes", false, "Apply without asking per project")
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [keyword]",
	Short: "Show keyword rank history from past seo runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(filepath.Join(cfg.GetDataDir(), "rank-history.db"))
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			entries, err := db.KeywordHistory(args[0], historyLimit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("No history for %q\n", args[0])
				return nil
			}
			fmt.Printf("Rank history for %q:\n", args[0])
			for _, entry := range entries {
				fmt.Printf("  %s  %-6s top: %s\n",
					entry.ExecutedAt.Format("2006-01-02 15:04"), serp.RankLabel(entry.Rank), entry.TopDomain)
			}
			return nil
		}

		runs, err := db.Runs(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No analysis runs recorded yet; run 'marketing-agent seo' first")
			return nil
		}
		for _, run := range runs {
			fmt.Printf("%s  %s  %d/%d keywords\n",
				run.ExecutedAt.Format("2006-01-02 15:04"), run.Location, run.SuccessCount, run.KeywordCount)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum rows to show")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local browser for generated projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		var db *history.DB
		dbPath := filepath.Join(cfg.GetDataDir(), "rank-history.db")
		if _, err := os.Stat(dbPath); err == nil {
			if opened, err := history.Open(dbPath); err == nil {
				db = opened
				defer db.Close()
			}
		}
		return server.Serve(cfg.OutDir(), db, servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}
