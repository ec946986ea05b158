package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/history"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/logging"
	"docqa/internal/passage"
	"docqa/internal/service"
	"docqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	docFlag := &cli.StringFlag{
		Name:     "doc",
		Aliases:  []string{"d"},
		Usage:    "Path to the reference document (.txt, .md or .html)",
		Required: true,
	}

	return &cli.App{
		Name:  "docqa",
		Usage: "Answer questions about a large document from its most relevant passages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Print the excerpt that would be sent to the model",
				ArgsUsage: "QUESTION...",
				Flags: []cli.Flag{
					docFlag,
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show keywords and passage ranges"},
				},
				Action: extractCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a question with the configured language model",
				ArgsUsage: "QUESTION...",
				Flags:     []cli.Flag{docFlag},
				Action:    askCommand,
			},
			{
				Name:  "batch",
				Usage: "Extract excerpts for every question in a file, one per line",
				Flags: []cli.Flag{
					docFlag,
					&cli.StringFlag{Name: "questions", Aliases: []string{"q"}, Usage: "File with one question per line", Required: true},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent extractions (default from config)"},
				},
				Action: batchCommand,
			},
			{
				Name:  "history",
				Usage: "List recent questions and answers recorded for a document",
				Flags: []cli.Flag{
					docFlag,
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of exchanges to show", Value: 10},
				},
				Action: historyCommand,
			},
			{
				Name:   "tui",
				Usage:  "Interactive terminal UI",
				Flags:  []cli.Flag{docFlag},
				Action: tuiCommand,
			},
		},
	}
}

type components struct {
	cfg     *config.AppConfig
	svc     *service.QAService
	logger  logging.Logger
	closers []func() error
}

func (a *components) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close: %v", err)
		}
	}
}

// setup loads config and assembles components.
func setup(c *cli.Context) (*components, error) {
	var cfg *config.AppConfig
	var err error
	if path := c.String("config"); path == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return nil, err
	}
	a := &components{cfg: cfg, logger: logger}

	var cache loader.Cache
	switch cfg.Loader.Cache {
	case "memory", "":
		cache = loader.NewMemoryCache()
	case "redis":
		rc := loader.NewRedisCache(loader.RedisOptions{
			Addr:     cfg.Loader.Redis.Addr,
			Password: cfg.Loader.Redis.Password,
			DB:       cfg.Loader.Redis.DB,
			Prefix:   cfg.Loader.Redis.Prefix,
			TTL:      time.Duration(cfg.Loader.Redis.TTLSecs) * time.Second,
		})
		a.closers = append(a.closers, rc.Close)
		cache = rc
	default:
		return nil, fmt.Errorf("unknown loader cache: %s", cfg.Loader.Cache)
	}

	extractor := passage.New(
		passage.WithStopwords(cfg.Extractor.Stopwords),
		passage.WithDomainKeywords(cfg.Extractor.DomainKeywords),
	)

	var answerer domain.Answerer
	switch cfg.LLM.Type {
	case "none", "":
	case "openai":
		ans, err := llm.NewOpenAI(llm.Config{
			BaseURL:      cfg.LLM.BaseURL,
			APIKeyEnv:    cfg.LLM.APIKeyEnv,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Timeout:      time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
			SystemPrompt: cfg.LLM.SystemPrompt,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("llm init failed: %w", err)
		}
		answerer = ans
	default:
		a.Close()
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}

	var hist domain.HistoryStore
	switch cfg.History.Type {
	case "none", "":
	case "sqlite":
		store, err := history.NewSqliteStore(cfg.History.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("history init failed: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		hist = store
	default:
		a.Close()
		return nil, fmt.Errorf("unknown history: %s", cfg.History.Type)
	}

	a.svc = service.NewQAService(loader.New(cache, logger), extractor, answerer, hist, logger)
	return a, nil
}

func question(c *cli.Context) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", errors.New("a question is required")
	}
	return q, nil
}

func extractCommand(c *cli.Context) error {
	q, err := question(c)
	if err != nil {
		return err
	}
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Extract(c.Context, c.String("doc"), q)
	if err != nil {
		return err
	}
	if c.Bool("verbose") {
		fmt.Fprintf(os.Stderr, "keywords: %s\n", strings.Join(res.Keywords, ", "))
		if res.Fallback {
			fmt.Fprintln(os.Stderr, "no keyword hits; head/tail excerpt")
		}
		for i, p := range res.Passages {
			fmt.Fprintf(os.Stderr, "passage %d: [%d, %d) score=%d\n", i+1, p.Start, p.End, p.Score)
		}
	}
	fmt.Fprintln(c.App.Writer, res.Text)
	return nil
}

func askCommand(c *cli.Context) error {
	q, err := question(c)
	if err != nil {
		return err
	}
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.svc.Ask(c.Context, c.String("doc"), q, func(chunk string) {
		fmt.Fprint(c.App.Writer, chunk)
	})
	fmt.Fprintln(c.App.Writer)
	return err
}

func batchCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	questions, err := readQuestions(c.String("questions"))
	if err != nil {
		return err
	}
	workers := a.cfg.Batch.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	start := time.Now()
	results, err := a.svc.Batch(c.Context, c.String("doc"), questions, workers)
	if err != nil {
		return err
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(c.App.Writer, "%q: error: %v\n", r.Question, r.Err)
		case r.Result.Fallback:
			fmt.Fprintf(c.App.Writer, "%q: no matches, fallback excerpt (%d chars)\n", r.Question, utf8.RuneCountInString(r.Result.Text))
		default:
			fmt.Fprintf(c.App.Writer, "%q: %d passages, %d chars, keywords %v\n", r.Question, len(r.Result.Passages), utf8.RuneCountInString(r.Result.Text), r.Result.Keywords)
		}
	}
	a.logger.Info("processed %d questions with %d workers in %s", len(results), workers, time.Since(start))
	return nil
}

func historyCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.History.Type != "sqlite" {
		return errors.New("history is disabled; set history.type to sqlite in the config")
	}
	exchanges, err := a.svc.History(c.Context, c.String("doc"), c.Int("limit"))
	if err != nil {
		return err
	}
	out := c.App.Writer
	if len(exchanges) == 0 {
		fmt.Fprintln(out, "no recorded questions")
		return nil
	}
	for _, ex := range exchanges {
		fmt.Fprintf(out, "%s  %s\n%s\n\n", ex.CreatedAt.Local().Format(time.DateTime), ex.Question, ex.Answer)
	}
	return nil
}

func tuiCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	m := tui.New(a.svc, c.String("doc"))
	_, err = tea.NewProgram(m).Run()
	return err
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
