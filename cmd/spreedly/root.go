package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/spreedly-client/internal/app"
	"github.com/samvad-hq/spreedly-client/internal/config"
	"github.com/samvad-hq/spreedly-client/internal/logger"
)

var rootFlags struct {
	envFile string
	output  string
}

var historyFlags struct {
	limit int
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spreedly",
		Short:         "Call the Spreedly core API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", "configs/.env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVarP(&rootFlags.output, "output", "o", "json", "output format: json or yaml")

	cmd.AddCommand(
		callCmd(http.MethodGet, "get <endpoint> [key=value...]", "Send a GET request; extra arguments become query parameters"),
		callCmd(http.MethodPost, "post <endpoint> [json-body]", "Send a POST request with an optional JSON body"),
		callCmd(http.MethodPut, "put <endpoint> [json-body]", "Send a PUT request with an optional JSON body"),
		historyCmd(),
	)
	return cmd
}

func callCmd(method, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, method, args)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently journaled calls",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newRunner(cmd *cobra.Command) (*app.Runner, error) {
	cfg, err := config.LoadFrom(rootFlags.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.DebugObj("spreedly cli starting", "config", cfg.Redacted())

	runner, err := app.NewRunner(cmd.Context(), cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize runner", "error", err.Error())
		return nil, err
	}
	return runner, nil
}

func runCall(cmd *cobra.Command, method string, args []string) error {
	endpoint := args[0]
	var (
		params map[string]string
		body   any
	)
	switch method {
	case http.MethodGet:
		p, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		params = p
	default:
		b, err := parseBody(args[1:])
		if err != nil {
			return err
		}
		body = b
	}

	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer runner.Close()

	res, err := runner.Execute(cmd.Context(), method, endpoint, params, body)
	if err != nil {
		return err
	}
	if res.Fails() {
		if err := render(cmd.OutOrStdout(), rootFlags.output, map[string]any{
			"status": res.StatusCode(),
			"errors": res.Errors(),
		}); err != nil {
			return err
		}
		msg := res.ErrorsJoined()
		if msg == "" {
			msg = "status " + strconv.Itoa(res.StatusCode())
		}
		return fmt.Errorf("call failed: %s", msg)
	}
	return render(cmd.OutOrStdout(), rootFlags.output, res.Response())
}

func runHistory(cmd *cobra.Command, _ []string) error {
	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer runner.Close()

	entries, err := runner.History(historyFlags.limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return render(cmd.OutOrStdout(), rootFlags.output, entries)
}

// parseParams turns key=value arguments into query parameters.
func parseParams(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("query parameter %q must be key=value", arg)
		}
		params[k] = v
	}
	return params, nil
}

func parseBody(args []string) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("expected a single json body argument, got %d", len(args))
	}
	var body any
	dec := json.NewDecoder(strings.NewReader(args[0]))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	return body, nil
}

func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		// Round-trip through JSON so json.Number values render as numbers.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("convert output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
