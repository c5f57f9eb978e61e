// cmd/tools/churn-predict/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"churn-console/internal/churn/client"
	"churn-console/internal/churn/display"
	"churn-console/internal/churn/form"
	"churn-console/internal/common/config"
	"churn-console/internal/common/logger"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	apiURL, timeout := defaults()

	healthCmd := flag.NewFlagSet("health", flag.ExitOnError)
	predictCmd := flag.NewFlagSet("predict", flag.ExitOnError)
	batchCmd := flag.NewFlagSet("batch", flag.ExitOnError)
	infoCmd := flag.NewFlagSet("info", flag.ExitOnError)

	var (
		api      = map[*flag.FlagSet]*string{}
		timeouts = map[*flag.FlagSet]*time.Duration{}
	)
	for _, fs := range []*flag.FlagSet{healthCmd, predictCmd, batchCmd, infoCmd} {
		api[fs] = fs.String("api", apiURL, "Prediction API base URL")
		timeouts[fs] = fs.Duration("timeout", timeout, "Request timeout")
	}
	predictFile := predictCmd.String("file", "", "JSON file with one customer (instead of key=value args)")
	batchFile := batchCmd.String("file", "", "JSON file with a list of customers")
	verbose := false
	for _, fs := range []*flag.FlagSet{healthCmd, predictCmd, batchCmd, infoCmd} {
		fs.BoolVar(&verbose, "v", false, "Log requests to stderr")
	}

	var fs *flag.FlagSet
	switch os.Args[1] {
	case "health":
		fs = healthCmd
	case "predict":
		fs = predictCmd
	case "batch":
		fs = batchCmd
	case "info":
		fs = infoCmd
	default:
		help()
		os.Exit(1)
	}
	fs.Parse(os.Args[2:])

	log := logger.NewNoOpLogger()
	if verbose {
		log = logger.NewStructured("debug", "console")
	}
	c := client.New(client.Config{BaseURL: strings.TrimRight(*api[fs], "/"), Timeout: *timeouts[fs]}, log)
	ctx := context.Background()

	var err error
	switch fs {
	case healthCmd:
		err = runHealth(ctx, c)
	case predictCmd:
		err = runPredict(ctx, c, *predictFile, fs.Args())
	case batchCmd:
		err = runBatch(ctx, c, *batchFile)
	case infoCmd:
		err = runInfo(ctx, c)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// defaults reads the API address and timeout from the console's config,
// falling back to a local API.
func defaults() (string, time.Duration) {
	cfg, err := config.Load()
	if err != nil {
		return "http://localhost:8000", 30 * time.Second
	}
	return cfg.API.BaseURL, config.GetDuration(cfg.API.Timeout)
}

func runHealth(ctx context.Context, c *client.Client) error {
	status, err := c.Health(ctx)
	fmt.Println(renderStatus(err == nil))
	if err != nil {
		return err
	}
	if status.Version != "" {
		fmt.Printf("model loaded: %t, features: %d, version: %s\n", status.ModelLoaded, status.Features, status.Version)
	}
	return nil
}

func runPredict(ctx context.Context, c *client.Client, file string, args []string) error {
	var values map[string]string
	var err error
	if file != "" {
		values, err = readCustomer(file)
	} else {
		values, err = parseAssignments(args)
	}
	if err != nil {
		return err
	}

	input, err := form.Prepare(values)
	if err != nil {
		return err
	}
	prediction, err := c.Predict(ctx, input)
	if err != nil {
		return err
	}
	fmt.Println(renderResult(display.Render(*prediction, display.EmptyLatency)))
	return nil
}

func runBatch(ctx context.Context, c *client.Client, file string) error {
	if file == "" {
		return fmt.Errorf("-file is required for batch")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	customers, err := decodeCustomers(data)
	if err != nil {
		return err
	}

	inputs := make([]form.Input, 0, len(customers))
	for i, values := range customers {
		input, err := form.Prepare(values)
		if err != nil {
			return fmt.Errorf("customer %d: %w", i+1, err)
		}
		inputs = append(inputs, input)
	}

	batch, err := c.PredictBatch(ctx, inputs)
	if err != nil {
		return err
	}
	fmt.Print(renderBatch(batch))
	return nil
}

func runInfo(ctx context.Context, c *client.Client) error {
	info, err := c.ModelInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Println(renderModelInfo(info))
	return nil
}

// parseAssignments turns ["Age=30", "Status=1"] into a value map.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		values[name] = value
	}
	return values, nil
}

func readCustomer(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return toText(raw), nil
}

// decodeCustomers accepts either a bare list or {"customers": [...]}.
func decodeCustomers(data []byte) ([]map[string]string, error) {
	var list []map[string]interface{}
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapped struct {
			Customers []map[string]interface{} `json:"customers"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse customers: %w", err)
		}
		list = wrapped.Customers
	}

	out := make([]map[string]string, 0, len(list))
	for _, raw := range list {
		out = append(out, toText(raw))
	}
	return out, nil
}

func toText(raw map[string]interface{}) map[string]string {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			values[k] = tv
		case nil:
			values[k] = ""
		default:
			values[k] = fmt.Sprint(tv)
		}
	}
	return values
}

func help() {
	fmt.Println("Usage: churn-predict <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  health   Check the prediction API")
	fmt.Println("  predict  Predict one customer: predict [-file customer.json] [Name=value ...]")
	fmt.Println("  batch    Predict 1-100 customers: batch -file customers.json")
	fmt.Println("  info     Show model information")
}
