package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"neuralnet/internal/storage"
	"neuralnet/pkg/neuralnet"
)

const (
	defaultDBPath = "neuralnet.db"
	exportsDir    = "exports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "predict":
		return runPredict(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", defaultDBPath, "sqlite database path"),
	}
}

func (f storeFlags) client() (*neuralnet.Client, error) {
	return neuralnet.New(neuralnet.Options{
		StoreKind:  *f.kind,
		DBPath:     *f.dbPath,
		ExportsDir: exportsDir,
		Logger:     newLogger(os.Stderr),
	})
}

// newLogger writes text to a terminal and JSON lines anywhere else.
func newLogger(out *os.File) *slog.Logger {
	fd := out.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return slog.New(slog.NewTextHandler(out, nil))
	}
	return slog.New(slog.NewJSONHandler(out, nil))
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *store.kind)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional training config JSON path")
	networkID := fs.String("network-id", "", "continue training a saved network")
	name := fs.String("name", "", "network name")
	datasetRef := fs.String("dataset", "xor", "dataset: xor|and|or or a JSON sample file")
	activation := fs.String("activation", "SIGMOID", "activation function: SIGMOID|TANH|LOGISTIC|IDENTITY|RELU")
	cost := fs.String("cost", "CROSS_ENTROPY", "cost function: CROSS_ENTROPY|MSE|BINARY")
	learningRate := fs.Float64("learning-rate", 0.1, "gradient descent step size")
	errorThreshold := fs.Float64("error-threshold", 0.005, "stop once the epoch error is at or below this value")
	maxIterations := fs.Int("max-iterations", 1000, "epoch cap")
	hidden := fs.String("hidden", "5,5", "comma separated hidden layer sizes (empty for none)")
	logEvery := fs.Int("log-every", 0, "log progress every N epochs (0 disables)")
	seed := fs.Int64("seed", 1, "weight initialization seed")
	shuffleSeed := fs.Int64("shuffle-seed", 0, "train on a seeded permutation of the samples (0 keeps file order)")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	hiddenSizes, err := parseInts(*hidden)
	if err != nil {
		return errors.WithMessage(err, "hidden")
	}
	flagReq := neuralnet.TrainRequest{
		NetworkID:       *networkID,
		Name:            *name,
		Dataset:         *datasetRef,
		Activation:      *activation,
		Cost:            *cost,
		LearningRate:    learningRate,
		ErrorThreshold:  errorThreshold,
		MaxIterations:   maxIterations,
		HiddenLayers:    hiddenSizes,
		LoggingInterval: logEvery,
		Seed:            seed,
		ShuffleSeed:     *shuffleSeed,
	}

	// Only explicitly given flags reach the request. Their defaults mirror
	// the network defaults the client applies.
	var req neuralnet.TrainRequest
	if *configPath != "" {
		req, err = loadTrainRequestFromConfig(*configPath)
		if err != nil {
			return errors.WithMessage(err, "load config")
		}
	}
	overrideFromFlags(&req, flagReq, setFlags)

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, req)
	if err != nil && summary.RunID == "" {
		return err
	}
	if *jsonOut {
		if encErr := writeJSON(map[string]any{
			"run_id":      summary.RunID,
			"network_id":  summary.NetworkID,
			"final_error": summary.FinalError,
			"iterations":  summary.Iterations,
			"converged":   summary.Converged,
			"elapsed_ms":  summary.Elapsed.Milliseconds(),
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Printf("run_id=%s network_id=%s iterations=%s converged=%t final_error=%.6f elapsed=%s\n",
			summary.RunID,
			summary.NetworkID,
			humanize.Comma(int64(summary.Iterations)),
			summary.Converged,
			summary.FinalError,
			summary.Elapsed.Round(time.Millisecond),
		)
	}
	return err
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "saved network id")
	latest := fs.Bool("latest", false, "use the network of the latest run")
	var inputs [][]float64
	fs.Func("input", "comma separated input row (repeatable)", func(v string) error {
		row, err := parseFloats(v)
		if err != nil {
			return err
		}
		inputs = append(inputs, row)
		return nil
	})
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("predict requires at least one --input")
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	outputs, err := client.Predict(ctx, neuralnet.PredictRequest{
		NetworkID: *networkID,
		Latest:    *latest,
		Inputs:    inputs,
	})
	if err != nil {
		return err
	}
	for i, out := range outputs {
		fmt.Printf("input=%s output=%s\n", formatFloats(inputs[i]), formatFloats(out))
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, neuralnet.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID        string  `json:"run_id"`
			NetworkID    string  `json:"network_id"`
			Dataset      string  `json:"dataset"`
			CreatedAtUTC string  `json:"created_at_utc"`
			FinalError   float64 `json:"final_error"`
			Iterations   int     `json:"iterations"`
			Converged    bool    `json:"converged"`
			ElapsedMS    int64   `json:"elapsed_ms"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:        r.RunID,
				NetworkID:    r.NetworkID,
				Dataset:      r.Dataset,
				CreatedAtUTC: r.CreatedAtUTC,
				FinalError:   r.FinalError,
				Iterations:   r.Iterations,
				Converged:    r.Converged,
				ElapsedMS:    r.Elapsed.Milliseconds(),
			})
		}
		return writeJSON(items)
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s network_id=%s dataset=%s created=%s iterations=%s converged=%t final_error=%.6f\n",
			r.RunID,
			r.NetworkID,
			r.Dataset,
			createdDisplay(r.CreatedAtUTC),
			humanize.Comma(int64(r.Iterations)),
			r.Converged,
			r.FinalError,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the latest run")
	limit := fs.Int("limit", 0, "max epochs to show (0 shows all)")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, neuralnet.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(map[string]any{
			"run_id":  history.RunID,
			"errors":  history.Errors,
			"mean":    history.Mean,
			"std_dev": history.StdDev,
			"min":     history.Min,
			"max":     history.Max,
		})
	}

	for i, e := range history.Errors {
		fmt.Printf("epoch=%d error=%.6f\n", i+1, e)
	}
	fmt.Printf("run_id=%s epochs=%s mean=%.6f std=%.6f min=%.6f max=%.6f\n",
		history.RunID,
		humanize.Comma(int64(len(history.Errors))),
		history.Mean,
		history.StdDev,
		history.Min,
		history.Max,
	)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "saved network id")
	latest := fs.Bool("latest", false, "export the network of the latest run")
	outDir := fs.String("out", exportsDir, "output directory")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, neuralnet.ExportRequest{NetworkID: *networkID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported network_id=%s path=%s\n", exported.NetworkID, exported.Path)
	return nil
}

func usageError(msg string) error {
	return errors.Errorf("%s\nusage: neuralnetctl <init|train|predict|runs|history|export> [flags]", msg)
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func createdDisplay(createdAtUTC string) string {
	at, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return strconv.Quote(humanize.Time(at))
}

func parseInts(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return []int{}, nil
	}
	parts := strings.Split(list, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Errorf("invalid size %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Errorf("invalid value %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
