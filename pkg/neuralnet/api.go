// Package neuralnet is the public entry point: it trains feed-forward
// networks on a dataset, persists them with their run history, and answers
// predictions from saved networks.
package neuralnet

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"neuralnet/internal/dataset"
	"neuralnet/internal/export"
	"neuralnet/internal/model"
	"neuralnet/internal/network"
	"neuralnet/internal/nn"
	"neuralnet/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "neuralnet.db"

	// createdAtLayout is fixed width so run timestamps sort as strings.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

// Sample is one training row.
type Sample = network.Sample

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	// Logger receives training progress. Nil discards it.
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

type Client struct {
	store      storage.Store
	exportsDir string
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// TrainRequest describes a training run. Nil numeric fields and empty names
// take the network defaults. When NetworkID is set the saved network keeps
// its activation, cost, layers and seed; the training parameters given here
// replace the saved ones.
type TrainRequest struct {
	NetworkID string
	Name      string
	// Dataset is a built-in dataset name or a JSON sample file. Samples,
	// when set, take precedence.
	Dataset string
	Samples []Sample
	// ShuffleSeed, when non-zero, trains on a seeded permutation of the rows.
	ShuffleSeed int64

	Activation      string
	Cost            string
	LearningRate    *float64
	ErrorThreshold  *float64
	MaxIterations   *int
	HiddenLayers    []int
	LoggingInterval *int
	Seed            *int64
}

// Ptr returns a pointer to v, for the optional fields of TrainRequest.
func Ptr[T any](v T) *T {
	return &v
}

type TrainSummary struct {
	RunID      string
	NetworkID  string
	FinalError float64
	Iterations int
	Converged  bool
	Elapsed    time.Duration
	History    []float64
}

type PredictRequest struct {
	NetworkID string
	Latest    bool
	Inputs    [][]float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	NetworkID    string
	Dataset      string
	CreatedAtUTC string
	FinalError   float64
	Iterations   int
	Converged    bool
	Elapsed      time.Duration
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type HistorySummary struct {
	RunID  string
	Errors []float64
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

type ExportRequest struct {
	NetworkID string
	Latest    bool
	OutDir    string
}

type ExportSummary struct {
	NetworkID string
	Path      string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
		logger:     logger,
		now:        now,
		newID:      newID,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the backing store. It is safe to call more than once.
func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Train builds or restores a network, trains it and persists the network,
// its epoch history and a run record. A cancelled context still persists the
// partial run before returning ctx.Err().
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}
	set, err := c.samples(req)
	if err != nil {
		return TrainSummary{}, err
	}
	samples := set.Samples
	if req.ShuffleSeed != 0 {
		samples = dataset.Shuffled(samples, req.ShuffleSeed)
	}

	n, err := c.network(ctx, req, set)
	if err != nil {
		return TrainSummary{}, err
	}
	n.SetObserver(network.LogObserver(c.logger.With("network_id", n.ID)))

	result, trainErr := n.Train(ctx, samples)
	if trainErr != nil && !errors.Is(trainErr, context.Canceled) && !errors.Is(trainErr, context.DeadlineExceeded) {
		return TrainSummary{}, trainErr
	}
	if result.Iterations == 0 {
		return TrainSummary{}, trainErr
	}

	runID := c.newID()
	// The run is persisted even when ctx is done.
	persistCtx := context.WithoutCancel(ctx)
	if err := c.store.SaveNetwork(persistCtx, n.Snapshot()); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveTrainingHistory(persistCtx, runID, result.History); err != nil {
		return TrainSummary{}, err
	}
	run := model.RunRecord{
		VersionedRecord: model.CurrentVersion(),
		ID:              runID,
		NetworkID:       n.ID,
		Dataset:         set.Name,
		CreatedAtUTC:    c.now().UTC().Format(createdAtLayout),
		FinalError:      result.FinalError,
		Iterations:      result.Iterations,
		Converged:       result.Converged,
		ElapsedMS:       result.Elapsed.Milliseconds(),
	}
	if err := c.store.SaveRun(persistCtx, run); err != nil {
		return TrainSummary{}, err
	}

	return TrainSummary{
		RunID:      runID,
		NetworkID:  n.ID,
		FinalError: result.FinalError,
		Iterations: result.Iterations,
		Converged:  result.Converged,
		Elapsed:    result.Elapsed,
		History:    result.History,
	}, trainErr
}

func (c *Client) samples(req TrainRequest) (dataset.Set, error) {
	if len(req.Samples) > 0 {
		if err := dataset.Validate(req.Samples); err != nil {
			return dataset.Set{}, err
		}
		name := req.Dataset
		if name == "" {
			name = "inline"
		}
		return dataset.Set{Name: name, Samples: req.Samples}, nil
	}
	ref := req.Dataset
	if ref == "" {
		ref = "xor"
	}
	return dataset.Load(ref)
}

func (c *Client) network(ctx context.Context, req TrainRequest, set dataset.Set) (*network.Network, error) {
	if req.NetworkID != "" {
		if req.Activation != "" || req.Cost != "" || req.HiddenLayers != nil || req.Seed != nil {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "network %s: activation, cost, hidden layers and seed are fixed once saved", req.NetworkID)
		}
		snapshot, err := c.snapshot(ctx, req.NetworkID)
		if err != nil {
			return nil, err
		}
		n, err := network.Restore(snapshot)
		if err != nil {
			return nil, err
		}
		if err := n.Tune(func(opts *network.Options) { applyTraining(opts, req) }); err != nil {
			return nil, err
		}
		return n, nil
	}

	opts := network.DefaultOptions()
	opts.NewID = c.newID
	applyTraining(&opts, req)
	if req.Activation != "" {
		opts.Activation = req.Activation
	}
	if req.Cost != "" {
		opts.Cost = req.Cost
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	hidden := opts.LayerSizes[1 : len(opts.LayerSizes)-1]
	if req.HiddenLayers != nil {
		hidden = req.HiddenLayers
	}
	opts.LayerSizes = slices.Concat([]int{set.InputSize()}, hidden, []int{set.OutputSize()})
	return network.New(opts)
}

// applyTraining copies the training parameters present in req into opts.
func applyTraining(opts *network.Options, req TrainRequest) {
	if req.Name != "" {
		opts.Name = req.Name
	}
	if req.LearningRate != nil {
		opts.LearningRate = *req.LearningRate
	}
	if req.ErrorThreshold != nil {
		opts.ErrorThreshold = *req.ErrorThreshold
	}
	if req.MaxIterations != nil {
		opts.MaxIterations = *req.MaxIterations
	}
	if req.LoggingInterval != nil {
		opts.LoggingInterval = *req.LoggingInterval
	}
}

// Predict activates a saved network on each input row.
func (c *Client) Predict(ctx context.Context, req PredictRequest) ([][]float64, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	networkID, err := c.resolveNetworkID(ctx, req.NetworkID, req.Latest)
	if err != nil {
		return nil, err
	}
	if len(req.Inputs) == 0 {
		return nil, errors.New("predict requires at least one input row")
	}
	snapshot, err := c.snapshot(ctx, networkID)
	if err != nil {
		return nil, err
	}
	n, err := network.Restore(snapshot)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 0, len(req.Inputs))
	for i, input := range req.Inputs {
		output, err := n.Activate(input)
		if err != nil {
			return nil, errors.WithMessagef(err, "input row %d", i)
		}
		out = append(out, output)
	}
	return out, nil
}

// Runs lists training runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(runs)
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:        r.ID,
			NetworkID:    r.NetworkID,
			Dataset:      r.Dataset,
			CreatedAtUTC: r.CreatedAtUTC,
			FinalError:   r.FinalError,
			Iterations:   r.Iterations,
			Converged:    r.Converged,
			Elapsed:      time.Duration(r.ElapsedMS) * time.Millisecond,
		})
	}
	return out, nil
}

// History returns the epoch errors of a run with summary statistics.
func (c *Client) History(ctx context.Context, req HistoryRequest) (HistorySummary, error) {
	if req.RunID != "" && req.Latest {
		return HistorySummary{}, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return HistorySummary{}, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return HistorySummary{}, err
	}

	runID := req.RunID
	if req.Latest {
		latest, err := c.latestRun(ctx)
		if err != nil {
			return HistorySummary{}, err
		}
		runID = latest.ID
	}
	if runID == "" {
		return HistorySummary{}, errors.New("history requires run id or latest")
	}

	history, ok, err := c.store.GetTrainingHistory(ctx, runID)
	if err != nil {
		return HistorySummary{}, err
	}
	if !ok {
		return HistorySummary{}, errors.Errorf("training history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}

	summary := HistorySummary{RunID: runID, Errors: history}
	if len(history) > 0 {
		summary.Mean, summary.StdDev = stat.MeanStdDev(history, nil)
		summary.Min = floats.Min(history)
		summary.Max = floats.Max(history)
	}
	return summary, nil
}

// Export writes the nested view of a saved network into OutDir.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}
	networkID, err := c.resolveNetworkID(ctx, req.NetworkID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	snapshot, err := c.snapshot(ctx, networkID)
	if err != nil {
		return ExportSummary{}, err
	}
	path, err := export.WriteNetwork(req.OutDir, snapshot, c.now())
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{NetworkID: networkID, Path: path}, nil
}

func (c *Client) snapshot(ctx context.Context, id string) (model.NetworkSnapshot, error) {
	snapshot, ok, err := c.store.GetNetwork(ctx, id)
	if err != nil {
		return model.NetworkSnapshot{}, err
	}
	if !ok {
		return model.NetworkSnapshot{}, errors.Errorf("network not found: %s", id)
	}
	return snapshot, nil
}

func (c *Client) resolveNetworkID(ctx context.Context, id string, latest bool) (string, error) {
	if id != "" && latest {
		return "", errors.New("use either network id or latest")
	}
	if id != "" {
		return id, nil
	}
	if !latest {
		return "", errors.New("network id or latest is required")
	}
	run, err := c.latestRun(ctx)
	if err != nil {
		return "", err
	}
	return run.NetworkID, nil
}

func (c *Client) latestRun(ctx context.Context) (model.RunRecord, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return model.RunRecord{}, err
	}
	if len(runs) == 0 {
		return model.RunRecord{}, errors.New("no runs available")
	}
	return runs[len(runs)-1], nil
}
