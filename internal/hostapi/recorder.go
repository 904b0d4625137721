package hostapi

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/task"
)

// #region recorder
// Recorder is a minimal task host: it keeps every submitted result, tracks the
// best one and serves the preload manifest under a base path.
type Recorder struct {
	mu        sync.Mutex
	results   []eval.Result
	best      eval.Result
	resources map[string]task.Resource
	logger    *slog.Logger
}

// NewRecorder serves the task manifest with every src prefixed by basePath.
func NewRecorder(basePath string, logger *slog.Logger) *Recorder {
	resources := make(map[string]task.Resource)
	for _, r := range task.PreloadManifest() {
		if basePath != "" {
			r.Src = strings.TrimSuffix(basePath, "/") + "/" + r.Src
		}
		resources[r.ID] = r
	}
	return &Recorder{resources: resources, logger: logger}
}

// SubmitResult stores a result. Every field must be a number.
func (r *Recorder) SubmitResult(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	values := make(map[string]float64, len(in.GetFields()))
	for name, v := range in.GetFields() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "parameter %s is not a number", name)
		}
		values[name] = n.NumberValue
	}
	res := eval.ResultFromMap(values)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 || eval.Better(res, r.best) {
		r.best = res
	}
	r.results = append(r.results, res)
	r.logger.Info("result submitted",
		"far_with_return", res.FarWithReturn, "far", res.Far,
		"total_fuel", res.TotalFuel, "steps", res.Steps)
	return &emptypb.Empty{}, nil
}

// GetResource looks up a manifest entry.
func (r *Recorder) GetResource(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, ok := r.resources[in.GetValue()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "resource %q", in.GetValue())
	}
	return structpb.NewStruct(map[string]interface{}{"id": res.ID, "src": res.Src})
}

// Results returns a copy of the submitted results in arrival order.
func (r *Recorder) Results() []eval.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eval.Result, len(r.results))
	copy(out, r.results)
	return out
}

// Best returns the best result seen so far.
func (r *Recorder) Best() (eval.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best, len(r.results) > 0
}

// #endregion recorder
