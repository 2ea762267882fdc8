// Package grpcapi exposes the engine as the gRPC service loto.v1.Analytics.
//
// Messages are google.protobuf.Struct on both sides, carrying the same JSON
// documents the HTTP API uses, so no generated code is needed.
package grpcapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/engine"
	"github.com/xtding233/loto-backend/internal/metrics"
)

const ServiceName = "loto.v1.Analytics"

// AnalyticsServer is the server API for loto.v1.Analytics.
type AnalyticsServer interface {
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sample(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Suggest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service implements AnalyticsServer on top of the engine.
type Service struct {
	engine *engine.Engine
	log    *logrus.Entry
}

func NewService(e *engine.Engine, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{engine: e, log: log.WithField("component", "grpc")}
}

// NewServer builds a grpc.Server with the service registered and a unary
// interceptor that logs and records every call.
func NewServer(svc AnalyticsServer, m *metrics.Metrics, log *logrus.Entry, opts ...grpc.ServerOption) *grpc.Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append(opts, grpc.UnaryInterceptor(observe(m, log.WithField("component", "grpc"))))
	srv := grpc.NewServer(opts...)
	RegisterAnalyticsServer(srv, svc)
	return srv
}

// overridesReq is the request document for Generate and Sample.
type overridesReq struct {
	Count      *int    `json:"count"`
	Size       *int    `json:"size"`
	Seed       *uint64 `json:"seed"`
	Window     *int    `json:"window"`
	AvoidLast  *bool   `json:"avoid_last"`
	BalanceSum *bool   `json:"balance_sum"`
	TargetSum  *int    `json:"target_sum"`
	Tier       *int    `json:"tier"`
	Top        *int    `json:"top"`
	Budget     *int    `json:"budget"`
}

func (r overridesReq) overrides() config.Overrides {
	return config.Overrides{
		Count:           r.Count,
		Size:            r.Size,
		Seed:            r.Seed,
		FrequencyWindow: r.Window,
		AvoidLastDraw:   r.AvoidLast,
		BalanceSum:      r.BalanceSum,
		TargetSum:       r.TargetSum,
		Tier:            r.Tier,
		TopN:            r.Top,
		Budget:          r.Budget,
	}
}

type evaluateReq struct {
	Games [][]int `json:"games"`
}

// batchReq is the GenerateBatch document: size -> number of games, plus the
// generator overrides (count and size are ignored).
type batchReq struct {
	overridesReq
	Quantities map[int]int `json:"quantities"`
}

func (s *Service) Stats(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.engine.Summary())
}

func (s *Service) Generate(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req overridesReq
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	res, err := s.engine.Generate(req.overrides())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *Service) Sample(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req overridesReq
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	rep, err := s.engine.Sample(ctx, req.overrides())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(rep)
}

func (s *Service) Evaluate(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateReq
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	recs, err := s.engine.Evaluate(req.Games)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"records": recs})
}

func (s *Service) Suggest(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req overridesReq
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	size := 0
	if req.Size != nil {
		size = *req.Size
	}
	g, err := s.engine.Suggest(size)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(g)
}

func (s *Service) GenerateBatch(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req batchReq
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	b, err := s.engine.GenerateBatch(req.Quantities, req.overrides())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(b)
}

// fromStruct decodes a Struct through its JSON form.
func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	code := codes.Internal
	switch engine.Classify(err) {
	case engine.KindInvalid:
		code = codes.InvalidArgument
	case engine.KindNotFound:
		code = codes.NotFound
	case engine.KindUnavailable, engine.KindUpstream:
		code = codes.Unavailable
	case engine.KindTimeout:
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}

func observe(m *metrics.Metrics, log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		m.ObserveGRPC(info.FullMethod, code.String())

		entry := log.WithFields(logrus.Fields{
			"method":  info.FullMethod,
			"code":    code.String(),
			"elapsed": time.Since(start).String(),
		})
		switch {
		case err == nil:
			entry.Debug("call finished")
		case code != codes.Internal && code != codes.Unknown:
			entry.WithError(err).Info("call rejected")
		default:
			entry.WithError(err).Error("call failed")
		}
		return resp, err
	}
}
