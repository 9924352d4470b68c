package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// PredictorServiceName is the fully-qualified gRPC service name
const PredictorServiceName = "winprob.v1.Predictor"

const (
	predictProbaMethod = "/" + PredictorServiceName + "/PredictProba"
	modelInfoMethod    = "/" + PredictorServiceName + "/ModelInfo"
)

// The service exchanges google.protobuf.Struct messages:
//
//	PredictProba: {"categorical": {...}, "numeric": {...}} -> {"probabilities": [bowling, batting], "model_version": "..."}
//	ModelInfo:    {} -> ModelInfo as JSON object
var predictorServiceDesc = grpc.ServiceDesc{
	ServiceName: PredictorServiceName,
	HandlerType: (*Predictor)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PredictProba", Handler: predictProbaHandler},
		{MethodName: "ModelInfo", Handler: modelInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "winprob/v1/predictor.proto",
}

// RegisterPredictorServer exposes a Predictor over gRPC
func RegisterPredictorServer(s grpc.ServiceRegistrar, p Predictor) {
	s.RegisterService(&predictorServiceDesc, p)
}

func predictProbaHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		return servePredictProba(ctx, srv.(Predictor), req.(*structpb.Struct))
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: predictProbaMethod}
	return interceptor(ctx, in, info, call)
}

func modelInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, _ interface{}) (interface{}, error) {
		return modelInfoToStruct(srv.(Predictor).Info())
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: modelInfoMethod}
	return interceptor(ctx, in, info, call)
}

func servePredictProba(ctx context.Context, p Predictor, in *structpb.Struct) (*structpb.Struct, error) {
	rec, err := structToRecord(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	prob, err := p.PredictProba(ctx, rec)
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"probabilities": []interface{}{prob.BowlingWin, prob.BattingWin},
		"model_version": p.Info().Version,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrFeatureMismatch):
		return codes.InvalidArgument
	case errors.Is(err, ErrModelNotLoaded), errors.Is(err, ErrRemoteUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func recordToStruct(rec models.FeatureRecord) (*structpb.Struct, error) {
	cats := make(map[string]interface{}, len(rec.Categorical))
	for k, v := range rec.Categorical {
		cats[k] = v
	}
	nums := make(map[string]interface{}, len(rec.Numeric))
	for k, v := range rec.Numeric {
		nums[k] = v
	}
	return structpb.NewStruct(map[string]interface{}{
		"categorical": cats,
		"numeric":     nums,
	})
}

func structToRecord(s *structpb.Struct) (models.FeatureRecord, error) {
	rec := models.NewFeatureRecord()
	fields := s.GetFields()

	if v, ok := fields["categorical"]; ok {
		for k, f := range v.GetStructValue().GetFields() {
			sv, ok := f.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return rec, fmt.Errorf("categorical column %q must be a string", k)
			}
			rec.Categorical[k] = sv.StringValue
		}
	}
	if v, ok := fields["numeric"]; ok {
		for k, f := range v.GetStructValue().GetFields() {
			nv, ok := f.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return rec, fmt.Errorf("numeric column %q must be a number", k)
			}
			rec.Numeric[k] = nv.NumberValue
		}
	}
	return rec, nil
}

func modelInfoToStruct(info ModelInfo) (*structpb.Struct, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return structpb.NewStruct(m)
}

func structToModelInfo(s *structpb.Struct) (ModelInfo, error) {
	var info ModelInfo
	data, err := s.MarshalJSON()
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

func structToProbability(s *structpb.Struct) (Probability, error) {
	list := s.GetFields()["probabilities"].GetListValue().GetValues()
	v := make([]float64, 0, len(list))
	for _, item := range list {
		v = append(v, item.GetNumberValue())
	}
	return ProbabilityFromVector(v)
}
