// Package v1 declares the dashboards.v1.DashboardService gRPC service. Requests and
// responses are google.protobuf.Struct documents; chart images travel as BytesValue.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "dashboards.v1.DashboardService"

const (
	DashboardService_LoadDashboard_FullMethodName     = "/" + ServiceName + "/LoadDashboard"
	DashboardService_Hover_FullMethodName             = "/" + ServiceName + "/Hover"
	DashboardService_GetChartImage_FullMethodName     = "/" + ServiceName + "/GetChartImage"
	DashboardService_GetReadout_FullMethodName        = "/" + ServiceName + "/GetReadout"
	DashboardService_GetServiceSummary_FullMethodName = "/" + ServiceName + "/GetServiceSummary"
)

// DashboardServiceServer is the server API for DashboardService.
type DashboardServiceServer interface {
	LoadDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Hover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetChartImage(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	GetReadout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetServiceSummary(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedDashboardServiceServer can be embedded for forward compatibility.
type UnimplementedDashboardServiceServer struct{}

func (UnimplementedDashboardServiceServer) LoadDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method LoadDashboard not implemented")
}
func (UnimplementedDashboardServiceServer) Hover(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Hover not implemented")
}
func (UnimplementedDashboardServiceServer) GetChartImage(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetChartImage not implemented")
}
func (UnimplementedDashboardServiceServer) GetReadout(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetReadout not implemented")
}
func (UnimplementedDashboardServiceServer) GetServiceSummary(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetServiceSummary not implemented")
}

func RegisterDashboardServiceServer(s grpc.ServiceRegistrar, srv DashboardServiceServer) {
	s.RegisterService(&DashboardService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req proto.Message, Resp proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(DashboardServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DashboardServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DashboardServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

// DashboardService_ServiceDesc is the grpc.ServiceDesc for DashboardService.
var DashboardService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "LoadDashboard",
			Handler: unaryHandler(DashboardService_LoadDashboard_FullMethodName, newStruct,
				DashboardServiceServer.LoadDashboard),
		},
		{
			MethodName: "Hover",
			Handler: unaryHandler(DashboardService_Hover_FullMethodName, newStruct,
				DashboardServiceServer.Hover),
		},
		{
			MethodName: "GetChartImage",
			Handler: unaryHandler(DashboardService_GetChartImage_FullMethodName, newStruct,
				DashboardServiceServer.GetChartImage),
		},
		{
			MethodName: "GetReadout",
			Handler: unaryHandler(DashboardService_GetReadout_FullMethodName, newStruct,
				DashboardServiceServer.GetReadout),
		},
		{
			MethodName: "GetServiceSummary",
			Handler: unaryHandler(DashboardService_GetServiceSummary_FullMethodName,
				func() *emptypb.Empty { return new(emptypb.Empty) },
				DashboardServiceServer.GetServiceSummary),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dashboards/v1/dashboards.proto",
}

// DashboardServiceClient is the client API for DashboardService.
type DashboardServiceClient interface {
	LoadDashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Hover(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetChartImage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	GetReadout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetServiceSummary(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type dashboardServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardServiceClient(cc grpc.ClientConnInterface) DashboardServiceClient {
	return &dashboardServiceClient{cc}
}

func (c *dashboardServiceClient) LoadDashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DashboardService_LoadDashboard_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardServiceClient) Hover(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DashboardService_Hover_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardServiceClient) GetChartImage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, DashboardService_GetChartImage_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardServiceClient) GetReadout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DashboardService_GetReadout_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardServiceClient) GetServiceSummary(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DashboardService_GetServiceSummary_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
