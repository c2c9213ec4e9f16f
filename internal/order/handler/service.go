package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/grpcjson"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.order.v1.OrderService"

type OrderServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*model.Order, error)
	GetOrder(context.Context, *GetOrderRequest) (*model.Order, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	ChangeOrderStatus(context.Context, *ChangeOrderStatusRequest) (*model.Order, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(ServiceName, "CreateOrder", func(srv interface{}, ctx context.Context, req *CreateOrderRequest) (*model.Order, error) {
			return srv.(OrderServiceServer).CreateOrder(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "GetOrder", func(srv interface{}, ctx context.Context, req *GetOrderRequest) (*model.Order, error) {
			return srv.(OrderServiceServer).GetOrder(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ListOrders", func(srv interface{}, ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
			return srv.(OrderServiceServer).ListOrders(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ChangeOrderStatus", func(srv interface{}, ctx context.Context, req *ChangeOrderStatusRequest) (*model.Order, error) {
			return srv.(OrderServiceServer).ChangeOrderStatus(ctx, req)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
