package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/grpcjson"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.inventory.v1.InventoryService"

type InventoryServiceServer interface {
	AddStock(context.Context, *StockRequest) (*InventoryEntry, error)
	RemoveStock(context.Context, *StockRequest) (*InventoryEntry, error)
	ReserveStock(context.Context, *StockRequest) (*InventoryEntry, error)
	ReleaseStock(context.Context, *StockRequest) (*InventoryEntry, error)
	TransferStock(context.Context, *TransferRequest) (*dto.TransferResult, error)
	GetStock(context.Context, *StockKeyRequest) (*InventoryEntry, error)
	ListInventory(context.Context, *ListInventoryRequest) (*ListInventoryResponse, error)
	ListMovements(context.Context, *ListMovementsRequest) (*ListMovementsResponse, error)
	ReconcileStock(context.Context, *StockKeyRequest) (*dto.Reconciliation, error)
}

func server(srv interface{}) InventoryServiceServer {
	return srv.(InventoryServiceServer)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(ServiceName, "AddStock", func(srv interface{}, ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
			return server(srv).AddStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "RemoveStock", func(srv interface{}, ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
			return server(srv).RemoveStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ReserveStock", func(srv interface{}, ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
			return server(srv).ReserveStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ReleaseStock", func(srv interface{}, ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
			return server(srv).ReleaseStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "TransferStock", func(srv interface{}, ctx context.Context, req *TransferRequest) (*dto.TransferResult, error) {
			return server(srv).TransferStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "GetStock", func(srv interface{}, ctx context.Context, req *StockKeyRequest) (*InventoryEntry, error) {
			return server(srv).GetStock(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ListInventory", func(srv interface{}, ctx context.Context, req *ListInventoryRequest) (*ListInventoryResponse, error) {
			return server(srv).ListInventory(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ListMovements", func(srv interface{}, ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
			return server(srv).ListMovements(ctx, req)
		}),
		grpcjson.Unary(ServiceName, "ReconcileStock", func(srv interface{}, ctx context.Context, req *StockKeyRequest) (*dto.Reconciliation, error) {
			return server(srv).ReconcileStock(ctx, req)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
