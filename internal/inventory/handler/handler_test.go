package handler

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/grpcjson"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dialInventory(t *testing.T) *grpc.ClientConn {
	t.Helper()

	store := memory.NewStore(time.Second)
	uc := usecase.NewInventoryUseCase(store.Inventory(), store, nil, logger.NewNop())

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.ContextInterceptor()))
	RegisterInventoryServiceServer(srv, NewInventoryHandler(uc, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func as(userID, branchID int64, global bool) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(),
		auth.HeaderUserID, strconv.FormatInt(userID, 10),
		auth.HeaderBranchID, strconv.FormatInt(branchID, 10),
		auth.HeaderGlobalScope, strconv.FormatBool(global),
	)
}

func call[Req, Resp any](ctx context.Context, conn *grpc.ClientConn, method string, req *Req) (*Resp, error) {
	return grpcjson.Invoke[Req, Resp](ctx, conn, ServiceName, method, req)
}

func TestInventoryService_stockLifecycle(t *testing.T) {
	conn := dialInventory(t)
	ctx := as(1, 1, false)

	entry, err := call[StockRequest, InventoryEntry](ctx, conn, "AddStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.AvailableQuantity)

	entry, err = call[StockRequest, InventoryEntry](ctx, conn, "ReserveStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.ReservedQuantity)
	assert.Equal(t, int64(6), entry.AvailableQuantity)

	_, err = call[StockRequest, InventoryEntry](ctx, conn, "RemoveStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 7})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	got, err := call[StockKeyRequest, InventoryEntry](ctx, conn, "GetStock", &StockKeyRequest{BranchID: 1, ProductID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)
	assert.Equal(t, int64(4), got.ReservedQuantity)

	mvs, err := call[ListMovementsRequest, ListMovementsResponse](ctx, conn, "ListMovements", &ListMovementsRequest{BranchID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), mvs.Total)

	report, err := call[StockKeyRequest, dto.Reconciliation](ctx, conn, "ReconcileStock", &StockKeyRequest{BranchID: 1, ProductID: 5})
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestInventoryService_statusCodes(t *testing.T) {
	conn := dialInventory(t)

	_, err := call[StockRequest, InventoryEntry](context.Background(), conn, "AddStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 1})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call[StockRequest, InventoryEntry](as(1, 1, false), conn, "AddStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 0})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call[StockRequest, InventoryEntry](as(1, 1, false), conn, "AddStock", &StockRequest{BranchID: 2, ProductID: 5, Quantity: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = call[StockKeyRequest, InventoryEntry](as(1, 1, false), conn, "GetStock", &StockKeyRequest{BranchID: 1, ProductID: 99})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call[TransferRequest, dto.TransferResult](as(1, 1, false), conn, "TransferStock", &TransferRequest{FromBranchID: 1, ToBranchID: 2, ProductID: 5, Quantity: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestInventoryService_transferAndScopedListing(t *testing.T) {
	conn := dialInventory(t)
	admin := as(1, 0, true)

	_, err := call[StockRequest, InventoryEntry](admin, conn, "AddStock", &StockRequest{BranchID: 1, ProductID: 5, Quantity: 10})
	require.NoError(t, err)

	res, err := call[TransferRequest, dto.TransferResult](admin, conn, "TransferStock", &TransferRequest{FromBranchID: 1, ToBranchID: 2, ProductID: 5, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.ToBranchID)

	all, err := call[ListInventoryRequest, ListInventoryResponse](admin, conn, "ListInventory", &ListInventoryRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	own, err := call[ListInventoryRequest, ListInventoryResponse](as(8, 2, false), conn, "ListInventory", &ListInventoryRequest{BranchID: 1})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, int64(2), own.Items[0].BranchID)
	assert.Equal(t, int64(3), own.Items[0].Quantity)
}
