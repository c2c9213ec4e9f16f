package auth

import (
	"context"
	"strconv"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	HeaderUserID      = "x-user-id"
	HeaderBranchID    = "x-branch-id"
	HeaderGlobalScope = "x-global-scope"
)

// Actor is the identity performing an operation, as asserted by the
// upstream authentication layer.
type Actor struct {
	ID          int64
	BranchID    int64
	GlobalScope bool
}

// SystemActor acts for internal consumers such as the order command listener.
var SystemActor = Actor{ID: 0, GlobalScope: true}

// CanAccessBranch is the single authorization predicate of the core:
// global-scope actors reach every branch, everyone else only their own.
func (a Actor) CanAccessBranch(branchID int64) bool {
	return a.GlobalScope || a.BranchID == branchID
}

// RequireBranch returns a Forbidden error when the actor cannot act on branchID.
func (a Actor) RequireBranch(branchID int64) error {
	if a.CanAccessBranch(branchID) {
		return nil
	}
	return apperror.Forbidden("user %d is not authorized for branch %d", a.ID, branchID)
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor placed by ContextInterceptor, falling
// back to incoming metadata.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor, true
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Actor{}, false
	}
	return actorFromMetadata(md)
}

// RequireActor is ActorFromContext for transport handlers: a call without a
// user id is rejected as Unauthenticated.
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, status.Error(codes.Unauthenticated, "missing "+HeaderUserID+" metadata")
	}
	return actor, nil
}

func actorFromMetadata(md metadata.MD) (Actor, bool) {
	userID, ok := firstInt(md, HeaderUserID)
	if !ok {
		return Actor{}, false
	}
	branchID, _ := firstInt(md, HeaderBranchID)

	global := false
	if val := md.Get(HeaderGlobalScope); len(val) > 0 {
		global, _ = strconv.ParseBool(val[0])
	}
	return Actor{ID: userID, BranchID: branchID, GlobalScope: global}, true
}

func firstInt(md metadata.MD, key string) (int64, bool) {
	val := md.Get(key)
	if len(val) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(val[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ContextInterceptor resolves the actor from metadata once per call.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if actor, ok := actorFromMetadata(md); ok {
				ctx = WithActor(ctx, actor)
			}
		}
		return handler(ctx, req)
	}
}
