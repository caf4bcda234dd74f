package interceptor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/security"
)

type AuthInterceptor struct {
	tokenManager security.TokenManager
}

func NewAuthInterceptor(tm security.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokenManager: tm}
}

// Unary returns a server interceptor function to authenticate and authorize unary RPCs
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		level := config.GetSecurityLevel(info.FullMethod)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			return handler(ctx, req)
		}

		token, err := i.extractToken(ctx)
		if err != nil {
			return nil, err
		}

		claims, err := i.tokenManager.ValidateToken(token)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}

		if err := i.checkSecurityLevel(level, claims); err != nil {
			return nil, err
		}

		// Copy, then Set, so a client-supplied "user-id" header is overwritten.
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			md = metadata.New(nil)
		} else {
			md = md.Copy()
		}

		md.Set("user-id", strconv.Itoa(int(claims.UserID)))
		newCtx := metadata.NewIncomingContext(ctx, md)

		return handler(newCtx, req)
	}
}

func (i *AuthInterceptor) extractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	authHeader := md["authorization"]
	if len(authHeader) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	token := authHeader[0]
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}

	return token, nil
}

func (i *AuthInterceptor) checkSecurityLevel(level config.SecurityLevel, claims *security.UserClaims) error {
	if claims.Type != security.TokenTypeAccess {
		return status.Error(codes.PermissionDenied, "access token required")
	}
	if level == config.SecurityWrite && !claims.HasPermission(config.PermissionLedgerWrite) {
		return status.Error(codes.PermissionDenied, "ledger write permission required")
	}
	return nil
}

// Logging logs method, code and duration of every unary RPC.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if code == codes.Internal || code == codes.Unknown {
			logger.ErrorContext(ctx, "gRPC request", append(args, "error", err)...)
		} else {
			logger.InfoContext(ctx, "gRPC request", args...)
		}
		return resp, err
	}
}
