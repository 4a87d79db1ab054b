// Package handler は gRPC のサービス実装と共通のインターセプターを提供します。
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor はリクエストごとのロガーをコンテキストに載せ、
// ハンドラーが返したコア層のエラーをステータスに変換してからアクセスログを出力します。
func UnaryServerInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLogger := logger.With().Str("grpc_method", info.FullMethod).Logger()

		resp, err := next(reqLogger.WithContext(ctx), req)
		if err != nil {
			original := err
			err = toStatusError(err)
			if status.Code(err) == codes.Internal {
				reqLogger.Error().Err(original).Msg("grpc handler failed")
			}
		}

		code := status.Code(err)
		event := reqLogger.Info()
		switch code {
		case codes.OK:
		case codes.Internal, codes.Unknown, codes.DataLoss:
			event = reqLogger.Error()
		default:
			event = reqLogger.Warn()
		}
		event.
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")

		return resp, err
	}
}
