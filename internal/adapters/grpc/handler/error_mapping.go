package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

// toStatusError はコア層のエラーを gRPC ステータスに変換します。
// すでにステータスを持つエラーはそのまま返します。
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return status.Error(codes.Internal, "internal error")
	}

	switch kind := de.Kind; {
	case kind.IsNotFound():
		return status.Error(codes.NotFound, err.Error())
	case kind == domain.KindInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case kind == domain.KindConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case kind == domain.KindHasDependents,
		kind == domain.KindCrossPayrollParent,
		kind == domain.KindCrossScopeReference,
		kind == domain.KindSelfParent,
		kind == domain.KindCycleDetected:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
