package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/nomina/internal/core/division"
	"github.com/ogurasousui/nomina/internal/core/domain"
)

const (
	DivisionServiceName                = "nomina.v1.DivisionService"
	DivisionServiceGetDivisionMethod   = "/" + DivisionServiceName + "/GetDivision"
	DivisionServiceListDivisionsMethod = "/" + DivisionServiceName + "/ListDivisions"
	DivisionServiceMoveDivisionMethod  = "/" + DivisionServiceName + "/MoveDivision"
)

// DivisionServiceServer は部門ツリーを gRPC で公開するサーバーの契約です。
// メッセージは google.protobuf.Struct で、フィールド名は HTTP API の JSON と揃えています。
type DivisionServiceServer interface {
	GetDivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDivisions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	MoveDivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// DivisionServer は division.UseCase を gRPC に橋渡しします。
type DivisionServer struct {
	uc division.UseCase
}

// NewDivisionServer は DivisionServer を生成します。
func NewDivisionServer(uc division.UseCase) *DivisionServer {
	return &DivisionServer{uc: uc}
}

// RegisterDivisionServer は DivisionService を登録します。
func RegisterDivisionServer(r grpc.ServiceRegistrar, srv DivisionServiceServer) {
	r.RegisterService(&divisionServiceDesc, srv)
}

// GetDivision は {payroll_id, id} で部門を取得します。
func (s *DivisionServer) GetDivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	d, err := s.uc.GetDivision(ctx, division.GetDivisionInput{
		PayrollID: stringField(req, "payroll_id"),
		ID:        stringField(req, "id"),
	})
	if err != nil {
		return nil, err
	}
	return divisionStruct(d)
}

// ListDivisions は {payroll_id} 配下の部門を {divisions: [...]} で返します。
func (s *DivisionServer) ListDivisions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	divisions, err := s.uc.ListDivisions(ctx, division.ListDivisionsInput{PayrollID: stringField(req, "payroll_id")})
	if err != nil {
		return nil, err
	}

	items := make([]any, 0, len(divisions))
	for _, d := range divisions {
		items = append(items, divisionFields(d))
	}
	return structpb.NewStruct(map[string]any{"divisions": items})
}

// MoveDivision は部門の親を付け替えます。parent_division_id は必須で、null ならルートになります。
func (s *DivisionServer) MoveDivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, ok := req.GetFields()["parent_division_id"]
	if !ok {
		return nil, domain.Invalid("parent_division_id", "is required (null moves the division to the root)")
	}

	var parent *string
	switch v := raw.GetKind().(type) {
	case *structpb.Value_NullValue:
	case *structpb.Value_StringValue:
		parent = &v.StringValue
	default:
		return nil, domain.Invalid("parent_division_id", "must be a string or null")
	}

	d, err := s.uc.UpdateDivision(ctx, division.UpdateDivisionInput{
		PayrollID:           stringField(req, "payroll_id"),
		ID:                  stringField(req, "id"),
		ParentDivisionIDSet: true,
		ParentDivisionID:    parent,
	})
	if err != nil {
		return nil, err
	}
	return divisionStruct(d)
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func divisionFields(d *domain.Division) map[string]any {
	var parent any
	if d.ParentDivisionID != nil {
		parent = *d.ParentDivisionID
	}
	return map[string]any{
		"id":                 d.ID,
		"payroll_id":         d.PayrollID,
		"parent_division_id": parent,
		"name":               d.Name,
		"description":        d.Description,
		"budget_code":        d.BudgetCode,
		"created_at":         d.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":         d.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func divisionStruct(d *domain.Division) (*structpb.Struct, error) {
	return structpb.NewStruct(divisionFields(d))
}

func divisionGetDivisionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DivisionServiceServer).GetDivision(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DivisionServiceGetDivisionMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DivisionServiceServer).GetDivision(ctx, req.(*structpb.Struct))
	})
}

func divisionListDivisionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DivisionServiceServer).ListDivisions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DivisionServiceListDivisionsMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DivisionServiceServer).ListDivisions(ctx, req.(*structpb.Struct))
	})
}

func divisionMoveDivisionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DivisionServiceServer).MoveDivision(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DivisionServiceMoveDivisionMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DivisionServiceServer).MoveDivision(ctx, req.(*structpb.Struct))
	})
}

var divisionServiceDesc = grpc.ServiceDesc{
	ServiceName: DivisionServiceName,
	HandlerType: (*DivisionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDivision", Handler: divisionGetDivisionHandler},
		{MethodName: "ListDivisions", Handler: divisionListDivisionsHandler},
		{MethodName: "MoveDivision", Handler: divisionMoveDivisionHandler},
	},
	Streams: []grpc.StreamDesc{},
}
