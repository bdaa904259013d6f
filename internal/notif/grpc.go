package notif

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"nirala/internal/common"
)

const routerServiceName = "nirala.notifications.v1.NotificationRouter"

// NotificationRouterServer lets other platform services emit notifications.
// Messages are google.protobuf.Struct so producers need no generated stubs.
type NotificationRouterServer interface {
	Emit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UnreadCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var NotificationRouterServiceDesc = grpc.ServiceDesc{
	ServiceName: routerServiceName,
	HandlerType: (*NotificationRouterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Emit", Handler: emitHandler},
		{MethodName: "UnreadCount", Handler: unreadCountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nirala/notifications/v1/router.proto",
}

func RegisterNotificationRouterServer(s grpc.ServiceRegistrar, srv NotificationRouterServer) {
	s.RegisterService(&NotificationRouterServiceDesc, srv)
}

func emitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationRouterServer).Emit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + routerServiceName + "/Emit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationRouterServer).Emit(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func unreadCountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationRouterServer).UnreadCount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + routerServiceName + "/UnreadCount"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationRouterServer).UnreadCount(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// NotificationRouterClient is the caller side used by producer services.
type NotificationRouterClient struct {
	cc grpc.ClientConnInterface
}

func NewNotificationRouterClient(cc grpc.ClientConnInterface) *NotificationRouterClient {
	return &NotificationRouterClient{cc: cc}
}

func (c *NotificationRouterClient) Emit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+routerServiceName+"/Emit", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NotificationRouterClient) UnreadCount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+routerServiceName+"/UnreadCount", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCHandler serves NotificationRouterServer on top of the Router.
type GRPCHandler struct {
	router *Router
}

var _ NotificationRouterServer = (*GRPCHandler)(nil)

func NewGRPCHandler(router *Router) *GRPCHandler {
	return &GRPCHandler{router: router}
}

// Emit expects recipientId and type, with optional payload and actorId. The
// actor defaults to the authenticated caller. Only service tokens may emit.
func (h *GRPCHandler) Emit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if !common.IsService(ctx) {
		return nil, common.GRPCStatus(fmt.Errorf("%w: emit requires a service token", common.ErrForbidden))
	}
	fields := req.GetFields()
	actorID := fields["actorId"].GetStringValue()
	if actorID == "" {
		actorID, _ = common.UserIDFromContext(ctx)
	}
	var payload map[string]interface{}
	if p := fields["payload"].GetStructValue(); p != nil {
		payload = p.AsMap()
	}

	res, err := h.router.Emit(ctx,
		fields["recipientId"].GetStringValue(),
		common.NotificationType(fields["type"].GetStringValue()),
		payload,
		actorID,
	)
	if err != nil {
		return nil, common.GRPCStatus(err)
	}

	out := map[string]interface{}{
		"inApp":       res.Decision.InApp,
		"email":       res.Decision.Email,
		"category":    string(res.Classification.Category),
		"subcategory": res.Classification.Subcategory,
	}
	if res.Decision.Email {
		out["emailFrequency"] = string(res.Decision.Frequency)
	}
	if res.Notification != nil {
		out["notificationId"] = float64(res.Notification.ID)
	}
	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return resp, nil
}

// UnreadCount counts unread notifications of userId, or of the caller when
// userId is empty. category narrows the count. End users may only ask about
// themselves.
func (h *GRPCHandler) UnreadCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	callerID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return nil, common.GRPCStatus(common.ErrUnauthorized)
	}
	fields := req.GetFields()
	userID := fields["userId"].GetStringValue()
	switch {
	case userID == "":
		userID = callerID
	case userID != callerID && !common.IsService(ctx):
		return nil, common.GRPCStatus(fmt.Errorf("%w: cannot read another user's count", common.ErrForbidden))
	}

	count, err := h.router.UnreadCount(ctx, userID, fields["category"].GetStringValue())
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{"count": float64(count)})
}
