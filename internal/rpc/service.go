// Package rpc is the gRPC façade in front of the compute/network services:
// it extracts a Principal from the incoming call's metadata, decodes the
// request, dispatches to internal/compute, and translates the result (or
// apperr) back across the wire.
//
// No .proto/generated stub exists for this service — this tree has no
// protoc available to generate one from. Every method instead takes and
// returns a *structpb.Struct, a real generated protobuf message shipped by
// google.golang.org/protobuf, so the wire format is genuine protobuf
// without a hand-authored descriptor. Handlers decode/encode that struct
// into the same typed compute.*Input values a Go caller would use; see
// codec.go.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/compute"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// serviceName is the wire service name clients dial against.
const serviceName = "controlplane.v1.ControlPlane"

// controlPlaneServer implements the ControlPlane service over
// internal/compute.
type controlPlaneServer struct {
	compute *compute.Service
}

// ServiceDesc describes the ControlPlane service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*controlPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateVPC", Handler: createVPCHandler},
		{MethodName: "DeleteVPC", Handler: deleteVPCHandler},
		{MethodName: "CreateVNet", Handler: createVNetHandler},
		{MethodName: "DeleteVNet", Handler: deleteVNetHandler},
		{MethodName: "CreateSecurityGroup", Handler: createSecurityGroupHandler},
		{MethodName: "DeleteSecurityGroup", Handler: deleteSecurityGroupHandler},
		{MethodName: "AddSecurityRule", Handler: addSecurityRuleHandler},
		{MethodName: "RemoveSecurityRule", Handler: removeSecurityRuleHandler},
		{MethodName: "CreateInstance", Handler: createInstanceHandler},
		{MethodName: "DeleteInstance", Handler: deleteInstanceHandler},
		{MethodName: "StartInstance", Handler: startInstanceHandler},
		{MethodName: "StopInstance", Handler: stopInstanceHandler},
	},
	Metadata: "controlplane/v1/controlplane.proto",
}

func unary(fullMethod string, fn func(*controlPlaneServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(*controlPlaneServer)
		if interceptor == nil {
			return fn(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	createVPCHandler           = unary("CreateVPC", (*controlPlaneServer).createVPC)
	deleteVPCHandler           = unary("DeleteVPC", (*controlPlaneServer).deleteVPC)
	createVNetHandler          = unary("CreateVNet", (*controlPlaneServer).createVNet)
	deleteVNetHandler          = unary("DeleteVNet", (*controlPlaneServer).deleteVNet)
	createSecurityGroupHandler = unary("CreateSecurityGroup", (*controlPlaneServer).createSecurityGroup)
	deleteSecurityGroupHandler = unary("DeleteSecurityGroup", (*controlPlaneServer).deleteSecurityGroup)
	addSecurityRuleHandler     = unary("AddSecurityRule", (*controlPlaneServer).addSecurityRule)
	removeSecurityRuleHandler  = unary("RemoveSecurityRule", (*controlPlaneServer).removeSecurityRule)
	createInstanceHandler      = unary("CreateInstance", (*controlPlaneServer).createInstance)
	deleteInstanceHandler      = unary("DeleteInstance", (*controlPlaneServer).deleteInstance)
	startInstanceHandler       = unary("StartInstance", (*controlPlaneServer).startInstance)
	stopInstanceHandler        = unary("StopInstance", (*controlPlaneServer).stopInstance)
)

func parseID(raw string) (idgen.ID, error) {
	id, err := idgen.ParseID(raw)
	if err != nil {
		return idgen.ID{}, apperr.MalformedID(err.Error())
	}
	return id, nil
}

// decodeID decodes the common {"id": "..."} request shape the single-id
// lifecycle methods (delete/start/stop) all share.
func decodeID(in *structpb.Struct) (idgen.ID, error) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeInto(in, &req); err != nil {
		return idgen.ID{}, apperr.MalformedID(err.Error())
	}
	return parseID(req.ID)
}

// instanceLifecycle runs the common decode-id/authorize/dispatch shape
// shared by DeleteInstance, StartInstance and StopInstance.
func (s *controlPlaneServer) instanceLifecycle(ctx context.Context, in *structpb.Struct, call func(context.Context, authz.Principal, idgen.ID) error) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := call(ctx, principal, id); err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(map[string]any{"id": id.String()})
}

func (s *controlPlaneServer) createVPC(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		OrganizationID string `json:"organization_id"`
		Name           string `json:"name"`
		Slug           string `json:"slug"`
		Region         string `json:"region"`
		MTU            int32  `json:"mtu"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		return nil, toStatus(err)
	}
	vpc, err := s.compute.CreateVPC(ctx, principal, compute.CreateVPCInput{
		OrganizationID: orgID,
		Name:           req.Name,
		Slug:           req.Slug,
		Region:         req.Region,
		MTU:            req.MTU,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(vpc)
}

func (s *controlPlaneServer) deleteVPC(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.compute.DeleteVPC(ctx, principal, id); err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(map[string]any{"id": id.String()})
}

func (s *controlPlaneServer) createVNet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		VPCID       string   `json:"vpc_id"`
		Name        string   `json:"name"`
		BridgeID    string   `json:"bridge_id"`
		Subnet      string   `json:"subnet"`
		Gateway     string   `json:"gateway"`
		DHCPEnabled bool     `json:"dhcp_enabled"`
		DNSServers  []string `json:"dns_servers"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	vpcID, err := parseID(req.VPCID)
	if err != nil {
		return nil, toStatus(err)
	}
	vnet, err := s.compute.CreateVNet(ctx, principal, compute.CreateVNetInput{
		VPCID:       vpcID,
		Name:        req.Name,
		BridgeID:    req.BridgeID,
		Subnet:      req.Subnet,
		Gateway:     req.Gateway,
		DHCPEnabled: req.DHCPEnabled,
		DNSServers:  req.DNSServers,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(vnet)
}

func (s *controlPlaneServer) deleteVNet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.compute.DeleteVNet(ctx, principal, id); err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(map[string]any{"id": id.String()})
}

func (s *controlPlaneServer) createSecurityGroup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		VPCID string `json:"vpc_id"`
		Name  string `json:"name"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	vpcID, err := parseID(req.VPCID)
	if err != nil {
		return nil, toStatus(err)
	}
	group, err := s.compute.CreateSecurityGroup(ctx, principal, vpcID, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(group)
}

func (s *controlPlaneServer) deleteSecurityGroup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.compute.DeleteSecurityGroup(ctx, principal, id); err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(map[string]any{"id": id.String()})
}

func (s *controlPlaneServer) addSecurityRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		SecurityGroupID string `json:"security_group_id"`
		Direction       string `json:"direction"`
		Protocol        string `json:"protocol"`
		PortFrom        *int32 `json:"port_from"`
		PortTo          *int32 `json:"port_to"`
		SourceCIDR      string `json:"source_cidr"`
		Action          string `json:"action"`
		Priority        int32  `json:"priority"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	groupID, err := parseID(req.SecurityGroupID)
	if err != nil {
		return nil, toStatus(err)
	}
	rule, err := s.compute.AddSecurityRule(ctx, principal, groupID, store.SecurityRule{
		Direction:  store.SecurityRuleDirection(req.Direction),
		Protocol:   store.SecurityRuleProtocol(req.Protocol),
		PortFrom:   req.PortFrom,
		PortTo:     req.PortTo,
		SourceCIDR: req.SourceCIDR,
		Action:     store.SecurityRuleAction(req.Action),
		Priority:   req.Priority,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(rule)
}

func (s *controlPlaneServer) removeSecurityRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		SecurityGroupID string `json:"security_group_id"`
		RuleID          string `json:"rule_id"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	groupID, err := parseID(req.SecurityGroupID)
	if err != nil {
		return nil, toStatus(err)
	}
	ruleID, err := parseID(req.RuleID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.compute.RemoveSecurityRule(ctx, principal, groupID, ruleID); err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(map[string]any{"id": ruleID.String()})
}

func (s *controlPlaneServer) createInstance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	principal, err := principalFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req struct {
		ProjectID    string `json:"project_id"`
		HypervisorID string `json:"hypervisor_id"`
		VNetID       string `json:"vnet_id"`
		Name         string `json:"name"`
		Node         string `json:"node"`
		CPUCores     int32  `json:"cpu_cores"`
		MemoryBytes  int64  `json:"memory_bytes"`
		DiskBytes    int64  `json:"disk_bytes"`
	}
	if err := decodeInto(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return nil, toStatus(err)
	}
	hypervisorID, err := parseID(req.HypervisorID)
	if err != nil {
		return nil, toStatus(err)
	}
	vnetID, err := parseID(req.VNetID)
	if err != nil {
		return nil, toStatus(err)
	}
	inst, err := s.compute.CreateInstance(ctx, principal, compute.CreateInstanceInput{
		ProjectID:    projectID,
		HypervisorID: hypervisorID,
		VNetID:       vnetID,
		Name:         req.Name,
		Node:         req.Node,
		CPUCores:     req.CPUCores,
		MemoryBytes:  req.MemoryBytes,
		DiskBytes:    req.DiskBytes,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(inst)
}

func (s *controlPlaneServer) deleteInstance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.instanceLifecycle(ctx, in, s.compute.DeleteInstance)
}

func (s *controlPlaneServer) startInstance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.instanceLifecycle(ctx, in, s.compute.StartInstance)
}

func (s *controlPlaneServer) stopInstance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.instanceLifecycle(ctx, in, s.compute.StopInstance)
}
