package store

import "github.com/France-Nuage/plateforme-sub000/internal/idgen"

// Organization is the root of the multi-tenant tree.
type Organization struct {
	ID        idgen.ID
	Name      string
	Slug      string
	ParentID  *idgen.ID
	CreatedAt idgen.Time
	UpdatedAt idgen.Time
}

// Project owns compute/network resources within an Organization.
type Project struct {
	ID             idgen.ID
	Name           string
	OrganizationID idgen.ID
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}

// Zone is a placement region referenced by Hypervisors.
type Zone struct {
	ID        idgen.ID
	Name      string
	CreatedAt idgen.Time
	UpdatedAt idgen.Time
}

// Hypervisor is an adapter target: one Proxmox-family cluster endpoint.
type Hypervisor struct {
	ID             idgen.ID
	ZoneID         idgen.ID
	OrganizationID idgen.ID
	URL            string
	AuthToken      string
	StorageName    string
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}

// InstanceStatus is the lifecycle status of an Instance.
type InstanceStatus string

const (
	InstanceProvisioning InstanceStatus = "Provisioning"
	InstanceStaging      InstanceStatus = "Staging"
	InstanceRunning      InstanceStatus = "Running"
	InstanceStopping     InstanceStatus = "Stopping"
	InstanceStopped      InstanceStatus = "Stopped"
	InstanceDeleting     InstanceStatus = "Deleting"
	InstanceUnknown      InstanceStatus = "Unknown"
)

// TransientStatuses are the Instance statuses the state machine worker polls
// the hypervisor to advance.
var TransientStatuses = []InstanceStatus{
	InstanceProvisioning, InstanceStaging, InstanceStopping, InstanceDeleting,
}

// Instance is a VM hosted on a Hypervisor.
type Instance struct {
	ID               idgen.ID
	HypervisorID     idgen.ID
	ProjectID        idgen.ID
	DistantID        string // opaque hypervisor-side VM id
	IPv4             string
	Name             string
	Status           InstanceStatus
	MaxCPUCores      int32
	CPUUsagePercent  float64
	MaxMemoryBytes   int64
	MemoryUsageBytes int64
	MaxDiskBytes     int64
	DiskUsageBytes   int64
	CreatedAt        idgen.Time
	UpdatedAt        idgen.Time
}

// VPCState is the lifecycle status of a VPC.
type VPCState string

const (
	VPCPending  VPCState = "Pending"
	VPCCreating VPCState = "Creating"
	VPCActive   VPCState = "Active"
	VPCError    VPCState = "Error"
	VPCDeleting VPCState = "Deleting"
)

// VPC is an isolated virtual network owned by an Organization.
type VPC struct {
	ID             idgen.ID
	Name           string
	Slug           string
	OrganizationID idgen.ID
	Region         string
	SDNZoneID      string
	VXLANTag       int32
	State          VPCState
	MTU            int32
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}

// VNetState is the lifecycle status of a VNet.
type VNetState string

const (
	VNetPending VNetState = "Pending"
	VNetActive  VNetState = "Active"
	VNetError   VNetState = "Error"
)

// VNet is a single broadcast domain within a VPC.
type VNet struct {
	ID          idgen.ID
	VPCID       idgen.ID
	Name        string
	BridgeID    string
	Subnet      string // CIDR
	Gateway     string
	DHCPEnabled bool
	DNSServers  []string
	State       VNetState
	CreatedAt   idgen.Time
	UpdatedAt   idgen.Time
}

// IPAllocationKind classifies an IPAllocation row.
type IPAllocationKind string

const (
	IPKindStatic   IPAllocationKind = "Static"
	IPKindDynamic  IPAllocationKind = "Dynamic"
	IPKindReserved IPAllocationKind = "Reserved"
	IPKindGateway  IPAllocationKind = "Gateway"
)

// IPAllocation is one address (and optionally a MAC) in a VNet's pool.
type IPAllocation struct {
	ID                  idgen.ID
	VNetID              idgen.ID
	Address             string
	MACAddress          *string
	InstanceInterfaceID *idgen.ID
	Kind                IPAllocationKind
	Hostname            *string
	AllocatedAt         *idgen.Time
	ReleasedAt          *idgen.Time
	CreatedAt           idgen.Time
	UpdatedAt           idgen.Time
}

// InUse reports whether the allocation currently backs an interface.
func (a IPAllocation) InUse() bool {
	return a.Kind != IPKindReserved && a.AllocatedAt != nil && a.ReleasedAt == nil
}

// SecurityGroup is a named collection of SecurityRules attached to a VPC.
type SecurityGroup struct {
	ID        idgen.ID
	VPCID     idgen.ID
	Name      string
	IsDefault bool
	CreatedAt idgen.Time
	UpdatedAt idgen.Time
}

// SecurityRuleDirection is Inbound or Outbound.
type SecurityRuleDirection string

const (
	DirectionInbound  SecurityRuleDirection = "Inbound"
	DirectionOutbound SecurityRuleDirection = "Outbound"
)

// SecurityRuleProtocol is the L4 protocol a rule matches.
type SecurityRuleProtocol string

const (
	ProtocolTCP  SecurityRuleProtocol = "Tcp"
	ProtocolUDP  SecurityRuleProtocol = "Udp"
	ProtocolICMP SecurityRuleProtocol = "Icmp"
	ProtocolAll  SecurityRuleProtocol = "All"
)

// SecurityRuleAction is Allow or Deny.
type SecurityRuleAction string

const (
	ActionAllow SecurityRuleAction = "Allow"
	ActionDeny  SecurityRuleAction = "Deny"
)

// SecurityRule is one firewall rule within a SecurityGroup.
type SecurityRule struct {
	ID              idgen.ID
	SecurityGroupID idgen.ID
	Direction       SecurityRuleDirection
	Protocol        SecurityRuleProtocol
	PortFrom        *int32
	PortTo          *int32
	SourceCIDR      string
	Action          SecurityRuleAction
	Priority        int32
	CreatedAt       idgen.Time
	UpdatedAt       idgen.Time
}

// DenyAllPriority is the fixed priority of the two default deny-all rules
// every VPC's default security group carries.
const DenyAllPriority = 65535

// User is a human principal belonging to an Organization.
type User struct {
	ID             idgen.ID
	Email          string
	OrganizationID idgen.ID
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}

// ServiceAccount is a non-human principal authenticated by a static bearer key.
type ServiceAccount struct {
	ID        idgen.ID
	Name      string
	Key       string
	CreatedAt idgen.Time
	UpdatedAt idgen.Time
}

// InvitationState is the lifecycle status of an Invitation.
type InvitationState string

const (
	InvitationPending  InvitationState = "Pending"
	InvitationAccepted InvitationState = "Accepted"
	InvitationDeclined InvitationState = "Declined"
	InvitationExpired  InvitationState = "Expired"
)

// Invitation represents a User being invited into an Organization.
type Invitation struct {
	ID             idgen.ID
	OrganizationID idgen.ID
	UserID         idgen.ID
	State          InvitationState
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}

// OperationStatus is the lifecycle status of an Operation.
type OperationStatus string

const (
	OperationPending   OperationStatus = "Pending"
	OperationRunning   OperationStatus = "Running"
	OperationSucceeded OperationStatus = "Succeeded"
	OperationFailed    OperationStatus = "Failed"
	OperationCancelled OperationStatus = "Cancelled"
)

// Operation is one unit of eventually-consistent external work, enqueued in
// the same transaction as the authoritative row it follows up on.
type Operation struct {
	ID             idgen.ID
	OpType         string
	ResourceType   string
	ResourceID     idgen.ID
	Input          []byte
	Output         []byte
	Status         OperationStatus
	IdempotencyKey *string
	AttemptCount   int32
	MaxAttempts    int32
	LastError      *string
	ErrorCode      *string
	NextRetryAt    *idgen.Time
	StartedAt      *idgen.Time
	CompletedAt    *idgen.Time
	CreatedAt      idgen.Time
	UpdatedAt      idgen.Time
}
