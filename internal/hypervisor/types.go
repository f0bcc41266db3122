package hypervisor

import (
	"fmt"
	"strings"
)

// ResourceType is the kind of entry cluster_resources_list returns.
type ResourceType string

const (
	ResourceNode    ResourceType = "node"
	ResourceStorage ResourceType = "storage"
	ResourcePool    ResourceType = "pool"
	ResourceQemu    ResourceType = "qemu"
	ResourceLxc     ResourceType = "lxc"
	ResourceOpenvz  ResourceType = "openvz"
	ResourceSdn     ResourceType = "sdn"
)

// Resource is one row of a cluster_resources_list response: a node, a
// storage pool, or a VM, carrying whatever metrics apply to its kind.
type Resource struct {
	CPU          float64      `json:"cpu,omitempty"`
	Disk         int64        `json:"disk,omitempty"`
	MaxCPU       int64        `json:"maxcpu,omitempty"`
	MaxDisk      int64        `json:"maxdisk,omitempty"`
	MaxMem       int64        `json:"maxmem,omitempty"`
	Mem          int64        `json:"mem,omitempty"`
	Name         string       `json:"name,omitempty"`
	Node         string       `json:"node,omitempty"`
	ResourceType ResourceType `json:"type"`
	Status       string       `json:"status,omitempty"`
	VMID         int64        `json:"vmid,omitempty"`
}

// VMConfig is the payload posted to vm_create / vm_clone to size and
// provision a guest.
type VMConfig struct {
	Agent      string `json:"agent,omitempty"`
	Boot       string `json:"boot,omitempty"`
	CiCustom   string `json:"cicustom,omitempty"`
	CPU        string `json:"cpu,omitempty"`
	Cores      int    `json:"cores,omitempty"`
	IDE2       string `json:"ide2,omitempty"`
	IPConfig0  string `json:"ipconfig0,omitempty"`
	Memory     int64  `json:"memory,omitempty"`
	Name       string `json:"name,omitempty"`
	Nameserver string `json:"nameserver,omitempty"`
	Net0       string `json:"net0,omitempty"`
	SCSI0      string `json:"scsi0,omitempty"`
	SCSIHW     string `json:"scsihw,omitempty"`
	Serial0    string `json:"serial0,omitempty"`
	Sockets    int    `json:"sockets,omitempty"`
	Template   bool   `json:"template,omitempty"`
	VGA        string `json:"vga,omitempty"`
	VMID       int64  `json:"vmid,omitempty"`
}

// VMConfigDefaults holds the storage targets the hypervisor uses unless a
// VMConfig overrides them, sourced from the adapter's environment.
type VMConfigDefaults struct {
	SnippetsStorage string
	ImageStorage    string
}

// IPAddress is one address reported by the QEMU guest agent for a network
// interface.
type IPAddress struct {
	IPAddress     string `json:"ip-address"`
	IPAddressType string `json:"ip-address-type"`
	Prefix        int    `json:"prefix"`
}

// NetworkInterface is one guest-agent-reported NIC.
type NetworkInterface struct {
	Name            string      `json:"name"`
	HardwareAddress string      `json:"hardware-address"`
	IPAddresses     []IPAddress `json:"ip-addresses"`
}

// NetworkInterfaces is the decoded body of a qemu-guest-agent
// network-get-interfaces call.
type NetworkInterfaces struct {
	Result []NetworkInterface `json:"result"`
}

// parseIPConfig0 decodes Proxmox's comma-joined "ip=X/Y,gw=Z" config string into
// its address and gateway. An absent gateway (DHCP-assigned networks) is
// reported as an empty string, not an error.
func parseIPConfig0(raw string) (addr, gateway string, err error) {
	for _, field := range strings.Split(raw, ",") {
		switch {
		case strings.HasPrefix(field, "ip="):
			addr = strings.TrimPrefix(field, "ip=")
		case strings.HasPrefix(field, "gw="):
			gateway = strings.TrimPrefix(field, "gw=")
		}
	}
	if addr == "" {
		return "", "", fmt.Errorf("ipconfig0 %q has no ip= field", raw)
	}
	return addr, gateway, nil
}

// SdnZoneType is the SDN isolation technology a zone uses.
type SdnZoneType string

const (
	SdnZoneSimple SdnZoneType = "simple"
	SdnZoneVlan   SdnZoneType = "vlan"
	SdnZoneVxlan  SdnZoneType = "vxlan"
	SdnZoneQinq   SdnZoneType = "qinq"
	SdnZoneEvpn   SdnZoneType = "evpn"
)

// SdnZoneConfig creates or updates an SDN zone.
type SdnZoneConfig struct {
	Zone      string      `json:"zone"`
	ZoneType  SdnZoneType `json:"type"`
	Peers     string      `json:"peers,omitempty"`
	MTU       int         `json:"mtu,omitempty"`
	VxlanPort int         `json:"vxlan-port,omitempty"`
}

// SdnSubnetConfig creates or updates a subnet within an SDN vnet.
type SdnSubnetConfig struct {
	Subnet        string `json:"subnet"`
	Gateway       string `json:"gateway,omitempty"`
	Snat          bool   `json:"snat,omitempty"`
	DHCPRange     string `json:"dhcp-range,omitempty"`
	DNSZonePrefix string `json:"dnszoneprefix,omitempty"`
}

// cidrToSdnSubnet converts a standard CIDR ("10.0.0.0/24") into the
// hyphenated subnet id the SDN API keys subnets by ("10.0.0.0-24").
func cidrToSdnSubnet(cidr string) string {
	return strings.Replace(cidr, "/", "-", 1)
}

// FirewallRule is one rule appended to a guest's firewall via
// firewall_rule_create.
type FirewallRule struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Proto   string `json:"proto,omitempty"`
	Dport   string `json:"dport,omitempty"`
	Source  string `json:"source,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ResourceStatus is a VM's lifecycle status as reported by the hypervisor.
type ResourceStatus string

const (
	StatusRunning ResourceStatus = "running"
	StatusStopped ResourceStatus = "stopped"
	StatusPaused  ResourceStatus = "paused"
)

// VMStatusResponse is the body of a vm_status_read call.
type VMStatusResponse struct {
	Status ResourceStatus `json:"status"`
}

// TaskID is the UPID handle a long-running hypervisor operation returns.
type TaskID string

// TaskStatus is the terminal state wait_for_task_completion settles on.
type TaskStatus string

const (
	TaskOK     TaskStatus = "ok"
	TaskFailed TaskStatus = "failed"
)

// TaskResult is what wait_for_task_completion returns once a task leaves
// the running state.
type TaskResult struct {
	Status TaskStatus
	Detail string
}
