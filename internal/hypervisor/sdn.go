package hypervisor

import (
	"context"
	"fmt"
)

// SdnZoneCreate creates an SDN zone.
func (c *Client) SdnZoneCreate(ctx context.Context, config SdnZoneConfig) error {
	return c.post(ctx, "/api2/json/cluster/sdn/zones", config, nil)
}

// SdnZoneDelete removes an SDN zone.
func (c *Client) SdnZoneDelete(ctx context.Context, zone string) error {
	return c.delete(ctx, fmt.Sprintf("/api2/json/cluster/sdn/zones/%s", zone))
}

// SdnVnetCreate creates a vnet within zone.
func (c *Client) SdnVnetCreate(ctx context.Context, vnet, zone string) error {
	req := struct {
		Vnet string `json:"vnet"`
		Zone string `json:"zone"`
	}{Vnet: vnet, Zone: zone}
	return c.post(ctx, "/api2/json/cluster/sdn/vnets", req, nil)
}

// SdnVnetDelete removes a vnet.
func (c *Client) SdnVnetDelete(ctx context.Context, vnet string) error {
	return c.delete(ctx, fmt.Sprintf("/api2/json/cluster/sdn/vnets/%s", vnet))
}

// SdnSubnetCreate creates a subnet within vnet. cidr is converted to the
// hyphenated subnet id ("10.0.0.0/24" -> "10.0.0.0-24") the API keys
// subnets by.
func (c *Client) SdnSubnetCreate(ctx context.Context, vnet, cidr string, config SdnSubnetConfig) error {
	config.Subnet = cidrToSdnSubnet(cidr)
	return c.post(ctx, fmt.Sprintf("/api2/json/cluster/sdn/vnets/%s/subnets", vnet), config, nil)
}

// SdnSubnetDelete removes a subnet from vnet.
func (c *Client) SdnSubnetDelete(ctx context.Context, vnet, cidr string) error {
	return c.delete(ctx, fmt.Sprintf("/api2/json/cluster/sdn/vnets/%s/subnets/%s", vnet, cidrToSdnSubnet(cidr)))
}

// SdnApply commits pending SDN configuration changes to the cluster and
// returns the UPID of the rollout task.
func (c *Client) SdnApply(ctx context.Context) (TaskID, error) {
	var task string
	err := c.put(ctx, "/api2/json/cluster/sdn", nil, &task)
	return TaskID(task), err
}
