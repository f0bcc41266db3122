package hypervisor

import (
	"context"
	"fmt"
)

// FirewallEnable turns the per-guest firewall on or off for vmID.
func (c *Client) FirewallEnable(ctx context.Context, node string, vmID int64, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	req := struct {
		Enable int `json:"enable"`
	}{Enable: value}
	return c.put(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/firewall/options", node, vmID), req, nil)
}

// FirewallRuleCreate appends rule to vmID's firewall. Rules apply in the
// order they are created; callers that need a specific precedence must
// create them in that order.
func (c *Client) FirewallRuleCreate(ctx context.Context, node string, vmID int64, rule FirewallRule) error {
	return c.post(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/firewall/rules", node, vmID), rule, nil)
}

// FirewallRuleDelete removes the rule at pos in vmID's firewall rule list.
func (c *Client) FirewallRuleDelete(ctx context.Context, node string, vmID int64, pos int) error {
	return c.delete(ctx, fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/firewall/rules/%d", node, vmID, pos))
}
