package dns

import (
	"context"

	"github.com/cloudflare/cloudflare-go/v2"
	"github.com/cloudflare/cloudflare-go/v2/option"
	"github.com/cloudflare/cloudflare-go/v2/zones"

	"github.com/lite-lake/wildcert/internal/domain"
)

type CloudflareZones struct {
	client *cloudflare.Client
}

func NewCloudflareZones(apiToken string, opts ...option.RequestOption) *CloudflareZones {
	opts = append([]option.RequestOption{option.WithAPIToken(apiToken)}, opts...)
	return &CloudflareZones{client: cloudflare.NewClient(opts...)}
}

func (p *CloudflareZones) Name() string {
	return "cloudflare"
}

func (p *CloudflareZones) HasZone(ctx context.Context, zone string) (bool, error) {
	resp, err := p.client.Zones.List(ctx, zones.ZoneListParams{
		Name: cloudflare.F(zone),
	})
	if err != nil {
		return false, domain.WrapOp("list zones", err)
	}
	return len(resp.Result) > 0, nil
}
