package collect

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
)

// rdapServers maps common TLDs to their registry RDAP endpoints. Unlisted
// TLDs go through the rdap.org redirector.
var rdapServers = map[string]string{
	"com": "https://rdap.verisign.com/com/v1/domain/",
	"net": "https://rdap.verisign.com/net/v1/domain/",
	"org": "https://rdap.publicinterestregistry.org/rdap/domain/",
	"io":  "https://rdap.nic.io/domain/",
	"co":  "https://rdap.nic.co/domain/",
}

const rdapFallback = "https://rdap.org/domain/"

// WhoisCollector gathers domain registration data over RDAP.
type WhoisCollector struct {
	Base
	client *fetch.Client

	// baseURL overrides the per-TLD RDAP endpoint selection when set.
	baseURL string
	now     func() time.Time
}

// NewWhoisCollector creates a WHOIS/RDAP collector.
func NewWhoisCollector(client *fetch.Client) *WhoisCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &WhoisCollector{
		Base:   NewBase("WHOIS Lookup", types.SourceWhois, 1),
		client: client,
		now:    time.Now,
	}
}

// rdapResponse is the subset of the RDAP domain object we read.
type rdapResponse struct {
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Handle     string   `json:"handle"`
		Roles      []string `json:"roles"`
		VcardArray []any    `json:"vcardArray"`
	} `json:"entities"`
	Nameservers []struct {
		LdhName string `json:"ldhName"`
	} `json:"nameservers"`
	SecureDNS struct {
		DelegationSigned bool `json:"delegationSigned"`
	} `json:"secureDNS"`
}

// Collect queries the domain's RDAP record and emits registration data
// points, including the derived domain age in years.
func (c *WhoisCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	endpoint := c.baseURL
	if endpoint == "" {
		tld := strings.ToLower(profile.Domain[strings.LastIndex(profile.Domain, ".")+1:])
		endpoint = rdapServers[tld]
		if endpoint == "" {
			endpoint = rdapFallback
		}
	}

	var resp rdapResponse
	if err := c.client.GetJSON(ctx, endpoint+profile.Domain, &resp); err != nil {
		return nil, err
	}

	locator := "whois://" + profile.Domain
	var points []types.DataPoint
	add := func(key, value string, confidence types.Confidence) {
		if value != "" {
			points = append(points, c.NewDataPoint(key, value, locator, confidence, round))
		}
	}

	for _, event := range resp.Events {
		switch event.EventAction {
		case "registration":
			add("domain_created", event.EventDate, types.ConfidenceHigh)
			if created, err := time.Parse(time.RFC3339, event.EventDate); err == nil {
				years := c.now().Sub(created).Hours() / 24 / 365.25
				add("domain_age_years", fmt.Sprintf("%.1f", math.Round(years*10)/10), types.ConfidenceHigh)
			}
		case "expiration":
			add("domain_expires", event.EventDate, types.ConfidenceHigh)
		}
	}

	for _, entity := range resp.Entities {
		for _, role := range entity.Roles {
			switch role {
			case "registrar":
				name := vcardField(entity.VcardArray, "fn")
				if name == "" {
					name = entity.Handle
				}
				add("domain_registrar", name, types.ConfidenceHigh)
			case "registrant":
				add("registrant_name", vcardField(entity.VcardArray, "fn"), types.ConfidenceMedium)
				add("registrant_organization", vcardField(entity.VcardArray, "org"), types.ConfidenceMedium)
			}
		}
	}

	if len(resp.Nameservers) > 0 {
		names := make([]string, 0, len(resp.Nameservers))
		for _, ns := range resp.Nameservers {
			if ns.LdhName != "" {
				names = append(names, ns.LdhName)
			}
		}
		add("name_servers", strings.Join(names, ", "), types.ConfidenceHigh)
	}

	add("dnssec_enabled", fmt.Sprintf("%t", resp.SecureDNS.DelegationSigned), types.ConfidenceHigh)

	return points, nil
}

// DiscoverSources turns the registrant organization into a company search
// hint for later rounds.
func (c *WhoisCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	for _, dp := range profile.DataBySource(c.Kind()) {
		if dp.Key == "registrant_organization" && dp.Value != "" {
			sources = append(sources, "search:company:"+dp.Value)
		}
	}
	return sources
}

// vcardField extracts a text property from a jCard array
// (["vcard", [["fn", {}, "text", "Example Registrar"], ...]]).
func vcardField(vcard []any, field string) string {
	if len(vcard) < 2 {
		return ""
	}
	props, ok := vcard[1].([]any)
	if !ok {
		return ""
	}
	for _, p := range props {
		prop, ok := p.([]any)
		if !ok || len(prop) < 4 {
			continue
		}
		name, ok := prop[0].(string)
		if !ok || name != field {
			continue
		}
		if value, ok := prop[3].(string); ok {
			return value
		}
	}
	return ""
}
