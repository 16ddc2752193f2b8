package delivery

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log2 "github.com/rs/zerolog/log"
)

// GeoIPResolver resolves a client IP to coordinates via the ipinfo.io API so
// node selection can use proximity even when the caller sends no location.
type GeoIPResolver struct {
	client  *resty.Client
	baseURL string
	token   string
	log     zerolog.Logger
}

type GeoIPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

const defaultGeoIPBaseURL = "https://ipinfo.io"

func NewGeoIPResolver(config GeoIPConfig) *GeoIPResolver {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGeoIPBaseURL
	}

	client := resty.New()
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	return &GeoIPResolver{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   config.Token,
		log:     log2.With().Str("role", "geoip_resolver").Caller().Logger(),
	}
}

type ipInfoResponse struct {
	Loc string `json:"loc"`
}

// ResolveIP returns the coordinates for the IP, or nil if the service knows
// no location for it.
func (g *GeoIPResolver) ResolveIP(ctx context.Context, ip net.IP) (*Location, error) {
	request := g.client.R().SetContext(ctx).SetHeader("Accept", "application/json")
	if g.token != "" {
		request.SetQueryParam("token", g.token)
	}

	resp, err := request.Get(g.baseURL + "/" + ip.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve IP %s", ip)
	}

	if resp.IsError() {
		return nil, errors.Errorf("geoip lookup for %s returned status %d", ip, resp.StatusCode())
	}

	var payload ipInfoResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal geoip response")
	}

	if payload.Loc == "" {
		return nil, nil
	}

	parts := strings.SplitN(payload.Loc, ",", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("malformed loc field %s", payload.Loc)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed latitude in loc field %s", payload.Loc)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed longitude in loc field %s", payload.Loc)
	}

	return &Location{Lat: lat, Lng: lng}, nil
}

// ResolveIPStr parses the IP first. Private and loopback addresses resolve to
// no location rather than an error so local callers fall back to the default
// node.
func (g *GeoIPResolver) ResolveIPStr(ctx context.Context, ip string) (*Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, errors.Errorf("failed to parse IP address %s", ip)
	}

	if parsed.IsLoopback() || parsed.IsPrivate() {
		g.log.Debug().Str("ip", ip).Msg("skipping geoip lookup for non-public address")
		return nil, nil
	}

	return g.ResolveIP(ctx, parsed)
}
