package chain

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log2 "github.com/rs/zerolog/log"
)

// Gateway looks transaction references up on a chain gateway over HTTP. It
// implements verification.ChainLookup.
type Gateway struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

type GatewayConfig struct {
	URL          string
	Token        string
	Timeout      time.Duration
	RetryWait    time.Duration
	RetryWaitMax time.Duration
	RetryCount   int
}

func NewGateway(config GatewayConfig) *Gateway {
	client := resty.New()
	client.SetRetryCount(config.RetryCount).SetRetryWaitTime(config.RetryWait).SetRetryMaxWaitTime(config.RetryWaitMax).
		SetRetryAfter(nil).
		AddRetryCondition(
			func(r *resty.Response, err error) bool {
				return r.StatusCode() >= 500 || r.StatusCode() == 429
			},
		)

	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}

	return &Gateway{
		client:  client,
		baseURL: config.URL,
		log:     log2.With().Str("role", "chain_gateway").Caller().Logger(),
	}
}

// Exists reports whether the transaction reference is found on chain. A 404
// from the gateway means the record does not exist; anything else unexpected
// is an error the caller treats as a failed check.
func (g *Gateway) Exists(ctx context.Context, txRef string) (bool, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("ref", txRef).
		Get(g.baseURL + "/tx/{ref}")
	if err != nil {
		return false, errors.Wrapf(err, "failed to query chain gateway for %s", txRef)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		g.log.Warn().Int("status", resp.StatusCode()).Str("txRef", txRef).
			Msg("unexpected chain gateway response")

		return false, errors.Errorf("chain gateway returned status %d for %s", resp.StatusCode(), txRef)
	}
}
