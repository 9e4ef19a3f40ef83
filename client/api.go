package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/unkn0wn-root/pylon/auth"
	"github.com/unkn0wn-root/pylon/chain"
)

type communicator = auth.Communicator[Request, Response]

// login posts token to path on comm. Login calls are never retried by the
// engine; a rejected token is returned to the caller.
func login[L any](ctx context.Context, comm communicator, path, token string) (L, error) {
	var out L
	if !comm.IsOpen() {
		return out, auth.ErrClosed
	}
	resp, err := comm.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: LoginBody{Token: token}})
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	return out, resp.Decode(&out)
}

func get(path string) Request { return Request{Method: http.MethodGet, Path: path} }

func decode[T any](resp Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	return out, resp.Decode(&out)
}

// OpenAccessAPI reads any subnet with the shared open access token.
type OpenAccessAPI struct {
	engine *auth.Engine[OpenAccessLoginResponse, Request, Response]
}

func NewOpenAccessAPI(comm communicator, token string, opts ...auth.Option) *OpenAccessAPI {
	loginer := auth.LoginFunc[OpenAccessLoginResponse](func(ctx context.Context) (OpenAccessLoginResponse, error) {
		return login[OpenAccessLoginResponse](ctx, comm, Scope{}.Path(EndpointOpenAccess), token)
	})
	return &OpenAccessAPI{engine: auth.New[OpenAccessLoginResponse, Request, Response](comm, loginer, opts...)}
}

func (a *OpenAccessAPI) send(ctx context.Context, path string) (chain.SubnetNeurons, error) {
	return decode[chain.SubnetNeurons](a.engine.SendAuthenticated(ctx, func(context.Context, OpenAccessLoginResponse) (Request, error) {
		return get(path), nil
	}))
}

func (a *OpenAccessAPI) Neurons(ctx context.Context, netuid chain.NetUID, block chain.BlockNumber) (chain.SubnetNeurons, error) {
	return a.send(ctx, Subnet(netuid).Path(EndpointNeurons(block)))
}

func (a *OpenAccessAPI) LatestNeurons(ctx context.Context, netuid chain.NetUID) (chain.SubnetNeurons, error) {
	return a.send(ctx, Subnet(netuid).Path(EndpointLatestNeurons))
}

// RecentNeurons is served from the service's recency cache and fails when
// the cache is missing or stale there.
func (a *OpenAccessAPI) RecentNeurons(ctx context.Context, netuid chain.NetUID) (chain.SubnetNeurons, error) {
	return a.send(ctx, Subnet(netuid).Path(EndpointRecentNeurons))
}

// IdentityAPI acts as one named identity. The subnet comes from the login
// response, so every call is scoped to /identity/<name>/subnet/<netuid>.
type IdentityAPI struct {
	name   string
	engine *auth.Engine[IdentityLoginResponse, Request, Response]
}

func NewIdentityAPI(comm communicator, name, token string, opts ...auth.Option) *IdentityAPI {
	loginer := auth.LoginFunc[IdentityLoginResponse](func(ctx context.Context) (IdentityLoginResponse, error) {
		return login[IdentityLoginResponse](ctx, comm, Scope{}.Path(EndpointIdentityLogin(name)), token)
	})
	return &IdentityAPI{name: name, engine: auth.New[IdentityLoginResponse, Request, Response](comm, loginer, opts...)}
}

func (a *IdentityAPI) Name() string { return a.name }

func (a *IdentityAPI) scope(l IdentityLoginResponse) Scope {
	netuid := l.NetUID
	return Scope{Identity: a.name, NetUID: &netuid}
}

func (a *IdentityAPI) neurons(ctx context.Context, endpoint string) (chain.SubnetNeurons, error) {
	return decode[chain.SubnetNeurons](a.engine.SendAuthenticated(ctx, func(_ context.Context, l IdentityLoginResponse) (Request, error) {
		return get(a.scope(l).Path(endpoint)), nil
	}))
}

func (a *IdentityAPI) Neurons(ctx context.Context, block chain.BlockNumber) (chain.SubnetNeurons, error) {
	return a.neurons(ctx, EndpointNeurons(block))
}

func (a *IdentityAPI) LatestNeurons(ctx context.Context) (chain.SubnetNeurons, error) {
	return a.neurons(ctx, EndpointLatestNeurons)
}

func (a *IdentityAPI) RecentNeurons(ctx context.Context) (chain.SubnetNeurons, error) {
	return a.neurons(ctx, EndpointRecentNeurons)
}

// Commitment returns the latest commitment of hotkey in the identity's subnet.
func (a *IdentityAPI) Commitment(ctx context.Context, hotkey chain.Hotkey) (CommitmentResponse, error) {
	if hotkey == "" {
		return CommitmentResponse{}, &ValidationError{Fields: []FieldError{{Field: "hotkey", Reason: "must not be empty"}}}
	}
	return decode[CommitmentResponse](a.engine.SendAuthenticated(ctx, func(_ context.Context, l IdentityLoginResponse) (Request, error) {
		return get(a.scope(l).Path(EndpointLatestCommitment(hotkey))), nil
	}))
}

// PutWeights schedules a weights update. Invalid weights fail with a
// *ValidationError and nothing is sent.
func (a *IdentityAPI) PutWeights(ctx context.Context, weights map[chain.Hotkey]float64) (SetWeightsResponse, error) {
	body := SetWeightsBody{Weights: weights}
	if err := body.Validate(); err != nil {
		return SetWeightsResponse{}, err
	}
	return decode[SetWeightsResponse](a.engine.SendAuthenticated(ctx, func(_ context.Context, l IdentityLoginResponse) (Request, error) {
		return Request{Method: http.MethodPut, Path: a.scope(l).Path(EndpointWeights), Body: body}, nil
	}))
}

// Client bundles the communicator with the APIs enabled by its Options.
type Client struct {
	comm       *HTTPCommunicator
	OpenAccess *OpenAccessAPI // nil without Options.OpenAccessToken
	Identity   *IdentityAPI   // nil without Options.IdentityName
}

type Options struct {
	Config
	OpenAccessToken string
	IdentityName    string
	IdentityToken   string
}

// New opens the communicator; Close releases it.
func New(opts Options) (*Client, error) {
	comm := NewHTTPCommunicator(opts.Config)
	if err := comm.Open(); err != nil {
		return nil, fmt.Errorf("client: open: %w", err)
	}
	c := &Client{comm: comm}
	authOpts := []auth.Option{auth.WithLogger(opts.Logger)}
	if opts.OpenAccessToken != "" {
		c.OpenAccess = NewOpenAccessAPI(comm, opts.OpenAccessToken, authOpts...)
	}
	if opts.IdentityName != "" {
		c.Identity = NewIdentityAPI(comm, opts.IdentityName, opts.IdentityToken, authOpts...)
	}
	return c, nil
}

func (c *Client) Close() error { return c.comm.Close() }
