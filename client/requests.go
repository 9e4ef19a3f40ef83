// Package client talks to a Pylon service over HTTP. Calls go through an
// auth.Engine, so expired sessions are renewed transparently.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/unkn0wn-root/pylon/chain"
)

// Request is what the communicator sends.
type Request struct {
	Method string
	Path   string
	Body   any // JSON encoded when non-nil
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

type LoginBody struct {
	Token string `json:"token"`
}

type OpenAccessLoginResponse struct{}

// IdentityLoginResponse carries the subnet the identity is bound to.
type IdentityLoginResponse struct {
	NetUID       chain.NetUID `json:"netuid"`
	IdentityName string       `json:"identity_name"`
}

type SetWeightsBody struct {
	Weights map[chain.Hotkey]float64 `json:"weights" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
}

type SetWeightsResponse struct {
	Detail string `json:"detail"`
	Count  int    `json:"count"`
}

// CommitmentResponse is a hotkey's latest commitment. Data is nil when the
// hotkey has not committed anything.
type CommitmentResponse struct {
	Hotkey chain.Hotkey `json:"hotkey"`
	Data   *string      `json:"data"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (b SetWeightsBody) Validate() error {
	if err := validate.Struct(b); err != nil {
		return newValidationError(err)
	}
	return nil
}
