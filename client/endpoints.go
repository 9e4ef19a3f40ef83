package client

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/pylon/chain"
)

// APIPrefix is prepended to every endpoint.
const APIPrefix = "/api/v1"

// Endpoint paths relative to their scope.
const (
	EndpointLatestNeurons = "/neurons/latest"
	EndpointRecentNeurons = "/block/recent/neurons"
	EndpointWeights       = "/weights"
	EndpointOpenAccess    = "/login/open_access"
)

func EndpointNeurons(b chain.BlockNumber) string {
	return "/neurons/" + strconv.FormatUint(uint64(b), 10)
}

// EndpointLatestCommitment reads the latest commitment of one hotkey.
func EndpointLatestCommitment(hotkey chain.Hotkey) string {
	return "/commitments/" + url.PathEscape(string(hotkey))
}

func EndpointIdentityLogin(name string) string {
	return "/login/identity/" + url.PathEscape(name)
}

// Scope selects the identity and subnet parts of a path. Zero values omit them.
type Scope struct {
	Identity string
	NetUID   *chain.NetUID
}

// Subnet returns a scope limited to netuid.
func Subnet(netuid chain.NetUID) Scope { return Scope{NetUID: &netuid} }

// Path builds APIPrefix[/identity/<name>][/subnet/<netuid>]<endpoint>.
func (s Scope) Path(endpoint string) string {
	var b strings.Builder
	b.WriteString(APIPrefix)
	if s.Identity != "" {
		b.WriteString("/identity/")
		b.WriteString(url.PathEscape(s.Identity))
	}
	if s.NetUID != nil {
		b.WriteString("/subnet/")
		b.WriteString(s.NetUID.String())
	}
	b.WriteString(endpoint)
	return b.String()
}
