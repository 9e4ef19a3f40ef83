package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unkn0wn-root/pylon/auth"
	"github.com/unkn0wn-root/pylon/chain"
)

type fakePylon struct {
	mu       sync.Mutex
	sessions map[string]bool
	logins   atomic.Int32
	hits     map[string]int
	weights  []SetWeightsBody
	status   int // forced status for data endpoints when non-zero
}

func newFakePylon(t *testing.T) (*fakePylon, *httptest.Server) {
	f := &fakePylon{sessions: make(map[string]bool), hits: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/login/open_access", f.login("oa-token", "{}"))
	mux.HandleFunc("POST /api/v1/login/identity/sn1", f.login("sn1-token", `{"netuid":1,"identity_name":"sn1"}`))
	mux.HandleFunc("GET /api/v1/subnet/{netuid}/neurons/latest", f.authed(f.neurons))
	mux.HandleFunc("GET /api/v1/subnet/{netuid}/neurons/{block}", f.authed(f.neurons))
	mux.HandleFunc("GET /api/v1/subnet/{netuid}/block/recent/neurons", f.authed(f.neurons))
	mux.HandleFunc("GET /api/v1/identity/sn1/subnet/{netuid}/neurons/latest", f.authed(f.neurons))
	mux.HandleFunc("GET /api/v1/identity/sn1/subnet/{netuid}/block/recent/neurons", f.authed(f.neurons))
	mux.HandleFunc("PUT /api/v1/identity/sn1/subnet/{netuid}/weights", f.authed(f.putWeights))
	mux.HandleFunc("GET /api/v1/identity/sn1/subnet/{netuid}/commitments/{hotkey}", f.authed(f.commitment))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePylon) login(token, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var lb LoginBody
		if err := json.NewDecoder(r.Body).Decode(&lb); err != nil || lb.Token != token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.logins.Add(1)
		sid := fmt.Sprintf("s%d", n)
		f.mu.Lock()
		f.sessions[sid] = true
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: sid, Path: "/"})
		_, _ = w.Write([]byte(body))
	}
}

// expire drops every session, as a restarted server would.
func (f *fakePylon) expire() {
	f.mu.Lock()
	f.sessions = make(map[string]bool)
	f.mu.Unlock()
}

func (f *fakePylon) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.Method+" "+r.URL.Path]++
		c, err := r.Cookie("session")
		ok := err == nil && f.sessions[c.Value]
		status := f.status
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next(w, r)
	}
}

func (f *fakePylon) neurons(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(chain.SubnetNeurons{
		Block:   chain.Block{Number: 100, Hash: "0x64"},
		Neurons: map[chain.Hotkey]chain.Neuron{"hk": {UID: 7, Hotkey: "hk", Stake: 3.5}},
	})
}

func (f *fakePylon) putWeights(w http.ResponseWriter, r *http.Request) {
	var body SetWeightsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.weights = append(f.weights, body)
	f.mu.Unlock()
	_, _ = w.Write([]byte(`{"detail":"weights update scheduled","count":1}`))
}

func (f *fakePylon) commitment(w http.ResponseWriter, r *http.Request) {
	hk := r.PathValue("hotkey")
	if hk == "hotkey1" {
		fmt.Fprintf(w, `{"hotkey":%q,"data":"0xaabbccdd"}`, hk)
		return
	}
	fmt.Fprintf(w, `{"hotkey":%q,"data":null}`, hk)
}

func (f *fakePylon) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Options{
		Config:          Config{BaseURL: srv.URL, Timeout: time.Second, RetryCount: -1},
		OpenAccessToken: "oa-token",
		IdentityName:    "sn1",
		IdentityToken:   "sn1-token",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestScopePath(t *testing.T) {
	n := chain.NetUID(3)
	assert.Equal(t, "/api/v1/neurons/latest", Scope{}.Path(EndpointLatestNeurons))
	assert.Equal(t, "/api/v1/subnet/3/neurons/12", Subnet(3).Path(EndpointNeurons(12)))
	assert.Equal(t, "/api/v1/identity/sn1/subnet/3/weights", Scope{Identity: "sn1", NetUID: &n}.Path(EndpointWeights))
	assert.Equal(t, "/api/v1/login/identity/a%2Fb", Scope{}.Path(EndpointIdentityLogin("a/b")))
}

func TestOpenAccessNeurons(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	got, err := c.OpenAccess.LatestNeurons(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, chain.BlockNumber(100), got.Block.Number)
	assert.Equal(t, uint16(7), got.Neurons["hk"].UID)

	_, err = c.OpenAccess.Neurons(ctx, 1, 99)
	require.NoError(t, err)
	_, err = c.OpenAccess.RecentNeurons(ctx, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.logins.Load())
	assert.Equal(t, 1, f.hitCount("GET /api/v1/subnet/1/neurons/99"))
	assert.Equal(t, 1, f.hitCount("GET /api/v1/subnet/2/block/recent/neurons"))
}

func TestExpiredSessionIsRenewedOnce(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	_, err := c.OpenAccess.LatestNeurons(ctx, 1)
	require.NoError(t, err)
	f.expire()

	_, err = c.OpenAccess.LatestNeurons(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.logins.Load())
	assert.Equal(t, 3, f.hitCount("GET /api/v1/subnet/1/neurons/latest"))
}

func TestConcurrentCallsAfterExpiryLogInOnce(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	_, err := c.OpenAccess.LatestNeurons(ctx, 1)
	require.NoError(t, err)
	f.expire()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.OpenAccess.LatestNeurons(ctx, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 2, f.logins.Load())
}

func TestIdentityUsesLoginNetUID(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	_, err := c.Identity.LatestNeurons(ctx)
	require.NoError(t, err)
	_, err = c.Identity.RecentNeurons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.hitCount("GET /api/v1/identity/sn1/subnet/1/neurons/latest"))
	assert.Equal(t, 1, f.hitCount("GET /api/v1/identity/sn1/subnet/1/block/recent/neurons"))
	assert.Equal(t, "sn1", c.Identity.Name())
}

func TestPutWeights(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	resp, err := c.Identity.PutWeights(ctx, map[chain.Hotkey]float64{"h1": 0.2})
	require.NoError(t, err)
	assert.Equal(t, SetWeightsResponse{Detail: "weights update scheduled", Count: 1}, resp)
	require.Len(t, f.weights, 1)
	assert.Equal(t, map[chain.Hotkey]float64{"h1": 0.2}, f.weights[0].Weights)
}

func TestPutWeightsValidation(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	cases := map[string]map[chain.Hotkey]float64{
		"nil":       nil,
		"empty":     {},
		"empty key": {"": 0.5},
		"negative":  {"h1": -0.1},
	}
	for name, w := range cases {
		_, err := c.Identity.PutWeights(ctx, w)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, name)
		assert.NotEmpty(t, ve.Fields, name)
	}
	assert.EqualValues(t, 0, f.logins.Load(), "nothing sent")
	assert.Empty(t, f.weights)
}

func TestResponseAndRequestErrors(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	f.mu.Lock()
	f.status = http.StatusInternalServerError
	f.mu.Unlock()
	_, err := c.OpenAccess.LatestNeurons(ctx, 1)
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
	assert.False(t, auth.Retryable(err))

	srv.Close()
	_, err = c.OpenAccess.LatestNeurons(ctx, 1)
	var qe *RequestError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, http.MethodGet, qe.Method)
}

func TestForbiddenUnwrapsToAuthError(t *testing.T) {
	assert.ErrorIs(t, &ResponseError{StatusCode: http.StatusForbidden}, auth.ErrForbidden)
	assert.ErrorIs(t, &ResponseError{StatusCode: http.StatusUnauthorized}, auth.ErrUnauthorized)
	assert.False(t, errors.Is(&ResponseError{StatusCode: http.StatusNotFound}, auth.ErrUnauthorized))
}

func TestBadLoginTokenSurfaces(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakePylon(t)
	c, err := New(Options{Config: Config{BaseURL: srv.URL, RetryCount: -1}, OpenAccessToken: "wrong"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.OpenAccess.LatestNeurons(ctx, 1)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Nil(t, c.Identity)
}

func TestClosedCommunicator(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakePylon(t)
	c := newTestClient(t, srv)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.OpenAccess.LatestNeurons(ctx, 1)
	assert.ErrorIs(t, err, auth.ErrClosed)
}

func TestIdentityCommitment(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	got, err := c.Identity.Commitment(ctx, "hotkey1")
	require.NoError(t, err)
	assert.Equal(t, chain.Hotkey("hotkey1"), got.Hotkey)
	require.NotNil(t, got.Data)
	assert.Equal(t, "0xaabbccdd", *got.Data)
	assert.Equal(t, 1, f.hitCount("GET /api/v1/identity/sn1/subnet/1/commitments/hotkey1"))
}

func TestIdentityCommitmentWithoutData(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	got, err := c.Identity.Commitment(ctx, "hotkey2")
	require.NoError(t, err)
	assert.Equal(t, chain.Hotkey("hotkey2"), got.Hotkey)
	assert.Nil(t, got.Data)
}

func TestIdentityCommitmentRequiresHotkey(t *testing.T) {
	f, srv := newFakePylon(t)
	c := newTestClient(t, srv)

	_, err := c.Identity.Commitment(context.Background(), "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.EqualValues(t, 0, f.logins.Load())
}
