package ledger

import (
	"bytes"
	encJson "encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/gorilla/rpc/v2/json2"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/abstracted-labs/inv4-git/internal/inv4err"
)

// CallTimeout bounds a single RPC round trip over the websocket.
const CallTimeout = 30 * time.Second

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// idEnvelope is the minimal slice of a response needed to route it to
// the caller that issued the matching request; the waiter then decodes
// the full body with json.DecodeClientResponse.
type idEnvelope struct {
	ID uint64 `json:"id"`
}

// WSLedger dials a chain_endpoint with gorilla/websocket and frames
// requests as JSON-RPC 2.0 objects over a persistent connection: a
// read-loop goroutine demultiplexes responses by id to waiting
// callers. The read loop is the only background goroutine in the
// process; it never issues requests of its own.
type WSLedger struct {
	conn   *websocket.Conn
	nextID uint64

	mu      sync.Mutex
	waiters map[uint64]chan []byte
}

// DialWSLedger connects to endpoint and starts the read loop.
func DialWSLedger(endpoint string) (*WSLedger, error) {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(inv4err.ErrUnavailable, "dial ledger %s: %v", endpoint, err)
	}
	l := &WSLedger{conn: conn, waiters: make(map[uint64]chan []byte)}
	go l.readLoop()
	return l, nil
}

func (l *WSLedger) readLoop() {
	for {
		_, raw, err := l.conn.ReadMessage()
		if err != nil {
			l.failAllWaiters()
			return
		}
		var envelope idEnvelope
		if err := encJson.Unmarshal(raw, &envelope); err != nil {
			continue
		}
		l.mu.Lock()
		ch, ok := l.waiters[envelope.ID]
		if ok {
			delete(l.waiters, envelope.ID)
		}
		l.mu.Unlock()
		if ok {
			ch <- raw
		}
	}
}

func (l *WSLedger) failAllWaiters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ch := range l.waiters {
		close(ch)
		delete(l.waiters, id)
	}
}

func (l *WSLedger) call(method string, params interface{}, out interface{}) error {
	id := atomic.AddUint64(&l.nextID, 1)
	ch := make(chan []byte, 1)

	l.mu.Lock()
	l.waiters[id] = ch
	l.mu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id}
	body, err := encJson.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshal rpc request")
	}
	if err := l.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return errors.Wrapf(inv4err.ErrUnavailable, "write rpc request %s: %v", method, err)
	}

	select {
	case raw, ok := <-ch:
		if !ok {
			return errors.Wrapf(inv4err.ErrUnavailable, "ledger connection closed during %s", method)
		}
		target := out
		if target == nil {
			var discard encJson.RawMessage
			target = &discard
		}
		if err := json.DecodeClientResponse(bytes.NewReader(raw), target); err != nil {
			if err == json.ErrNullResult && out == nil {
				return nil
			}
			if rpcErr, ok := err.(*json.Error); ok {
				return classifyRPCError(rpcErr)
			}
			return errors.Wrapf(err, "decode rpc result for %s", method)
		}
		return nil
	case <-time.After(CallTimeout):
		l.mu.Lock()
		delete(l.waiters, id)
		l.mu.Unlock()
		return errors.Wrapf(inv4err.ErrUnavailable, "rpc call %s timed out", method)
	}
}

// classifyRPCError maps a JSON-RPC error's data payload onto the
// helper's error taxonomy. The ledger reports {code, message} in the
// error data.
func classifyRPCError(e *json.Error) error {
	data, _ := e.Data.(map[string]interface{})
	msg, _ := data["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("%v", e.Data)
	}
	code, _ := data["code"].(float64)
	switch int(code) {
	case 404:
		return errors.Wrap(inv4err.ErrNotFound, msg)
	case 401, 403:
		return errors.Wrap(inv4err.ErrUnauthorized, msg)
	case 409:
		return errors.Wrap(inv4err.ErrConflict, msg)
	default:
		return errors.Wrap(inv4err.ErrUnavailable, msg)
	}
}

type readManifestParams struct {
	RepoID     uint32 `json:"repo_id"`
	SubassetID uint32 `json:"subasset_id"`
}

type ledgerRefWire struct {
	Label  []byte `json:"label"`
	Digest []byte `json:"digest"`
	ID     uint64 `json:"id"`
}

func (l *WSLedger) ReadManifest(repoID, subassetID uint32) ([]LedgerRef, error) {
	var wire []ledgerRefWire
	if err := l.call("inv4_readManifest", readManifestParams{RepoID: repoID, SubassetID: subassetID}, &wire); err != nil {
		return nil, errors.Wrapf(err, "read manifest for repo %d/%d", repoID, subassetID)
	}
	out := make([]LedgerRef, 0, len(wire))
	for _, w := range wire {
		ref, err := wireToRef(w)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

type mintParams struct {
	Label   []byte `json:"label"`
	Digest  []byte `json:"digest"`
	Account string `json:"account"`
	Sig     []byte `json:"signature"`
}

func (l *WSLedger) Mint(label []byte, digest [32]byte, signer Signer) (LedgerRef, error) {
	sig, err := signer.Sign(append(append([]byte{}, label...), digest[:]...))
	if err != nil {
		return LedgerRef{}, errors.Wrap(err, "sign mint request")
	}
	var wire ledgerRefWire
	params := mintParams{Label: label, Digest: digest[:], Account: signer.AccountID(), Sig: sig}
	if err := l.call("inv4_mint", params, &wire); err != nil {
		return LedgerRef{}, errors.Wrap(err, "mint ledger reference")
	}
	return wireToRef(wire)
}

type swapParams struct {
	RepoID     uint32          `json:"repo_id"`
	SubassetID uint32          `json:"subasset_id"`
	Remove     []ledgerRefWire `json:"remove"`
	Append     []ledgerRefWire `json:"append"`
	Account    string          `json:"account"`
	Sig        []byte          `json:"signature"`
}

func (l *WSLedger) Swap(repoID, subassetID uint32, remove, appendRefs []LedgerRef, signer Signer) error {
	payload := swapPayload(repoID, subassetID, remove, appendRefs)
	sig, err := signer.Sign(payload)
	if err != nil {
		return errors.Wrap(err, "sign swap request")
	}
	params := swapParams{
		RepoID:     repoID,
		SubassetID: subassetID,
		Remove:     refsToWire(remove),
		Append:     refsToWire(appendRefs),
		Account:    signer.AccountID(),
		Sig:        sig,
	}
	if err := l.call("inv4_swap", params, nil); err != nil {
		return errors.Wrapf(err, "swap manifest for repo %d/%d", repoID, subassetID)
	}
	return nil
}

func swapPayload(repoID, subassetID uint32, remove, appendRefs []LedgerRef) []byte {
	buf := []byte(fmt.Sprintf("swap:%d:%d:", repoID, subassetID))
	for _, r := range remove {
		buf = append(buf, r.Label...)
		buf = append(buf, r.Digest[:]...)
	}
	for _, r := range appendRefs {
		buf = append(buf, r.Label...)
		buf = append(buf, r.Digest[:]...)
	}
	return buf
}

func refsToWire(refs []LedgerRef) []ledgerRefWire {
	out := make([]ledgerRefWire, 0, len(refs))
	for _, r := range refs {
		out = append(out, ledgerRefWire{Label: r.Label, Digest: r.Digest[:], ID: r.ID})
	}
	return out
}

func wireToRef(w ledgerRefWire) (LedgerRef, error) {
	if len(w.Digest) != 32 {
		return LedgerRef{}, errors.Errorf("ledger reference %q: digest is %d bytes, want 32", w.Label, len(w.Digest))
	}
	var digest [32]byte
	copy(digest[:], w.Digest)
	return LedgerRef{Label: w.Label, Digest: digest, ID: w.ID}, nil
}
