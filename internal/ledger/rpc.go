package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
)

// TimeLayout is the ledger's timestamp format. Timestamps are UTC without a zone suffix.
const TimeLayout = "2006-01-02T15:04:05"

// RPCClient implements Gateway against a Steem-compatible JSON-RPC node.
// Reads go to the node; broadcasts go to a signing service that holds the
// transaction-building and signing logic.
type RPCClient struct {
	NodeURL    string
	SignerURL  string
	PostingKey string
	ActiveKey  string
	Client     *http.Client

	nextID atomic.Int64
}

// NewRPCClient creates a new client with optional proxy support.
func NewRPCClient(nodeURL, signerURL, postingKey, activeKey, proxyURL string) *RPCClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RPCClient{
		NodeURL:    nodeURL,
		SignerURL:  signerURL,
		PostingKey: postingKey,
		ActiveKey:  activeKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// wire shapes returned by condenser_api
type wireAccount struct {
	Name         string `json:"name"`
	VotingPower  int    `json:"voting_power"`
	LastVoteTime string `json:"last_vote_time"`
}

type wireHistoryOp struct {
	Timestamp string            `json:"timestamp"`
	Op        []json.RawMessage `json:"op"`
}

type wireTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

type wireVote struct {
	Voter   string `json:"voter"`
	Percent int    `json:"percent"`
	Time    string `json:"time"`
}

type wireContent struct {
	ID           int64      `json:"id"`
	Author       string     `json:"author"`
	Permlink     string     `json:"permlink"`
	Title        string     `json:"title"`
	ParentAuthor string     `json:"parent_author"`
	Created      string     `json:"created"`
	ActiveVotes  []wireVote `json:"active_votes"`
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.NodeURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d, body: %s", method, resp.StatusCode, string(respBody))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: %w: %d %s", method, ErrRPC, rr.Error.Code, rr.Error.Message)
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func (c *RPCClient) GetAccount(ctx context.Context, name string) (*model.Account, error) {
	var accounts []wireAccount
	if err := c.call(ctx, "condenser_api.get_accounts", []interface{}{[]string{name}}, &accounts); err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("account %s: %w", name, ErrNotFound)
	}
	wa := accounts[0]
	lastVote, err := parseTime(wa.LastVoteTime)
	if err != nil {
		return nil, fmt.Errorf("parse last_vote_time: %w", err)
	}
	return &model.Account{
		Name:         wa.Name,
		VotingPower:  wa.VotingPower,
		LastVoteTime: lastVote,
	}, nil
}

func (c *RPCClient) GetAccountHistory(ctx context.Context, name string, from int64, limit int) ([]model.HistoryEntry, error) {
	var raw [][]json.RawMessage
	if err := c.call(ctx, "condenser_api.get_account_history", []interface{}{name, from, limit}, &raw); err != nil {
		return nil, err
	}

	entries := make([]model.HistoryEntry, 0, len(raw))
	for _, pair := range raw {
		entry, ok := decodeHistoryRecord(pair)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// decodeHistoryRecord decodes one [id, op] pair. A record without a readable
// id is dropped. A record with an id but a malformed body is kept with the
// parts that decoded and no Transfer, so it is ignored and the cursor still
// moves past it.
func decodeHistoryRecord(pair []json.RawMessage) (model.HistoryEntry, bool) {
	var entry model.HistoryEntry
	if len(pair) != 2 {
		logger.Warn("skipping history record", zap.Int("elements", len(pair)))
		return entry, false
	}
	if err := json.Unmarshal(pair[0], &entry.ID); err != nil {
		logger.Warn("skipping history record with bad id", zap.ByteString("id", pair[0]), zap.Error(err))
		return entry, false
	}
	var op wireHistoryOp
	if err := json.Unmarshal(pair[1], &op); err != nil {
		logger.Warn("malformed history op", zap.Int64("id", entry.ID), zap.Error(err))
		return entry, true
	}
	ts, err := parseTime(op.Timestamp)
	if err != nil {
		logger.Warn("malformed history timestamp", zap.Int64("id", entry.ID), zap.String("timestamp", op.Timestamp))
	} else {
		entry.Timestamp = ts
	}
	if len(op.Op) != 2 {
		return entry, true
	}
	if err := json.Unmarshal(op.Op[0], &entry.Op); err != nil {
		logger.Warn("malformed history op name", zap.Int64("id", entry.ID), zap.Error(err))
		return entry, true
	}
	if entry.Op == model.OpTransfer {
		var wt wireTransfer
		if err := json.Unmarshal(op.Op[1], &wt); err != nil {
			logger.Warn("malformed transfer payload", zap.Int64("id", entry.ID), zap.Error(err))
			return entry, true
		}
		entry.Transfer = &model.Transfer{From: wt.From, To: wt.To, Amount: wt.Amount, Memo: wt.Memo}
	}
	return entry, true
}

func (c *RPCClient) GetContent(ctx context.Context, author, permlink string) (*model.Post, error) {
	var wc wireContent
	if err := c.call(ctx, "condenser_api.get_content", []string{author, permlink}, &wc); err != nil {
		return nil, err
	}
	if wc.ID <= 0 {
		return nil, fmt.Errorf("content @%s/%s: %w", author, permlink, ErrNotFound)
	}
	created, err := parseTime(wc.Created)
	if err != nil {
		return nil, fmt.Errorf("parse created: %w", err)
	}
	post := &model.Post{
		ID:           wc.ID,
		Author:       wc.Author,
		Permlink:     wc.Permlink,
		Title:        wc.Title,
		ParentAuthor: wc.ParentAuthor,
		Created:      created,
	}
	for _, v := range wc.ActiveVotes {
		vt, err := parseTime(v.Time)
		if err != nil {
			return nil, fmt.Errorf("parse vote time of %s: %w", v.Voter, err)
		}
		post.ActiveVotes = append(post.ActiveVotes, model.Vote{Voter: v.Voter, Percent: v.Percent, Time: vt})
	}
	return post, nil
}

type broadcastRequest struct {
	Key        string          `json:"key"`
	Operations [][]interface{} `json:"operations"`
}

func (c *RPCClient) broadcast(ctx context.Context, key, opName string, op interface{}) error {
	body, err := json.Marshal(broadcastRequest{
		Key:        key,
		Operations: [][]interface{}{{opName, op}},
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", opName, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SignerURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", opName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("broadcast %s: status %d, body: %s", opName, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *RPCClient) Vote(ctx context.Context, voter, author, permlink string, weight int) error {
	return c.broadcast(ctx, c.PostingKey, "vote", map[string]interface{}{
		"voter":    voter,
		"author":   author,
		"permlink": permlink,
		"weight":   weight,
	})
}

func (c *RPCClient) Comment(ctx context.Context, cm model.Comment) error {
	return c.broadcast(ctx, c.PostingKey, "comment", map[string]interface{}{
		"parent_author":   cm.ParentAuthor,
		"parent_permlink": cm.ParentPermlink,
		"author":          cm.Author,
		"permlink":        cm.Permlink,
		"title":           cm.Title,
		"body":            cm.Body,
		"json_metadata":   "",
	})
}

func (c *RPCClient) Transfer(ctx context.Context, from, to, amount, memo string) error {
	return c.broadcast(ctx, c.ActiveKey, "transfer", map[string]interface{}{
		"from":   from,
		"to":     to,
		"amount": amount,
		"memo":   memo,
	})
}
