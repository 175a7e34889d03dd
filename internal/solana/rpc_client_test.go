package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func parsedTransactionResult(accountKeys interface{}) map[string]interface{} {
	return map[string]interface{}{
		"slot":      int64(123456),
		"blockTime": int64(1700000000),
		"meta": map[string]interface{}{
			"err":          nil,
			"fee":          5000,
			"preBalances":  []uint64{10_000_000_000, 2039280},
			"postBalances": []uint64{7_999_995_000, 2039280},
			"preTokenBalances": []map[string]interface{}{
				{
					"accountIndex": 1,
					"mint":         "tokenmint",
					"owner":        "buyer",
					"uiTokenAmount": map[string]interface{}{
						"amount":         "0",
						"decimals":       6,
						"uiAmount":       nil,
						"uiAmountString": "0",
					},
				},
			},
			"postTokenBalances": []map[string]interface{}{
				{
					"accountIndex": 1,
					"mint":         "tokenmint",
					"owner":        "buyer",
					"uiTokenAmount": map[string]interface{}{
						"amount":         "1500000000",
						"decimals":       6,
						"uiAmount":       1500.0,
						"uiAmountString": "1500",
					},
				},
			},
			"innerInstructions": []map[string]interface{}{
				{
					"index": 0,
					"instructions": []map[string]interface{}{
						{"programId": "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"},
					},
				},
			},
			"logMessages": []string{"Program log: Hello", "Program log: World"},
		},
		"transaction": map[string]interface{}{
			"message": map[string]interface{}{
				"accountKeys": accountKeys,
				"instructions": []map[string]interface{}{
					{"programId": "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"},
				},
			},
		},
	}
}

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(req.Params))
		} else {
			cfg, _ := req.Params[1].(map[string]interface{})
			if cfg["encoding"] != "jsonParsed" {
				t.Errorf("expected jsonParsed encoding, got %v", cfg["encoding"])
			}
			if cfg["commitment"] != CommitmentConfirmed {
				t.Errorf("expected confirmed commitment, got %v", cfg["commitment"])
			}
			if cfg["maxSupportedTransactionVersion"] != float64(0) {
				t.Errorf("expected maxSupportedTransactionVersion 0, got %v", cfg["maxSupportedTransactionVersion"])
			}
		}

		keys := []map[string]interface{}{
			{"pubkey": "buyer", "signer": true, "writable": true},
			{"pubkey": "tokenaccount", "signer": false, "writable": true},
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  parsedTransactionResult(keys),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Signature != "testsig123" {
		t.Errorf("expected signature testsig123, got %s", tx.Signature)
	}
	if tx.Slot != 123456 {
		t.Errorf("expected slot 123456, got %d", tx.Slot)
	}
	if tx.BlockTime == nil || *tx.BlockTime != 1700000000 {
		t.Errorf("expected blockTime 1700000000, got %v", tx.BlockTime)
	}

	if tx.Meta == nil {
		t.Fatal("expected meta, got nil")
	}
	if len(tx.Meta.PreBalances) != 2 || tx.Meta.PreBalances[0] != 10_000_000_000 {
		t.Errorf("unexpected preBalances %v", tx.Meta.PreBalances)
	}
	if len(tx.Meta.PostTokenBalances) != 1 {
		t.Fatalf("expected 1 post token balance, got %d", len(tx.Meta.PostTokenBalances))
	}
	post := tx.Meta.PostTokenBalances[0]
	if post.Owner != "buyer" || post.Mint != "tokenmint" {
		t.Errorf("unexpected post token balance %+v", post)
	}
	if post.UITokenAmount.UIAmountString != "1500" {
		t.Errorf("expected uiAmountString 1500, got %s", post.UITokenAmount.UIAmountString)
	}
	if tx.Meta.PreTokenBalances[0].UITokenAmount.UIAmount != nil {
		t.Error("expected nil uiAmount for zero pre balance")
	}
	if len(tx.Meta.InnerInstructions) != 1 || len(tx.Meta.InnerInstructions[0].Instructions) != 1 {
		t.Fatalf("unexpected inner instructions %+v", tx.Meta.InnerInstructions)
	}
	if got := tx.Meta.InnerInstructions[0].Instructions[0].ProgramID; got != "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8" {
		t.Errorf("unexpected inner program id %s", got)
	}
	if len(tx.Meta.LogMessages) != 2 {
		t.Errorf("expected 2 log messages, got %d", len(tx.Meta.LogMessages))
	}

	if tx.Message == nil {
		t.Fatal("expected message, got nil")
	}
	if len(tx.Message.AccountKeys) != 2 || tx.Message.AccountKeys[0] != "buyer" {
		t.Errorf("unexpected account keys %v", tx.Message.AccountKeys)
	}
	if len(tx.Message.Instructions) != 1 || tx.Message.Instructions[0].ProgramID != "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4" {
		t.Errorf("unexpected instructions %+v", tx.Message.Instructions)
	}
}

func TestHTTPClient_GetTransaction_StringAccountKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  parsedTransactionResult([]string{"addr1", "addr2", "addr3"}),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	tx, err := client.GetTransaction(context.Background(), "testsig")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if len(tx.Message.AccountKeys) != 3 {
		t.Fatalf("expected 3 account keys, got %d", len(tx.Message.AccountKeys))
	}
	if tx.Message.AccountKeys[2] != "addr3" {
		t.Errorf("expected addr3, got %s", tx.Message.AccountKeys[2])
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getSignaturesForAddress" {
			t.Errorf("expected method getSignaturesForAddress, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(req.Params))
		} else {
			if req.Params[0] != "pairaddr" {
				t.Errorf("expected address pairaddr, got %v", req.Params[0])
			}
			cfg, _ := req.Params[1].(map[string]interface{})
			if cfg["limit"] != float64(20) {
				t.Errorf("expected limit 20, got %v", cfg["limit"])
			}
			if cfg["before"] != "cursor" {
				t.Errorf("expected before cursor, got %v", cfg["before"])
			}
			if cfg["commitment"] != CommitmentConfirmed {
				t.Errorf("expected confirmed commitment, got %v", cfg["commitment"])
			}
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{"signature": "sig1", "slot": 100, "blockTime": 1700000000, "err": nil},
				{"signature": "sig2", "slot": 99, "blockTime": nil, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	sigs, err := client.GetSignaturesForAddress(ctx, "pairaddr", &SignaturesOpts{Before: "cursor", Limit: 20})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].Signature != "sig1" || sigs[0].Slot != 100 {
		t.Errorf("unexpected first signature %+v", sigs[0])
	}
	if sigs[1].BlockTime != nil {
		t.Errorf("expected nil blockTime, got %v", *sigs[1].BlockTime)
	}
	if sigs[1].Err == nil {
		t.Error("expected err on failed signature")
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  []map[string]interface{}{{"signature": "sig1", "slot": 1}},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)
	ctx := context.Background()

	sigs, err := client.GetSignaturesForAddress(ctx, "addr", nil)
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 1 {
		t.Errorf("expected 1 signature, got %d", len(sigs))
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32600,
				"message": "Invalid Request",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	_, err := client.GetTransaction(ctx, "sig")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	rpcErr, ok := err.(*rpcError)
	if !ok {
		t.Fatalf("expected rpcError, got %T", err)
	}

	if rpcErr.Code != -32600 {
		t.Errorf("expected code -32600, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_CallObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var methods []string
	client := NewHTTPClient(server.URL, WithCallObserver(func(method string, _ time.Duration, err error) {
		if err != nil {
			t.Errorf("unexpected observed error: %v", err)
		}
		methods = append(methods, method)
	}))

	client.GetTransaction(context.Background(), "sig")
	client.GetSignaturesForAddress(context.Background(), "addr", nil)

	if len(methods) != 2 || methods[0] != "getTransaction" || methods[1] != "getSignaturesForAddress" {
		t.Errorf("unexpected observed methods %v", methods)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetTransaction(ctx, "sig")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
