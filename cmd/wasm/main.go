//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/anchorageoss/cip8-walletauth/api"
	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/verify"
	"github.com/anchorageoss/cip8-walletauth/wasm"
)

// inspector runs signature checks without challenges or sessions
var inspector = verify.NewService(nil, cip8.NewVerifier(), nil)

func main() {
	c := make(chan struct{})

	js.Global().Set("cip8Verify", js.FuncOf(verifyWrapper))
	js.Global().Set("cip8Connect", js.FuncOf(connectWrapper))

	println("cip8-walletauth WASM loaded")

	<-c
}

// verifyWrapper checks a signData result locally:
// cip8Verify(address, hash, signature, key) -> JSON verification
func verifyWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(errorJSON("expected 4 arguments: address, hash, signature, key"))
	}

	payload := cip8.SignedConnectionPayload{
		Address:   args[0].String(),
		Hash:      args[1].String(),
		Signature: args[2].String(),
		Key:       args[3].String(),
	}

	v := inspector.Inspect(payload)

	out, err := json.Marshal(verify.NewFormatter().FormatVerificationJSON(v))
	if err != nil {
		return js.ValueOf(errorJSON(err.Error()))
	}
	return js.ValueOf(string(out))
}

// connectWrapper posts a signed payload to an auth server:
// cip8Connect(host, payloadJSON) -> Promise<session JSON>
func connectWrapper(this js.Value, args []js.Value) interface{} {
	// Copy the arguments before the promise callback shadows them
	callArgs := make([]string, len(args))
	for i, a := range args {
		callArgs[i] = a.String()
	}

	handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) interface{} {
		resolve := promiseArgs[0]
		reject := promiseArgs[1]

		go func() {
			defer func() {
				if r := recover(); r != nil {
					reject.Invoke(js.ValueOf(fmt.Sprintf("connect failed: %v", r)))
				}
			}()

			if len(callArgs) < 2 {
				reject.Invoke(js.ValueOf("expected 2 arguments: host, payloadJSON"))
				return
			}

			result, err := connect(callArgs[0], callArgs[1])
			if err != nil {
				reject.Invoke(js.ValueOf(err.Error()))
				return
			}
			resolve.Invoke(js.ValueOf(result))
		}()

		return nil
	})

	return js.Global().Get("Promise").New(handler)
}

func connect(host, payloadJSON string) (string, error) {
	var req api.ConnectRequest
	if err := json.Unmarshal([]byte(payloadJSON), &req); err != nil {
		return "", fmt.Errorf("invalid payload JSON: %w", err)
	}

	client := api.NewClient(host, wasm.NewFetchClient())
	resp, err := client.Connect(context.Background(), &req)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func errorJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}
