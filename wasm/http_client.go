//go:build js && wasm

// Package wasm adapts the auth API client to the browser.
package wasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall/js"

	"github.com/anchorageoss/cip8-walletauth/api"
)

var _ api.HTTPClient = (*FetchClient)(nil)

// FetchClient sends auth API calls through window.fetch. Cancelling the
// request context aborts the fetch.
type FetchClient struct{}

// NewFetchClient creates a fetch-backed client
func NewFetchClient() *FetchClient {
	return &FetchClient{}
}

// Do sends req with fetch and buffers the whole response body
func (c *FetchClient) Do(req *http.Request) (*http.Response, error) {
	init, err := fetchInit(req)
	if err != nil {
		return nil, err
	}

	abort := js.Global().Get("AbortController").New()
	init.Set("signal", abort.Get("signal"))
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-req.Context().Done():
			abort.Call("abort")
		case <-stop:
		}
	}()

	resp, err := settle(js.Global().Call("fetch", req.URL.String(), init))
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch %s: %w", req.URL.Path, err)
	}

	buf, err := settle(resp.Call("arrayBuffer"))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}
	body := make([]byte, buf.Get("byteLength").Int())
	js.CopyBytesToGo(body, js.Global().Get("Uint8Array").New(buf))

	status := resp.Get("status").Int()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, resp.Get("statusText").String()),
		StatusCode:    status,
		Header:        responseHeader(resp.Get("headers")),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// fetchInit builds the RequestInit object for req. Only the first value of
// each header is sent; the API never repeats one.
func fetchInit(req *http.Request) (js.Value, error) {
	init := js.Global().Get("Object").New()
	init.Set("method", req.Method)

	header := js.Global().Get("Object").New()
	for name, values := range req.Header {
		if len(values) > 0 {
			header.Set(name, values[0])
		}
	}
	init.Set("headers", header)

	if req.Body == nil {
		return init, nil
	}
	defer req.Body.Close()
	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return js.Value{}, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(payload) > 0 {
		arr := js.Global().Get("Uint8Array").New(len(payload))
		js.CopyBytesToJS(arr, payload)
		init.Set("body", arr)
	}
	return init, nil
}

func responseHeader(headers js.Value) http.Header {
	out := make(http.Header)
	each := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		// (value, name)
		out.Add(args[1].String(), args[0].String())
		return nil
	})
	defer each.Release()
	headers.Call("forEach", each)
	return out
}

// settle blocks the calling goroutine until p resolves or rejects
func settle(p js.Value) (js.Value, error) {
	type outcome struct {
		val js.Value
		err error
	}
	ch := make(chan outcome, 1)

	resolved := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		var v js.Value
		if len(args) > 0 {
			v = args[0]
		}
		ch <- outcome{val: v}
		return nil
	})
	defer resolved.Release()

	rejected := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		reason := "promise rejected"
		if len(args) > 0 && args[0].Truthy() {
			reason = args[0].Call("toString").String()
		}
		ch <- outcome{err: errors.New(reason)}
		return nil
	})
	defer rejected.Release()

	p.Call("then", resolved, rejected)
	o := <-ch
	return o.val, o.err
}
