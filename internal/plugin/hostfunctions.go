package plugin

import (
	"context"
	"encoding/json"
	"time"

	extism "github.com/extism/go-sdk"
)

// hostFunctions builds the two host capabilities a plugin sandbox is given:
// storage (namespaced KV) and http (allow-listed GET/POST). No other host
// function is registered, so plugin code cannot reach the filesystem or an
// arbitrary network destination.
func (r *Runtime) hostFunctions(desc Descriptor) []extism.HostFunction {
	storage := NewStorage(r.redis, desc.ID)
	httpClient := NewHTTPClient(desc.Whitelist, 10*time.Second)

	storageGet := extism.NewHostFunctionWithStack(
		"host_storage_get",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			key, err := p.ReadString(stack[0])
			if err != nil {
				stack[0] = 0
				return
			}
			value, ok, err := storage.Get(ctx, key)
			if err != nil {
				stack[0] = 0
				return
			}
			out, _ := json.Marshal(map[string]any{"value": value, "ok": ok})
			offset, err := p.WriteBytes(out)
			if err != nil {
				stack[0] = 0
				return
			}
			stack[0] = offset
		},
		[]extism.ValueType{extism.ValueTypePTR},
		[]extism.ValueType{extism.ValueTypePTR},
	)

	storageSet := extism.NewHostFunctionWithStack(
		"host_storage_set",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			raw, err := p.ReadBytes(stack[0])
			if err != nil {
				stack[0] = 0
				return
			}
			var req struct {
				Key     string `json:"key"`
				Value   string `json:"value"`
				TTLSecs int64  `json:"ttl_secs"`
			}
			if err := json.Unmarshal(raw, &req); err != nil {
				stack[0] = 0
				return
			}
			ttl := time.Duration(req.TTLSecs) * time.Second
			if err := storage.Set(ctx, req.Key, req.Value, ttl); err != nil {
				stack[0] = 0
				return
			}
			stack[0] = 1
		},
		[]extism.ValueType{extism.ValueTypePTR},
		[]extism.ValueType{extism.ValueTypeI64},
	)

	httpRequest := extism.NewHostFunctionWithStack(
		"host_http_request",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			raw, err := p.ReadBytes(stack[0])
			if err != nil {
				stack[0] = 0
				return
			}
			var req struct {
				Method string `json:"method"`
				URL    string `json:"url"`
				Body   string `json:"body"`
			}
			if err := json.Unmarshal(raw, &req); err != nil {
				stack[0] = 0
				return
			}

			var resp Response
			var callErr error
			switch req.Method {
			case "GET":
				resp, callErr = httpClient.Get(ctx, req.URL)
			case "POST":
				resp, callErr = httpClient.Post(ctx, req.URL, req.Body)
			default:
				callErr = &ErrNotAllowed{URL: req.URL, Method: req.Method}
			}

			var out []byte
			if callErr != nil {
				out, _ = json.Marshal(map[string]any{"error": callErr.Error()})
			} else {
				out, _ = json.Marshal(resp)
			}

			offset, err := p.WriteBytes(out)
			if err != nil {
				stack[0] = 0
				return
			}
			stack[0] = offset
		},
		[]extism.ValueType{extism.ValueTypePTR},
		[]extism.ValueType{extism.ValueTypePTR},
	)

	return []extism.HostFunction{storageGet, storageSet, httpRequest}
}
