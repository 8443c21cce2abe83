package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"creditgw/internal/provider"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response failed")
	}
}

// writeResult always answers 200: the outcome travels in the envelope.
func writeResult(w http.ResponseWriter, res provider.Result) {
	writeJSON(w, http.StatusOK, res)
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, provider.Fail(msg))
}

// queryArgs turns the query string into an argument bag, dropping skip keys.
func queryArgs(r *http.Request, skip ...string) provider.Args {
	args := provider.Args{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			args[k] = vs[0]
		}
	}
	return args.Without(skip...)
}

// maxBodyBytes caps request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// bodyArgs decodes a JSON object body. An empty body yields an empty bag.
func bodyArgs(w http.ResponseWriter, r *http.Request) (provider.Args, error) {
	args := provider.Args{}
	if r.Body == nil {
		return args, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return args, nil
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		args = provider.Args{}
	}
	return args, nil
}
